package shell

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"sync"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/podrelease/pkg/domain/interfaces"
	"github.com/m-mizutani/podrelease/pkg/domain/model"
	"github.com/m-mizutani/podrelease/pkg/domain/types"
)

// Runner executes commands on the local host
type Runner struct {
	out io.Writer
}

var _ interfaces.CommandRunner = (*Runner)(nil)

// Option is a functional option for Runner
type Option func(*Runner)

// WithOutput sets where command output is echoed. Defaults to os.Stdout.
func WithOutput(w io.Writer) Option {
	return func(r *Runner) {
		r.out = w
	}
}

// New creates a Runner
func New(opts ...Option) *Runner {
	r := &Runner{
		out: os.Stdout,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes cmd and streams stdout and stderr line by line
func (r *Runner) Run(ctx context.Context, cmd *model.Command) error {
	logger := ctxlog.From(ctx)
	logger.Info("Running command", "command", cmd.String(), "dir", cmd.Dir)

	stdout := newLineWriter(logger, r.out, "stdout")
	stderr := newLineWriter(logger, r.out, "stderr")

	c := r.command(ctx, cmd)
	c.Stdout = stdout
	c.Stderr = stderr

	err := c.Run()
	stdout.Flush()
	stderr.Flush()

	return wrapExecError(err, cmd)
}

// Output executes cmd and returns its trimmed stdout. Stderr is logged.
func (r *Runner) Output(ctx context.Context, cmd *model.Command) (string, error) {
	logger := ctxlog.From(ctx)
	logger.Debug("Running command", "command", cmd.String(), "dir", cmd.Dir)

	var buf bytes.Buffer
	stderr := newLineWriter(logger, io.Discard, "stderr")

	c := r.command(ctx, cmd)
	c.Stdout = &buf
	c.Stderr = stderr

	err := c.Run()
	stderr.Flush()
	if err := wrapExecError(err, cmd); err != nil {
		return "", err
	}

	return strings.TrimSpace(buf.String()), nil
}

// LookPath resolves name on PATH
func (r *Runner) LookPath(name string) (string, error) {
	path, err := exec.LookPath(name)
	if err != nil {
		return "", goerr.Wrap(types.ErrToolNotFound, name, goerr.V("tool", name))
	}
	return path, nil
}

func (r *Runner) command(ctx context.Context, cmd *model.Command) *exec.Cmd {
	c := exec.CommandContext(ctx, cmd.Name, cmd.Args...)
	c.Dir = cmd.Dir
	if len(cmd.Env) > 0 {
		c.Env = append(os.Environ(), cmd.Env...)
	}
	return c
}

func wrapExecError(err error, cmd *model.Command) error {
	if err == nil {
		return nil
	}

	exitCode := 1
	var exitErr *exec.ExitError
	var execErr *exec.Error
	switch {
	case errors.As(err, &exitErr):
		exitCode = exitErr.ExitCode()
	case errors.As(err, &execErr):
		exitCode = 127
	}

	return goerr.Wrap(types.ErrCommandFailed, cmd.String(),
		goerr.V("command", cmd.String()),
		goerr.V("dir", cmd.Dir),
		goerr.V("exit_code", exitCode),
		goerr.V("cause", err.Error()),
	)
}

// lineWriter echoes complete lines to out and logs each one at debug level
type lineWriter struct {
	mu     sync.Mutex
	logger *slog.Logger
	out    io.Writer
	stream string
	buf    bytes.Buffer
}

func newLineWriter(logger *slog.Logger, out io.Writer, stream string) *lineWriter {
	return &lineWriter{
		logger: logger,
		out:    out,
		stream: stream,
	}
}

func (w *lineWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.buf.Write(p)
	for {
		line, err := w.buf.ReadString('\n')
		if err != nil {
			// incomplete line, keep it for the next write
			w.buf.Reset()
			w.buf.WriteString(line)
			break
		}
		w.emit(strings.TrimRight(line, "\r\n"))
	}
	return len(p), nil
}

// Flush emits a trailing line without newline
func (w *lineWriter) Flush() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.buf.Len() > 0 {
		w.emit(w.buf.String())
		w.buf.Reset()
	}
}

func (w *lineWriter) emit(line string) {
	w.logger.Debug("command output", "stream", w.stream, "line", line)
	_, _ = io.WriteString(w.out, line+"\n")
}
