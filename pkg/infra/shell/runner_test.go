package shell_test

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/podrelease/pkg/domain/model"
	"github.com/m-mizutani/podrelease/pkg/domain/types"
	"github.com/m-mizutani/podrelease/pkg/infra/shell"
)

func TestRunner_Run(t *testing.T) {
	t.Run("streams output and passes env", func(t *testing.T) {
		var out bytes.Buffer
		runner := shell.New(shell.WithOutput(&out))

		cmd := &model.Command{
			Name: "sh",
			Args: []string{"-c", `echo "building $VERSION"; printf partial`},
			Env:  []string{"VERSION=5.4.1"},
		}
		gt.NoError(t, runner.Run(context.Background(), cmd))
		gt.Equal(t, out.String(), "building 5.4.1\npartial\n")
	})

	t.Run("runs in the given directory", func(t *testing.T) {
		var out bytes.Buffer
		runner := shell.New(shell.WithOutput(&out))
		dir := t.TempDir()

		cmd := &model.Command{Name: "pwd", Dir: dir}
		gt.NoError(t, runner.Run(context.Background(), cmd))
		gt.String(t, out.String()).Contains(dir)
	})

	t.Run("non-zero exit is an error", func(t *testing.T) {
		runner := shell.New(shell.WithOutput(&bytes.Buffer{}))

		err := runner.Run(context.Background(), &model.Command{Name: "sh", Args: []string{"-c", "exit 3"}})
		gt.Error(t, err)
		gt.True(t, errors.Is(err, types.ErrCommandFailed))
		gt.String(t, err.Error()).Contains("exit 3")
	})

	t.Run("missing executable is an error", func(t *testing.T) {
		runner := shell.New(shell.WithOutput(&bytes.Buffer{}))

		err := runner.Run(context.Background(), &model.Command{Name: "podrelease-no-such-binary"})
		gt.True(t, errors.Is(err, types.ErrCommandFailed))
	})
}

func TestRunner_Output(t *testing.T) {
	runner := shell.New(shell.WithOutput(&bytes.Buffer{}))

	out, err := runner.Output(context.Background(), &model.Command{Name: "sh", Args: []string{"-c", "echo '  hello  '; echo noise >&2"}})
	gt.NoError(t, err)
	gt.Equal(t, out, "hello")
}

func TestRunner_LookPath(t *testing.T) {
	runner := shell.New()

	path, err := runner.LookPath("sh")
	gt.NoError(t, err)
	gt.Value(t, path).NotEqual("")

	_, err = runner.LookPath("podrelease-no-such-binary")
	gt.True(t, errors.Is(err, types.ErrToolNotFound))
	gt.String(t, err.Error()).Contains("podrelease-no-such-binary")
}
