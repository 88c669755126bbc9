package async

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"

	"github.com/getsentry/sentry-go"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
)

var (
	ErrQueueFull   = goerr.New("async queue is full")
	ErrQueueClosed = goerr.New("async queue is closed")
)

type job struct {
	ctx     context.Context
	name    string
	handler func(ctx context.Context) error
}

// Queue executes handlers one at a time in dispatch order on a single worker goroutine
type Queue struct {
	jobs   chan job
	done   chan struct{}
	mu     sync.Mutex
	closed bool
}

// NewQueue starts a queue holding up to size pending jobs
func NewQueue(size int) *Queue {
	q := &Queue{
		jobs: make(chan job, size),
		done: make(chan struct{}),
	}
	go q.work()
	return q
}

// Dispatch enqueues handler without blocking.
//
// The handler receives a new background context carrying the logger of ctx,
// so cancellation of ctx (e.g. the end of an HTTP request) does not stop it.
// ErrQueueFull is returned when size jobs are already pending.
func (q *Queue) Dispatch(ctx context.Context, name string, handler func(ctx context.Context) error) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return goerr.Wrap(ErrQueueClosed, "cannot dispatch", goerr.V("job", name))
	}

	select {
	case q.jobs <- job{ctx: newBackgroundContext(ctx), name: name, handler: handler}:
		return nil
	default:
		return goerr.Wrap(ErrQueueFull, "cannot dispatch", goerr.V("job", name), goerr.V("size", cap(q.jobs)))
	}
}

// Close stops accepting jobs and waits for pending ones to finish
func (q *Queue) Close() {
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		close(q.jobs)
	}
	q.mu.Unlock()

	<-q.done
}

func (q *Queue) work() {
	defer close(q.done)
	for j := range q.jobs {
		run(j)
	}
}

func run(j job) {
	logger := ctxlog.From(j.ctx).With("job", j.name)

	defer func() {
		if r := recover(); r != nil {
			stack := debug.Stack()
			logger.Error("panic in async handler",
				"recover", r,
				"stack", string(stack))
			sentry.CaptureException(goerr.New(fmt.Sprintf("panic in async handler: %v", r), goerr.V("job", j.name)))
		}
	}()

	if err := j.handler(j.ctx); err != nil {
		logger.Error("error in async handler", "error", err)
		sentry.CaptureException(err)
	}
}

// newBackgroundContext creates a new background context preserving important values
//
// Preserved values:
//   - ctxlog logger
func newBackgroundContext(ctx context.Context) context.Context {
	newCtx := context.Background()
	newCtx = ctxlog.With(newCtx, ctxlog.From(ctx))
	return newCtx
}
