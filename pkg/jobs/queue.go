package jobs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Task is one unit of deferred work, such as a single assessor-to-school
// assignment from a bulk request.
type Task struct {
	ID         string
	Kind       string
	Payload    any
	Attempt    int
	EnqueuedAt time.Time
}

// HandlerFunc processes a task. A non-nil error schedules a retry until the
// attempt budget runs out.
type HandlerFunc func(ctx context.Context, task Task) error

// Options tunes the worker pool. MaxAttempts counts the first run.
type Options struct {
	Workers     int
	Buffer      int
	MaxAttempts int
	Backoff     time.Duration
	Logger      *zap.Logger
}

func (o Options) withDefaults() Options {
	if o.Workers <= 0 {
		o.Workers = 1
	}
	if o.Buffer <= 0 {
		o.Buffer = o.Workers * 4
	}
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = 4
	}
	if o.Backoff <= 0 {
		o.Backoff = time.Second
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	return o
}

// Queue is an in-memory task dispatcher. Bulk assignment requests are fanned
// out onto it so one slow pair never blocks the request that submitted it;
// tasks are lost on process exit, which the per-pair idempotency absorbs.
type Queue struct {
	name    string
	handler HandlerFunc
	opts    Options

	tasks   chan Task
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	mu      sync.Mutex
	running bool
}

// NewQueue builds a queue around the handler. Nothing runs until Start.
func NewQueue(name string, handler HandlerFunc, opts Options) *Queue {
	opts = opts.withDefaults()
	return &Queue{
		name:    name,
		handler: handler,
		opts:    opts,
		tasks:   make(chan Task, opts.Buffer),
	}
}

// Start launches the workers. Calling Start twice is a no-op.
func (q *Queue) Start(ctx context.Context) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.running {
		return
	}
	q.ctx, q.cancel = context.WithCancel(ctx)
	for i := 0; i < q.opts.Workers; i++ {
		q.wg.Add(1)
		go q.run()
	}
	q.running = true
	q.opts.Logger.Info("task queue started",
		zap.String("queue", q.name), zap.Int("workers", q.opts.Workers))
}

// Stop cancels the workers and waits for them to exit.
func (q *Queue) Stop() {
	q.mu.Lock()
	if !q.running {
		q.mu.Unlock()
		return
	}
	q.cancel()
	q.mu.Unlock()
	q.wg.Wait()
	q.opts.Logger.Info("task queue stopped", zap.String("queue", q.name))
}

// Enqueue hands a task to the pool. Fails when the queue was never started
// or has been stopped.
func (q *Queue) Enqueue(task Task) error {
	q.mu.Lock()
	ctx := q.ctx
	running := q.running
	q.mu.Unlock()

	if !running {
		return fmt.Errorf("queue %s not started", q.name)
	}
	if task.EnqueuedAt.IsZero() {
		task.EnqueuedAt = time.Now().UTC()
	}

	select {
	case <-ctx.Done():
		return fmt.Errorf("queue %s stopped: %w", q.name, ctx.Err())
	case q.tasks <- task:
		return nil
	}
}

func (q *Queue) run() {
	defer q.wg.Done()
	for {
		select {
		case <-q.ctx.Done():
			return
		case task := <-q.tasks:
			if err := q.handler(q.ctx, task); err != nil {
				q.retry(task, err)
			}
		}
	}
}

func (q *Queue) retry(task Task, cause error) {
	task.Attempt++
	if task.Attempt >= q.opts.MaxAttempts {
		q.opts.Logger.Error("task dropped after final attempt",
			zap.String("queue", q.name), zap.String("task_id", task.ID),
			zap.String("kind", task.Kind), zap.Error(cause))
		return
	}
	q.opts.Logger.Warn("task failed, scheduling retry",
		zap.String("queue", q.name), zap.String("task_id", task.ID),
		zap.String("kind", task.Kind), zap.Int("attempt", task.Attempt), zap.Error(cause))

	time.AfterFunc(q.opts.Backoff, func() {
		if err := q.Enqueue(task); err != nil {
			q.opts.Logger.Error("failed to requeue task",
				zap.String("queue", q.name), zap.String("task_id", task.ID), zap.Error(err))
		}
	})
}
