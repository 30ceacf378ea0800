// Package taskqueue provides the in-process work queue that decouples slow
// persistence from request latency. Producers enqueue deferred tasks without
// blocking; a single long-running worker drains them in strict FIFO order, so
// two tasks enqueued for the same user always execute in enqueue order.
package taskqueue

import (
	"context"
	"sync"
	"time"

	"github.com/temporalwh/authcore/internal/logging"
)

// Task is one deferred unit of work. It must honor ctx cancellation at I/O
// boundaries. A returned error is logged and dropped; the producer has
// already answered its caller.
type Task func(ctx context.Context) error

// Queue is an unbounded multi-producer/single-consumer task queue.
type Queue struct {
	logger      logging.Logger
	gracePeriod time.Duration

	mu      sync.Mutex
	pending []Task

	wake chan struct{}
	done chan struct{}
}

// New constructs a Queue. gracePeriod bounds how long the worker keeps
// draining pending tasks after shutdown begins.
func New(logger logging.Logger, gracePeriod time.Duration) *Queue {
	return &Queue{
		logger:      logger.With("module", "taskqueue"),
		gracePeriod: gracePeriod,
		wake:        make(chan struct{}, 1),
		done:        make(chan struct{}),
	}
}

// Enqueue adds a task to the queue. It never blocks and never fails; the
// queue is unbounded by design so user-facing calls never wait on storage I/O.
func (q *Queue) Enqueue(task Task) {
	if task == nil {
		return
	}

	q.mu.Lock()
	q.pending = append(q.pending, task)
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
}

// Len returns the number of tasks waiting to run.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// Run executes tasks until ctx is cancelled, then drains whatever is still
// pending under the grace period and returns. Exactly one Run loop may be
// active per Queue.
func (q *Queue) Run(ctx context.Context) {
	defer close(q.done)

	for {
		// once cancelled, everything still pending belongs to drain and its
		// grace context, not the dead run context
		select {
		case <-ctx.Done():
			q.drain()
			return
		default:
		}

		if task, ok := q.next(); ok {
			q.execute(ctx, task)
			continue
		}

		select {
		case <-ctx.Done():
			q.drain()
			return
		case <-q.wake:
		}
	}
}

// Wait blocks until the Run loop has exited.
func (q *Queue) Wait() {
	<-q.done
}

func (q *Queue) next() (Task, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.pending) == 0 {
		return nil, false
	}
	task := q.pending[0]
	q.pending = q.pending[1:]
	return task, true
}

func (q *Queue) drain() {
	ctx, cancel := context.WithTimeout(context.Background(), q.gracePeriod)
	defer cancel()

	for {
		task, ok := q.next()
		if !ok {
			return
		}
		if ctx.Err() != nil {
			q.logger.Warn(ctx, "grace period elapsed, abandoning pending tasks", "remaining", q.Len()+1)
			return
		}
		q.execute(ctx, task)
	}
}

func (q *Queue) execute(ctx context.Context, task Task) {
	defer func() {
		if p := recover(); p != nil {
			q.logger.Error(ctx, "background task panicked", "panic", p)
		}
	}()

	if err := task(ctx); err != nil {
		q.logger.Error(ctx, "background task failed", "error", err.Error())
	}
}
