package engine

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"
)

const (
	// DefaultQueueWorkers bounds how many executions run simultaneously
	// process-wide.
	DefaultQueueWorkers = 5

	// DefaultQueueBuffer is how many accepted jobs may wait for a worker.
	DefaultQueueBuffer = 64
)

// Job is one whole-execution unit of work.
type Job func(ctx context.Context)

// Queue is a bounded-concurrency worker pool for whole-workflow
// executions. Enqueue never blocks the caller; execution is asynchronous.
type Queue struct {
	logger  *slog.Logger
	jobs    chan Job
	workers int

	mu     sync.RWMutex
	closed bool
	group  *errgroup.Group
}

// NewQueue builds a queue with the given worker count and buffer size.
// Non-positive values fall back to the defaults.
func NewQueue(logger *slog.Logger, workers, buffer int) *Queue {
	if workers < 1 {
		workers = DefaultQueueWorkers
	}

	if buffer < 1 {
		buffer = DefaultQueueBuffer
	}

	return &Queue{
		logger:  logger.With("module", "execution_queue"),
		jobs:    make(chan Job, buffer),
		workers: workers,
	}
}

// Start launches the worker pool. Workers drain the job buffer until
// Shutdown is called or ctx is cancelled.
func (q *Queue) Start(ctx context.Context) {
	group, gctx := errgroup.WithContext(ctx)

	q.mu.Lock()
	q.group = group
	q.mu.Unlock()

	for i := 0; i < q.workers; i++ {
		group.Go(func() error {
			for {
				select {
				case <-gctx.Done():
					return nil
				case job, ok := <-q.jobs:
					if !ok {
						return nil
					}

					job(gctx)
				}
			}
		})
	}

	q.logger.Info("Execution queue started", "workers", q.workers, "buffer", cap(q.jobs))
}

// Enqueue accepts a job without blocking. When the buffer is at capacity
// or the queue is shut down it returns ErrQueueFull.
func (q *Queue) Enqueue(job Job) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return ErrQueueFull
	}

	select {
	case q.jobs <- job:
		return nil
	default:
		return ErrQueueFull
	}
}

// Shutdown stops accepting jobs, lets buffered jobs finish, and waits for
// in-flight executions.
func (q *Queue) Shutdown() {
	q.mu.Lock()

	if q.closed {
		q.mu.Unlock()

		return
	}

	q.closed = true
	close(q.jobs)
	group := q.group
	q.mu.Unlock()

	if group != nil {
		_ = group.Wait()
	}

	q.logger.Info("Execution queue stopped")
}
