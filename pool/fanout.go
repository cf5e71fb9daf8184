package pool

import (
	"context"
	"time"
)

// FanOutRunner runs one task definition N times concurrently: the task is
// queued once per worker on a private TaskPool, so every copy gets its own
// worker. It adds no coordination of its own; invocation, failure policy and
// lifecycle are exactly those of the underlying pool.
//
// Typical use is N identical loop bodies that pull work from a shared source:
//
//	r, err := pool.NewFanOut("scrapers", 8, func(ctx context.Context) error {
//		return scrapeLoop(ctx, jobs)
//	})
//	if err != nil {
//		return err
//	}
//	return r.InvokeAll(ctx)
type FanOutRunner struct {
	pool *TaskPool
}

// NewFanOut creates a FanOutRunner that will run task workerCount times on
// workerCount workers. workerCount must be at least 1 and task must not be
// nil.
func NewFanOut(name string, workerCount int, task Task, opts ...Option) (*FanOutRunner, error) {
	if task == nil {
		return nil, ErrNilTask
	}
	p, err := New(name, workerCount, opts...)
	if err != nil {
		return nil, err
	}
	for range workerCount {
		p.AddTask(task)
	}
	return &FanOutRunner{pool: p}, nil
}

// InvokeAll runs the task copies and blocks until the underlying pool
// resolves. See TaskPool.InvokeAll.
func (r *FanOutRunner) InvokeAll(ctx context.Context) error {
	return r.pool.InvokeAll(ctx)
}

// InvokeAllTimeout is InvokeAll with an explicit wall-clock bound.
func (r *FanOutRunner) InvokeAllTimeout(ctx context.Context, timeout time.Duration) error {
	return r.pool.InvokeAllTimeout(ctx, timeout)
}

// Shutdown requests a graceful stop of the underlying pool.
func (r *FanOutRunner) Shutdown() { r.pool.Shutdown() }

// ShutdownNow requests a forced stop of the underlying pool.
func (r *FanOutRunner) ShutdownNow() { r.pool.ShutdownNow() }

// Name returns the underlying pool name.
func (r *FanOutRunner) Name() string { return r.pool.Name() }

// Workers returns the number of task copies.
func (r *FanOutRunner) Workers() int { return r.pool.Workers() }

// IsStarted reports whether the run has begun.
func (r *FanOutRunner) IsStarted() bool { return r.pool.IsStarted() }

// IsFinished reports whether the run has returned.
func (r *FanOutRunner) IsFinished() bool { return r.pool.IsFinished() }

// IsShutdown reports whether a shutdown has been requested.
func (r *FanOutRunner) IsShutdown() bool { return r.pool.IsShutdown() }

// IsTerminated reports whether every worker has exited.
func (r *FanOutRunner) IsTerminated() bool { return r.pool.IsTerminated() }
