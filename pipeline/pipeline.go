// Package pipeline connects a group of producer workers to a group of
// consumer workers through a shared in-memory buffer, with end-of-input and
// error propagation handled by a single Control shared by every worker.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/go-crew/crew/pool"
)

var (
	// ErrAlreadyRun is returned when Run is called twice. A Runner drives
	// its worker pools exactly once.
	ErrAlreadyRun = errors.New("pipeline already run")

	// ErrNoExecutor is returned by Run when the producer or consumer
	// callback was never set.
	ErrNoExecutor = errors.New("pipeline needs both a producer and a consumer")
)

// ProduceFunc generates one item per call. ok reports whether item is valid:
// a round that only signals EOF returns ok=false so nothing is buffered. A
// non-nil err fails the pipeline.
type ProduceFunc[T any] func(ctx context.Context, ctl *Control) (item T, ok bool, err error)

// ConsumeFunc handles one item. A non-nil err fails the pipeline.
type ConsumeFunc[T any] func(ctx context.Context, item T, ctl *Control) error

// Runner drives N producer workers and M consumer workers over a pair of
// buffers guarded by one mutex. Producers append to the intake buffer;
// consumers move the intake buffer into their working buffer and pop items
// off its front, preserving arrival order per batch.
//
// The run ends when a producer signals EOF and every buffered item has been
// consumed, or as soon as any worker fails. Exactly one error is kept, the
// first one recorded, and Run returns it.
//
//	r, err := pipeline.New[string]("index", 2, 4)
//	if err != nil {
//		return err
//	}
//	r.SetInputExecutor(readDocs)
//	r.SetOutputExecutor(indexDoc)
//	return r.RunTimeout(ctx, time.Minute)
type Runner[T any] struct {
	name string
	conf *settings
	log  *zap.Logger

	producers *pool.TaskPool
	consumers *pool.TaskPool
	ctl       *Control

	produce ProduceFunc[T]
	consume ConsumeFunc[T]

	mu              sync.Mutex
	intake          []T
	working         []T
	activeProducers int

	started atomic.Bool
	stopped atomic.Bool
}

// New creates a Runner with producerCount producer workers and consumerCount
// consumer workers. Both counts must be at least 1. The worker pools are
// created up front and torn down together when Run returns.
func New[T any](name string, producerCount, consumerCount int, opts ...Option) (*Runner[T], error) {
	if name == "" {
		name = "pipeline"
	}
	conf := defaultSettings()
	for _, opt := range opts {
		opt(conf)
	}

	r := &Runner[T]{
		name: name,
		conf: conf,
		log:  conf.logger,
		ctl:  &Control{},
	}

	poolOpts := []pool.Option{
		pool.WithLogger(conf.logger),
		pool.WithMetrics(conf.metrics),
	}
	producers, err := pool.New(name+"-in", producerCount, poolOpts...)
	if err != nil {
		return nil, fmt.Errorf("producer pool: %w", err)
	}
	consumers, err := pool.New(name+"-out", consumerCount, poolOpts...)
	if err != nil {
		return nil, fmt.Errorf("consumer pool: %w", err)
	}

	for range producerCount {
		producers.AddTask(r.produceLoop)
	}
	for range consumerCount {
		consumers.AddTask(r.consumeLoop)
	}

	r.producers = producers
	r.consumers = consumers
	return r, nil
}

// SetInputExecutor sets the producer callback. Every producer worker runs it
// in a loop until EOF is signalled or the pipeline stops. Must be called
// before Run.
func (r *Runner[T]) SetInputExecutor(fn ProduceFunc[T]) {
	r.produce = fn
}

// SetOutputExecutor sets the consumer callback. Every consumer worker runs
// it once per buffered item. Must be called before Run.
func (r *Runner[T]) SetOutputExecutor(fn ConsumeFunc[T]) {
	r.consume = fn
}

// Run starts the producer workers in the background, then drives the
// consumer workers from the calling goroutine until the pipeline drains or
// fails. The wall-clock bound set with WithTimeout applies; use RunTimeout
// to override it.
func (r *Runner[T]) Run(ctx context.Context) error {
	return r.RunTimeout(ctx, r.conf.timeout)
}

// RunTimeout is Run with an explicit wall-clock bound on the consumer side.
// When the bound elapses both worker groups are force-stopped, EOF is forced
// so every loop unwinds, and the timeout error is returned unless a worker
// error was recorded first.
func (r *Runner[T]) RunTimeout(ctx context.Context, timeout time.Duration) error {
	if r.produce == nil || r.consume == nil {
		return ErrNoExecutor
	}
	if !r.started.CompareAndSwap(false, true) {
		return ErrAlreadyRun
	}

	r.log.Debug("Pipeline starting",
		zap.String("pipeline", r.name),
		zap.Int("producers", r.producers.Workers()),
		zap.Int("consumers", r.consumers.Workers()))

	go func() {
		if err := r.producers.InvokeAll(ctx); err != nil {
			r.ctl.recordError(err)
		}
	}()

	if err := r.consumers.InvokeAllTimeout(ctx, timeout); err != nil {
		r.ctl.recordError(err)
	}

	if err := r.ctl.Err(); err != nil {
		r.forceStop()
		r.log.Warn("Pipeline failed",
			zap.String("pipeline", r.name),
			zap.Error(err))
		return err
	}

	r.producers.Shutdown()
	r.consumers.Shutdown()
	r.log.Debug("Pipeline finished", zap.String("pipeline", r.name))
	return nil
}

// Name returns the pipeline name.
func (r *Runner[T]) Name() string { return r.name }

// Control returns the shared coordination surface, usable for polling EOF
// and the recorded error from outside the worker callbacks.
func (r *Runner[T]) Control() *Control { return r.ctl }

// Buffered returns the number of produced items not yet handed to a
// consumer.
func (r *Runner[T]) Buffered() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.intake) + len(r.working)
}

// produceLoop is the task body queued once per producer worker.
func (r *Runner[T]) produceLoop(ctx context.Context) error {
	r.mu.Lock()
	r.activeProducers++
	r.mu.Unlock()
	defer func() {
		r.mu.Lock()
		r.activeProducers--
		r.mu.Unlock()
	}()

	for r.live() && !r.ctl.EOF() {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		item, ok, err := r.produce(ctx, r.ctl)
		if err != nil {
			r.ctl.recordError(err)
			return err
		}
		if !ok {
			continue
		}
		r.mu.Lock()
		r.intake = append(r.intake, item)
		r.mu.Unlock()
	}
	return nil
}

// consumeLoop is the task body queued once per consumer worker. It keeps
// draining while input can still arrive or items remain buffered, sleeping
// the backoff interval whenever the buffers are empty.
func (r *Runner[T]) consumeLoop(ctx context.Context) error {
	for r.pending() && r.live() {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		item, ok := r.takeOne()
		if !ok {
			select {
			case <-time.After(r.conf.backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
			continue
		}
		if err := r.consume(ctx, item, r.ctl); err != nil {
			r.ctl.recordError(err)
			return err
		}
	}
	return nil
}

// takeOne moves everything from the intake buffer into the working buffer,
// then pops the front of the working buffer. Both steps happen under the one
// buffer mutex, so an item is visible in exactly one place at a time.
func (r *Runner[T]) takeOne() (T, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.intake) > 0 {
		r.working = append(r.working, r.intake...)
		r.intake = r.intake[:0]
	}
	var zero T
	if len(r.working) == 0 {
		return zero, false
	}
	item := r.working[0]
	r.working = r.working[1:]
	return item, true
}

// pending reports whether a consumer should keep going: input may still
// arrive, or buffered items remain.
func (r *Runner[T]) pending() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return !r.ctl.EOF() || r.activeProducers > 0 || len(r.intake) > 0 || len(r.working) > 0
}

// live reports whether the pipeline should keep working: no error recorded
// and no forced stop.
func (r *Runner[T]) live() bool {
	return !r.stopped.Load() && r.ctl.Err() == nil
}

// forceStop cancels both worker groups and seals the input so every loop
// unwinds promptly.
func (r *Runner[T]) forceStop() {
	r.stopped.Store(true)
	r.ctl.SetEOF()
	r.producers.ShutdownNow()
	r.consumers.ShutdownNow()
}
