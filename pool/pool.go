package pool

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// TaskPool executes a queued collection of tasks across a fixed number of
// workers, exactly once.
//
// The lifecycle is linear: tasks are queued with AddTask, executed with a
// single call to InvokeAll or InvokeAllTimeout, and the pool is shut down
// when that call returns. A second invocation returns ErrAlreadyInvoked.
//
// The failure policy is chosen at construction. With stop-on-first-error
// (the default) the first task error cancels everything still pending and
// InvokeAll returns as soon as the failure is observed. Without it, every
// task runs to completion and the first recorded error is returned at the
// end. In both modes exactly one task error is retained: the first one.
//
// Usage:
//
//	p, err := pool.New("ingest", 4)
//	if err != nil {
//		return err
//	}
//	for _, f := range files {
//		p.AddTask(func(ctx context.Context) error {
//			return ingest(ctx, f)
//		})
//	}
//	if err := p.InvokeAllTimeout(ctx, 30*time.Second); err != nil {
//		return err
//	}
//
// All methods are safe for concurrent use.
type TaskPool struct {
	name    string
	workers int
	conf    *settings
	log     *zap.Logger

	mu       sync.Mutex
	queue    []queuedTask
	firstErr error
	started  bool
	finished bool
	cancel   context.CancelFunc

	shutdown   atomic.Bool
	terminated atomic.Bool

	// failed wakes the invoking goroutine on the first task error when the
	// pool is in stop-on-first-error mode; done closes once every worker
	// has exited.
	failed   chan struct{}
	failOnce sync.Once
	done     chan struct{}
}

// New creates a TaskPool with the given name and worker count. The name
// appears in log entries, metrics labels and error messages. workerCount
// must be at least 1.
func New(name string, workerCount int, opts ...Option) (*TaskPool, error) {
	if workerCount < 1 {
		return nil, ErrInvalidWorkerCount
	}
	if name == "" {
		name = "pool"
	}
	conf := defaultSettings()
	for _, opt := range opts {
		opt(conf)
	}
	return &TaskPool{
		name:    name,
		workers: workerCount,
		conf:    conf,
		log:     conf.logger,
		failed:  make(chan struct{}),
		done:    make(chan struct{}),
	}, nil
}

// AddTask appends a task to the queue. Tasks added before invocation are
// guaranteed to run; tasks added while the pool is already running are kept
// in the queue but will not be picked up, because the pool snapshots its
// queue when invoked. Tasks added after shutdown are dropped. AddTask panics
// if t is nil.
func (p *TaskPool) AddTask(t Task) {
	if t == nil {
		panic("pool: task must not be nil")
	}
	if p.shutdown.Load() {
		p.log.Debug("Task rejected, pool is shut down", zap.String("pool", p.name))
		return
	}
	p.mu.Lock()
	p.queue = append(p.queue, queuedTask{id: uuid.New(), run: t})
	p.mu.Unlock()
}

// InvokeAll runs every queued task and blocks until they complete, the
// failure policy ends the run early, or ctx is cancelled. The wall-clock
// bound set with WithTimeout applies; use InvokeAllTimeout to override it.
//
// The first task error is returned unchanged. Cancellation of ctx is
// reported as *InterruptedError.
func (p *TaskPool) InvokeAll(ctx context.Context) error {
	return p.InvokeAllTimeout(ctx, p.conf.timeout)
}

// InvokeAllTimeout is InvokeAll with an explicit wall-clock bound. A timeout
// of zero or less means no bound. When the bound elapses first, the workers
// are cancelled and the call returns *TimeoutError.
func (p *TaskPool) InvokeAllTimeout(ctx context.Context, timeout time.Duration) error {
	if ctx == nil {
		ctx = context.Background()
	}

	p.mu.Lock()
	if p.started {
		p.mu.Unlock()
		return ErrAlreadyInvoked
	}
	if p.shutdown.Load() {
		p.mu.Unlock()
		return ErrShutdown
	}
	p.started = true
	tasks := make([]queuedTask, len(p.queue))
	copy(tasks, p.queue)
	runCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.mu.Unlock()
	defer cancel()

	p.conf.metrics.RecordQueueDepth(p.name, len(tasks))
	p.log.Debug("Invoking queued tasks",
		zap.String("pool", p.name),
		zap.Int("tasks", len(tasks)),
		zap.Int("workers", p.workers))

	taskCh := make(chan queuedTask)
	g, workerCtx := errgroup.WithContext(runCtx)
	for range p.workers {
		g.Go(func() error {
			return p.worker(workerCtx, taskCh)
		})
	}
	g.Go(func() error {
		return p.feed(workerCtx, taskCh, tasks)
	})

	go func() {
		_ = g.Wait()
		p.terminated.Store(true)
		close(p.done)
	}()

	var timeoutCh <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		timeoutCh = timer.C
	}

	var waitErr error
	select {
	case <-p.done:
	case <-p.failed:
		p.ShutdownNow()
	case <-timeoutCh:
		waitErr = &TimeoutError{Pool: p.name, Timeout: timeout}
		p.log.Warn("Invocation timed out",
			zap.String("pool", p.name),
			zap.Duration("timeout", timeout))
		p.ShutdownNow()
	case <-ctx.Done():
		waitErr = &InterruptedError{Pool: p.name, Cause: ctx.Err()}
		p.ShutdownNow()
	}

	p.Shutdown()
	if !p.awaitTermination() {
		p.log.Warn("Workers still running after termination wait",
			zap.String("pool", p.name),
			zap.Int("retries", p.conf.terminationRetries),
			zap.Duration("interval", p.conf.terminationSleep))
	}

	p.mu.Lock()
	p.finished = true
	firstErr := p.firstErr
	p.mu.Unlock()

	if waitErr != nil {
		var interrupted *InterruptedError
		if errors.As(waitErr, &interrupted) {
			return waitErr
		}
		// A task failure recorded before the timeout still wins.
		if firstErr != nil {
			return firstErr
		}
		return waitErr
	}
	return firstErr
}

// Shutdown requests a graceful stop: no new tasks are accepted, tasks that
// are already running continue. Safe to call at any point, from any
// goroutine, any number of times.
func (p *TaskPool) Shutdown() {
	if p.shutdown.CompareAndSwap(false, true) {
		p.log.Debug("Shutdown requested", zap.String("pool", p.name))
	}
}

// ShutdownNow requests a forced stop: in addition to Shutdown, the context
// passed to running tasks is cancelled. Tasks that ignore their context keep
// running; cancellation is cooperative.
func (p *TaskPool) ShutdownNow() {
	p.Shutdown()
	p.mu.Lock()
	cancel := p.cancel
	p.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// Name returns the pool name.
func (p *TaskPool) Name() string { return p.name }

// Workers returns the configured worker count.
func (p *TaskPool) Workers() int { return p.workers }

// Len returns the number of queued tasks.
func (p *TaskPool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.queue)
}

// IsStarted reports whether InvokeAll has begun.
func (p *TaskPool) IsStarted() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.started
}

// IsFinished reports whether InvokeAll has returned.
func (p *TaskPool) IsFinished() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.finished
}

// IsShutdown reports whether a shutdown has been requested. Once true it
// stays true.
func (p *TaskPool) IsShutdown() bool { return p.shutdown.Load() }

// IsTerminated reports whether every worker has exited. Once true it stays
// true.
func (p *TaskPool) IsTerminated() bool { return p.terminated.Load() }

// worker pulls tasks until the channel drains or the context is cancelled.
// In stop-on-first-error mode a task failure is returned, which cancels the
// sibling workers through the errgroup.
func (p *TaskPool) worker(ctx context.Context, tasks <-chan queuedTask) error {
	for {
		select {
		case qt, ok := <-tasks:
			if !ok {
				return nil
			}
			if p.conf.limiter != nil {
				if err := p.conf.limiter.Wait(ctx); err != nil {
					return err
				}
			}
			if err := p.runOne(ctx, qt); err != nil {
				return err
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// feed streams the snapshot into the task channel and closes it, so idle
// workers exit once the queue drains.
func (p *TaskPool) feed(ctx context.Context, out chan<- queuedTask, tasks []queuedTask) error {
	defer close(out)
	for _, qt := range tasks {
		select {
		case out <- qt:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func (p *TaskPool) runOne(ctx context.Context, qt queuedTask) error {
	p.log.Debug("Task started",
		zap.String("pool", p.name),
		zap.String("task", qt.id.String()))

	start := time.Now()
	panicked, err := runSafely(ctx, qt.run)
	took := time.Since(start)
	p.conf.metrics.RecordTaskDuration(p.name, took, err != nil)

	if panicked {
		p.conf.metrics.RecordTaskPanic(p.name)
		p.log.Error("Task panicked",
			zap.String("pool", p.name),
			zap.String("task", qt.id.String()),
			zap.Error(err))
	}
	if err != nil {
		p.recordError(ctx, err)
		if p.conf.stopOnFirstError {
			return err
		}
		p.log.Debug("Task failed, continuing",
			zap.String("pool", p.name),
			zap.String("task", qt.id.String()),
			zap.Error(err))
		return nil
	}

	p.log.Debug("Task finished",
		zap.String("pool", p.name),
		zap.String("task", qt.id.String()),
		zap.Duration("took", took))
	return nil
}

// recordError claims the single error slot for the first task failure.
// After the run context is cancelled, a task returning that cancellation is
// wind-down noise and never claims the slot. A task failure that merely
// wraps a context sentinel from its own internal calls is a real failure.
func (p *TaskPool) recordError(ctx context.Context, err error) {
	if cause := ctx.Err(); cause != nil && errors.Is(err, cause) {
		return
	}
	p.mu.Lock()
	claimed := p.firstErr == nil
	if claimed {
		p.firstErr = err
	}
	p.mu.Unlock()
	if claimed && p.conf.stopOnFirstError {
		p.failOnce.Do(func() { close(p.failed) })
	}
}

// awaitTermination waits for the workers to exit after a shutdown request.
// The wait is attempt-bounded: up to terminationRetries checks separated by
// terminationSleep. It reports false if the retries ran out first; the caller
// proceeds anyway and any straggling tasks are left to their cancelled
// context.
func (p *TaskPool) awaitTermination() bool {
	for range p.conf.terminationRetries {
		select {
		case <-p.done:
			return true
		case <-time.After(p.conf.terminationSleep):
		}
	}
	select {
	case <-p.done:
		return true
	default:
		return false
	}
}
