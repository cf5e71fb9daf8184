// Package pool provides a single-shot task pool for running a fixed batch
// of work across a bounded set of workers.
//
// The primary type is TaskPool: tasks are queued with AddTask, executed once
// with InvokeAll or InvokeAllTimeout, and the pool shuts itself down when the
// call returns. FanOutRunner wraps a TaskPool to run one task definition N
// times concurrently, which is the common shape for worker loops that share
// a job source.
//
// # Basic Usage
//
//	p, err := pool.New("resize", 4)
//	if err != nil {
//		return err
//	}
//	for _, img := range images {
//		p.AddTask(func(ctx context.Context) error {
//			return resize(ctx, img)
//		})
//	}
//	err = p.InvokeAll(ctx)
//
// # Failure Policy
//
// By default the pool stops on the first task error: pending tasks are
// cancelled and InvokeAll returns the error as soon as it is observed. With
// WithStopOnFirstError(false) every task runs to completion and the first
// recorded error is returned at the end. In both modes exactly one task
// error is kept, always the first one.
//
// # Timeouts and Cancellation
//
// InvokeAllTimeout bounds the whole run by wall-clock time and returns
// *TimeoutError when the bound elapses first. Cancelling the caller's
// context aborts the wait and returns *InterruptedError. Both paths cancel
// the context handed to the tasks; tasks stop cooperatively by watching it.
//
// # Configuration Options
//
//   - WithTimeout(d): Default wall-clock bound for InvokeAll
//   - WithStopOnFirstError(b): Choose between fail-fast and fail-tolerant runs
//   - WithTerminationPoll(retries, interval): Tune the post-shutdown wait for workers
//   - WithLogger(l): Structured logging of lifecycle and task events
//   - WithMetrics(m): Execution metrics, see the Metrics interface
//   - WithRateLimit(perSecond, burst): Throttle task starts
//
// # Observability
//
// Pools log through zap and report task durations, panics and queue depth
// through the Metrics interface. A Prometheus adapter is available in
// observability/prometheus.
//
// Panic recovery is built in: a panicking task is converted into an error
// carrying the stack trace, so one bad task cannot crash its worker.
package pool
