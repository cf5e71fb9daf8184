package pool

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrAlreadyInvoked is returned when InvokeAll is called on a pool that
	// has already been invoked. A TaskPool runs its queue exactly once.
	ErrAlreadyInvoked = errors.New("pool already invoked")

	// ErrShutdown is returned when InvokeAll is called on a pool that was
	// shut down before it ever started.
	ErrShutdown = errors.New("pool is shut down")

	// ErrInvalidWorkerCount is returned by constructors when the requested
	// worker count is zero or negative.
	ErrInvalidWorkerCount = errors.New("worker count must be at least 1")

	// ErrNilTask is returned by constructors that take a task directly.
	ErrNilTask = errors.New("task must not be nil")
)

// TimeoutError reports that the wall-clock bound given to InvokeAllTimeout
// elapsed before every queued task finished. The workers were asked to stop,
// but tasks that ignore their context may still be winding down when the
// caller sees this error.
type TimeoutError struct {
	Pool    string
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("pool %q: tasks did not complete within %v", e.Pool, e.Timeout)
}

// InterruptedError reports that the caller's context was cancelled while the
// pool was waiting for its tasks. The original cancellation cause is
// available through Unwrap, so errors.Is(err, context.Canceled) works.
type InterruptedError struct {
	Pool  string
	Cause error
}

func (e *InterruptedError) Error() string {
	return fmt.Sprintf("pool %q: wait interrupted: %v", e.Pool, e.Cause)
}

func (e *InterruptedError) Unwrap() error { return e.Cause }
