package pool

import (
	"context"
	"fmt"
	"runtime"

	"github.com/google/uuid"
)

// Task is the unit of work a TaskPool executes. A task returns nil on success
// or an error describing the failure. Cancellation is cooperative: tasks that
// can block should watch ctx and return once it is done.
type Task func(ctx context.Context) error

// queuedTask pairs a task with the identity used for log correlation.
type queuedTask struct {
	id  uuid.UUID
	run Task
}

// runSafely executes one task and converts a panic into an error, so a single
// bad task cannot take down the worker that ran it.
func runSafely(ctx context.Context, t Task) (panicked bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 64<<10)
			n := runtime.Stack(buf, false)
			err = fmt.Errorf("task panicked: %v\n%s", r, buf[:n])
			panicked = true
		}
	}()
	return false, t(ctx)
}
