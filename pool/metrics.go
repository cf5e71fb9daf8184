package pool

import "time"

// Metrics receives execution events from pools. Implementations must be safe
// for concurrent use; every method may be called from multiple workers at
// once. The default is NopMetrics. A Prometheus-backed implementation lives
// in observability/prometheus.
type Metrics interface {
	// RecordTaskDuration is called once per executed task with its wall
	// time and whether it returned an error.
	RecordTaskDuration(pool string, d time.Duration, failed bool)

	// RecordTaskPanic is called when a task panics and the panic is
	// converted into an error.
	RecordTaskPanic(pool string)

	// RecordQueueDepth is called with the number of queued tasks at the
	// moment the pool is invoked.
	RecordQueueDepth(pool string, depth int)

	// RecordBorrowWait is called once per resource borrow attempt with the
	// time spent waiting and whether the wait ended in a timeout.
	RecordBorrowWait(pool string, d time.Duration, timedOut bool)
}

// NopMetrics discards every event.
type NopMetrics struct{}

func (NopMetrics) RecordTaskDuration(string, time.Duration, bool) {}
func (NopMetrics) RecordTaskPanic(string)                         {}
func (NopMetrics) RecordQueueDepth(string, int)                   {}
func (NopMetrics) RecordBorrowWait(string, time.Duration, bool)   {}
