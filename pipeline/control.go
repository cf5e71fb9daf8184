package pipeline

import (
	"sync"
	"sync/atomic"
)

// Control is the coordination surface handed to producer and consumer
// callbacks. It carries the end-of-input flag and the single error slot
// shared by every worker of a pipeline.
type Control struct {
	eof atomic.Bool

	mu  sync.Mutex
	err error
}

// SetEOF signals end of input. The flag is monotonic: once set it is never
// cleared. Producers set it when their source is exhausted; a consumer may
// set it to request early termination.
func (c *Control) SetEOF() {
	c.eof.Store(true)
}

// EOF reports whether end of input has been signalled.
func (c *Control) EOF() bool {
	return c.eof.Load()
}

// Err returns the first recorded error, or nil.
func (c *Control) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// recordError claims the error slot for the first failure; later errors are
// dropped.
func (c *Control) recordError(err error) {
	if err == nil {
		return
	}
	c.mu.Lock()
	if c.err == nil {
		c.err = err
	}
	c.mu.Unlock()
}
