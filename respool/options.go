package respool

import (
	"time"

	"go.uber.org/zap"

	"github.com/go-crew/crew/pool"
)

const (
	// DefaultBorrowTimeout bounds how long a borrower waits for a resource.
	DefaultBorrowTimeout = 30 * time.Second

	// DefaultPollInterval is the sleep between borrow attempts while the
	// pool has no matching resource.
	DefaultPollInterval = time.Second
)

// Option is a functional option for configuring a Pool.
type Option func(*settings)

type settings struct {
	borrowTimeout time.Duration
	pollInterval  time.Duration
	logger        *zap.Logger
	metrics       pool.Metrics
}

func defaultSettings() *settings {
	return &settings{
		borrowTimeout: DefaultBorrowTimeout,
		pollInterval:  DefaultPollInterval,
		logger:        zap.NewNop(),
		metrics:       pool.NopMetrics{},
	}
}

// WithBorrowTimeout sets how long Borrow waits before giving up. Zero means
// a single immediate attempt. Negative values are ignored.
func WithBorrowTimeout(d time.Duration) Option {
	return func(s *settings) {
		if d >= 0 {
			s.borrowTimeout = d
		}
	}
}

// WithPollInterval sets the sleep between borrow attempts. Non-positive
// values are ignored.
func WithPollInterval(d time.Duration) Option {
	return func(s *settings) {
		if d > 0 {
			s.pollInterval = d
		}
	}
}

// WithLogger attaches a zap logger. A nil logger is ignored.
func WithLogger(logger *zap.Logger) Option {
	return func(s *settings) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics attaches a metrics sink for borrow-wait observations. A nil
// sink is ignored.
func WithMetrics(m pool.Metrics) Option {
	return func(s *settings) {
		if m != nil {
			s.metrics = m
		}
	}
}
