package pipeline

import (
	"time"

	"go.uber.org/zap"

	"github.com/go-crew/crew/pool"
)

// DefaultBackoff is how long an idle consumer sleeps before re-checking the
// buffers.
const DefaultBackoff = 100 * time.Millisecond

// Option is a functional option for configuring a Runner.
type Option func(*settings)

type settings struct {
	backoff time.Duration
	timeout time.Duration
	logger  *zap.Logger
	metrics pool.Metrics
}

func defaultSettings() *settings {
	return &settings{
		backoff: DefaultBackoff,
		logger:  zap.NewNop(),
		metrics: pool.NopMetrics{},
	}
}

// WithBackoff sets the idle-consumer sleep interval. Non-positive values are
// ignored.
func WithBackoff(d time.Duration) Option {
	return func(s *settings) {
		if d > 0 {
			s.backoff = d
		}
	}
}

// WithTimeout sets the default wall-clock bound used by Run. Zero or
// negative means no bound. RunTimeout overrides this per call.
func WithTimeout(d time.Duration) Option {
	return func(s *settings) {
		s.timeout = d
	}
}

// WithLogger attaches a zap logger shared by the pipeline and both of its
// worker pools. A nil logger is ignored.
func WithLogger(logger *zap.Logger) Option {
	return func(s *settings) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics attaches a metrics sink shared by both worker pools. A nil
// sink is ignored.
func WithMetrics(m pool.Metrics) Option {
	return func(s *settings) {
		if m != nil {
			s.metrics = m
		}
	}
}
