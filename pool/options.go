package pool

import (
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	// DefaultTerminationRetries is how many times InvokeAll re-checks for
	// worker exit after requesting shutdown.
	DefaultTerminationRetries = 10

	// DefaultTerminationInterval is the sleep between those checks.
	DefaultTerminationInterval = 100 * time.Millisecond
)

// Option is a functional option for configuring a TaskPool.
type Option func(*settings)

type settings struct {
	timeout            time.Duration
	stopOnFirstError   bool
	terminationRetries int
	terminationSleep   time.Duration
	logger             *zap.Logger
	metrics            Metrics
	limiter            *rate.Limiter
}

func defaultSettings() *settings {
	return &settings{
		stopOnFirstError:   true,
		terminationRetries: DefaultTerminationRetries,
		terminationSleep:   DefaultTerminationInterval,
		logger:             zap.NewNop(),
		metrics:            NopMetrics{},
	}
}

// WithTimeout sets the default wall-clock bound used by InvokeAll. Zero or
// negative means no bound. InvokeAllTimeout overrides this per call.
func WithTimeout(d time.Duration) Option {
	return func(s *settings) {
		s.timeout = d
	}
}

// WithStopOnFirstError controls the failure policy. When true (the default)
// the first task error cancels the remaining tasks and InvokeAll returns as
// soon as the failure is observed. When false every queued task runs to
// completion and the first error is reported only at the end.
func WithStopOnFirstError(stop bool) Option {
	return func(s *settings) {
		s.stopOnFirstError = stop
	}
}

// WithTerminationPoll tunes the post-shutdown wait for workers to exit: the
// pool checks up to retries times, sleeping interval between checks. The wait
// is attempt-bounded rather than a hard deadline; tasks that ignore
// cancellation can outlive it. Non-positive values are ignored.
func WithTerminationPoll(retries int, interval time.Duration) Option {
	return func(s *settings) {
		if retries > 0 {
			s.terminationRetries = retries
		}
		if interval > 0 {
			s.terminationSleep = interval
		}
	}
}

// WithLogger attaches a zap logger. The pool logs lifecycle transitions at
// Debug and abnormal events (panics, stuck workers) at Warn or Error. A nil
// logger is ignored; the default is zap.NewNop().
func WithLogger(logger *zap.Logger) Option {
	return func(s *settings) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics attaches a Metrics sink. A nil sink is ignored.
func WithMetrics(m Metrics) Option {
	return func(s *settings) {
		if m != nil {
			s.metrics = m
		}
	}
}

// WithRateLimit caps task starts at perSecond with the given burst. Workers
// block on the limiter before picking up each task. Non-positive values
// disable limiting.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(s *settings) {
		if perSecond > 0 && burst > 0 {
			s.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
		}
	}
}
