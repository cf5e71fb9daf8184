package pool

import (
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestDefaultSettings(t *testing.T) {
	s := defaultSettings()

	if !s.stopOnFirstError {
		t.Error("expected stop-on-first-error by default")
	}
	if s.timeout != 0 {
		t.Errorf("expected no default timeout, got %v", s.timeout)
	}
	if s.terminationRetries != DefaultTerminationRetries {
		t.Errorf("expected %d termination retries, got %d", DefaultTerminationRetries, s.terminationRetries)
	}
	if s.terminationSleep != DefaultTerminationInterval {
		t.Errorf("expected %v termination interval, got %v", DefaultTerminationInterval, s.terminationSleep)
	}
	if s.logger == nil {
		t.Error("expected a nop logger, got nil")
	}
	if s.metrics == nil {
		t.Error("expected nop metrics, got nil")
	}
	if s.limiter != nil {
		t.Error("expected no rate limiter by default")
	}
}

func TestOptions_Apply(t *testing.T) {
	logger := zap.NewNop()
	s := defaultSettings()
	for _, opt := range []Option{
		WithTimeout(3 * time.Second),
		WithStopOnFirstError(false),
		WithTerminationPoll(5, 20*time.Millisecond),
		WithLogger(logger),
		WithMetrics(NopMetrics{}),
		WithRateLimit(10, 2),
	} {
		opt(s)
	}

	if s.timeout != 3*time.Second {
		t.Errorf("expected timeout 3s, got %v", s.timeout)
	}
	if s.stopOnFirstError {
		t.Error("expected stop-on-first-error to be disabled")
	}
	if s.terminationRetries != 5 || s.terminationSleep != 20*time.Millisecond {
		t.Errorf("expected 5 retries at 20ms, got %d at %v", s.terminationRetries, s.terminationSleep)
	}
	if s.logger != logger {
		t.Error("expected the provided logger")
	}
	if s.limiter == nil {
		t.Error("expected a rate limiter")
	}
}

func TestOptions_IgnoreInvalidValues(t *testing.T) {
	s := defaultSettings()
	for _, opt := range []Option{
		WithTerminationPoll(0, 0),
		WithTerminationPoll(-1, -time.Second),
		WithLogger(nil),
		WithMetrics(nil),
		WithRateLimit(0, 0),
		WithRateLimit(-5, 1),
	} {
		opt(s)
	}

	if s.terminationRetries != DefaultTerminationRetries {
		t.Errorf("expected default retries to survive invalid values, got %d", s.terminationRetries)
	}
	if s.terminationSleep != DefaultTerminationInterval {
		t.Errorf("expected default interval to survive invalid values, got %v", s.terminationSleep)
	}
	if s.logger == nil {
		t.Error("expected the nil logger to be ignored")
	}
	if s.metrics == nil {
		t.Error("expected the nil metrics sink to be ignored")
	}
	if s.limiter != nil {
		t.Error("expected invalid rate limits to be ignored")
	}
}
