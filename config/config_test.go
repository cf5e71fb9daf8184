package config

import (
	"runtime"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{
		"CREW_POOL_NAME",
		"CREW_WORKER_COUNT",
		"CREW_INVOKE_TIMEOUT",
		"CREW_STOP_ON_FIRST_ERROR",
		"CREW_BORROW_TIMEOUT",
		"CREW_POLL_INTERVAL",
		"CREW_PIPELINE_BACKOFF",
	} {
		t.Setenv(k, "")
	}

	c := Load()

	if c.PoolName != "crew" {
		t.Errorf("expected pool name %q, got %q", "crew", c.PoolName)
	}
	if c.WorkerCount != runtime.GOMAXPROCS(0) {
		t.Errorf("expected GOMAXPROCS workers, got %d", c.WorkerCount)
	}
	if c.InvokeTimeout != 0 {
		t.Errorf("expected unbounded invoke timeout, got %v", c.InvokeTimeout)
	}
	if !c.StopOnFirstError {
		t.Error("expected stop-on-first-error by default")
	}
	if c.BorrowTimeout != 30*time.Second {
		t.Errorf("expected 30s borrow timeout, got %v", c.BorrowTimeout)
	}
	if c.PollInterval != time.Second {
		t.Errorf("expected 1s poll interval, got %v", c.PollInterval)
	}
	if c.PipelineBackoff != 100*time.Millisecond {
		t.Errorf("expected 100ms pipeline backoff, got %v", c.PipelineBackoff)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("CREW_POOL_NAME", "etl")
	t.Setenv("CREW_WORKER_COUNT", "12")
	t.Setenv("CREW_INVOKE_TIMEOUT", "45s")
	t.Setenv("CREW_STOP_ON_FIRST_ERROR", "false")
	t.Setenv("CREW_BORROW_TIMEOUT", "2m")
	t.Setenv("CREW_POLL_INTERVAL", "250ms")
	t.Setenv("CREW_PIPELINE_BACKOFF", "50ms")

	c := Load()

	if c.PoolName != "etl" {
		t.Errorf("expected pool name %q, got %q", "etl", c.PoolName)
	}
	if c.WorkerCount != 12 {
		t.Errorf("expected 12 workers, got %d", c.WorkerCount)
	}
	if c.InvokeTimeout != 45*time.Second {
		t.Errorf("expected 45s invoke timeout, got %v", c.InvokeTimeout)
	}
	if c.StopOnFirstError {
		t.Error("expected stop-on-first-error to be disabled")
	}
	if c.BorrowTimeout != 2*time.Minute {
		t.Errorf("expected 2m borrow timeout, got %v", c.BorrowTimeout)
	}
	if c.PollInterval != 250*time.Millisecond {
		t.Errorf("expected 250ms poll interval, got %v", c.PollInterval)
	}
	if c.PipelineBackoff != 50*time.Millisecond {
		t.Errorf("expected 50ms pipeline backoff, got %v", c.PipelineBackoff)
	}
}
