// Package prometheus adapts the pool.Metrics interface to Prometheus
// collectors.
package prometheus

import (
	"errors"
	"fmt"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"

	"github.com/go-crew/crew/pool"
)

// ExporterOptions controls collector configuration.
type ExporterOptions struct {
	DurationBuckets []float64
}

// Exporter implements pool.Metrics on top of Prometheus collectors. It can
// be shared by any number of pools; every series is labelled with the pool
// name.
type Exporter struct {
	taskDurationSeconds *prom.HistogramVec
	taskPanicTotal      *prom.CounterVec
	queueDepth          *prom.GaugeVec
	borrowWaitSeconds   *prom.HistogramVec
}

var _ pool.Metrics = (*Exporter)(nil)

// NewExporter creates and registers the collectors. Registering twice
// against the same registry reuses the existing collectors, so exporters can
// be created independently by components that share a registry.
func NewExporter(namespace string, reg prom.Registerer, opts ExporterOptions) (*Exporter, error) {
	if namespace == "" {
		namespace = "crew"
	}
	if reg == nil {
		reg = prom.DefaultRegisterer
	}
	buckets := opts.DurationBuckets
	if len(buckets) == 0 {
		buckets = prom.DefBuckets
	}

	durationVec := prom.NewHistogramVec(prom.HistogramOpts{
		Namespace: namespace,
		Name:      "task_duration_seconds",
		Help:      "Task execution duration in seconds.",
		Buckets:   buckets,
	}, []string{"pool", "status"})
	panicVec := prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "task_panic_total",
		Help:      "Total number of task panics.",
	}, []string{"pool"})
	queueDepthVec := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: namespace,
		Name:      "queue_depth",
		Help:      "Number of queued tasks at invocation.",
	}, []string{"pool"})
	borrowWaitVec := prom.NewHistogramVec(prom.HistogramOpts{
		Namespace: namespace,
		Name:      "borrow_wait_seconds",
		Help:      "Time spent waiting to borrow a resource, in seconds.",
		Buckets:   buckets,
	}, []string{"pool", "outcome"})

	var err error
	if durationVec, err = registerCollector(reg, durationVec); err != nil {
		return nil, err
	}
	if panicVec, err = registerCollector(reg, panicVec); err != nil {
		return nil, err
	}
	if queueDepthVec, err = registerCollector(reg, queueDepthVec); err != nil {
		return nil, err
	}
	if borrowWaitVec, err = registerCollector(reg, borrowWaitVec); err != nil {
		return nil, err
	}

	return &Exporter{
		taskDurationSeconds: durationVec,
		taskPanicTotal:      panicVec,
		queueDepth:          queueDepthVec,
		borrowWaitSeconds:   borrowWaitVec,
	}, nil
}

// RecordTaskDuration records one task execution.
func (e *Exporter) RecordTaskDuration(poolName string, d time.Duration, failed bool) {
	if e == nil {
		return
	}
	e.taskDurationSeconds.WithLabelValues(normalizeLabel(poolName, "unknown"), statusLabel(failed)).Observe(d.Seconds())
}

// RecordTaskPanic records a recovered task panic.
func (e *Exporter) RecordTaskPanic(poolName string) {
	if e == nil {
		return
	}
	e.taskPanicTotal.WithLabelValues(normalizeLabel(poolName, "unknown")).Inc()
}

// RecordQueueDepth records the queue size at invocation.
func (e *Exporter) RecordQueueDepth(poolName string, depth int) {
	if e == nil {
		return
	}
	e.queueDepth.WithLabelValues(normalizeLabel(poolName, "unknown")).Set(float64(depth))
}

// RecordBorrowWait records one resource borrow attempt.
func (e *Exporter) RecordBorrowWait(poolName string, d time.Duration, timedOut bool) {
	if e == nil {
		return
	}
	outcome := "acquired"
	if timedOut {
		outcome = "timeout"
	}
	e.borrowWaitSeconds.WithLabelValues(normalizeLabel(poolName, "unknown"), outcome).Observe(d.Seconds())
}

func statusLabel(failed bool) string {
	if failed {
		return "failed"
	}
	return "ok"
}

func normalizeLabel(v string, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

func registerCollector[T prom.Collector](reg prom.Registerer, collector T) (T, error) {
	err := reg.Register(collector)
	if err == nil {
		return collector, nil
	}

	var alreadyRegisteredErr prom.AlreadyRegisteredError
	if errors.As(err, &alreadyRegisteredErr) {
		existing, ok := alreadyRegisteredErr.ExistingCollector.(T)
		if !ok {
			return collector, fmt.Errorf("collector type mismatch for %T", collector)
		}
		return existing, nil
	}

	return collector, err
}
