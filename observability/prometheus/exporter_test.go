package prometheus

import (
	"context"
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"

	"github.com/go-crew/crew/pool"
)

func TestExporter_RecordMethods(t *testing.T) {
	reg := prom.NewRegistry()
	exporter, err := NewExporter("crew", reg, ExporterOptions{})
	if err != nil {
		t.Fatalf("NewExporter failed: %v", err)
	}

	exporter.RecordTaskDuration("pool-a", 250*time.Millisecond, false)
	exporter.RecordTaskDuration("pool-a", 100*time.Millisecond, true)
	exporter.RecordTaskPanic("pool-a")
	exporter.RecordQueueDepth("pool-a", 7)
	exporter.RecordBorrowWait("db", 50*time.Millisecond, false)
	exporter.RecordBorrowWait("db", time.Second, true)

	panicTotal := testutil.ToFloat64(exporter.taskPanicTotal.WithLabelValues("pool-a"))
	if panicTotal != 1 {
		t.Fatalf("panic total = %v, want 1", panicTotal)
	}

	queueDepth := testutil.ToFloat64(exporter.queueDepth.WithLabelValues("pool-a"))
	if queueDepth != 7 {
		t.Fatalf("queue depth = %v, want 7", queueDepth)
	}

	okCount, err := histogramSampleCount(exporter.taskDurationSeconds.WithLabelValues("pool-a", "ok"))
	if err != nil {
		t.Fatalf("histogramSampleCount failed: %v", err)
	}
	if okCount != 1 {
		t.Fatalf("ok duration sample count = %d, want 1", okCount)
	}

	failedCount, err := histogramSampleCount(exporter.taskDurationSeconds.WithLabelValues("pool-a", "failed"))
	if err != nil {
		t.Fatalf("histogramSampleCount failed: %v", err)
	}
	if failedCount != 1 {
		t.Fatalf("failed duration sample count = %d, want 1", failedCount)
	}

	timeoutCount, err := histogramSampleCount(exporter.borrowWaitSeconds.WithLabelValues("db", "timeout"))
	if err != nil {
		t.Fatalf("histogramSampleCount failed: %v", err)
	}
	if timeoutCount != 1 {
		t.Fatalf("borrow timeout sample count = %d, want 1", timeoutCount)
	}
}

func TestExporter_AlreadyRegisteredReuse(t *testing.T) {
	reg := prom.NewRegistry()
	first, err := NewExporter("crew", reg, ExporterOptions{})
	if err != nil {
		t.Fatalf("first NewExporter failed: %v", err)
	}
	second, err := NewExporter("crew", reg, ExporterOptions{})
	if err != nil {
		t.Fatalf("second NewExporter failed: %v", err)
	}

	first.RecordTaskPanic("pool-a")
	second.RecordTaskPanic("pool-a")

	got := testutil.ToFloat64(first.taskPanicTotal.WithLabelValues("pool-a"))
	if got != 2 {
		t.Fatalf("shared panic counter = %v, want 2", got)
	}
}

func TestExporter_ObservesRealPool(t *testing.T) {
	reg := prom.NewRegistry()
	exporter, err := NewExporter("crew", reg, ExporterOptions{})
	if err != nil {
		t.Fatalf("NewExporter failed: %v", err)
	}

	p, err := pool.New("observed", 2, pool.WithMetrics(exporter))
	if err != nil {
		t.Fatalf("pool.New failed: %v", err)
	}
	for range 3 {
		p.AddTask(func(ctx context.Context) error { return nil })
	}
	if err := p.InvokeAll(context.Background()); err != nil {
		t.Fatalf("InvokeAll failed: %v", err)
	}

	queueDepth := testutil.ToFloat64(exporter.queueDepth.WithLabelValues("observed"))
	if queueDepth != 3 {
		t.Fatalf("queue depth = %v, want 3", queueDepth)
	}
	samples, err := histogramSampleCount(exporter.taskDurationSeconds.WithLabelValues("observed", "ok"))
	if err != nil {
		t.Fatalf("histogramSampleCount failed: %v", err)
	}
	if samples != 3 {
		t.Fatalf("duration sample count = %d, want 3", samples)
	}
}

func histogramSampleCount(observer prom.Observer) (uint64, error) {
	collector, ok := observer.(prom.Collector)
	if !ok {
		return 0, nil
	}

	metricCh := make(chan prom.Metric, 1)
	collector.Collect(metricCh)
	close(metricCh)
	for metric := range metricCh {
		msg := &dto.Metric{}
		if err := metric.Write(msg); err != nil {
			return 0, err
		}
		if msg.Histogram != nil {
			return msg.Histogram.GetSampleCount(), nil
		}
	}
	return 0, nil
}
