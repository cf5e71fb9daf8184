package benchmarks

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-crew/crew/internal/cpu"
	"github.com/go-crew/crew/pool"
	"github.com/go-crew/crew/respool"
)

// cpuBoundTask burns a fixed amount of integer work. The sink keeps the
// compiler from optimizing the loop away.
func cpuBoundTask(iterations int, sink *atomic.Int64) pool.Task {
	return func(ctx context.Context) error {
		total := 0
		for i := range iterations {
			total += i
		}
		sink.Add(int64(total))
		return nil
	}
}

// ioBoundTask waits out a delay, or stops early on cancellation.
func ioBoundTask(delay time.Duration) pool.Task {
	return func(ctx context.Context) error {
		select {
		case <-time.After(delay):
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// BenchmarkInvokeAll_CPUBound measures a full pool cycle, construction
// through termination, over CPU-heavy tasks.
func BenchmarkInvokeAll_CPUBound(b *testing.B) {
	const tasksPerRun = 64
	var sink atomic.Int64

	for _, workers := range []int{1, 2, 4, 8} {
		b.Run(fmt.Sprintf("workers_%d", workers), func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				p, err := pool.New("bench", workers)
				if err != nil {
					b.Fatal(err)
				}
				for range tasksPerRun {
					p.AddTask(cpuBoundTask(1000, &sink))
				}
				if err := p.InvokeAll(context.Background()); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

// BenchmarkFanOut_IOBound measures wide fan-outs over tasks dominated by
// waiting rather than compute.
func BenchmarkFanOut_IOBound(b *testing.B) {
	for _, workers := range []int{4, 16, 64} {
		b.Run(fmt.Sprintf("workers_%d", workers), func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				r, err := pool.NewFanOut("bench", workers, ioBoundTask(100*time.Microsecond))
				if err != nil {
					b.Fatal(err)
				}
				if err := r.InvokeAll(context.Background()); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

// BenchmarkInvokeAll_Pinned runs the CPU-bound cycle with the invoking
// goroutine pinned to one core, trading scheduler freedom for stable
// numbers.
func BenchmarkInvokeAll_Pinned(b *testing.B) {
	unpin := cpu.PinWorker(0)
	defer unpin()

	const tasksPerRun = 64
	workers := cpu.NumCores()
	var sink atomic.Int64

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		p, err := pool.New("bench-pinned", workers)
		if err != nil {
			b.Fatal(err)
		}
		for range tasksPerRun {
			p.AddTask(cpuBoundTask(1000, &sink))
		}
		if err := p.InvokeAll(context.Background()); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkRespool_BorrowRelease measures borrow/release turnaround under
// parallel contention for a small resource set.
func BenchmarkRespool_BorrowRelease(b *testing.B) {
	resources := make([]int, 8)
	for i := range resources {
		resources[i] = i + 1
	}
	p := respool.New[int]("bench",
		respool.WithBorrowTimeout(10*time.Second),
		respool.WithPollInterval(100*time.Microsecond))
	p.Init(resources)

	b.ReportAllocs()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			if err := p.PerformAction(context.Background(), "bench", func(r int) error {
				return nil
			}); err != nil {
				b.Error(err)
				return
			}
		}
	})
}
