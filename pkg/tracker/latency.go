package tracker

import (
	"time"
)

// LatencyTracker accumulates wall-clock duration samples, in seconds, for
// one benchmark pass. Samples are kept in call order.
type LatencyTracker struct {
	latencies []float64
	sum       float64
}

func NewLatencyTracker() *LatencyTracker {
	return &LatencyTracker{
		latencies: []float64{},
	}
}

// Measure runs op once and appends its wall-clock duration to the series.
// The duration is recorded whether or not op fails, and a failure propagates
// to the caller unchanged. Measure never retries and never caches results.
func (t *LatencyTracker) Measure(op func() error) error {
	start := time.Now()
	err := op()
	elapsed := time.Since(start).Seconds()

	t.latencies = append(t.latencies, elapsed)
	t.sum += elapsed

	return err
}

// Latencies returns the recorded series in call order. The caller must not
// mutate the returned slice while the tracker is still in use.
func (t *LatencyTracker) Latencies() []float64 {
	return t.latencies
}

// Sum returns the cumulative recorded duration in seconds. It is kept as a
// running total so the stopping check of the duration-bounded loop stays
// cheap for very fast operations.
func (t *LatencyTracker) Sum() float64 {
	return t.sum
}

// Warmup executes op n times without recording anything. Warmup iterations
// absorb lazy initialization and caching effects so that the timed series
// reflects steady-state cost. The first failure aborts and propagates.
func Warmup(n int, op func() error) error {
	for i := 0; i < n; i++ {
		if err := op(); err != nil {
			return err
		}
	}
	return nil
}

// RunUntil repeatedly measures op through tracker until the cumulative
// recorded duration reaches targetSeconds. The iteration that crosses the
// target always runs to completion; a timed call is never interrupted
// mid-flight. The first failure aborts the loop and propagates.
//
// Stopping on the cumulative wall-clock sum rather than a fixed iteration
// count guarantees a minimum total observation time regardless of per-call
// cost.
func RunUntil(targetSeconds float64, tracker *LatencyTracker, op func() error) error {
	for tracker.Sum() < targetSeconds {
		if err := tracker.Measure(op); err != nil {
			return err
		}
	}
	return nil
}
