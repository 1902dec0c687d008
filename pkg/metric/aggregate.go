package metric

import (
	"errors"
	"fmt"
	"math"
	"strconv"

	"gonum.org/v1/gonum/stat"
)

// ErrEmptySampleSeries signals an attempt to aggregate a pass that produced
// no samples. A result with no samples is not reportable.
var ErrEmptySampleSeries = errors.New("cannot aggregate an empty sample series")

// MeanLatency returns the arithmetic mean of a latency series in seconds.
// It is a pure function of the series.
func MeanLatency(latencies []float64) (float64, error) {
	if len(latencies) == 0 {
		return 0, ErrEmptySampleSeries
	}

	return stat.Mean(latencies, nil), nil
}

// Throughput derives items per second from a mean latency. For the forward
// pass itemsPerCall is the batch size; for generation it is
// new_tokens * batch_size.
func Throughput(itemsPerCall int, meanLatency float64) float64 {
	return float64(itemsPerCall) / meanLatency
}

// SignificantFigures rounds to 3 significant figures. Derived metrics are
// rounded before reporting so that reports stay stable across runs with
// negligible timing jitter.
func SignificantFigures(x float64) float64 {
	if x == 0 || math.IsNaN(x) || math.IsInf(x, 0) {
		return x
	}

	rounded, err := strconv.ParseFloat(fmt.Sprintf("%.3g", x), 64)
	if err != nil {
		return x
	}

	return rounded
}
