package config

import (
	"errors"
	"fmt"
)

// ErrInvalidConfiguration wraps every parameter validation failure. It is
// reported before any backend call is made.
var ErrInvalidConfiguration = errors.New("invalid benchmark configuration")

const DefaultSamplingIntervalDivisor = 10

// InputShapes describes the synthetic workload fed to the backend. The
// engine treats the resulting inputs as opaque; the shapes only parameterize
// the input generator.
type InputShapes struct {
	BatchSize      int `json:"BatchSize"`
	SequenceLength int `json:"SequenceLength"`

	// image
	Width       int `json:"Width"`
	Height      int `json:"Height"`
	NumChannels int `json:"NumChannels"`

	// audio
	FeatureSize         int `json:"FeatureSize"`
	AudioSequenceLength int `json:"AudioSequenceLength"`
}

type BenchmarkConfiguration struct {
	Seed int64 `json:"Seed"`

	Model string `json:"Model"`
	Task  string `json:"Task"`

	// run options
	Memory  bool `json:"Memory"`
	Profile bool `json:"Profile"`

	// loop options
	WarmupRuns        int     `json:"WarmupRuns"`
	BenchmarkDuration float64 `json:"BenchmarkDuration"` // seconds

	InputShapes InputShapes `json:"InputShapes"`
	NewTokens   int         `json:"NewTokens"`

	// memory pass: sampling interval = mean forward latency / divisor
	SamplingIntervalDivisor int    `json:"SamplingIntervalDivisor"`
	MemorySource            string `json:"MemorySource"` // "runtime" or "rss"

	// backend selection
	Backend                 string  `json:"Backend"` // "standard" or "http"
	Endpoint                string  `json:"Endpoint"`
	HTTPTimeoutSeconds      int     `json:"HTTPTimeoutSeconds"`
	SimulatedLatencyMilli   float64 `json:"SimulatedLatencyMilli"`
	SimulatedTokenCostMilli float64 `json:"SimulatedTokenCostMilli"`

	OutputPathPrefix    string `json:"OutputPathPrefix"`
	EnableZipkinTracing bool   `json:"EnableZipkinTracing"`
}

// Validate rejects invalid run parameters at construction time rather than
// deferring failures to the point of use.
func (c *BenchmarkConfiguration) Validate() error {
	if c.BenchmarkDuration <= 0 {
		return fmt.Errorf("%w: benchmark duration must be positive, got %f", ErrInvalidConfiguration, c.BenchmarkDuration)
	}
	if c.WarmupRuns < 0 {
		return fmt.Errorf("%w: warmup runs must be non-negative, got %d", ErrInvalidConfiguration, c.WarmupRuns)
	}
	if c.InputShapes.BatchSize <= 0 {
		return fmt.Errorf("%w: batch size must be positive, got %d", ErrInvalidConfiguration, c.InputShapes.BatchSize)
	}
	if c.NewTokens <= 0 {
		return fmt.Errorf("%w: new tokens must be positive, got %d", ErrInvalidConfiguration, c.NewTokens)
	}
	if c.SamplingIntervalDivisor <= 0 {
		return fmt.Errorf("%w: sampling interval divisor must be positive, got %d", ErrInvalidConfiguration, c.SamplingIntervalDivisor)
	}
	if c.Backend == "http" && c.Endpoint == "" {
		return fmt.Errorf("%w: HTTP backend requires an endpoint", ErrInvalidConfiguration)
	}

	return nil
}
