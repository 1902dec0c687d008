package benchmark

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eth-easl/infbench/pkg/backend"
	"github.com/eth-easl/infbench/pkg/config"
)

type fakeBackend struct {
	forwardDelay time.Duration
	forwardErr   error
	generateErr  error

	forwardCalls  int
	generateCalls int
}

func (f *fakeBackend) Name() string {
	return "fake"
}

func (f *fakeBackend) Forward(*backend.Inputs) (*backend.Outputs, error) {
	f.forwardCalls++
	if f.forwardDelay > 0 {
		time.Sleep(f.forwardDelay)
	}
	if f.forwardErr != nil {
		return nil, f.forwardErr
	}
	return &backend.Outputs{}, nil
}

func (f *fakeBackend) Generate(_ *backend.Inputs, newTokens int) (*backend.Outputs, error) {
	f.generateCalls++
	if f.generateErr != nil {
		return nil, f.generateErr
	}
	return &backend.Outputs{GeneratedTokens: newTokens}, nil
}

// risingSource reports a little more memory on every poll.
type risingSource struct {
	usage float64
}

func (s *risingSource) Usage() (float64, error) {
	s.usage += 10
	return s.usage, nil
}

func testConfiguration() *config.BenchmarkConfiguration {
	return &config.BenchmarkConfiguration{
		Seed:  42,
		Model: "test-model",
		Task:  "text-classification",

		WarmupRuns:              2,
		BenchmarkDuration:       0.02,
		NewTokens:               100,
		SamplingIntervalDivisor: config.DefaultSamplingIntervalDivisor,

		InputShapes: config.InputShapes{
			BatchSize:      1,
			SequenceLength: 4,
		},
	}
}

func TestWarmupCallsPrecedeTimedSeries(t *testing.T) {
	fake := &fakeBackend{forwardDelay: time.Millisecond}
	bench := NewBenchmark(testConfiguration(), fake).WithReporter(NopReporter{})

	require.NoError(t, bench.Run())

	// Exactly WarmupRuns untimed calls precede the timed loop; none of them
	// show up in the sample series.
	assert.Equal(t, len(bench.ForwardLatencies())+2, fake.forwardCalls)
	assert.NotEmpty(t, bench.ForwardLatencies())
}

func TestForwardSeriesCrossesDurationTarget(t *testing.T) {
	cfg := testConfiguration()
	fake := &fakeBackend{forwardDelay: time.Millisecond}
	bench := NewBenchmark(cfg, fake).WithReporter(NopReporter{})

	require.NoError(t, bench.Run())

	series := bench.ForwardLatencies()
	sum := 0.0
	for _, latency := range series {
		sum += latency
	}

	assert.GreaterOrEqual(t, sum, cfg.BenchmarkDuration)
	assert.Less(t, sum-series[len(series)-1], cfg.BenchmarkDuration)
}

func TestConcreteForwardScenario(t *testing.T) {
	// warmup_runs=2, benchmark_duration=0.05 s, simulated forward latency
	// 10 ms: the timed series needs at most 5 samples to cross the target,
	// and its mean stays at or above the simulated latency.
	cfg := testConfiguration()
	cfg.BenchmarkDuration = 0.05

	fake := &fakeBackend{forwardDelay: 10 * time.Millisecond}
	bench := NewBenchmark(cfg, fake).WithReporter(NopReporter{})

	require.NoError(t, bench.Run())

	series := bench.ForwardLatencies()
	assert.LessOrEqual(t, len(series), 5)
	assert.GreaterOrEqual(t, len(series), 1)

	result, err := bench.Aggregate()
	require.NoError(t, err)
	assert.GreaterOrEqual(t, result.ForwardLatency, 0.01)
	// throughput = batch_size / mean latency
	assert.InDelta(t, float64(cfg.InputShapes.BatchSize)/result.ForwardLatency,
		result.ForwardThroughput, result.ForwardThroughput*0.01)
}

func TestInvalidConfigurationRejectedBeforeBackendCalls(t *testing.T) {
	cfg := testConfiguration()
	cfg.BenchmarkDuration = 0

	fake := &fakeBackend{}
	bench := NewBenchmark(cfg, fake).WithReporter(NopReporter{})

	err := bench.Run()
	assert.ErrorIs(t, err, config.ErrInvalidConfiguration)
	assert.Equal(t, 0, fake.forwardCalls)
	assert.Equal(t, 0, fake.generateCalls)
}

func TestForwardFailureIsFatal(t *testing.T) {
	fake := &fakeBackend{forwardErr: errors.New("device lost")}
	bench := NewBenchmark(testConfiguration(), fake).WithReporter(NopReporter{})

	err := bench.Run()
	assert.Error(t, err)
	assert.NotErrorIs(t, err, config.ErrInvalidConfiguration)
	assert.Empty(t, bench.ForwardLatencies())
}

func TestGenerationUnsupportedDegradesGracefully(t *testing.T) {
	fake := &fakeBackend{generateErr: errors.New("generation not implemented")}
	bench := NewBenchmark(testConfiguration(), fake).WithReporter(NopReporter{})

	require.NoError(t, bench.Run())

	// try once, remember the outcome
	assert.Equal(t, 1, fake.generateCalls)
	assert.False(t, bench.CanGenerate())
	assert.Empty(t, bench.GenerateLatencies())

	result, err := bench.Aggregate()
	require.NoError(t, err)
	assert.False(t, result.CanGenerate)
	assert.Zero(t, result.GenerateLatency)
	assert.Zero(t, result.GenerateThroughput)
	assert.Greater(t, result.ForwardLatency, 0.0)
}

func TestGenerationSupported(t *testing.T) {
	fake := &fakeBackend{}
	bench := NewBenchmark(testConfiguration(), fake).WithReporter(NopReporter{})

	require.NoError(t, bench.Run())

	assert.True(t, bench.CanGenerate())
	assert.NotEmpty(t, bench.GenerateLatencies())

	result, err := bench.Aggregate()
	require.NoError(t, err)
	assert.True(t, result.CanGenerate)
	assert.Greater(t, result.GenerateThroughput, 0.0)
}

func TestMemoryPassReportsPeak(t *testing.T) {
	cfg := testConfiguration()
	cfg.Memory = true

	fake := &fakeBackend{forwardDelay: time.Millisecond}
	bench := NewBenchmark(cfg, fake).
		WithReporter(NopReporter{}).
		WithMemorySource(&risingSource{})

	require.NoError(t, bench.Run())

	result, err := bench.Aggregate()
	require.NoError(t, err)
	assert.True(t, result.MemoryTracked)
	assert.Greater(t, result.ForwardPeakMemory, 0.0)
}

func TestMemoryPassDisabled(t *testing.T) {
	fake := &fakeBackend{}
	bench := NewBenchmark(testConfiguration(), fake).WithReporter(NopReporter{})

	require.NoError(t, bench.Run())

	result, err := bench.Aggregate()
	require.NoError(t, err)
	assert.False(t, result.MemoryTracked)
	assert.Zero(t, result.ForwardPeakMemory)
}

func TestProfilingUnavailableIsFatal(t *testing.T) {
	cfg := testConfiguration()
	cfg.Profile = true

	// fakeBackend does not implement the profiling interface
	bench := NewBenchmark(cfg, &fakeBackend{}).WithReporter(NopReporter{})

	err := bench.Run()
	assert.ErrorIs(t, err, ErrProfilingUnavailable)
}

func TestProfilingPass(t *testing.T) {
	cfg := testConfiguration()
	cfg.Profile = true

	std := &backend.StandardBackend{
		ForwardLatency:   time.Millisecond,
		SupportsGenerate: true,
	}
	bench := NewBenchmark(cfg, std).WithReporter(NopReporter{})

	require.NoError(t, bench.Run())
	assert.NotEmpty(t, bench.ForwardProfile())
}

func TestAggregateIsIdempotent(t *testing.T) {
	fake := &fakeBackend{forwardDelay: time.Millisecond}
	bench := NewBenchmark(testConfiguration(), fake).WithReporter(NopReporter{})

	require.NoError(t, bench.Run())

	first, err := bench.Aggregate()
	require.NoError(t, err)
	second, err := bench.Aggregate()
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestRunIsSingleUse(t *testing.T) {
	bench := NewBenchmark(testConfiguration(), &fakeBackend{}).WithReporter(NopReporter{})

	require.NoError(t, bench.Run())
	assert.Error(t, bench.Run())
}

// recordingReporter captures checkpoint order for sequencing assertions.
type recordingReporter struct {
	phases []string
}

func (r *recordingReporter) PhaseStarted(phase string)  {}
func (r *recordingReporter) PhaseFinished(phase string) { r.phases = append(r.phases, phase) }

func (r *recordingReporter) MetricComputed(string, float64, string) {}
func (r *recordingReporter) GenerationUnsupported(error)            {}

func TestPassOrdering(t *testing.T) {
	cfg := testConfiguration()
	cfg.Memory = true

	reporter := &recordingReporter{}
	bench := NewBenchmark(cfg, &fakeBackend{forwardDelay: time.Millisecond}).
		WithReporter(reporter).
		WithMemorySource(&risingSource{})

	require.NoError(t, bench.Run())

	// The timed forward pass always completes before the memory pass, which
	// derives its sampling interval from the forward mean.
	assert.Equal(t, []string{"forward warmup", "forward", "memory", "generation"}, reporter.phases)
}
