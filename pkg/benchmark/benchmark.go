package benchmark

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/eth-easl/infbench/pkg/backend"
	"github.com/eth-easl/infbench/pkg/config"
	"github.com/eth-easl/infbench/pkg/generator"
	"github.com/eth-easl/infbench/pkg/metric"
	"github.com/eth-easl/infbench/pkg/tracker"
)

// ErrProfilingUnavailable is raised when profiling was explicitly requested
// but the backend cannot supply it. Unlike generation, profiling is never
// probed; asking for it from an incapable backend fails the run.
var ErrProfilingUnavailable = errors.New("profiling requested but not supported by the backend")

// minimum sampling interval, so very fast forward passes cannot drive the
// memory sampler into a zero-interval ticker
const minSamplingInterval = 10 * time.Microsecond

// Benchmark sequences one configured run: the timed forward pass, the
// optional memory pass, the capability-probed generation pass, and the
// optional profiling pass. All sample-holding state is created fresh per
// benchmark and mutated only by Run; passes never overlap.
type Benchmark struct {
	RunID         string
	Configuration *config.BenchmarkConfiguration

	backend   backend.Backend
	generator *generator.InputGenerator
	memSource tracker.Source
	reporter  Reporter

	ran bool

	forwardLatencies  []float64
	generateLatencies []float64

	memoryTracked     bool
	forwardPeakMemory float64

	generation ProbeResult

	forwardProfile []metric.ProfileRow
}

func NewBenchmark(cfg *config.BenchmarkConfiguration, b backend.Backend) *Benchmark {
	var source tracker.Source = tracker.GoRuntimeSource{}
	if cfg.MemorySource == "rss" {
		source = tracker.ResidentSetSource{}
	}

	return &Benchmark{
		RunID:         uuid.New().String(),
		Configuration: cfg,
		backend:       b,
		generator:     generator.NewInputGenerator(cfg.Task, cfg.Seed),
		memSource:     source,
		reporter:      LogReporter{},
	}
}

// WithReporter replaces the default logrus narration.
func (b *Benchmark) WithReporter(reporter Reporter) *Benchmark {
	b.reporter = reporter
	return b
}

// WithMemorySource overrides the memory usage source for the memory pass.
func (b *Benchmark) WithMemorySource(source tracker.Source) *Benchmark {
	b.memSource = source
	return b
}

// Run executes the configured passes in order. Only an unsupported
// generation capability is recovered internally; every other failure aborts
// the run and no result is reportable. Run may be called at most once per
// Benchmark.
func (b *Benchmark) Run() error {
	if b.ran {
		return errors.New("benchmark has already been run")
	}
	b.ran = true

	if err := b.Configuration.Validate(); err != nil {
		return err
	}

	if err := b.runForwardTracking(); err != nil {
		return err
	}

	if b.Configuration.Memory {
		if err := b.runMemoryTracking(); err != nil {
			return err
		}
	}

	if err := b.runGenerateTracking(); err != nil {
		return err
	}

	if b.Configuration.Profile {
		if err := b.runForwardProfiling(); err != nil {
			return err
		}
	}

	return nil
}

func (b *Benchmark) runForwardTracking() error {
	cfg := b.Configuration
	inputs := b.generator.Generate(generator.ModeForward, cfg.InputShapes)
	forward := func() error {
		_, err := b.backend.Forward(inputs)
		return err
	}

	b.reporter.PhaseStarted("forward warmup")
	if err := tracker.Warmup(cfg.WarmupRuns, forward); err != nil {
		return fmt.Errorf("forward warmup failed: %w", err)
	}
	b.reporter.PhaseFinished("forward warmup")

	b.reporter.PhaseStarted("forward")
	latencyTracker := tracker.NewLatencyTracker()
	if err := tracker.RunUntil(cfg.BenchmarkDuration, latencyTracker, forward); err != nil {
		return fmt.Errorf("forward pass failed: %w", err)
	}
	b.forwardLatencies = latencyTracker.Latencies()
	b.reporter.PhaseFinished("forward")

	mean, err := metric.MeanLatency(b.forwardLatencies)
	if err != nil {
		return fmt.Errorf("forward pass yielded no samples: %w", err)
	}
	b.reporter.MetricComputed("forward latency", mean, "s")
	b.reporter.MetricComputed("forward throughput",
		metric.Throughput(cfg.InputShapes.BatchSize, mean), "samples/s")

	return nil
}

// runMemoryTracking wraps one additional forward call in a concurrently
// sampling memory tracker. The sampling interval is derived from the mean
// forward latency, which the pass ordering guarantees has been measured by
// now, so that roughly SamplingIntervalDivisor readings land inside the
// call.
func (b *Benchmark) runMemoryTracking() error {
	cfg := b.Configuration
	inputs := b.generator.Generate(generator.ModeForward, cfg.InputShapes)

	mean, err := metric.MeanLatency(b.forwardLatencies)
	if err != nil {
		return fmt.Errorf("cannot derive sampling interval: %w", err)
	}

	interval := time.Duration(mean / float64(cfg.SamplingIntervalDivisor) * float64(time.Second))
	if interval < minSamplingInterval {
		interval = minSamplingInterval
	}

	b.reporter.PhaseStarted("memory")
	memoryTracker := tracker.NewMemoryTracker(b.memSource)
	memoryTracker.Start(interval)
	_, err = b.backend.Forward(inputs)
	memoryTracker.Stop()

	// The peak observed up to a failure is still published for diagnostics,
	// but the run itself aborts.
	b.memoryTracked = true
	b.forwardPeakMemory = memoryTracker.PeakMemory()

	if err != nil {
		return fmt.Errorf("memory-tracked forward call failed: %w", err)
	}
	b.reporter.PhaseFinished("memory")
	b.reporter.MetricComputed("forward peak memory", b.forwardPeakMemory, "MiB")

	return nil
}

func (b *Benchmark) runGenerateTracking() error {
	cfg := b.Configuration
	inputs := b.generator.Generate(generator.ModeGenerate, cfg.InputShapes)
	generate := func() error {
		_, err := b.backend.Generate(inputs, cfg.NewTokens)
		return err
	}

	b.reporter.PhaseStarted("generation probe")
	b.generation = Probe(generate)
	if !b.generation.Supported {
		b.reporter.GenerationUnsupported(b.generation.Cause)
		return nil
	}

	// The successful probe call doubles as the first warmup iteration.
	if cfg.WarmupRuns > 1 {
		if err := tracker.Warmup(cfg.WarmupRuns-1, generate); err != nil {
			return fmt.Errorf("generation warmup failed: %w", err)
		}
	}

	b.reporter.PhaseStarted("generation")
	latencyTracker := tracker.NewLatencyTracker()
	if err := tracker.RunUntil(cfg.BenchmarkDuration, latencyTracker, generate); err != nil {
		return fmt.Errorf("generation pass failed: %w", err)
	}
	b.generateLatencies = latencyTracker.Latencies()
	b.reporter.PhaseFinished("generation")

	mean, err := metric.MeanLatency(b.generateLatencies)
	if err != nil {
		return fmt.Errorf("generation pass yielded no samples: %w", err)
	}
	b.reporter.MetricComputed("generate latency", mean, "s")
	b.reporter.MetricComputed("generate throughput",
		metric.Throughput(cfg.NewTokens*cfg.InputShapes.BatchSize, mean), "tokens/s")

	return nil
}

func (b *Benchmark) runForwardProfiling() error {
	profiler, ok := b.backend.(backend.Profiler)
	if !ok {
		return fmt.Errorf("%w: backend %s", ErrProfilingUnavailable, b.backend.Name())
	}

	cfg := b.Configuration
	inputs := b.generator.Generate(generator.ModeForward, cfg.InputShapes)

	b.reporter.PhaseStarted("profiling")
	if err := profiler.PrepareForProfiling(inputs.Keys()); err != nil {
		return fmt.Errorf("failed to prepare backend for profiling: %w", err)
	}

	if _, err := b.backend.Forward(inputs); err != nil {
		return fmt.Errorf("profiled forward call failed: %w", err)
	}

	rows, err := profiler.ForwardProfile()
	if err != nil {
		return fmt.Errorf("failed to retrieve forward profile: %w", err)
	}
	b.forwardProfile = rows
	b.reporter.PhaseFinished("profiling")

	return nil
}

// ForwardLatencies exposes the raw forward series in call order.
func (b *Benchmark) ForwardLatencies() []float64 {
	return b.forwardLatencies
}

// GenerateLatencies exposes the raw generation series; empty when the
// capability is unsupported.
func (b *Benchmark) GenerateLatencies() []float64 {
	return b.generateLatencies
}

func (b *Benchmark) ForwardProfile() []metric.ProfileRow {
	return b.forwardProfile
}

func (b *Benchmark) CanGenerate() bool {
	return b.generation.Supported
}

// Aggregate reduces the collected raw samples into the reportable result.
// It is a pure function of the run state: calling it twice yields identical
// results. Derived metrics are rounded to 3 significant figures; raw sample
// series stay untouched.
func (b *Benchmark) Aggregate() (metric.BenchmarkResult, error) {
	cfg := b.Configuration

	forwardMean, err := metric.MeanLatency(b.forwardLatencies)
	if err != nil {
		return metric.BenchmarkResult{}, err
	}

	result := metric.BenchmarkResult{
		RunID: b.RunID,
		Model: cfg.Model,
		Task:  cfg.Task,

		ForwardLatency: metric.SignificantFigures(forwardMean),
		ForwardThroughput: metric.SignificantFigures(
			metric.Throughput(cfg.InputShapes.BatchSize, forwardMean)),
	}

	if b.memoryTracked {
		result.MemoryTracked = true
		result.ForwardPeakMemory = metric.SignificantFigures(b.forwardPeakMemory)
	}

	if b.generation.Supported {
		generateMean, err := metric.MeanLatency(b.generateLatencies)
		if err != nil {
			return metric.BenchmarkResult{}, err
		}

		result.CanGenerate = true
		result.GenerateLatency = metric.SignificantFigures(generateMean)
		result.GenerateThroughput = metric.SignificantFigures(
			metric.Throughput(cfg.NewTokens*cfg.InputShapes.BatchSize, generateMean))
	}

	return result, nil
}
