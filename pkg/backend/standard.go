package backend

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/eth-easl/infbench/pkg/metric"
)

const execUnit int = 1e2

// ErrGenerationNotSupported is what the standard backend raises when it was
// configured without generation support.
var ErrGenerationNotSupported = errors.New("backend does not support generation")

// StandardBackend is a synthetic in-process backend with a configurable cost
// model. It burns CPU for a requested duration and optionally holds a
// transient memory ballast, which makes it a deterministic workload for
// validating the measurement harness itself.
type StandardBackend struct {
	// ForwardLatency is the simulated cost of one forward call.
	ForwardLatency time.Duration
	// TokenLatency is the additional cost per generated token.
	TokenLatency time.Duration
	// BallastMib is allocated for the duration of each call.
	BallastMib int

	SupportsGenerate bool

	profilingPrepared bool
	profileKeys       []string
	lastProfile       []metric.ProfileRow
}

func (b *StandardBackend) Name() string {
	return "standard"
}

// busySpin keeps a core busy for the requested duration. Spinning instead of
// sleeping makes the simulated call visible to CPU-time based observers,
// like the real workloads it stands in for.
func busySpin(duration time.Duration) {
	var tmp float64 //* Circumvent compiler optimisations.
	start := time.Now()

	for time.Since(start) < duration {
		for i := 0; i < execUnit; i++ {
			tmp = math.Sqrt(10)
		}
	}
	_ = tmp
}

func (b *StandardBackend) execute(duration time.Duration) {
	var ballast []byte
	if b.BallastMib > 0 {
		ballast = make([]byte, b.BallastMib*1024*1024)
		// Touch one byte per page so the ballast lands in the resident set.
		for i := 0; i < len(ballast); i += 4096 {
			ballast[i] = 1
		}
	}

	busySpin(duration)
	_ = ballast
}

func (b *StandardBackend) Forward(inputs *Inputs) (*Outputs, error) {
	start := time.Now()
	b.execute(b.ForwardLatency)

	if b.profilingPrepared {
		b.recordProfile(time.Since(start))
	}

	return &Outputs{
		Fields: map[string]Tensor{
			"logits": {Shape: []int{inputs.BatchSize}, Data: make([]float64, inputs.BatchSize)},
		},
	}, nil
}

func (b *StandardBackend) Generate(inputs *Inputs, newTokens int) (*Outputs, error) {
	if !b.SupportsGenerate {
		return nil, ErrGenerationNotSupported
	}

	b.execute(b.ForwardLatency + time.Duration(newTokens)*b.TokenLatency)

	return &Outputs{
		GeneratedTokens: newTokens * inputs.BatchSize,
	}, nil
}

func (b *StandardBackend) PrepareForProfiling(inputKeys []string) error {
	b.profilingPrepared = true
	b.profileKeys = inputKeys

	return nil
}

// recordProfile splits the measured call duration over the simulated
// pipeline stages, one load row per input plus fixed compute stages.
func (b *StandardBackend) recordProfile(elapsed time.Duration) {
	stages := []struct {
		node     string
		operator string
		share    float64
	}{
		{"embed", "Gather", 0.1},
		{"attention", "MatMul", 0.5},
		{"mlp", "MatMul", 0.3},
		{"lm_head", "MatMul", 0.1},
	}

	loadShare := 0.0
	if len(b.profileKeys) > 0 {
		loadShare = 0.05
	}

	rows := []metric.ProfileRow{}
	for _, key := range b.profileKeys {
		rows = append(rows, metric.ProfileRow{
			Node:     fmt.Sprintf("load_%s", key),
			Operator: "MemcpyH2D",
			Latency:  elapsed.Seconds() * loadShare / float64(len(b.profileKeys)),
		})
	}
	for _, stage := range stages {
		rows = append(rows, metric.ProfileRow{
			Node:     stage.node,
			Operator: stage.operator,
			Latency:  elapsed.Seconds() * (1 - loadShare) * stage.share,
		})
	}

	b.lastProfile = rows
}

func (b *StandardBackend) ForwardProfile() ([]metric.ProfileRow, error) {
	if !b.profilingPrepared {
		return nil, errors.New("backend was not prepared for profiling")
	}

	return b.lastProfile, nil
}
