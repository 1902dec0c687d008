package backend

import (
	"sort"

	"github.com/eth-easl/infbench/pkg/metric"
)

// Tensor is a dense named input buffer. The engine never inspects tensor
// contents; shapes exist for backends that validate their inputs.
type Tensor struct {
	Shape []int
	Data  []float64
}

// Inputs is the opaque bundle handed to a backend call. It is produced by
// the input generator and passed through the measurement core untouched.
type Inputs struct {
	BatchSize int
	Fields    map[string]Tensor
}

// Keys returns the field names in deterministic order.
func (in *Inputs) Keys() []string {
	keys := make([]string, 0, len(in.Fields))
	for key := range in.Fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	return keys
}

type Outputs struct {
	// GeneratedTokens is non-zero only for generation calls.
	GeneratedTokens int

	Fields map[string]Tensor
}

// Backend executes inference workloads. Forward must be supported by every
// backend; Generate may be unsupported and is gated by a capability probe in
// the orchestrator.
type Backend interface {
	Name() string
	Forward(inputs *Inputs) (*Outputs, error)
	Generate(inputs *Inputs, newTokens int) (*Outputs, error)
}

// Profiler is implemented by backends that can report per-operator timings.
// Profiling is requested explicitly, never probed: a backend without this
// interface fails a profiling-enabled run.
type Profiler interface {
	PrepareForProfiling(inputKeys []string) error
	ForwardProfile() ([]metric.ProfileRow, error)
}
