package generator

import (
	"math/rand"

	"github.com/eth-easl/infbench/pkg/backend"
	"github.com/eth-easl/infbench/pkg/config"
)

type Mode int

const (
	ModeForward Mode = iota
	ModeGenerate
)

const vocabularySize = 32000

// InputGenerator synthesizes backend inputs for a given mode and shape
// configuration. Generation is seeded so that every run of an experiment
// benchmarks identical payloads.
type InputGenerator struct {
	task      string
	inputRand *rand.Rand
}

func NewInputGenerator(task string, seed int64) *InputGenerator {
	return &InputGenerator{
		task:      task,
		inputRand: rand.New(rand.NewSource(seed)),
	}
}

// Generate produces a ready-to-use input bundle. The measurement core treats
// the result as opaque and only hands it to the backend.
func (g *InputGenerator) Generate(mode Mode, shapes config.InputShapes) *backend.Inputs {
	inputs := &backend.Inputs{
		BatchSize: shapes.BatchSize,
		Fields:    map[string]backend.Tensor{},
	}

	switch g.task {
	case "image-classification":
		inputs.Fields["pixel_values"] = g.randomTensor(
			[]int{shapes.BatchSize, shapes.NumChannels, shapes.Height, shapes.Width})
	case "audio-classification":
		inputs.Fields["input_features"] = g.randomTensor(
			[]int{shapes.BatchSize, shapes.FeatureSize, shapes.AudioSequenceLength})
	default:
		// text tasks
		inputs.Fields["input_ids"] = g.tokenTensor([]int{shapes.BatchSize, shapes.SequenceLength})
		if mode == ModeForward {
			// Decoding takes a bare prompt; the mask only matters for the
			// forward pass over padded batches.
			inputs.Fields["attention_mask"] = g.onesTensor([]int{shapes.BatchSize, shapes.SequenceLength})
		}
	}

	return inputs
}

func numElements(shape []int) int {
	n := 1
	for _, dim := range shape {
		n *= dim
	}
	return n
}

func (g *InputGenerator) randomTensor(shape []int) backend.Tensor {
	data := make([]float64, numElements(shape))
	for i := range data {
		data[i] = g.inputRand.Float64()
	}

	return backend.Tensor{Shape: shape, Data: data}
}

func (g *InputGenerator) tokenTensor(shape []int) backend.Tensor {
	data := make([]float64, numElements(shape))
	for i := range data {
		data[i] = float64(g.inputRand.Intn(vocabularySize))
	}

	return backend.Tensor{Shape: shape, Data: data}
}

func (g *InputGenerator) onesTensor(shape []int) backend.Tensor {
	data := make([]float64, numElements(shape))
	for i := range data {
		data[i] = 1
	}

	return backend.Tensor{Shape: shape, Data: data}
}
