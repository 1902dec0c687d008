package benchmark

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProbeSupported(t *testing.T) {
	calls := 0
	result := Probe(func() error {
		calls++
		return nil
	})

	assert.True(t, result.Supported)
	assert.NoError(t, result.Cause)
	assert.Equal(t, 1, calls)
}

func TestProbeUnsupportedRetainsCause(t *testing.T) {
	cause := errors.New("generation head missing")
	result := Probe(func() error {
		return cause
	})

	assert.False(t, result.Supported)
	assert.Equal(t, cause, result.Cause)
}
