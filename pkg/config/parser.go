package config

import (
	"encoding/json"
	"os"

	log "github.com/sirupsen/logrus"
)

// ReadConfigurationFile loads a benchmark configuration from a JSON file and
// fills in defaults for omitted optional fields. Validation is a separate
// step so callers can decide how to surface parameter errors.
func ReadConfigurationFile(path string) BenchmarkConfiguration {
	byteValue, err := os.ReadFile(path)
	if err != nil {
		log.Fatal(err)
	}

	config := BenchmarkConfiguration{
		WarmupRuns:              10,
		BenchmarkDuration:       10,
		NewTokens:               100,
		SamplingIntervalDivisor: DefaultSamplingIntervalDivisor,
		MemorySource:            "runtime",
		Backend:                 "standard",
		HTTPTimeoutSeconds:      900,
		OutputPathPrefix:        "data/out/inference",
		InputShapes: InputShapes{
			BatchSize:      1,
			SequenceLength: 16,
		},
	}
	err = json.Unmarshal(byteValue, &config)
	if err != nil {
		log.Fatal(err)
	}

	return config
}
