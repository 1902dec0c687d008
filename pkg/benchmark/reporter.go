package benchmark

import (
	log "github.com/sirupsen/logrus"
)

// Reporter receives progress checkpoints from the orchestrator. The core is
// silent by default; narration is an injected concern so tests never need to
// capture log output.
type Reporter interface {
	PhaseStarted(phase string)
	PhaseFinished(phase string)
	MetricComputed(name string, value float64, unit string)
	GenerationUnsupported(cause error)
}

// LogReporter narrates checkpoints through logrus.
type LogReporter struct{}

func (LogReporter) PhaseStarted(phase string) {
	log.Infof("\t+ Running the %s pass", phase)
}

func (LogReporter) PhaseFinished(phase string) {
	log.Debugf("\t+ Finished the %s pass", phase)
}

func (LogReporter) MetricComputed(name string, value float64, unit string) {
	log.Infof("\t+ %s: %.3g (%s)", name, value, unit)
}

func (LogReporter) GenerationUnsupported(cause error) {
	log.Infof("\t+ Generation pass failed or not supported")
	log.Infof("\t+ Raised error: %v", cause)
}

// NopReporter discards all checkpoints.
type NopReporter struct{}

func (NopReporter) PhaseStarted(string)                    {}
func (NopReporter) PhaseFinished(string)                   {}
func (NopReporter) MetricComputed(string, float64, string) {}
func (NopReporter) GenerationUnsupported(error)            {}
