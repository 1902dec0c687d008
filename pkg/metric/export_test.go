package metric

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/gocarina/gocsv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExporterAccumulatesRecords(t *testing.T) {
	exporter := NewExporter()

	exporter.ReportResult(BenchmarkResult{RunID: "run-1", ForwardLatency: 0.01})
	exporter.ReportSamples("forward", []float64{0.011, 0.009})
	exporter.ReportSamples("generate", []float64{2.0})

	assert.Equal(t, 1, exporter.GetResultRecordLen())
	assert.Equal(t, 3, exporter.GetSampleRecordLen())
}

func TestFinishAndSaveWritesCSV(t *testing.T) {
	prefix := filepath.Join(t.TempDir(), "inference")

	exporter := NewExporter()
	exporter.ReportResult(BenchmarkResult{
		RunID:             "run-1",
		Model:             "bert-base-uncased",
		ForwardLatency:    0.0123,
		ForwardThroughput: 81.3,
		CanGenerate:       true,
	})
	exporter.ReportSamples("forward", []float64{0.0123456, 0.0121})
	exporter.ReportProfile([]ProfileRow{
		{Node: "attention", Operator: "MatMul", Latency: 0.005},
	})

	exporter.FinishAndSave(prefix)

	resultF, err := os.Open(prefix + "_results.csv")
	require.NoError(t, err)
	defer resultF.Close()

	var results []BenchmarkResult
	require.NoError(t, gocsv.UnmarshalFile(resultF, &results))
	require.Len(t, results, 1)
	assert.Equal(t, "run-1", results[0].RunID)
	assert.Equal(t, 0.0123, results[0].ForwardLatency)
	assert.True(t, results[0].CanGenerate)

	samplesF, err := os.Open(prefix + "_samples.csv")
	require.NoError(t, err)
	defer samplesF.Close()

	var samples []SampleRecord
	require.NoError(t, gocsv.UnmarshalFile(samplesF, &samples))
	require.Len(t, samples, 2)
	// raw samples are exported unrounded
	assert.Equal(t, 0.0123456, samples[0].Latency)

	profileF, err := os.Open(prefix + "_profile.csv")
	require.NoError(t, err)
	defer profileF.Close()

	var rows []ProfileRow
	require.NoError(t, gocsv.UnmarshalFile(profileF, &rows))
	require.Len(t, rows, 1)
	assert.Equal(t, "MatMul", rows[0].Operator)
}

func TestFinishAndSaveSkipsProfileWhenEmpty(t *testing.T) {
	prefix := filepath.Join(t.TempDir(), "inference")

	exporter := NewExporter()
	exporter.ReportResult(BenchmarkResult{RunID: "run-1"})
	exporter.FinishAndSave(prefix)

	_, err := os.Stat(prefix + "_profile.csv")
	assert.True(t, os.IsNotExist(err))
}
