package metric

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/gocarina/gocsv"
	log "github.com/sirupsen/logrus"
)

// Exporter accumulates the records of one or more benchmark runs and writes
// them out as CSV files at the end of the experiment.
type Exporter struct {
	mutex         sync.Mutex
	results       []BenchmarkResult
	profileRows   []ProfileRow
	sampleRecords []SampleRecord
}

func NewExporter() *Exporter {
	//* Note that the zero value of a mutex is usable as-is, so no
	//* initialization is required here.
	return &Exporter{
		results:       []BenchmarkResult{},
		profileRows:   []ProfileRow{},
		sampleRecords: []SampleRecord{},
	}
}

func (ep *Exporter) ReportResult(result BenchmarkResult) {
	ep.mutex.Lock()
	defer ep.mutex.Unlock()
	ep.results = append(ep.results, result)
}

func (ep *Exporter) ReportProfile(rows []ProfileRow) {
	ep.mutex.Lock()
	defer ep.mutex.Unlock()
	ep.profileRows = append(ep.profileRows, rows...)
}

// ReportSamples records the raw latency series of one pass for offline
// inspection. Iteration indices restart at zero per pass.
func (ep *Exporter) ReportSamples(pass string, latencies []float64) {
	ep.mutex.Lock()
	defer ep.mutex.Unlock()

	for i, latency := range latencies {
		ep.sampleRecords = append(ep.sampleRecords, SampleRecord{
			Pass:      pass,
			Iteration: i,
			Latency:   latency,
		})
	}
}

func (ep *Exporter) GetResultRecordLen() int {
	return len(ep.results)
}

func (ep *Exporter) GetSampleRecordLen() int {
	return len(ep.sampleRecords)
}

// FinishAndSave writes the accumulated records next to the given path
// prefix. Profile rows are only written when a profiling pass produced any.
func (ep *Exporter) FinishAndSave(outputPathPrefix string) {
	ep.mutex.Lock()
	defer ep.mutex.Unlock()

	if dir := filepath.Dir(outputPathPrefix); dir != "." {
		if err := os.MkdirAll(dir, os.ModePerm); err != nil {
			log.Fatal(err)
		}
	}

	resultFileName := outputPathPrefix + "_results.csv"
	resultF, err := os.Create(resultFileName)
	if err != nil {
		log.Fatal(err)
	}
	defer resultF.Close()
	if err := gocsv.MarshalFile(&ep.results, resultF); err != nil {
		log.Fatal(err)
	}

	samplesFileName := outputPathPrefix + "_samples.csv"
	samplesF, err := os.Create(samplesFileName)
	if err != nil {
		log.Fatal(err)
	}
	defer samplesF.Close()
	if err := gocsv.MarshalFile(&ep.sampleRecords, samplesF); err != nil {
		log.Fatal(err)
	}

	if len(ep.profileRows) > 0 {
		profileFileName := outputPathPrefix + "_profile.csv"
		profileF, err := os.Create(profileFileName)
		if err != nil {
			log.Fatal(err)
		}
		defer profileF.Close()
		if err := gocsv.MarshalFile(&ep.profileRows, profileF); err != nil {
			log.Fatal(err)
		}
	}

	log.Infof("Exported %d result record(s) and %d raw sample(s) to %s_*.csv",
		len(ep.results), len(ep.sampleRecords), outputPathPrefix)
}
