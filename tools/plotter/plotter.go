package main

import (
	"errors"
	"flag"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"
	log "github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/eth-easl/infbench/pkg/metric"
)

func main() {
	var (
		inputFile  = flag.String("i", "data/out/inference_samples.csv", "Path to the raw samples CSV file")
		outputDir  = flag.String("o", "figs", "Path to the directory for output figures")
		debugLevel = flag.String("d", "info", "Debug level: info, debug")
	)
	flag.Parse()
	log.SetOutput(os.Stdout)

	switch *debugLevel {
	case "info":
		log.SetLevel(log.InfoLevel)
	case "debug":
		log.SetLevel(log.DebugLevel)
		log.Debug("Debug mode is enabled")
	}

	series := parseSamples(*inputFile)
	for pass, latencies := range series {
		mean := stat.Mean(latencies, nil)
		stddev := stat.StdDev(latencies, nil)
		log.Infof("%s pass: %d samples, mean %.3g s, stddev %.3g s",
			pass, len(latencies), mean, stddev)
	}

	plotFig(*outputDir, series)
}

func parseSamples(inputFile string) map[string][]float64 {
	f, err := os.Open(inputFile)
	if err != nil {
		log.Fatal("Cannot open the input file: ", err)
	}
	defer f.Close()

	var records []metric.SampleRecord
	if err := gocsv.UnmarshalFile(f, &records); err != nil {
		log.Fatal("Cannot parse the input file: ", err)
	}

	series := map[string][]float64{}
	for _, record := range records {
		series[record.Pass] = append(series[record.Pass], record.Latency)
	}

	return series
}

func plotFig(outputDir string, series map[string][]float64) {
	if _, err := os.Stat(outputDir); errors.Is(err, os.ErrNotExist) {
		log.Info("Creating the output directory")
		err := os.Mkdir(outputDir, os.ModePerm)
		if err != nil {
			log.Fatal(err)
		}
	}

	p := plot.New()

	p.Title.Text = "Latency per iteration"
	p.X.Label.Text = "Iteration"
	p.Y.Label.Text = "Latency (s)"
	p.Y.Min = 0

	var lines []interface{}
	for pass, latencies := range series {
		lines = append(lines, pass, getXY(latencies))
	}

	if err := plotutil.AddLinePoints(p, lines...); err != nil {
		log.Fatal(err)
	}

	// Save the plot to a PNG file.
	if err := p.Save(6*vg.Inch, 4*vg.Inch, filepath.Join(outputDir, "latency.png")); err != nil {
		log.Fatal(err)
	}
}

func getXY(latencies []float64) plotter.XYs {
	pts := make(plotter.XYs, len(latencies))
	for i, latency := range latencies {
		pts[i].X = float64(i)
		pts[i].Y = latency
	}
	return pts
}
