package main

import (
	"flag"
	"os"
	"time"

	"github.com/eth-easl/infbench/pkg/backend"
	"github.com/eth-easl/infbench/pkg/benchmark"
	"github.com/eth-easl/infbench/pkg/config"
	"github.com/eth-easl/infbench/pkg/metric"

	log "github.com/sirupsen/logrus"

	tracer "github.com/ease-lab/vhive/utils/tracing/go"
)

const (
	zipkinAddr = "http://localhost:9411/api/v2/spans"
)

var (
	configPath        = flag.String("config", "cmd/config.json", "Path to benchmark configuration file")
	verbosity         = flag.String("verbosity", "info", "Logging verbosity - choose from [info, debug, trace]")
	overwriteDuration = flag.Float64("overwrite_duration", -1, "Overwrite the benchmark duration from the configuration file, in seconds")
)

func init() {
	flag.Parse()

	log.SetFormatter(&log.TextFormatter{
		TimestampFormat: time.StampMilli,
		FullTimestamp:   true,
	})
	log.SetOutput(os.Stdout)

	switch *verbosity {
	case "debug":
		log.SetLevel(log.DebugLevel)
	case "trace":
		log.SetLevel(log.TraceLevel)
	default:
		log.SetLevel(log.InfoLevel)
	}
}

func createBackend(cfg *config.BenchmarkConfiguration) backend.Backend {
	switch cfg.Backend {
	case "standard":
		return &backend.StandardBackend{
			ForwardLatency:   time.Duration(cfg.SimulatedLatencyMilli * float64(time.Millisecond)),
			TokenLatency:     time.Duration(cfg.SimulatedTokenCostMilli * float64(time.Millisecond)),
			SupportsGenerate: true,
		}
	case "http":
		return backend.NewHTTPBackend(cfg.Endpoint, cfg.Model, cfg.Task, cfg.HTTPTimeoutSeconds)
	default:
		log.Fatalf("Invalid 'Backend' parameter: %s", cfg.Backend)
		return nil
	}
}

func main() {
	cfg := config.ReadConfigurationFile(*configPath)

	if cfg.EnableZipkinTracing {
		log.Warnf("Zipkin tracing has been enabled. Backend calls will carry tracing overhead.")

		shutdown, err := tracer.InitBasicTracer(zipkinAddr, "infbench")
		if err != nil {
			log.Print(err)
		}

		defer shutdown()
	}

	if *overwriteDuration > 0 {
		cfg.BenchmarkDuration = *overwriteDuration
	}

	if err := cfg.Validate(); err != nil {
		log.Fatal(err)
	}

	runInferenceBenchmark(&cfg)
}

func runInferenceBenchmark(cfg *config.BenchmarkConfiguration) {
	log.Infof("Benchmarking %s backend (model %s, task %s) for %.1f s per pass",
		cfg.Backend, cfg.Model, cfg.Task, cfg.BenchmarkDuration)

	bench := benchmark.NewBenchmark(cfg, createBackend(cfg))

	start := time.Now()
	if err := bench.Run(); err != nil {
		log.Fatal("Benchmark run failed: ", err)
	}
	log.Infof("Benchmark run %s finished in %.1f s", bench.RunID, time.Since(start).Seconds())

	result, err := bench.Aggregate()
	if err != nil {
		log.Fatal("Failed to aggregate benchmark results: ", err)
	}

	exporter := metric.NewExporter()
	exporter.ReportResult(result)
	exporter.ReportSamples("forward", bench.ForwardLatencies())
	if bench.CanGenerate() {
		exporter.ReportSamples("generate", bench.GenerateLatencies())
	}
	if cfg.Profile {
		exporter.ReportProfile(bench.ForwardProfile())
	}

	exporter.FinishAndSave(cfg.OutputPathPrefix)
}
