package metric

// BenchmarkResult is the immutable summary of one benchmark run. It is
// created only after every pass has finished; optional sections are simply
// absent when the corresponding pass was disabled or unsupported.
type BenchmarkResult struct {
	RunID string `csv:"run_id" json:"RunID"`
	Model string `csv:"model" json:"Model"`
	Task  string `csv:"task" json:"Task"`

	ForwardLatency    float64 `csv:"forward_latency_s" json:"ForwardLatency"`
	ForwardThroughput float64 `csv:"forward_throughput_samples_per_s" json:"ForwardThroughput"`

	MemoryTracked     bool    `csv:"memory_tracked" json:"MemoryTracked"`
	ForwardPeakMemory float64 `csv:"forward_peak_memory_mib" json:"ForwardPeakMemory"`

	CanGenerate        bool    `csv:"can_generate" json:"CanGenerate"`
	GenerateLatency    float64 `csv:"generate_latency_s" json:"GenerateLatency"`
	GenerateThroughput float64 `csv:"generate_throughput_tokens_per_s" json:"GenerateThroughput"`
}

// ProfileRow is one per-operator timing reported by a profiling-capable
// backend. Row order follows execution order as reported by the backend.
type ProfileRow struct {
	Node     string  `csv:"node_kernel" json:"Node"`
	Operator string  `csv:"operator" json:"Operator"`
	Latency  float64 `csv:"latency_s" json:"Latency"`
}

// SampleRecord is one raw latency sample, exported for offline diagnostics
// (e.g. detecting a warming trend with the plotter). Raw samples are never
// rounded.
type SampleRecord struct {
	Pass      string  `csv:"pass"`
	Iteration int     `csv:"iteration"`
	Latency   float64 `csv:"latency_s"`
}
