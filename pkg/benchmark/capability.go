package benchmark

// ProbeResult is the remembered outcome of trying an optional backend
// operation exactly once. Carrying the cause explicitly keeps call sites
// from masking unrelated failures behind a bare error check.
type ProbeResult struct {
	Supported bool
	Cause     error
}

// Probe attempts op once. A nil error marks the capability Supported; any
// error marks it Unsupported with the error retained for diagnostics. The
// error never escapes the probe.
func Probe(op func() error) ProbeResult {
	if err := op(); err != nil {
		return ProbeResult{Supported: false, Cause: err}
	}

	return ProbeResult{Supported: true}
}
