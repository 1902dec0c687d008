package tracker

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"

	"golang.org/x/sys/unix"
)

// Source yields the current memory usage of the benchmarked process in MiB.
type Source interface {
	Usage() (float64, error)
}

const bytesPerMib = 1024 * 1024

// GoRuntimeSource reports the live Go heap. It tracks allocations made by
// in-process backends but is blind to cgo or mmap'ed memory.
type GoRuntimeSource struct{}

func (GoRuntimeSource) Usage() (float64, error) {
	var stats runtime.MemStats
	runtime.ReadMemStats(&stats)

	return float64(stats.HeapAlloc) / bytesPerMib, nil
}

// ResidentSetSource reports the process resident set size from procfs. This
// covers memory the Go runtime does not account for.
type ResidentSetSource struct{}

func (ResidentSetSource) Usage() (float64, error) {
	content, err := os.ReadFile("/proc/self/statm")
	if err != nil {
		return 0, fmt.Errorf("failed to read statm: %w", err)
	}

	fields := strings.Fields(string(content))
	if len(fields) < 2 {
		return 0, fmt.Errorf("malformed statm content: %q", string(content))
	}

	residentPages, err := strconv.ParseInt(fields[1], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse statm resident field: %w", err)
	}

	return float64(residentPages*int64(unix.Getpagesize())) / bytesPerMib, nil
}

// PeakRSS returns the kernel-side high-water mark of the resident set, in
// MiB. Useful as a cross-check against sampled peaks; unlike sampling it
// cannot be scoped to a single call.
func PeakRSS() (float64, error) {
	var usage unix.Rusage
	if err := unix.Getrusage(unix.RUSAGE_SELF, &usage); err != nil {
		return 0, fmt.Errorf("getrusage failed: %w", err)
	}

	// ru_maxrss is in KiB on Linux
	return float64(usage.Maxrss) / 1024, nil
}
