package tracker

import (
	"time"
)

// MemoryTracker polls a memory usage source on a background goroutine while
// a foreground operation runs and retains only the maximum reading. Peak
// memory is usually a short spike inside the call, which a single post-hoc
// measurement would miss; polling at interval I bounds the temporal
// resolution of the peak to I.
//
// A tracker owns at most one active scope at a time; scopes do not nest.
type MemoryTracker struct {
	source Source

	peak     float64
	stopChan chan struct{}
	doneChan chan struct{}
}

func NewMemoryTracker(source Source) *MemoryTracker {
	return &MemoryTracker{
		source: source,
	}
}

// Start resets the peak and launches the sampler goroutine. It must be
// called strictly before the foreground operation begins. Starting an
// already started tracker is a programming error.
func (t *MemoryTracker) Start(interval time.Duration) {
	if t.stopChan != nil {
		panic("memory tracker scope already active")
	}

	t.peak = 0
	t.stopChan = make(chan struct{})
	t.doneChan = make(chan struct{})

	go t.sample(interval)
}

// Stop signals the sampler and waits for it to drain. It must be called
// strictly after the foreground operation returns, whether it succeeded or
// failed. After Stop returns, PeakMemory reflects every tick taken inside
// the scope.
func (t *MemoryTracker) Stop() {
	close(t.stopChan)
	<-t.doneChan

	t.stopChan = nil
	t.doneChan = nil
}

// PeakMemory returns the maximum reading observed during the last scope, in
// MiB. Only valid after Stop.
func (t *MemoryTracker) PeakMemory() float64 {
	return t.peak
}

func (t *MemoryTracker) sample(interval time.Duration) {
	defer close(t.doneChan)

	// One reading up front so even scopes shorter than the interval yield a
	// peak.
	t.observe()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-t.stopChan:
			// Final reading inside the scope boundary.
			t.observe()
			return
		case <-ticker.C:
			t.observe()
		}
	}
}

func (t *MemoryTracker) observe() {
	usage, err := t.source.Usage()
	if err != nil {
		// A failed reading only degrades resolution; the scope stays usable.
		return
	}

	if usage > t.peak {
		t.peak = usage
	}
}
