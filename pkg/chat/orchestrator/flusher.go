package orchestrator

import "time"

// flusher decides when the growing accumulator is written back. With both
// limits at zero every delta is written.
type flusher struct {
	interval time.Duration
	bytes    int

	lastAt  time.Time
	pending int
	now     func() time.Time
}

func newFlusher(interval time.Duration, bytes int) *flusher {
	return &flusher{
		interval: interval,
		bytes:    bytes,
		lastAt:   time.Now(),
		now:      time.Now,
	}
}

func (f *flusher) due(n int) bool {
	f.pending += n

	switch {
	case f.interval <= 0 && f.bytes <= 0:
	case f.bytes > 0 && f.pending >= f.bytes:
	case f.interval > 0 && f.now().Sub(f.lastAt) >= f.interval:
	default:
		return false
	}

	f.lastAt = f.now()
	f.pending = 0
	return true
}
