package dispatcher

import (
	"sync"
	"time"
)

// latencyBounds are the upper edges of the histogram buckets. A final
// overflow bucket holds everything slower than the last bound.
var latencyBounds = [...]time.Duration{
	10 * time.Microsecond,
	50 * time.Microsecond,
	100 * time.Microsecond,
	500 * time.Microsecond,
	time.Millisecond,
	5 * time.Millisecond,
	10 * time.Millisecond,
}

// LatencyTracker keeps a histogram of how long OnEvent takes.
type LatencyTracker struct {
	mu      sync.Mutex
	count   uint64
	total   time.Duration
	lo, hi  time.Duration
	buckets [len(latencyBounds) + 1]uint64
}

// LatencyStats is a snapshot of a LatencyTracker. Percentiles are bucket
// upper edges, or the slowest sample for the overflow bucket.
type LatencyStats struct {
	Count   uint64
	MinTime time.Duration
	MaxTime time.Duration
	AvgTime time.Duration
	P50     time.Duration
	P99     time.Duration
}

func NewLatencyTracker() *LatencyTracker {
	return &LatencyTracker{}
}

// Record adds one sample. Negative durations count as zero.
func (lt *LatencyTracker) Record(d time.Duration) {
	d = max(d, 0)

	lt.mu.Lock()
	defer lt.mu.Unlock()

	if lt.count == 0 || d < lt.lo {
		lt.lo = d
	}
	lt.hi = max(lt.hi, d)
	lt.count++
	lt.total += d

	i := 0
	for i < len(latencyBounds) && d >= latencyBounds[i] {
		i++
	}
	lt.buckets[i]++
}

func (lt *LatencyTracker) Stats() LatencyStats {
	lt.mu.Lock()
	defer lt.mu.Unlock()

	if lt.count == 0 {
		return LatencyStats{}
	}
	return LatencyStats{
		Count:   lt.count,
		MinTime: lt.lo,
		MaxTime: lt.hi,
		AvgTime: lt.total / time.Duration(lt.count),
		P50:     lt.percentile(50),
		P99:     lt.percentile(99),
	}
}

func (lt *LatencyTracker) percentile(p uint64) time.Duration {
	rank := max(p*lt.count/100, 1)
	var seen uint64
	for i, n := range lt.buckets {
		seen += n
		if seen >= rank && i < len(latencyBounds) {
			return latencyBounds[i]
		}
	}
	return lt.hi
}

// Reset drops every sample.
func (lt *LatencyTracker) Reset() {
	lt.mu.Lock()
	defer lt.mu.Unlock()
	lt.count, lt.total, lt.lo, lt.hi = 0, 0, 0, 0
	lt.buckets = [len(latencyBounds) + 1]uint64{}
}
