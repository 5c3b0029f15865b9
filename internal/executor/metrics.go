package executor

import (
	"cmp"
	"slices"
	"sync"
	"time"
)

// Outcome classifies how an action run ended.
type Outcome uint8

const (
	OutcomeSuccess Outcome = iota
	OutcomeFailed
	OutcomeCancelled
	OutcomePanicked
	OutcomeSkipped
)

var outcomeNames = [...]string{"success", "failed", "cancelled", "panicked", "skipped"}

// String returns the outcome name.
func (o Outcome) String() string {
	if int(o) < len(outcomeNames) {
		return outcomeNames[o]
	}
	return "unknown"
}

// Metrics collects run statistics for the lifetime of a pool.
type Metrics struct {
	mu sync.RWMutex

	actions map[string]*ActionMetrics

	totalRuns      uint64
	totalFailures  uint64
	totalCancelled uint64
	totalPanics    uint64
	totalSkipped   uint64
	totalDuration  time.Duration
}

// ActionMetrics holds the statistics of one action.
type ActionMetrics struct {
	ID            string
	Name          string
	Runs          uint64
	Failures      uint64
	Cancelled     uint64
	TotalDuration time.Duration
	MinDuration   time.Duration
	MaxDuration   time.Duration
	LastOutcome   Outcome
	LastRun       time.Time
}

// NewMetrics creates an empty collector.
func NewMetrics() *Metrics {
	return &Metrics{actions: make(map[string]*ActionMetrics)}
}

// Record records one finished or skipped run.
func (m *Metrics) Record(id, name string, d time.Duration, outcome Outcome) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if outcome == OutcomeSkipped {
		m.totalSkipped++
		return
	}

	m.totalRuns++
	m.totalDuration += d
	switch outcome {
	case OutcomeFailed:
		m.totalFailures++
	case OutcomeCancelled:
		m.totalCancelled++
	case OutcomePanicked:
		m.totalPanics++
		m.totalFailures++
	}

	am := m.actions[id]
	if am == nil {
		am = &ActionMetrics{ID: id, Name: name, MinDuration: d, MaxDuration: d}
		m.actions[id] = am
	}
	am.Runs++
	am.TotalDuration += d
	am.LastOutcome = outcome
	am.LastRun = time.Now()
	am.MinDuration = min(am.MinDuration, d)
	am.MaxDuration = max(am.MaxDuration, d)
	switch outcome {
	case OutcomeFailed, OutcomePanicked:
		am.Failures++
	case OutcomeCancelled:
		am.Cancelled++
	}
}

// Action returns a copy of one action's metrics, or nil.
func (m *Metrics) Action(id string) *ActionMetrics {
	m.mu.RLock()
	defer m.mu.RUnlock()

	am := m.actions[id]
	if am == nil {
		return nil
	}
	c := *am
	return &c
}

// TopActions returns the n most run actions.
func (m *Metrics) TopActions(n int) []*ActionMetrics {
	out := m.copies()
	slices.SortFunc(out, func(a, b *ActionMetrics) int {
		return cmp.Compare(b.Runs, a.Runs)
	})
	return out[:min(n, len(out))]
}

// SlowestActions returns the n actions with the highest average run time.
func (m *Metrics) SlowestActions(n int) []*ActionMetrics {
	out := m.copies()
	slices.SortFunc(out, func(a, b *ActionMetrics) int {
		return cmp.Compare(b.Average(), a.Average())
	})
	return out[:min(n, len(out))]
}

func (m *Metrics) copies() []*ActionMetrics {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*ActionMetrics, 0, len(m.actions))
	for _, am := range m.actions {
		c := *am
		out = append(out, &c)
	}
	return out
}

// Reset clears all metrics.
func (m *Metrics) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.actions = make(map[string]*ActionMetrics)
	m.totalRuns = 0
	m.totalFailures = 0
	m.totalCancelled = 0
	m.totalPanics = 0
	m.totalSkipped = 0
	m.totalDuration = 0
}

// MetricsSnapshot is a point-in-time view of the pool totals.
type MetricsSnapshot struct {
	Runs            uint64
	Failures        uint64
	Cancelled       uint64
	Panics          uint64
	Skipped         uint64
	TotalDuration   time.Duration
	AverageDuration time.Duration
	ActionCount     int
	Timestamp       time.Time
}

// Snapshot returns the current totals.
func (m *Metrics) Snapshot() MetricsSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s := MetricsSnapshot{
		Runs:          m.totalRuns,
		Failures:      m.totalFailures,
		Cancelled:     m.totalCancelled,
		Panics:        m.totalPanics,
		Skipped:       m.totalSkipped,
		TotalDuration: m.totalDuration,
		ActionCount:   len(m.actions),
		Timestamp:     time.Now(),
	}
	if m.totalRuns > 0 {
		s.AverageDuration = m.totalDuration / time.Duration(m.totalRuns)
	}
	return s
}

// Average returns the mean run time.
func (am *ActionMetrics) Average() time.Duration {
	if am.Runs == 0 {
		return 0
	}
	return am.TotalDuration / time.Duration(am.Runs)
}

// FailureRate returns the failure rate as a percentage.
func (am *ActionMetrics) FailureRate() float64 {
	if am.Runs == 0 {
		return 0
	}
	return float64(am.Failures) / float64(am.Runs) * 100
}
