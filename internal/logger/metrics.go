package logger

import (
	"sync"
	"time"
)

// Metrics tracks counters and timings for a discovery run. All operations
// are safe for concurrent use by aggregator workers.
type Metrics struct {
	mu       sync.Mutex
	counters map[string]int64
	timings  map[string][]time.Duration
}

// NewMetrics creates an empty metrics tracker.
func NewMetrics() *Metrics {
	return &Metrics{
		counters: make(map[string]int64),
		timings:  make(map[string][]time.Duration),
	}
}

// IncrCounter increments the named counter by one.
func (m *Metrics) IncrCounter(name string) {
	m.AddCounter(name, 1)
}

// AddCounter increments the named counter by delta.
func (m *Metrics) AddCounter(name string, delta int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counters[name] += delta
}

// Counter returns the current value of the named counter.
func (m *Metrics) Counter(name string) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counters[name]
}

// RecordTiming records one duration sample under name.
func (m *Metrics) RecordTiming(name string, d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.timings[name] = append(m.timings[name], d)
}

// TimingStats summarizes the samples recorded under one name.
type TimingStats struct {
	Count int           `json:"count"`
	Min   time.Duration `json:"min"`
	Max   time.Duration `json:"max"`
	Avg   time.Duration `json:"avg"`
}

// Timing returns min/max/average statistics for the named timing.
func (m *Metrics) Timing(name string) TimingStats {
	m.mu.Lock()
	defer m.mu.Unlock()

	samples := m.timings[name]
	if len(samples) == 0 {
		return TimingStats{}
	}

	stats := TimingStats{Count: len(samples), Min: samples[0], Max: samples[0]}
	var total time.Duration
	for _, d := range samples {
		total += d
		if d < stats.Min {
			stats.Min = d
		}
		if d > stats.Max {
			stats.Max = d
		}
	}
	stats.Avg = total / time.Duration(len(samples))
	return stats
}

// Counters returns a copy of all counters for the run report.
func (m *Metrics) Counters() map[string]int64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make(map[string]int64, len(m.counters))
	for name, v := range m.counters {
		out[name] = v
	}
	return out
}
