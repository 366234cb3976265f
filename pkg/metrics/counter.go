package metrics

import (
	"sort"
	"sync"
)

// Counts holds the outcome tallies for one operator.
type Counts struct {
	Passed int `json:"passed"`
	Failed int `json:"failed"`
}

// Total returns Passed + Failed.
func (c Counts) Total() int {
	return c.Passed + c.Failed
}

// CounterMetrics implements AssertionMetrics with in-memory
// counters keyed by operator. Export to a metrics backend is left
// to the host application.
type CounterMetrics struct {
	mu     sync.RWMutex
	counts map[string]Counts
}

// NewCounterMetrics creates a new CounterMetrics instance.
func NewCounterMetrics() *CounterMetrics {
	return &CounterMetrics{
		counts: make(map[string]Counts),
	}
}

func (m *CounterMetrics) RecordAssertion(op string, passed bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c := m.counts[op]
	if passed {
		c.Passed++
	} else {
		c.Failed++
	}
	m.counts[op] = c
}

// For returns the counts recorded for op.
func (m *CounterMetrics) For(op string) Counts {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.counts[op]
}

// Totals sums the counts of every operator.
func (m *CounterMetrics) Totals() Counts {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var total Counts
	for _, c := range m.counts {
		total.Passed += c.Passed
		total.Failed += c.Failed
	}
	return total
}

// Operators returns the operators seen so far, sorted.
func (m *CounterMetrics) Operators() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ops := make([]string, 0, len(m.counts))
	for op := range m.counts {
		ops = append(ops, op)
	}
	sort.Strings(ops)
	return ops
}

// Reset clears all counters.
func (m *CounterMetrics) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counts = make(map[string]Counts)
}
