// Package monitor collects assertion outcomes and streams failures
// to connected dashboards over WebSocket.
package monitor

import (
	"sync"
	"time"

	"digital.vasic.metassert/pkg/report"
)

// defaultLimit bounds the number of failures kept in memory.
const defaultLimit = 1000

// Stats holds aggregate assertion statistics.
type Stats struct {
	Total     int           `json:"total"`
	Passed    int           `json:"passed"`
	Failed    int           `json:"failed"`
	Reported  int           `json:"reported"`
	StartTime time.Time     `json:"start_time"`
	Duration  time.Duration `json:"duration"`
}

// Collector records failures and outcome counts. It implements
// both report.Reporter and metrics.AssertionMetrics so a single
// value can be handed to an asserter for both roles.
type Collector struct {
	mu       sync.RWMutex
	limit    int
	failures []report.Failure
	handlers []func(report.Failure)
	stats    Stats
}

// NewCollector creates a collector keeping at most limit recent
// failures. A limit of zero or less uses the default of 1000.
func NewCollector(limit int) *Collector {
	if limit <= 0 {
		limit = defaultLimit
	}
	return &Collector{
		limit: limit,
		stats: Stats{StartTime: time.Now()},
	}
}

// OnFailure registers a handler called for each reported failure.
func (c *Collector) OnFailure(handler func(report.Failure)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers = append(c.handlers, handler)
}

// Report records a failure and notifies all handlers outside the
// lock.
func (c *Collector) Report(failure report.Failure) error {
	if failure.Timestamp.IsZero() {
		failure.Timestamp = time.Now()
	}

	c.mu.Lock()
	c.failures = append(c.failures, failure)
	if over := len(c.failures) - c.limit; over > 0 {
		c.failures = append(c.failures[:0:0], c.failures[over:]...)
	}
	c.stats.Reported++
	handlers := make([]func(report.Failure), len(c.handlers))
	copy(handlers, c.handlers)
	c.mu.Unlock()

	for _, h := range handlers {
		h(failure)
	}
	return nil
}

// RecordAssertion counts one evaluation.
func (c *Collector) RecordAssertion(_ string, passed bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stats.Total++
	if passed {
		c.stats.Passed++
	} else {
		c.stats.Failed++
	}
}

// Failures returns a copy of the retained failures, oldest first.
func (c *Collector) Failures() []report.Failure {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]report.Failure, len(c.failures))
	copy(out, c.failures)
	return out
}

// Stats returns the current aggregate statistics.
func (c *Collector) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s := c.stats
	s.Duration = time.Since(s.StartTime)
	return s
}

// Reset clears failures and statistics. Handlers are kept.
func (c *Collector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failures = nil
	c.stats = Stats{StartTime: time.Now()}
}
