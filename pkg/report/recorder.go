package report

import (
	"sync"

	"digital.vasic.metassert/pkg/assertion"
)

// Recorder keeps failures in memory. It is safe for concurrent
// use and is mostly useful in tests.
type Recorder struct {
	mu       sync.RWMutex
	failures []Failure
}

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Report appends the failure.
func (r *Recorder) Report(failure Failure) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failures = append(r.failures, failure)
	return nil
}

// Failures returns a copy of the recorded failures.
func (r *Recorder) Failures() []Failure {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Failure, len(r.failures))
	copy(out, r.failures)
	return out
}

// Len returns the number of recorded failures.
func (r *Recorder) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.failures)
}

// Last returns the most recent failure, if any.
func (r *Recorder) Last() (Failure, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if len(r.failures) == 0 {
		return Failure{}, false
	}
	return r.failures[len(r.failures)-1], true
}

// ByOperator counts the recorded failures per operator.
func (r *Recorder) ByOperator() map[assertion.Operator]int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	counts := make(map[assertion.Operator]int)
	for _, f := range r.failures {
		counts[f.Op]++
	}
	return counts
}

// Reset discards all recorded failures.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failures = nil
}
