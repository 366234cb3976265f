// Package metrics counts assertion evaluations.
package metrics

// AssertionMetrics defines the interface for recording assertion
// outcomes.
type AssertionMetrics interface {
	// RecordAssertion records one evaluation of the given
	// operator.
	RecordAssertion(op string, passed bool)
}

// NoopMetrics is a no-op implementation of AssertionMetrics
// useful for testing or when metrics collection is disabled.
type NoopMetrics struct{}

func (NoopMetrics) RecordAssertion(_ string, _ bool) {}
