// Package report writes failed-assertion diagnostics.
package report

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"digital.vasic.metassert/pkg/assertion"
)

// Failure is everything known about one failed check.
type Failure struct {
	// Expression is the literal source text, e.g. "a == b".
	Expression string `json:"expression"`

	// Rendered is the expression with evaluated operands,
	// e.g. "41 == 18467".
	Rendered string `json:"rendered"`

	// Op is the operator of the expression.
	Op assertion.Operator `json:"op"`

	// Lhs and Rhs are the evaluated operands.
	Lhs any `json:"lhs"`
	Rhs any `json:"rhs"`

	// Message explains why the expression was falsy.
	Message string `json:"message,omitempty"`

	// File and Line locate the check in source.
	File string `json:"file"`
	Line int    `json:"line"`

	// Function is the fully qualified name of the function
	// containing the check.
	Function string `json:"function,omitempty"`

	Timestamp time.Time `json:"timestamp"`
}

// FailureFromResult builds a Failure from an evaluation result.
// Location fields are left for the caller to fill in.
func FailureFromResult(r assertion.Result) Failure {
	return Failure{
		Expression: r.Source,
		Rendered:   r.Rendered,
		Op:         r.Op,
		Lhs:        r.Lhs,
		Rhs:        r.Rhs,
		Message:    r.Message,
		Timestamp:  time.Now(),
	}
}

// displayFile returns the file as it should appear in output.
func (f Failure) displayFile(fullPath bool) string {
	if fullPath || f.File == "" {
		return f.File
	}
	return filepath.Base(f.File)
}

// Record is the serialisable form of a Failure. Operands are kept
// as rendered text so values that cannot be marshalled still
// produce a record.
type Record struct {
	Expression string    `json:"expression"`
	Rendered   string    `json:"rendered"`
	Op         string    `json:"op"`
	Lhs        string    `json:"lhs"`
	Rhs        string    `json:"rhs"`
	Message    string    `json:"message,omitempty"`
	File       string    `json:"file"`
	Line       int       `json:"line"`
	Function   string    `json:"function,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// Record converts the failure to its serialisable form.
func (f Failure) Record(fullPath bool) Record {
	return Record{
		Expression: f.Expression,
		Rendered:   f.Rendered,
		Op:         f.Op.String(),
		Lhs:        fmt.Sprint(f.Lhs),
		Rhs:        fmt.Sprint(f.Rhs),
		Message:    f.Message,
		File:       f.displayFile(fullPath),
		Line:       f.Line,
		Function:   f.Function,
		Timestamp:  f.Timestamp,
	}
}

// Reporter defines the interface for failure sinks.
type Reporter interface {
	// Report emits a single failure.
	Report(failure Failure) error
}

// ReporterFunc adapts a function to the Reporter interface.
type ReporterFunc func(failure Failure) error

// Report calls f(failure).
func (f ReporterFunc) Report(failure Failure) error {
	return f(failure)
}

// MultiReporter fans out failures to several reporters.
type MultiReporter struct {
	reporters []Reporter
}

// NewMultiReporter creates a reporter that writes to every given
// reporter. Nil entries are skipped.
func NewMultiReporter(reporters ...Reporter) *MultiReporter {
	m := &MultiReporter{}
	for _, r := range reporters {
		if r != nil {
			m.reporters = append(m.reporters, r)
		}
	}
	return m
}

// Report sends the failure to every reporter, even after an
// error, and returns the joined errors.
func (m *MultiReporter) Report(failure Failure) error {
	var errs []error
	for _, r := range m.reporters {
		if err := r.Report(failure); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Len returns the number of reporters.
func (m *MultiReporter) Len() int {
	return len(m.reporters)
}
