package report

import (
	"fmt"
	"io"
	"os"
	"sync"
)

// TextReporter writes one line per failure:
//
//	Failed: "a == b" (41 == 18467), in file main.go line 6
type TextReporter struct {
	mu       sync.Mutex
	output   io.Writer
	fullPath bool
}

// NewTextReporter creates a text reporter. A nil output means
// os.Stdout, looked up on every write so redirections made after
// construction are honoured. When fullPath is false only the base
// name of the file is printed.
func NewTextReporter(output io.Writer, fullPath bool) *TextReporter {
	return &TextReporter{
		output:   output,
		fullPath: fullPath,
	}
}

// Report writes the failure line.
func (r *TextReporter) Report(failure Failure) error {
	line := FormatLine(failure, r.fullPath)

	r.mu.Lock()
	defer r.mu.Unlock()

	w := r.output
	if w == nil {
		w = os.Stdout
	}

	if _, err := io.WriteString(w, line+"\n"); err != nil {
		return fmt.Errorf("write failure line: %w", err)
	}
	return nil
}

// FormatLine renders a failure without the trailing newline.
func FormatLine(failure Failure, fullPath bool) string {
	return fmt.Sprintf(
		"Failed: \"%s\" (%s), in file %s line %d",
		failure.Expression,
		failure.Rendered,
		failure.displayFile(fullPath),
		failure.Line,
	)
}
