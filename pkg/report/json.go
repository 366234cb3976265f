package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
)

// jsonMarshal is a variable for dependency injection in tests.
var jsonMarshal = json.Marshal

// JSONReporter writes failures as JSON Lines.
type JSONReporter struct {
	mu       sync.Mutex
	output   io.Writer
	fullPath bool
}

// NewJSONReporter creates a JSON reporter. A nil output means
// os.Stdout, looked up on every write.
func NewJSONReporter(output io.Writer, fullPath bool) *JSONReporter {
	return &JSONReporter{
		output:   output,
		fullPath: fullPath,
	}
}

// Report writes the failure as a single JSON object followed by
// a newline.
func (r *JSONReporter) Report(failure Failure) error {
	data, err := jsonMarshal(failure.Record(r.fullPath))
	if err != nil {
		return fmt.Errorf("marshal failure: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	w := r.output
	if w == nil {
		w = os.Stdout
	}

	data = append(data, '\n')
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write failure: %w", err)
	}
	return nil
}
