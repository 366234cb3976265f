package logging

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// jsonMarshal is a variable for dependency injection in tests.
var jsonMarshal = json.Marshal

// LogEntry represents a single JSON log entry.
type LogEntry struct {
	Timestamp string         `json:"timestamp"`
	Level     string         `json:"level"`
	Message   string         `json:"message"`
	Fields    map[string]any `json:"fields,omitempty"`
}

// LoggerConfig configures the JSONLogger.
type LoggerConfig struct {
	// Output receives entries when OutputPath is empty. A nil
	// Output means os.Stderr.
	Output io.Writer

	// OutputPath, when set, is a file that entries are
	// appended to. Parent directories are created.
	OutputPath string

	Level   LogLevel
	Verbose bool
	Fields  map[string]any
}

// JSONLogger implements Logger with JSON Lines output.
type JSONLogger struct {
	state   *jsonState
	level   LogLevel
	fields  map[string]any
	verbose bool
}

// jsonState is shared between a logger and the children created
// by WithFields.
type jsonState struct {
	mu     sync.Mutex
	output io.Writer
	owned  io.Closer
	closed bool
}

// NewJSONLogger creates a new JSON logger.
func NewJSONLogger(config LoggerConfig) (*JSONLogger, error) {
	state := &jsonState{output: config.Output}

	if config.OutputPath != "" {
		dir := filepath.Dir(config.OutputPath)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf(
				"failed to create log directory: %w", err,
			)
		}
		file, err := os.OpenFile(
			config.OutputPath,
			os.O_CREATE|os.O_WRONLY|os.O_APPEND,
			0o644,
		)
		if err != nil {
			return nil, fmt.Errorf(
				"failed to open log file: %w", err,
			)
		}
		state.output = file
		state.owned = file
	}

	if state.output == nil {
		state.output = os.Stderr
	}

	fields := config.Fields
	if fields == nil {
		fields = make(map[string]any)
	}

	return &JSONLogger{
		state:   state,
		level:   config.Level,
		verbose: config.Verbose,
		fields:  fields,
	}, nil
}

func (l *JSONLogger) log(
	level LogLevel, msg string, fields ...Field,
) {
	if level < l.level {
		return
	}

	entry := LogEntry{
		Timestamp: time.Now().Format(time.RFC3339Nano),
		Level:     level.String(),
		Message:   msg,
		Fields:    mergeFields(l.fields, fields),
	}

	data, err := jsonMarshal(entry)
	if err != nil {
		return
	}

	l.state.mu.Lock()
	defer l.state.mu.Unlock()

	if l.state.closed {
		return
	}
	fmt.Fprintln(l.state.output, string(data))
}

// Info logs an informational message.
func (l *JSONLogger) Info(msg string, fields ...Field) {
	l.log(LevelInfo, msg, fields...)
}

// Warn logs a warning message.
func (l *JSONLogger) Warn(msg string, fields ...Field) {
	l.log(LevelWarn, msg, fields...)
}

// Error logs an error message.
func (l *JSONLogger) Error(msg string, fields ...Field) {
	l.log(LevelError, msg, fields...)
}

// Debug logs a debug message only if verbose is enabled.
func (l *JSONLogger) Debug(msg string, fields ...Field) {
	if l.verbose {
		l.log(LevelDebug, msg, fields...)
	}
}

// WithFields returns a new Logger with additional default
// fields.
func (l *JSONLogger) WithFields(fields ...Field) Logger {
	return &JSONLogger{
		state:   l.state,
		level:   l.level,
		verbose: l.verbose,
		fields:  mergeFields(l.fields, fields),
	}
}

// Close stops further output and closes the log file, if the
// logger opened one. Closing twice is a no-op.
func (l *JSONLogger) Close() error {
	l.state.mu.Lock()
	defer l.state.mu.Unlock()

	if l.state.closed {
		return nil
	}
	l.state.closed = true

	if l.state.owned != nil {
		return l.state.owned.Close()
	}
	return nil
}
