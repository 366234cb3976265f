package logging

import "errors"

// MultiLogger sends every entry to several loggers, e.g. a console
// logger for people and a JSON file for tooling.
type MultiLogger struct {
	loggers []Logger
}

// NewMultiLogger combines loggers. Nil entries are skipped.
func NewMultiLogger(loggers ...Logger) *MultiLogger {
	m := &MultiLogger{}
	for _, l := range loggers {
		if l != nil {
			m.loggers = append(m.loggers, l)
		}
	}
	return m
}

func (m *MultiLogger) each(fn func(Logger)) {
	for _, l := range m.loggers {
		fn(l)
	}
}

func (m *MultiLogger) Info(msg string, fields ...Field) {
	m.each(func(l Logger) { l.Info(msg, fields...) })
}

func (m *MultiLogger) Warn(msg string, fields ...Field) {
	m.each(func(l Logger) { l.Warn(msg, fields...) })
}

func (m *MultiLogger) Error(msg string, fields ...Field) {
	m.each(func(l Logger) { l.Error(msg, fields...) })
}

func (m *MultiLogger) Debug(msg string, fields ...Field) {
	m.each(func(l Logger) { l.Debug(msg, fields...) })
}

// WithFields applies fields to every inner logger.
func (m *MultiLogger) WithFields(fields ...Field) Logger {
	child := &MultiLogger{loggers: make([]Logger, 0, len(m.loggers))}
	m.each(func(l Logger) {
		child.loggers = append(child.loggers, l.WithFields(fields...))
	})
	return child
}

// Close closes every inner logger, even after an error, and
// returns the joined errors.
func (m *MultiLogger) Close() error {
	var errs []error
	m.each(func(l Logger) {
		if err := l.Close(); err != nil {
			errs = append(errs, err)
		}
	})
	return errors.Join(errs...)
}

// Len returns the number of inner loggers.
func (m *MultiLogger) Len() int {
	return len(m.loggers)
}
