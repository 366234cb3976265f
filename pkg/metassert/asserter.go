// Package metassert provides print-only assertions. A failed check
// writes one diagnostic line naming the expression as written at
// the call site, its evaluated operands, and the file and line,
// then lets execution continue:
//
//	Failed: "a == b" (41 == 18467), in file main.go line 6
//
// A passing check performs no I/O.
package metassert

import (
	"fmt"
	"io"

	"digital.vasic.metassert/pkg/assertion"
	"digital.vasic.metassert/pkg/config"
	"digital.vasic.metassert/pkg/logging"
	"digital.vasic.metassert/pkg/metrics"
	"digital.vasic.metassert/pkg/report"
	"digital.vasic.metassert/pkg/source"
)

// Asserter evaluates checks and reports the failing ones. It is
// safe for concurrent use; lines written by concurrent failures
// do not interleave.
type Asserter struct {
	engine   assertion.Engine
	reporter report.Reporter
	logger   logging.Logger
	metrics  metrics.AssertionMetrics
	locator  *source.Locator
}

// Option configures an Asserter.
type Option func(*Asserter)

// WithOutput replaces the reporter with a text reporter writing to
// w. A nil w means standard output.
func WithOutput(w io.Writer, fullPath bool) Option {
	return func(a *Asserter) {
		a.reporter = report.NewTextReporter(w, fullPath)
	}
}

// WithReporter replaces the reporter.
func WithReporter(r report.Reporter) Option {
	return func(a *Asserter) {
		if r != nil {
			a.reporter = r
		}
	}
}

// AddReporter sends failures to r in addition to the current
// reporter.
func AddReporter(r report.Reporter) Option {
	return func(a *Asserter) {
		if r != nil {
			a.reporter = report.NewMultiReporter(a.reporter, r)
		}
	}
}

// WithLogger sets the logger for failures and reporter errors.
func WithLogger(l logging.Logger) Option {
	return func(a *Asserter) {
		if l != nil {
			a.logger = l
		}
	}
}

// WithMetrics sets the collector notified of every evaluation.
func WithMetrics(m metrics.AssertionMetrics) Option {
	return func(a *Asserter) {
		if m != nil {
			a.metrics = m
		}
	}
}

// WithEngine sets the evaluation engine, e.g. one with extra
// operators registered.
func WithEngine(e assertion.Engine) Option {
	return func(a *Asserter) {
		if e != nil {
			a.engine = e
		}
	}
}

// WithFullPath prints the caller's full file path instead of its
// base name. It replaces the reporter with a text reporter on
// standard output.
func WithFullPath() Option {
	return WithOutput(nil, true)
}

// WithLocator sets the source locator. Sharing one locator between
// asserters shares its parsed-file cache.
func WithLocator(l *source.Locator) Option {
	return func(a *Asserter) {
		if l != nil {
			a.locator = l
		}
	}
}

// New creates an Asserter. Without options it prints text lines to
// standard output, logs nothing and counts nothing.
func New(opts ...Option) *Asserter {
	a := &Asserter{
		engine:   assertion.NewEngine(),
		reporter: report.NewTextReporter(nil, false),
		logger:   logging.NullLogger{},
		metrics:  metrics.NoopMetrics{},
		locator:  source.NewLocator(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// NewFromConfig creates an Asserter from cfg. Options are applied
// after the configured reporter and logger. The caller owns the
// returned logger through Close.
func NewFromConfig(cfg config.Config, opts ...Option) (*Asserter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var reporter report.Reporter
	switch cfg.Format {
	case config.FormatJSON:
		reporter = report.NewJSONReporter(nil, cfg.FullPath)
	default:
		reporter = report.NewTextReporter(nil, cfg.FullPath)
	}

	logger, err := newLogger(cfg.Log)
	if err != nil {
		return nil, err
	}

	base := []Option{WithReporter(reporter), WithLogger(logger)}
	return New(append(base, opts...)...), nil
}

func newLogger(cfg config.LogConfig) (logging.Logger, error) {
	switch cfg.Format {
	case config.LogConsole:
		return logging.NewConsoleLogger(nil, cfg.Verbose), nil
	case config.LogJSON:
		level, ok := logging.ParseLevel(cfg.Level)
		if !ok {
			return nil, fmt.Errorf(
				"%w: log.level %q", config.ErrInvalidConfig, cfg.Level,
			)
		}
		l, err := logging.NewJSONLogger(logging.LoggerConfig{
			OutputPath: cfg.Path,
			Level:      level,
			Verbose:    cfg.Verbose,
		})
		if err != nil {
			return nil, fmt.Errorf("create logger: %w", err)
		}
		if cfg.Console {
			return logging.NewMultiLogger(
				logging.NewConsoleLogger(nil, cfg.Verbose), l,
			), nil
		}
		return l, nil
	}
	return logging.NullLogger{}, nil
}

// Close releases the logger.
func (a *Asserter) Close() error {
	return a.logger.Close()
}

// Equal reports whether lhs == rhs.
func (a *Asserter) Equal(lhs, rhs any) bool {
	return a.check(assertion.Equal, lhs, rhs, "")
}

// NotEqual reports whether lhs != rhs.
func (a *Asserter) NotEqual(lhs, rhs any) bool {
	return a.check(assertion.NotEqual, lhs, rhs, "")
}

// Less reports whether lhs < rhs.
func (a *Asserter) Less(lhs, rhs any) bool {
	return a.check(assertion.LessThan, lhs, rhs, "")
}

// LessOrEqual reports whether lhs <= rhs.
func (a *Asserter) LessOrEqual(lhs, rhs any) bool {
	return a.check(assertion.LessOrEqual, lhs, rhs, "")
}

// Greater reports whether lhs > rhs.
func (a *Asserter) Greater(lhs, rhs any) bool {
	return a.check(assertion.GreaterThan, lhs, rhs, "")
}

// GreaterOrEqual reports whether lhs >= rhs.
func (a *Asserter) GreaterOrEqual(lhs, rhs any) bool {
	return a.check(assertion.GreaterOrEqual, lhs, rhs, "")
}

// Add reports whether lhs + rhs is non-zero.
func (a *Asserter) Add(lhs, rhs any) bool {
	return a.check(assertion.Add, lhs, rhs, "")
}

// Subtract reports whether lhs - rhs is non-zero.
func (a *Asserter) Subtract(lhs, rhs any) bool {
	return a.check(assertion.Subtract, lhs, rhs, "")
}

// Multiply reports whether lhs * rhs is non-zero.
func (a *Asserter) Multiply(lhs, rhs any) bool {
	return a.check(assertion.Multiply, lhs, rhs, "")
}

// Divide reports whether lhs / rhs is non-zero. Integer division
// by zero is false.
func (a *Asserter) Divide(lhs, rhs any) bool {
	return a.check(assertion.Divide, lhs, rhs, "")
}

// Check evaluates lhs op rhs. The expression text printed on
// failure is expr, or the call's own argument text when expr is
// empty.
func (a *Asserter) Check(lhs any, op assertion.Operator, rhs any, expr string) bool {
	return a.check(op, lhs, rhs, expr)
}

// That evaluates expr, a single binary expression such as "a < b",
// with the given operand values. The operator is taken from expr.
// An expression that cannot be parsed fails the check.
func (a *Asserter) That(expr string, lhs, rhs any) bool {
	parsed, err := assertion.ParseExpression(expr)
	if err != nil {
		return a.reject(expr, lhs, rhs, err)
	}
	return a.check(parsed.Op, lhs, rhs, expr)
}

func (a *Asserter) reject(expr string, lhs, rhs any, err error) bool {
	a.logger.Warn("unparsable expression",
		logging.StringField("expression", expr),
		logging.ErrorField(err),
	)
	a.metrics.RecordAssertion("", false)
	a.fail(assertion.Result{
		Lhs:      lhs,
		Rhs:      rhs,
		Source:   expr,
		Rendered: fmt.Sprintf("%v ? %v", lhs, rhs),
		Message:  err.Error(),
	})
	return false
}

// check is the shared body of every entry point. It must be called
// directly from the exported function so fail finds the user's
// frame at a fixed depth. reject follows the same rule.
func (a *Asserter) check(op assertion.Operator, lhs, rhs any, expr string) bool {
	result := a.engine.Evaluate(assertion.Definition{
		Op:     op,
		Lhs:    lhs,
		Rhs:    rhs,
		Source: expr,
	})
	a.metrics.RecordAssertion(op.String(), result.Passed)
	if result.Passed {
		return true
	}
	a.fail(result)
	return false
}

// fail reports a failed result. The frames above it are check or
// reject, the exported entry point and then the user's code.
func (a *Asserter) fail(result assertion.Result) {
	failure := report.FailureFromResult(result)

	site, err := a.locator.Locate(2)
	if err != nil {
		a.logger.Debug("call site not resolved", logging.ErrorField(err))
	} else {
		failure.File = site.File
		failure.Line = site.Line
		failure.Function = site.Function
	}

	if failure.Expression == "" {
		failure.Expression = a.expression(site, result)
	}

	fields := append(
		logging.LocationFields(failure.File, failure.Line),
		logging.StringField("expression", failure.Expression),
		logging.StringField("rendered", failure.Rendered),
	)
	if failure.Message != "" {
		fields = append(fields, logging.StringField("reason", failure.Message))
	}
	a.logger.Error("assertion failed", fields...)

	if err := a.reporter.Report(failure); err != nil {
		a.logger.Warn("report failure", logging.ErrorField(err))
	}
}

// expression recovers "lhs op rhs" from the argument text at the
// call site and falls back to the rendered operands.
func (a *Asserter) expression(site source.Site, result assertion.Result) string {
	if site.File != "" {
		args, err := a.locator.Args(site)
		if err == nil && len(args) >= 2 {
			lhs, rhs := args[0], args[1]
			if len(args) == 4 && site.Callee == "Check" {
				rhs = args[2]
			}
			return lhs + " " + result.Op.String() + " " + rhs
		}
		if err != nil {
			a.logger.Debug("argument text not resolved", logging.ErrorField(err))
		}
	}
	return result.Rendered
}
