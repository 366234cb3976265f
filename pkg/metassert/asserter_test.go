package metassert_test

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"digital.vasic.metassert/pkg/assertion"
	"digital.vasic.metassert/pkg/config"
	"digital.vasic.metassert/pkg/logging"
	"digital.vasic.metassert/pkg/metassert"
	"digital.vasic.metassert/pkg/metrics"
	"digital.vasic.metassert/pkg/monitor"
	"digital.vasic.metassert/pkg/report"
)

// line returns the line number of its call site.
func line() int {
	_, _, l, _ := runtime.Caller(1)
	return l
}

func newAsserter(opts ...metassert.Option) (*metassert.Asserter, *bytes.Buffer) {
	var buf bytes.Buffer
	opts = append([]metassert.Option{metassert.WithOutput(&buf, false)}, opts...)
	return metassert.New(opts...), &buf
}

func failedLine(expr, rendered string, l int) string {
	return fmt.Sprintf(
		"Failed: \"%s\" (%s), in file asserter_test.go line %d\n",
		expr, rendered, l,
	)
}

func captureStdout(t *testing.T, fn func()) string {
	t.Helper()
	orig := os.Stdout
	r, w, err := os.Pipe()
	require.NoError(t, err)
	os.Stdout = w
	defer func() { os.Stdout = orig }()

	fn()

	require.NoError(t, w.Close())
	out, err := io.ReadAll(r)
	require.NoError(t, err)
	return string(out)
}

func TestAsserter_EqualFails(t *testing.T) {
	m, buf := newAsserter()
	a, b := 41, 18467

	ok, l := m.Equal(a, b), line()

	assert.False(t, ok)
	assert.Equal(t, failedLine("a == b", "41 == 18467", l), buf.String())
}

func TestAsserter_PassingChecksPrintNothing(t *testing.T) {
	m, buf := newAsserter()

	a, b := 5, 5
	assert.True(t, m.Equal(a, b))

	a, b = 3, 2
	assert.True(t, m.GreaterOrEqual(a, b))

	assert.Empty(t, buf.String())
}

func TestAsserter_LessFails(t *testing.T) {
	m, buf := newAsserter()
	a, b := 3, 2

	ok, l := m.Less(a, b), line()

	assert.False(t, ok)
	assert.Equal(t, failedLine("a < b", "3 < 2", l), buf.String())
}

func TestAsserter_OperatorText(t *testing.T) {
	m, buf := newAsserter()

	tests := []struct {
		op    string
		x, y  int
		check func(x, y int) bool
	}{
		{"==", 1, 2, func(x, y int) bool { return m.Equal(x, y) }},
		{"!=", 2, 2, func(x, y int) bool { return m.NotEqual(x, y) }},
		{"<", 3, 2, func(x, y int) bool { return m.Less(x, y) }},
		{"<=", 3, 2, func(x, y int) bool { return m.LessOrEqual(x, y) }},
		{">", 2, 3, func(x, y int) bool { return m.Greater(x, y) }},
		{">=", 2, 3, func(x, y int) bool { return m.GreaterOrEqual(x, y) }},
		{"+", 2, -2, func(x, y int) bool { return m.Add(x, y) }},
		{"-", 2, 2, func(x, y int) bool { return m.Subtract(x, y) }},
		{"*", 0, 7, func(x, y int) bool { return m.Multiply(x, y) }},
		{"/", 1, 0, func(x, y int) bool { return m.Divide(x, y) }},
	}

	for _, tt := range tests {
		t.Run(tt.op, func(t *testing.T) {
			buf.Reset()
			assert.False(t, tt.check(tt.x, tt.y))

			want := fmt.Sprintf(`"x %s y" (%d %s %d)`, tt.op, tt.x, tt.op, tt.y)
			assert.Contains(t, buf.String(), want)
			assert.Equal(t, 1, strings.Count(buf.String(), "\n"))
		})
	}
}

func TestAsserter_OneLinePerFailure(t *testing.T) {
	m, buf := newAsserter()

	for i := 0; i < 3; i++ {
		m.Equal(i, i+1)
	}

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	for _, l := range lines {
		assert.True(t, strings.HasPrefix(l, `Failed: "i == i + 1"`), l)
	}
}

func TestAsserter_ExecutionContinues(t *testing.T) {
	m, buf := newAsserter()

	assert.False(t, m.Equal("go", "rust"))
	assert.False(t, m.Equal("go", "zig"))

	assert.Equal(t, 2, strings.Count(buf.String(), "\n"))
	assert.Contains(t, buf.String(), `Failed: ""go" == "rust"" (go == rust)`)
}

func TestAsserter_MultiLineCall(t *testing.T) {
	m, buf := newAsserter()
	values := []int{1, 2}

	l := line() + 1
	m.Equal(
		values[0],
		values[1],
	)

	assert.Equal(t, failedLine("values[0] == values[1]", "1 == 2", l), buf.String())
}

func TestAsserter_TwoChecksOnOneLine(t *testing.T) {
	m, buf := newAsserter()
	p, q := 3, 2
	x, y := 41, 18467

	first, second, l := m.Equal(p, q), m.Equal(x, y), line()

	assert.False(t, first)
	assert.False(t, second)
	assert.Equal(t,
		failedLine("3 == 2", "3 == 2", l)+failedLine("41 == 18467", "41 == 18467", l),
		buf.String(),
	)
}

func TestAsserter_ComplexOperands(t *testing.T) {
	m, buf := newAsserter()
	a, b := 7, 3

	ok, l := m.Equal(a*2, b+1), line()

	assert.False(t, ok)
	assert.Equal(t, failedLine("a * 2 == b + 1", "14 == 4", l), buf.String())
}

func TestAsserter_Check(t *testing.T) {
	m, buf := newAsserter()
	got, want := 3, 4

	assert.True(t, m.Check(got, assertion.LessThan, want, "got < limit"))
	assert.Empty(t, buf.String())

	ok, l := m.Check(got, assertion.GreaterThan, want, "got > limit"), line()
	assert.False(t, ok)
	assert.Equal(t, failedLine("got > limit", "3 > 4", l), buf.String())

	buf.Reset()
	ok, l = m.Check(got, assertion.Equal, want, ""), line()
	assert.False(t, ok)
	assert.Equal(t, failedLine("got == want", "3 == 4", l), buf.String())
}

func TestAsserter_That(t *testing.T) {
	m, buf := newAsserter()

	assert.True(t, m.That("a >= b", 3, 2))
	assert.Empty(t, buf.String())

	ok, l := m.That("a < b", 3, 2), line()
	assert.False(t, ok)
	assert.Equal(t, failedLine("a < b", "3 < 2", l), buf.String())
}

func TestAsserter_ThatUnparsable(t *testing.T) {
	counter := metrics.NewCounterMetrics()
	m, buf := newAsserter(metassert.WithMetrics(counter))

	ok, l := m.That("a && b", true, false), line()

	assert.False(t, ok)
	assert.Equal(t, failedLine("a && b", "true ? false", l), buf.String())
	assert.Equal(t, 1, counter.Totals().Failed)
}

func TestAsserter_UnknownOperator(t *testing.T) {
	rec := report.NewRecorder()
	m := metassert.New(metassert.WithReporter(rec))

	assert.False(t, m.Check(1, assertion.Operator("%"), 2, "a % b"))

	f, ok := rec.Last()
	require.True(t, ok)
	assert.Equal(t, "unknown operator: %", f.Message)
}

func TestAsserter_CustomEngine(t *testing.T) {
	engine := assertion.NewEngine()
	require.NoError(t, engine.Register("%", func(lhs, rhs any) (bool, any, string) {
		r := lhs.(int) % rhs.(int)
		return r != 0, r, ""
	}))

	m, buf := newAsserter(metassert.WithEngine(engine))
	assert.True(t, m.Check(7, "%", 3, "a % b"))
	assert.False(t, m.Check(6, "%", 3, "a % b"))
	assert.Contains(t, buf.String(), `"a % b" (6 % 3)`)
}

func TestAsserter_FullPath(t *testing.T) {
	var buf bytes.Buffer
	m := metassert.New(metassert.WithOutput(&buf, true))

	_, file, _, _ := runtime.Caller(0)
	m.Equal(1, 2)

	assert.Contains(t, buf.String(), "in file "+file+" line")
	assert.True(t, filepath.IsAbs(file))
}

func TestAsserter_DefaultsToStdout(t *testing.T) {
	m := metassert.New()

	var l int
	out := captureStdout(t, func() {
		a, b := 41, 18467
		_, l = m.Equal(a, b), line()
	})

	assert.Equal(t, failedLine("a == b", "41 == 18467", l), out)
}

func TestAsserter_ReportsToAllReporters(t *testing.T) {
	rec := report.NewRecorder()
	m, buf := newAsserter(metassert.AddReporter(rec))

	a, b := 1, 2
	_, l := m.Equal(a, b), line()

	assert.NotEmpty(t, buf.String())
	f, ok := rec.Last()
	require.True(t, ok)
	assert.Equal(t, "a == b", f.Expression)
	assert.Equal(t, "1 == 2", f.Rendered)
	assert.Equal(t, assertion.Equal, f.Op)
	assert.Equal(t, l, f.Line)
	assert.Equal(t, "asserter_test.go", filepath.Base(f.File))
	assert.Contains(t, f.Function, "TestAsserter_ReportsToAllReporters")
}

func TestAsserter_ReporterErrorIsLogged(t *testing.T) {
	var logs bytes.Buffer
	logger, err := logging.NewJSONLogger(logging.LoggerConfig{
		Output: &logs,
		Level:  logging.LevelDebug,
	})
	require.NoError(t, err)

	m := metassert.New(
		metassert.WithReporter(report.ReporterFunc(func(report.Failure) error {
			return errors.New("sink down")
		})),
		metassert.WithLogger(logger),
	)

	assert.False(t, m.Equal(1, 2))
	assert.Contains(t, logs.String(), "assertion failed")
	assert.Contains(t, logs.String(), "sink down")
	require.NoError(t, m.Close())
}

func TestAsserter_Metrics(t *testing.T) {
	counter := metrics.NewCounterMetrics()
	m, _ := newAsserter(metassert.WithMetrics(counter))

	m.Equal(1, 1)
	m.Equal(1, 2)
	m.Less(1, 2)

	assert.Equal(t, metrics.Counts{Passed: 1, Failed: 1}, counter.For("=="))
	assert.Equal(t, metrics.Counts{Passed: 1}, counter.For("<"))
	assert.Equal(t, 3, counter.Totals().Total())
}

func TestAsserter_Monitor(t *testing.T) {
	collector := monitor.NewCollector(0)
	m, _ := newAsserter(
		metassert.AddReporter(collector),
		metassert.WithMetrics(collector),
	)

	m.Equal(1, 1)
	m.Greater(1, 2)

	stats := collector.Stats()
	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, 1, stats.Failed)
	require.Len(t, collector.Failures(), 1)
	assert.Equal(t, "1 > 2", collector.Failures()[0].Expression)
}

func TestAsserter_ConcurrentFailures(t *testing.T) {
	m, buf := newAsserter()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			m.Equal(n, -1)
		}(i)
	}
	wg.Wait()

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	require.Len(t, lines, 20)
	for _, l := range lines {
		assert.True(t, strings.HasPrefix(l, `Failed: "n == -1"`), l)
	}
}

func TestNewFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Format = config.FormatJSON

	m, err := metassert.NewFromConfig(cfg)
	require.NoError(t, err)

	out := captureStdout(t, func() {
		a, b := 41, 18467
		m.Equal(a, b)
	})

	assert.Contains(t, out, `"expression":"a == b"`)
	assert.Contains(t, out, `"rendered":"41 == 18467"`)
	assert.Contains(t, out, `"file":"asserter_test.go"`)
	require.NoError(t, m.Close())
}

func TestNewFromConfig_JSONLogFile(t *testing.T) {
	cfg := config.Default()
	cfg.Log.Format = config.LogJSON
	cfg.Log.Path = filepath.Join(t.TempDir(), "logs", "assert.log")

	m, err := metassert.NewFromConfig(cfg)
	require.NoError(t, err)

	captureStdout(t, func() { m.Equal(1, 2) })
	require.NoError(t, m.Close())

	data, err := os.ReadFile(cfg.Log.Path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "assertion failed")
}

func TestNewFromConfig_ConsoleAndJSONLogs(t *testing.T) {
	cfg := config.Default()
	cfg.Log.Format = config.LogJSON
	cfg.Log.Path = filepath.Join(t.TempDir(), "assert.log")
	cfg.Log.Console = true

	orig := os.Stderr
	r, w, err := os.Pipe()
	require.NoError(t, err)
	os.Stderr = w
	defer func() { os.Stderr = orig }()

	m, err := metassert.NewFromConfig(cfg)
	require.NoError(t, err)

	captureStdout(t, func() { m.Equal(1, 2) })
	require.NoError(t, m.Close())
	require.NoError(t, w.Close())

	console, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Contains(t, string(console), "assertion failed")

	data, err := os.ReadFile(cfg.Log.Path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"message":"assertion failed"`)
}

func TestNewFromConfig_Invalid(t *testing.T) {
	cfg := config.Default()
	cfg.Format = "xml"

	_, err := metassert.NewFromConfig(cfg)
	require.Error(t, err)
	assert.ErrorIs(t, err, config.ErrInvalidConfig)
}
