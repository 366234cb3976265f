package source

import (
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fixture = `package fixture

func run(a *Asserter, x, y int, names []string) {
	Equal(x, y)
	metassert.Equal(len(names), 3)
	a.Less(x, y)
	Equal[int](x,
		y+1,
	)
	Equal(x, Equal(y, 2))
	Equal(x, y); Equal(y, x)
	Equal(Equal(x, 1), Equal(y, 2))
}
`

func writeFixture(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "fixture.go")
	require.NoError(t, os.WriteFile(path, []byte(fixture), 0o644))
	return path
}

//go:noinline
func probe(loc *Locator, _ ...any) (Site, error) {
	return loc.Locate(0)
}

func TestLocator_Locate(t *testing.T) {
	loc := NewLocator()
	x, y := 1, 2

	_, file, line, ok := runtime.Caller(0)
	require.True(t, ok)
	site, err := probe(loc, x, y)

	require.NoError(t, err)
	assert.Equal(t, file, site.File)
	assert.Equal(t, line+1, site.Line)
	assert.Equal(t, "probe", site.Callee)
	assert.Contains(t, site.Function, "TestLocator_Locate")
}

func TestLocator_LocateAndArgs(t *testing.T) {
	loc := NewLocator()
	limit := 3
	names := []string{"a"}

	site, err := probe(loc, limit, len(names))
	require.NoError(t, err)

	args, err := loc.Args(site)
	require.NoError(t, err)
	assert.Equal(t, []string{"loc", "limit", "len(names)"}, args)
}

func TestLocator_Args(t *testing.T) {
	path := writeFixture(t)

	tests := []struct {
		name     string
		line     int
		callee   string
		expected []string
	}{
		{"plain call", 4, "Equal", []string{"x", "y"}},
		{"package selector", 5, "Equal", []string{"len(names)", "3"}},
		{"method call", 6, "Less", []string{"x", "y"}},
		{"explicit type argument", 7, "Equal", []string{"x", "y + 1"}},
		{"line inside multi-line call", 8, "Equal", []string{"x", "y + 1"}},
		{"innermost call wins", 10, "Equal", []string{"y", "2"}},
	}

	loc := NewLocator()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args, err := loc.Args(Site{
				File:   path,
				Line:   tt.line,
				Callee: tt.callee,
			})
			require.NoError(t, err)
			assert.Equal(t, tt.expected, args)
		})
	}
}

func TestLocator_Args_NotFound(t *testing.T) {
	path := writeFixture(t)
	loc := NewLocator()

	tests := []struct {
		name string
		site Site
	}{
		{"wrong callee", Site{File: path, Line: 4, Callee: "Greater"}},
		{"no call on line", Site{File: path, Line: 1, Callee: "Equal"}},
		{"missing file", Site{File: filepath.Join(t.TempDir(), "none.go"), Line: 1, Callee: "Equal"}},
		{"empty site", Site{}},
		{"calls side by side", Site{File: path, Line: 11, Callee: "Equal"}},
		{"sibling calls nested in one", Site{File: path, Line: 12, Callee: "Equal"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := loc.Args(tt.site)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestLocator_Args_SideBySideCalls(t *testing.T) {
	path := writeFixture(t)
	loc := NewLocator()

	_, err := loc.Args(Site{File: path, Line: 11, Callee: "Equal"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "ambiguous call to Equal")
}

func TestLocator_CachesParsedFiles(t *testing.T) {
	path := writeFixture(t)
	loc := NewLocator()

	_, err := loc.Args(Site{File: path, Line: 4, Callee: "Equal"})
	require.NoError(t, err)

	// The cached AST keeps answering after the file is gone.
	require.NoError(t, os.Remove(path))

	args, err := loc.Args(Site{File: path, Line: 6, Callee: "Less"})
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "y"}, args)
	assert.Len(t, loc.files, 1)
}

func TestLocator_ConcurrentArgs(t *testing.T) {
	path := writeFixture(t)
	loc := NewLocator()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			args, err := loc.Args(Site{File: path, Line: 5, Callee: "Equal"})
			assert.NoError(t, err)
			assert.Equal(t, []string{"len(names)", "3"}, args)
		}()
	}
	wg.Wait()
}

func TestShortName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"digital.vasic.metassert/pkg/metassert.Equal[...]", "Equal"},
		{"digital.vasic.metassert/pkg/metassert.(*Asserter).Less", "Less"},
		{"main.check", "check"},
		{"probe", "probe"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, shortName(tt.input))
		})
	}
}
