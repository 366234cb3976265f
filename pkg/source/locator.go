// Package source resolves the call site of an assertion helper and
// recovers the literal text of the arguments written there.
package source

import (
	"bytes"
	"errors"
	"fmt"
	"go/ast"
	"go/format"
	"go/parser"
	"go/token"
	"runtime"
	"strings"
	"sync"
)

// ErrNotFound is returned when a call site or its source text
// cannot be resolved.
var ErrNotFound = errors.New("source not found")

// Site identifies one call of Callee made from File at Line.
type Site struct {
	File     string
	Line     int
	Function string
	Callee   string
}

// Locator resolves call sites and caches parsed source files. It
// is safe for concurrent use.
type Locator struct {
	mu    sync.Mutex
	fset  *token.FileSet
	files map[string]*parsedFile
}

type parsedFile struct {
	file *ast.File
	err  error
}

// NewLocator creates an empty Locator.
func NewLocator() *Locator {
	return &Locator{
		fset:  token.NewFileSet(),
		files: make(map[string]*parsedFile),
	}
}

// Locate returns the call site skip frames above its caller.
// With skip 0 it describes the call that invoked the function
// calling Locate; Callee is then that function's short name.
func (l *Locator) Locate(skip int) (Site, error) {
	// Spare slots for inlined frames.
	pcs := make([]uintptr, 4)
	n := runtime.Callers(skip+2, pcs)
	if n == 0 {
		return Site{}, fmt.Errorf("caller at depth %d: %w", skip, ErrNotFound)
	}

	frames := runtime.CallersFrames(pcs[:n])
	callee, more := frames.Next()
	if !more {
		return Site{}, fmt.Errorf("caller at depth %d: %w", skip, ErrNotFound)
	}
	caller, _ := frames.Next()
	if caller.Function == "" {
		return Site{}, fmt.Errorf("caller at depth %d: %w", skip, ErrNotFound)
	}

	return Site{
		File:     caller.File,
		Line:     caller.Line,
		Function: caller.Function,
		Callee:   shortName(callee.Function),
	}, nil
}

// Args returns the source text of each argument of the call to
// site.Callee that spans site.Line. When matching calls are nested
// the innermost one wins. Matching calls side by side on the line
// cannot be told apart and yield an ErrNotFound-wrapped error.
func (l *Locator) Args(site Site) ([]string, error) {
	if site.File == "" || site.Callee == "" {
		return nil, fmt.Errorf("incomplete site: %w", ErrNotFound)
	}

	file, err := l.parse(site.File)
	if err != nil {
		return nil, err
	}

	var (
		match     *ast.CallExpr
		ambiguous bool
	)
	ast.Inspect(file, func(n ast.Node) bool {
		call, ok := n.(*ast.CallExpr)
		if !ok {
			return true
		}
		start := l.fset.Position(call.Pos()).Line
		end := l.fset.Position(call.End()).Line
		if site.Line < start || site.Line > end {
			return false
		}
		if calleeName(call.Fun) != site.Callee {
			return true
		}
		if match == nil || encloses(match, call) {
			match = call
		} else {
			ambiguous = true
		}
		return true
	})

	if ambiguous {
		return nil, fmt.Errorf(
			"ambiguous call to %s at %s:%d: %w",
			site.Callee, site.File, site.Line, ErrNotFound,
		)
	}
	if match == nil {
		return nil, fmt.Errorf(
			"call to %s at %s:%d: %w",
			site.Callee, site.File, site.Line, ErrNotFound,
		)
	}

	args := make([]string, 0, len(match.Args))
	for _, arg := range match.Args {
		args = append(args, l.text(arg))
	}
	return args, nil
}

func (l *Locator) parse(path string) (*ast.File, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if pf, ok := l.files[path]; ok {
		return pf.file, pf.err
	}

	file, err := parser.ParseFile(l.fset, path, nil, 0)
	if err != nil {
		err = fmt.Errorf("parse %s: %w: %v", path, ErrNotFound, err)
		file = nil
	}
	l.files[path] = &parsedFile{file: file, err: err}
	return file, err
}

func (l *Locator) text(n ast.Node) string {
	var buf bytes.Buffer
	if err := format.Node(&buf, l.fset, n); err != nil {
		return "?"
	}
	return buf.String()
}

func encloses(outer, inner ast.Node) bool {
	return outer.Pos() <= inner.Pos() && inner.End() <= outer.End()
}

// calleeName returns the identifier a call is made through:
// "Equal" for Equal(...), metassert.Equal(...), a.Equal(...) and
// Equal[int](...).
func calleeName(fun ast.Expr) string {
	switch f := fun.(type) {
	case *ast.Ident:
		return f.Name
	case *ast.SelectorExpr:
		return f.Sel.Name
	case *ast.IndexExpr:
		return calleeName(f.X)
	case *ast.IndexListExpr:
		return calleeName(f.X)
	case *ast.ParenExpr:
		return calleeName(f.X)
	}
	return ""
}

// shortName strips the package path, receiver and type
// parameters from a runtime function name.
func shortName(function string) string {
	if i := strings.Index(function, "[...]"); i >= 0 {
		function = function[:i]
	}
	if i := strings.LastIndex(function, "/"); i >= 0 {
		function = function[i+1:]
	}
	if i := strings.LastIndex(function, "."); i >= 0 {
		function = function[i+1:]
	}
	return function
}
