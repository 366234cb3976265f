package metassert

import (
	"cmp"
	"sync/atomic"

	"golang.org/x/exp/constraints"

	"digital.vasic.metassert/pkg/assertion"
)

// Number is the set of operand types accepted by the arithmetic
// helpers.
type Number interface {
	constraints.Integer | constraints.Float
}

var std atomic.Pointer[Asserter]

func init() {
	std.Store(New())
}

// Default returns the asserter used by the package-level helpers.
func Default() *Asserter {
	return std.Load()
}

// SetDefault replaces the package asserter and returns the previous
// one. A nil a restores a fresh default.
func SetDefault(a *Asserter) *Asserter {
	if a == nil {
		a = New()
	}
	return std.Swap(a)
}

// Equal reports whether lhs == rhs, printing a diagnostic if not.
func Equal[T comparable](lhs, rhs T) bool {
	return Default().check(assertion.Equal, lhs, rhs, "")
}

// NotEqual reports whether lhs != rhs.
func NotEqual[T comparable](lhs, rhs T) bool {
	return Default().check(assertion.NotEqual, lhs, rhs, "")
}

// Less reports whether lhs < rhs.
func Less[T cmp.Ordered](lhs, rhs T) bool {
	return Default().check(assertion.LessThan, lhs, rhs, "")
}

// LessOrEqual reports whether lhs <= rhs.
func LessOrEqual[T cmp.Ordered](lhs, rhs T) bool {
	return Default().check(assertion.LessOrEqual, lhs, rhs, "")
}

// Greater reports whether lhs > rhs.
func Greater[T cmp.Ordered](lhs, rhs T) bool {
	return Default().check(assertion.GreaterThan, lhs, rhs, "")
}

// GreaterOrEqual reports whether lhs >= rhs.
func GreaterOrEqual[T cmp.Ordered](lhs, rhs T) bool {
	return Default().check(assertion.GreaterOrEqual, lhs, rhs, "")
}

// Add reports whether lhs + rhs is non-zero.
func Add[T Number](lhs, rhs T) bool {
	return Default().check(assertion.Add, lhs, rhs, "")
}

// Subtract reports whether lhs - rhs is non-zero.
func Subtract[T Number](lhs, rhs T) bool {
	return Default().check(assertion.Subtract, lhs, rhs, "")
}

// Multiply reports whether lhs * rhs is non-zero.
func Multiply[T Number](lhs, rhs T) bool {
	return Default().check(assertion.Multiply, lhs, rhs, "")
}

// Divide reports whether lhs / rhs is non-zero. Integer division
// by zero is false.
func Divide[T Number](lhs, rhs T) bool {
	return Default().check(assertion.Divide, lhs, rhs, "")
}

// Check evaluates lhs op rhs with the default asserter.
func Check(lhs any, op assertion.Operator, rhs any, expr string) bool {
	return Default().check(op, lhs, rhs, expr)
}

// That evaluates expr with the default asserter.
func That(expr string, lhs, rhs any) bool {
	a := Default()
	parsed, err := assertion.ParseExpression(expr)
	if err != nil {
		return a.reject(expr, lhs, rhs, err)
	}
	return a.check(parsed.Op, lhs, rhs, expr)
}
