package assertion

import (
	"cmp"
	"fmt"
	"math"
	"reflect"

	gocmp "github.com/google/go-cmp/cmp"
)

// exportAll lets deep equality look at unexported struct fields
// instead of panicking on them.
var exportAll = gocmp.Exporter(func(reflect.Type) bool { return true })

// evaluateEqual implements "==".
func evaluateEqual(lhs, rhs any) (bool, any, string) {
	if equal(lhs, rhs) {
		return true, nil, "operands are equal"
	}
	return false, nil, "operands are not equal"
}

// evaluateNotEqual implements "!=".
func evaluateNotEqual(lhs, rhs any) (bool, any, string) {
	if equal(lhs, rhs) {
		return false, nil, "operands are equal"
	}
	return true, nil, "operands are not equal"
}

// equal compares numbers by value across kinds, strings by
// content and everything else by deep equality.
func equal(lhs, rhs any) bool {
	c, order := compareOrdered(lhs, rhs)
	switch order {
	case ordered:
		return c == 0
	case unordered:
		return false
	}
	return gocmp.Equal(lhs, rhs, exportAll)
}

// ordering returns the evaluator for one of the four relational
// operators.
func ordering(op Operator) Evaluator {
	return func(lhs, rhs any) (bool, any, string) {
		c, order := compareOrdered(lhs, rhs)
		switch order {
		case unordered:
			return false, nil, "NaN is unordered"
		case incomparable:
			return false, nil, "operands are not ordered"
		}

		var passed bool
		switch op {
		case LessThan:
			passed = c < 0
		case LessOrEqual:
			passed = c <= 0
		case GreaterThan:
			passed = c > 0
		case GreaterOrEqual:
			passed = c >= 0
		}

		if passed {
			return true, nil, fmt.Sprintf("%s holds", op)
		}
		return false, nil, fmt.Sprintf("%s does not hold", op)
	}
}

// arithmetic returns the evaluator for one of the four arithmetic
// operators. The expression is truthy when its value is non-zero.
func arithmetic(op Operator) Evaluator {
	return func(lhs, rhs any) (bool, any, string) {
		a, okA := toNumber(lhs)
		b, okB := toNumber(rhs)
		if !okA || !okB {
			return false, nil, "operands are not numeric"
		}

		var value any
		var zero bool
		switch {
		case a.kind == floatNumber || b.kind == floatNumber:
			v := apply(op, a.float(), b.float())
			value, zero = v, v == 0
		case a.kind == unsignedNumber && b.kind == unsignedNumber:
			if op == Divide && b.u == 0 {
				return false, nil, "integer division by zero"
			}
			v := apply(op, a.u, b.u)
			value, zero = v, v == 0
		default:
			x, y := a.signed(), b.signed()
			if op == Divide && y == 0 {
				return false, nil, "integer division by zero"
			}
			v := apply(op, x, y)
			value, zero = v, v == 0
		}

		if zero {
			return false, value, fmt.Sprintf("result %v is zero", value)
		}
		return true, value, fmt.Sprintf("result %v is non-zero", value)
	}
}

func apply[T int64 | uint64 | float64](op Operator, a, b T) T {
	switch op {
	case Add:
		return a + b
	case Subtract:
		return a - b
	case Multiply:
		return a * b
	default:
		return a / b
	}
}

// --- helpers ---

type numberKind int

const (
	signedNumber numberKind = iota + 1
	unsignedNumber
	floatNumber
)

// number is an operand of any Go integer or float kind.
type number struct {
	kind numberKind
	i    int64
	u    uint64
	f    float64
}

// toNumber converts a value of any integer or float kind,
// including named types, to a number.
func toNumber(v any) (number, bool) {
	if v == nil {
		return number{}, false
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16,
		reflect.Int32, reflect.Int64:
		return number{kind: signedNumber, i: rv.Int()}, true
	case reflect.Uint, reflect.Uint8, reflect.Uint16,
		reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return number{kind: unsignedNumber, u: rv.Uint()}, true
	case reflect.Float32, reflect.Float64:
		return number{kind: floatNumber, f: rv.Float()}, true
	}
	return number{}, false
}

func (n number) float() float64 {
	switch n.kind {
	case signedNumber:
		return float64(n.i)
	case unsignedNumber:
		return float64(n.u)
	}
	return n.f
}

func (n number) signed() int64 {
	if n.kind == unsignedNumber {
		return int64(n.u)
	}
	return n.i
}

type order int

const (
	incomparable order = iota
	ordered
	unordered
)

// compareOrdered compares two numbers or two strings. It reports
// unordered when a NaN is involved and incomparable for any other
// pair of operands.
func compareOrdered(lhs, rhs any) (int, order) {
	a, okA := toNumber(lhs)
	b, okB := toNumber(rhs)
	if okA && okB {
		return compareNumbers(a, b)
	}

	if okA || okB || lhs == nil || rhs == nil {
		return 0, incomparable
	}

	lv, rv := reflect.ValueOf(lhs), reflect.ValueOf(rhs)
	if lv.Kind() == reflect.String && rv.Kind() == reflect.String {
		return cmp.Compare(lv.String(), rv.String()), ordered
	}
	return 0, incomparable
}

func compareNumbers(a, b number) (int, order) {
	if a.kind == floatNumber || b.kind == floatNumber {
		x, y := a.float(), b.float()
		if math.IsNaN(x) || math.IsNaN(y) {
			return 0, unordered
		}
		return cmp.Compare(x, y), ordered
	}

	switch {
	case a.kind == signedNumber && b.kind == signedNumber:
		return cmp.Compare(a.i, b.i), ordered
	case a.kind == unsignedNumber && b.kind == unsignedNumber:
		return cmp.Compare(a.u, b.u), ordered
	case a.kind == signedNumber:
		if a.i < 0 {
			return -1, ordered
		}
		return cmp.Compare(uint64(a.i), b.u), ordered
	default:
		if b.i < 0 {
			return 1, ordered
		}
		return cmp.Compare(a.u, uint64(b.i)), ordered
	}
}
