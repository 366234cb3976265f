// Package assertion evaluates single binary expressions (one
// operator, two already-evaluated operands) and renders them as
// "lhs op rhs" for diagnostics. It ships with the ten built-in
// comparison and arithmetic operators and supports registering
// evaluators for additional operator symbols.
package assertion

import "fmt"

// Operator is the literal text of a binary operator, e.g. "==".
type Operator string

// Built-in operators.
const (
	Add            Operator = "+"
	Subtract       Operator = "-"
	Multiply       Operator = "*"
	Divide         Operator = "/"
	Equal          Operator = "=="
	NotEqual       Operator = "!="
	LessThan       Operator = "<"
	LessOrEqual    Operator = "<="
	GreaterThan    Operator = ">"
	GreaterOrEqual Operator = ">="
)

// Operators returns the built-in operators in declaration order.
func Operators() []Operator {
	return []Operator{
		Add, Subtract, Multiply, Divide,
		Equal, NotEqual,
		LessThan, LessOrEqual, GreaterThan, GreaterOrEqual,
	}
}

// String returns the operator exactly as it is written in source.
func (o Operator) String() string {
	return string(o)
}

// IsArithmetic reports whether the operator produces a value
// rather than a truth value.
func (o Operator) IsArithmetic() bool {
	switch o {
	case Add, Subtract, Multiply, Divide:
		return true
	}
	return false
}

// Definition describes a single expression to evaluate. It lives
// for the duration of one check.
type Definition struct {
	// Op is the operator joining the operands.
	Op Operator `json:"op"`

	// Lhs is the evaluated left operand.
	Lhs any `json:"lhs"`

	// Rhs is the evaluated right operand.
	Rhs any `json:"rhs"`

	// Source is the literal expression text, e.g. "a == b".
	Source string `json:"source,omitempty"`
}

// Render returns the expression with its evaluated operands, in
// the form "lhs op rhs".
func (d Definition) Render() string {
	return fmt.Sprintf("%v %s %v", d.Lhs, d.Op, d.Rhs)
}

// Result captures the outcome of evaluating a Definition.
type Result struct {
	// Op is the operator that was evaluated.
	Op Operator `json:"op"`

	// Lhs is the left operand.
	Lhs any `json:"lhs"`

	// Rhs is the right operand.
	Rhs any `json:"rhs"`

	// Source is the literal expression text, if known.
	Source string `json:"source,omitempty"`

	// Value holds the computed value of arithmetic operators.
	// It is nil for comparisons.
	Value any `json:"value,omitempty"`

	// Passed indicates whether the expression is truthy.
	Passed bool `json:"passed"`

	// Rendered is "lhs op rhs" with the evaluated operands.
	Rendered string `json:"rendered"`

	// Message is a short explanation of the outcome.
	Message string `json:"message"`
}
