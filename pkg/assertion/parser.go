package assertion

import (
	"bytes"
	"errors"
	"fmt"
	"go/ast"
	"go/format"
	"go/parser"
	"go/token"
	"strings"
)

var (
	// ErrNotBinary is returned when expression text is not a
	// binary expression.
	ErrNotBinary = errors.New("not a binary expression")

	// ErrUnsupportedOperator is returned for binary operators
	// outside the built-in set, including && and ||.
	ErrUnsupportedOperator = errors.New("unsupported operator")
)

// Expression is the parsed form of a single-operator expression.
type Expression struct {
	Lhs string
	Op  Operator
	Rhs string
}

// String joins the operands and operator with single spaces.
func (e Expression) String() string {
	return e.Lhs + " " + e.Op.String() + " " + e.Rhs
}

// ParseExpression parses Go expression text and splits it at its
// outermost binary operator. Only that operator is interpreted;
// operands are returned as normalised source text.
//
// Examples:
//
//	"a == b"      -> {"a", "==", "b"}
//	"len(s) >= 3" -> {"len(s)", ">=", "3"}
//	"a && b"      -> ErrUnsupportedOperator
func ParseExpression(src string) (Expression, error) {
	src = strings.TrimSpace(src)
	fset := token.NewFileSet()
	node, err := parser.ParseExprFrom(fset, "", src, 0)
	if err != nil {
		return Expression{}, fmt.Errorf("parse %q: %w", src, err)
	}

	bin, ok := node.(*ast.BinaryExpr)
	if !ok {
		return Expression{}, fmt.Errorf("%q: %w", src, ErrNotBinary)
	}

	op, ok := fromToken(bin.Op)
	if !ok {
		return Expression{}, fmt.Errorf(
			"%q: %w: %s", src, ErrUnsupportedOperator, bin.Op,
		)
	}

	return Expression{
		Lhs: nodeText(fset, bin.X),
		Op:  op,
		Rhs: nodeText(fset, bin.Y),
	}, nil
}

func fromToken(tok token.Token) (Operator, bool) {
	switch tok {
	case token.ADD:
		return Add, true
	case token.SUB:
		return Subtract, true
	case token.MUL:
		return Multiply, true
	case token.QUO:
		return Divide, true
	case token.EQL:
		return Equal, true
	case token.NEQ:
		return NotEqual, true
	case token.LSS:
		return LessThan, true
	case token.LEQ:
		return LessOrEqual, true
	case token.GTR:
		return GreaterThan, true
	case token.GEQ:
		return GreaterOrEqual, true
	}
	return "", false
}

func nodeText(fset *token.FileSet, n ast.Node) string {
	var buf bytes.Buffer
	if err := format.Node(&buf, fset, n); err != nil {
		return fmt.Sprintf("%v", n)
	}
	return buf.String()
}
