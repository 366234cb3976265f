package assertion

import (
	"fmt"
	"sync"
)

// Engine defines the interface for expression evaluation engines.
type Engine interface {
	// Evaluate checks a single expression.
	Evaluate(def Definition) Result

	// EvaluateAll checks several independent expressions and
	// returns one result per definition, in order.
	EvaluateAll(defs []Definition) []Result

	// Register adds an evaluator for the given operator.
	// Returns an error if the operator is already registered.
	Register(op Operator, evaluator Evaluator) error
}

// DefaultEngine is the standard Engine implementation. It is
// safe for concurrent use.
type DefaultEngine struct {
	mu         sync.RWMutex
	evaluators map[Operator]Evaluator
}

// NewEngine creates a DefaultEngine with the ten built-in
// operators pre-registered.
func NewEngine() *DefaultEngine {
	e := &DefaultEngine{
		evaluators: make(map[Operator]Evaluator),
	}
	e.registerDefaults()
	return e
}

func (e *DefaultEngine) registerDefaults() {
	e.evaluators[Add] = arithmetic(Add)
	e.evaluators[Subtract] = arithmetic(Subtract)
	e.evaluators[Multiply] = arithmetic(Multiply)
	e.evaluators[Divide] = arithmetic(Divide)
	e.evaluators[Equal] = evaluateEqual
	e.evaluators[NotEqual] = evaluateNotEqual
	e.evaluators[LessThan] = ordering(LessThan)
	e.evaluators[LessOrEqual] = ordering(LessOrEqual)
	e.evaluators[GreaterThan] = ordering(GreaterThan)
	e.evaluators[GreaterOrEqual] = ordering(GreaterOrEqual)
}

// Register adds an evaluator for the given operator. Returns an
// error if the operator is already registered.
func (e *DefaultEngine) Register(
	op Operator,
	evaluator Evaluator,
) error {
	if op == "" {
		return fmt.Errorf("operator must not be empty")
	}
	if evaluator == nil {
		return fmt.Errorf("evaluator for %s must not be nil", op)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if _, exists := e.evaluators[op]; exists {
		return fmt.Errorf(
			"operator already registered: %s", op,
		)
	}

	e.evaluators[op] = evaluator
	return nil
}

// Evaluate runs a single expression.
func (e *DefaultEngine) Evaluate(def Definition) Result {
	e.mu.RLock()
	evaluator, exists := e.evaluators[def.Op]
	e.mu.RUnlock()

	result := Result{
		Op:       def.Op,
		Lhs:      def.Lhs,
		Rhs:      def.Rhs,
		Source:   def.Source,
		Rendered: def.Render(),
	}

	if !exists {
		result.Message = fmt.Sprintf(
			"unknown operator: %s", def.Op,
		)
		return result
	}

	result.Passed, result.Value, result.Message = evaluator(
		def.Lhs, def.Rhs,
	)
	return result
}

// EvaluateAll runs each definition independently. There is no
// short-circuiting between them.
func (e *DefaultEngine) EvaluateAll(defs []Definition) []Result {
	results := make([]Result, 0, len(defs))
	for _, d := range defs {
		results = append(results, e.Evaluate(d))
	}
	return results
}

// HasEvaluator returns true if the given operator has a
// registered evaluator.
func (e *DefaultEngine) HasEvaluator(op Operator) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	_, exists := e.evaluators[op]
	return exists
}
