package assertion

// Evaluator evaluates one operator against a pair of operands. It
// returns whether the expression is truthy, the computed value for
// arithmetic operators (nil otherwise) and a human-readable
// explanation.
type Evaluator func(lhs, rhs any) (passed bool, value any, message string)
