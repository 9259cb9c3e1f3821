package graph

// Condition is a pure predicate over the workflow context, evaluated only
// at traversal time. Conditions must be deterministic for a given context;
// the executor may re-evaluate the same edge after a fallback re-route.
type Condition func(ctx Context) bool

// Edge is a directed, optionally conditional connection between two nodes.
// Edges are immutable; multiple edges between the same pair are allowed,
// e.g. one conditional plus one default.
type Edge struct {
	// ID identifies the edge.
	ID EdgeID

	// From is the source node.
	From NodeID

	// To is the destination node.
	To NodeID

	// Condition gates traversal when set. A nil condition always passes.
	Condition Condition
}

// Conditional reports whether the edge carries a condition.
func (e Edge) Conditional() bool { return e.Condition != nil }

// allows evaluates the edge against a context. Unconditional edges pass.
func (e Edge) allows(ctx Context) bool {
	if e.Condition == nil {
		return true
	}
	return e.Condition(ctx)
}

// ContextEquals builds a condition that passes when key holds exactly want.
func ContextEquals[V comparable](key ContextKey[V], want V) Condition {
	return func(ctx Context) bool {
		got, ok := Value(ctx, key)
		return ok && got == want
	}
}

// ContextGreaterThan builds a condition that passes when key holds a value
// strictly greater than threshold.
func ContextGreaterThan(key ContextKey[float64], threshold float64) Condition {
	return func(ctx Context) bool {
		got, ok := Value(ctx, key)
		return ok && got > threshold
	}
}

// ContextAtLeast builds a condition that passes when key holds a value
// greater than or equal to threshold.
func ContextAtLeast(key ContextKey[float64], threshold float64) Condition {
	return func(ctx Context) bool {
		got, ok := Value(ctx, key)
		return ok && got >= threshold
	}
}

// ContextLessThan builds a condition that passes when key holds a value
// strictly less than threshold.
func ContextLessThan(key ContextKey[float64], threshold float64) Condition {
	return func(ctx Context) bool {
		got, ok := Value(ctx, key)
		return ok && got < threshold
	}
}

// AllOf builds the conjunction of the given conditions. With no operands
// it always passes.
func AllOf(conditions ...Condition) Condition {
	return func(ctx Context) bool {
		for _, cond := range conditions {
			if cond != nil && !cond(ctx) {
				return false
			}
		}
		return true
	}
}

// AnyOf builds the disjunction of the given conditions. With no operands
// it never passes.
func AnyOf(conditions ...Condition) Condition {
	return func(ctx Context) bool {
		for _, cond := range conditions {
			if cond != nil && cond(ctx) {
				return true
			}
		}
		return false
	}
}

// Not negates a condition.
func Not(cond Condition) Condition {
	return func(ctx Context) bool {
		return !cond(ctx)
	}
}
