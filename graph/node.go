package graph

import "context"

// Node is a unit of processing in a workflow. Implementations must be pure
// with respect to engine state: external side effects (an LLM call, an
// HTTP request) are the node's private concern.
type Node[T any] interface {
	// ID returns the stable identifier of the node.
	ID() NodeID

	// Description returns a human-readable description.
	Description() string

	// EntryPoint reports whether execution may begin at this node.
	EntryPoint() bool

	// Run processes the state and returns the command directing the
	// executor. Returning an error (instead of an Error command) is
	// treated as a node failure with no fallback.
	Run(ctx context.Context, state State[T]) (*Command[T], error)
}

// FuncNode adapts a plain function into a Node.
type FuncNode[T any] struct {
	id          NodeID
	description string
	entryPoint  bool
	fn          func(ctx context.Context, state State[T]) (*Command[T], error)
}

var _ Node[any] = (*FuncNode[any])(nil)

// NewNode creates a node from a function.
func NewNode[T any](id NodeID, description string, fn func(ctx context.Context, state State[T]) (*Command[T], error)) *FuncNode[T] {
	return &FuncNode[T]{id: id, description: description, fn: fn}
}

// NewEntryNode creates an entry-point node from a function.
func NewEntryNode[T any](id NodeID, description string, fn func(ctx context.Context, state State[T]) (*Command[T], error)) *FuncNode[T] {
	return &FuncNode[T]{id: id, description: description, entryPoint: true, fn: fn}
}

// ID returns the node identifier.
func (n *FuncNode[T]) ID() NodeID { return n.id }

// Description returns the node description.
func (n *FuncNode[T]) Description() string { return n.description }

// EntryPoint reports whether the node is an entry point.
func (n *FuncNode[T]) EntryPoint() bool { return n.entryPoint }

// AsEntryPoint marks the node as an entry point and returns it.
func (n *FuncNode[T]) AsEntryPoint() *FuncNode[T] {
	n.entryPoint = true
	return n
}

// Run invokes the wrapped function.
func (n *FuncNode[T]) Run(ctx context.Context, state State[T]) (*Command[T], error) {
	return n.fn(ctx, state)
}
