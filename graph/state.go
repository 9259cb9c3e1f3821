package graph

import (
	"encoding/json"
	"slices"
)

// State is the execution unit passed between nodes: workflow identity,
// current node, payload, context, and the history of visited nodes. Every
// field-changing method returns a new State; callers never observe
// in-place mutation.
type State[T any] struct {
	workflowID WorkflowID
	current    NodeID
	data       T
	context    Context
	visited    []NodeID
}

// NewState creates an initial state positioned at the given entry node.
// A fresh WorkflowID is generated.
func NewState[T any](entry NodeID, data T) State[T] {
	return State[T]{
		workflowID: NewWorkflowID(),
		current:    entry,
		data:       data,
		context:    NewContext(),
	}
}

// NewStateWithID creates an initial state with a caller-supplied workflow id.
func NewStateWithID[T any](id WorkflowID, entry NodeID, data T) State[T] {
	return State[T]{
		workflowID: id,
		current:    entry,
		data:       data,
		context:    NewContext(),
	}
}

// WorkflowID returns the identity of this execution.
func (s State[T]) WorkflowID() WorkflowID { return s.workflowID }

// Current returns the node the state is positioned at.
func (s State[T]) Current() NodeID { return s.current }

// Data returns the payload.
func (s State[T]) Data() T { return s.data }

// Context returns the workflow context.
func (s State[T]) Context() Context { return s.context }

// Visited returns a copy of the visit history, in order.
func (s State[T]) Visited() []NodeID {
	return slices.Clone(s.visited)
}

// HasVisited reports whether the node appears in the visit history.
func (s State[T]) HasVisited(node NodeID) bool {
	return slices.Contains(s.visited, node)
}

// WithData returns a new state carrying the given payload.
func (s State[T]) WithData(data T) State[T] {
	s.data = data
	return s
}

// WithContext returns a new state carrying the given context.
func (s State[T]) WithContext(ctx Context) State[T] {
	s.context = ctx
	return s
}

// MergeContext returns a new state whose context has updates layered on top.
func (s State[T]) MergeContext(updates Context) State[T] {
	s.context = s.context.Merge(updates)
	return s
}

// MoveTo returns a new state positioned at node, with the previous node
// appended to the visit history.
func (s State[T]) MoveTo(node NodeID) State[T] {
	visited := make([]NodeID, len(s.visited), len(s.visited)+1)
	copy(visited, s.visited)
	s.visited = append(visited, s.current)
	s.current = node
	return s
}

// stateJSON is the wire shape of a State for suspension persistence.
type stateJSON[T any] struct {
	WorkflowID WorkflowID     `json:"workflow_id"`
	Current    NodeID         `json:"current"`
	Data       T              `json:"data"`
	Context    map[string]any `json:"context"`
	Visited    []NodeID       `json:"visited,omitempty"`
}

// MarshalJSON encodes the state for persistence of suspended executions.
// The context is flattened to a snapshot; values must be JSON-encodable.
func (s State[T]) MarshalJSON() ([]byte, error) {
	return json.Marshal(stateJSON[T]{
		WorkflowID: s.workflowID,
		Current:    s.current,
		Data:       s.data,
		Context:    s.context.Snapshot(),
		Visited:    s.visited,
	})
}

// UnmarshalJSON decodes a persisted state. Context values come back with
// their JSON dynamic types; typed lookups on richer types will miss.
func (s *State[T]) UnmarshalJSON(data []byte) error {
	var raw stateJSON[T]
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	s.workflowID = raw.WorkflowID
	s.current = raw.Current
	s.data = raw.Data
	s.context = RestoreContext(raw.Context)
	s.visited = raw.Visited
	return nil
}
