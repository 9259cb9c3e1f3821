package graph

import (
	"sort"
	"time"
)

// ContextKey is a typed key into a workflow Context. The type parameter
// records the static type of the value stored under the key; lookups with
// a key of the wrong type return nothing rather than a coerced value.
type ContextKey[T any] struct {
	name string
}

// NewContextKey creates a typed context key with the given name.
func NewContextKey[T any](name string) ContextKey[T] {
	return ContextKey[T]{name: name}
}

// Name returns the string name of the key.
func (k ContextKey[T]) Name() string { return k.name }

// Context keys the executor writes itself. Nodes may read these for
// bookkeeping but must not treat them as user data.
var (
	KeyWorkflowID   = NewContextKey[string]("workflow.id")
	KeyWorkflowName = NewContextKey[string]("workflow.name")
	KeyStartedAt    = NewContextKey[time.Time]("workflow.started_at")
	KeyResumedAt    = NewContextKey[time.Time]("workflow.resumed_at")
	KeyResumeCount  = NewContextKey[int]("workflow.resume_count")
	KeyLastEdge     = NewContextKey[string]("workflow.last_edge")
	KeyLastEdgeAt   = NewContextKey[time.Time]("workflow.last_edge_at")
)

// maxLayerDepth bounds the parent chain before a Context flattens itself
// into a single map, keeping lookups close to O(1) on long executions.
const maxLayerDepth = 8

// Context is an immutable, append-only key/value store threaded through a
// workflow execution alongside the payload. Every With/Merge returns a new
// Context; writes share structure with their parent instead of copying the
// whole map on each update.
type Context struct {
	parent *Context
	values map[string]any
	depth  int
}

// NewContext returns an empty context.
func NewContext() Context {
	return Context{}
}

// With returns a new context that additionally maps key to value.
func With[T any](c Context, key ContextKey[T], value T) Context {
	child := Context{
		parent: &c,
		values: map[string]any{key.name: value},
		depth:  c.depth + 1,
	}
	if child.depth > maxLayerDepth {
		return child.flatten()
	}
	return child
}

// Value looks up the value stored under key. It returns the zero value and
// false when the key is absent or was stored with a different type.
func Value[T any](c Context, key ContextKey[T]) (T, bool) {
	raw, ok := c.lookup(key.name)
	if !ok {
		var zero T
		return zero, false
	}
	v, ok := raw.(T)
	if !ok {
		var zero T
		return zero, false
	}
	return v, true
}

// ValueOr looks up key and falls back to def when it is absent or mistyped.
func ValueOr[T any](c Context, key ContextKey[T], def T) T {
	if v, ok := Value(c, key); ok {
		return v
	}
	return def
}

// Has reports whether any value is stored under the key name, regardless
// of its type.
func (c Context) Has(name string) bool {
	_, ok := c.lookup(name)
	return ok
}

// Merge returns a new context with every entry of other layered on top of
// c. Entries in other win on name collision.
func (c Context) Merge(other Context) Context {
	snapshot := other.Snapshot()
	if len(snapshot) == 0 {
		return c
	}
	child := Context{
		parent: &c,
		values: snapshot,
		depth:  c.depth + 1,
	}
	if child.depth > maxLayerDepth {
		return child.flatten()
	}
	return child
}

// Len returns the number of distinct keys visible in the context.
func (c Context) Len() int {
	return len(c.Snapshot())
}

// Keys returns the sorted names of all keys visible in the context.
func (c Context) Keys() []string {
	snapshot := c.Snapshot()
	keys := make([]string, 0, len(snapshot))
	for k := range snapshot {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Snapshot flattens the context into a plain map. The returned map is a
// copy; mutating it does not affect the context. Edge conditions evaluate
// against snapshots.
func (c Context) Snapshot() map[string]any {
	out := make(map[string]any)
	c.collect(out)
	return out
}

// RestoreContext rebuilds a context from a flattened snapshot, e.g. after
// deserializing a suspended state. Type information beyond the dynamic
// type of each value is not recoverable.
func RestoreContext(snapshot map[string]any) Context {
	if len(snapshot) == 0 {
		return Context{}
	}
	values := make(map[string]any, len(snapshot))
	for k, v := range snapshot {
		values[k] = v
	}
	return Context{values: values}
}

func (c Context) lookup(name string) (any, bool) {
	for cur := &c; cur != nil; cur = cur.parent {
		if cur.values != nil {
			if v, ok := cur.values[name]; ok {
				return v, true
			}
		}
	}
	return nil, false
}

// collect writes entries parent-first so child layers overwrite.
func (c Context) collect(out map[string]any) {
	if c.parent != nil {
		c.parent.collect(out)
	}
	for k, v := range c.values {
		out[k] = v
	}
}

func (c Context) flatten() Context {
	return Context{values: c.Snapshot()}
}
