package graph

// OutputExtractor converts a Complete command's result and the final state
// into the workflow output. It is invoked exactly once, only on the
// Complete path.
type OutputExtractor[T, O any] func(result any, final State[T]) (O, error)

// Workflow is the immutable description of a graph: nodes, edges and entry
// points. It carries no behavior beyond lookups and is safe to share
// across concurrent executions once built.
type Workflow[T any] struct {
	name         string
	nodes        map[NodeID]Node[T]
	edges        []Edge
	edgesFrom    map[NodeID][]Edge
	entryPoints  []NodeID
	defaultEntry NodeID
}

// Name returns the workflow name.
func (w *Workflow[T]) Name() string { return w.name }

// Node returns the node registered under id.
func (w *Workflow[T]) Node(id NodeID) (Node[T], bool) {
	n, ok := w.nodes[id]
	return n, ok
}

// Nodes returns the registered node ids. Order is unspecified.
func (w *Workflow[T]) Nodes() []NodeID {
	ids := make([]NodeID, 0, len(w.nodes))
	for id := range w.nodes {
		ids = append(ids, id)
	}
	return ids
}

// NodeCount returns the number of registered nodes.
func (w *Workflow[T]) NodeCount() int { return len(w.nodes) }

// Edges returns all edges in declaration order.
func (w *Workflow[T]) Edges() []Edge {
	out := make([]Edge, len(w.edges))
	copy(out, w.edges)
	return out
}

// EdgesBetween returns the edges from one node to another, in declaration
// order.
func (w *Workflow[T]) EdgesBetween(from, to NodeID) []Edge {
	var out []Edge
	for _, e := range w.edgesFrom[from] {
		if e.To == to {
			out = append(out, e)
		}
	}
	return out
}

// EdgesFrom returns the outgoing edges of a node in declaration order.
func (w *Workflow[T]) EdgesFrom(from NodeID) []Edge {
	edges := w.edgesFrom[from]
	out := make([]Edge, len(edges))
	copy(out, edges)
	return out
}

// EntryPoints returns the nodes eligible to begin execution.
func (w *Workflow[T]) EntryPoints() []NodeID {
	out := make([]NodeID, len(w.entryPoints))
	copy(out, w.entryPoints)
	return out
}

// DefaultEntry returns the default entry point. When only one entry point
// exists it is the default.
func (w *Workflow[T]) DefaultEntry() NodeID {
	if w.defaultEntry != "" {
		return w.defaultEntry
	}
	if len(w.entryPoints) == 1 {
		return w.entryPoints[0]
	}
	return ""
}
