package graph

import (
	"context"
	"time"

	"github.com/smallnest/graphflow/log"
)

// Builder assembles a workflow and its executor. It is the only mutable
// surface; Build validates the structure and hands back an immutable
// Workflow wired into an Executor.
type Builder[T, O any] struct {
	name         string
	nodes        map[NodeID]Node[T]
	nodeOrder    []NodeID
	edges        []Edge
	entryPoints  []NodeID
	defaultEntry NodeID
	extractor    OutputExtractor[T, O]
	monitor      Monitor[T]
	logger       log.Logger
	opts         ExecutorOptions
}

// NewBuilder starts a builder for a named workflow.
func NewBuilder[T, O any](name string) *Builder[T, O] {
	return &Builder[T, O]{
		name:  name,
		nodes: make(map[NodeID]Node[T]),
	}
}

// AddNode registers a node. Re-registering an id replaces the node.
func (b *Builder[T, O]) AddNode(node Node[T]) *Builder[T, O] {
	if _, exists := b.nodes[node.ID()]; !exists {
		b.nodeOrder = append(b.nodeOrder, node.ID())
	}
	b.nodes[node.ID()] = node
	if node.EntryPoint() {
		b.entryPoints = append(b.entryPoints, node.ID())
	}
	return b
}

// AddFunc registers a plain function as a node.
func (b *Builder[T, O]) AddFunc(id NodeID, description string, fn func(ctx context.Context, state State[T]) (*Command[T], error)) *Builder[T, O] {
	return b.AddNode(NewNode(id, description, fn))
}

// AddEdge declares an unconditional edge.
func (b *Builder[T, O]) AddEdge(from, to NodeID) *Builder[T, O] {
	b.edges = append(b.edges, Edge{
		ID:   NewEdgeID(from, to, b.edgeOrdinal(from, to)),
		From: from,
		To:   to,
	})
	return b
}

// AddConditionalEdge declares an edge gated by a condition.
func (b *Builder[T, O]) AddConditionalEdge(from, to NodeID, condition Condition) *Builder[T, O] {
	b.edges = append(b.edges, Edge{
		ID:        NewEdgeID(from, to, b.edgeOrdinal(from, to)),
		From:      from,
		To:        to,
		Condition: condition,
	})
	return b
}

func (b *Builder[T, O]) edgeOrdinal(from, to NodeID) int {
	n := 0
	for _, e := range b.edges {
		if e.From == from && e.To == to {
			n++
		}
	}
	return n
}

// SetEntryPoint marks a node as an entry point without it declaring so
// itself.
func (b *Builder[T, O]) SetEntryPoint(id NodeID) *Builder[T, O] {
	for _, ep := range b.entryPoints {
		if ep == id {
			return b
		}
	}
	b.entryPoints = append(b.entryPoints, id)
	return b
}

// SetDefaultEntry selects the entry point used by Executor.Start when more
// than one exists.
func (b *Builder[T, O]) SetDefaultEntry(id NodeID) *Builder[T, O] {
	b.defaultEntry = id
	return b.SetEntryPoint(id)
}

// SetOutputExtractor configures how a Complete command's result becomes
// the workflow output.
func (b *Builder[T, O]) SetOutputExtractor(extractor OutputExtractor[T, O]) *Builder[T, O] {
	b.extractor = extractor
	return b
}

// SetMonitor attaches a lifecycle observer.
func (b *Builder[T, O]) SetMonitor(monitor Monitor[T]) *Builder[T, O] {
	b.monitor = monitor
	return b
}

// SetLogger attaches a logger; the default is silent.
func (b *Builder[T, O]) SetLogger(logger log.Logger) *Builder[T, O] {
	b.logger = logger
	return b
}

// SetMaxSteps configures the step budget.
func (b *Builder[T, O]) SetMaxSteps(n int) *Builder[T, O] {
	b.opts.MaxSteps = n
	return b
}

// SetMaxDuration configures the wall-clock budget.
func (b *Builder[T, O]) SetMaxDuration(d time.Duration) *Builder[T, O] {
	b.opts.MaxDuration = d
	return b
}

// SetCyclePolicy configures revisit detection. detect enables the check,
// allow permits revisits anyway.
func (b *Builder[T, O]) SetCyclePolicy(detect, allow bool) *Builder[T, O] {
	b.opts.DetectCycles = detect
	b.opts.AllowCycles = allow
	return b
}

// Workflow assembles the immutable workflow model without validating it.
// Most callers want Build.
func (b *Builder[T, O]) Workflow() *Workflow[T] {
	nodes := make(map[NodeID]Node[T], len(b.nodes))
	for id, n := range b.nodes {
		nodes[id] = n
	}
	edges := make([]Edge, len(b.edges))
	copy(edges, b.edges)
	edgesFrom := make(map[NodeID][]Edge)
	for _, e := range edges {
		edgesFrom[e.From] = append(edgesFrom[e.From], e)
	}
	entries := make([]NodeID, len(b.entryPoints))
	copy(entries, b.entryPoints)

	return &Workflow[T]{
		name:         b.name,
		nodes:        nodes,
		edges:        edges,
		edgesFrom:    edgesFrom,
		entryPoints:  entries,
		defaultEntry: b.defaultEntry,
	}
}

// Build validates the workflow and returns an executor over it. It fails
// fast with every structural issue collected into one error.
func (b *Builder[T, O]) Build() (*Executor[T, O], error) {
	w := b.Workflow()
	if result := Validate(w, b.extractor); !result.Valid() {
		return nil, result.Err()
	}
	return NewExecutor(w, b.extractor, b.monitor, b.logger, b.opts), nil
}
