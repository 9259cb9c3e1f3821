// Package declarative loads workflow definitions from YAML. Node behavior
// stays in code: a definition references node types registered in a
// Registry, and the loader wires nodes, edges (optionally gated by CEL
// expressions), entry points and budgets into a graph.Builder.
package declarative

import (
	"fmt"
	"time"

	"github.com/goccy/go-yaml"

	"github.com/smallnest/graphflow/graph"
)

// NodeDef declares one node of a workflow.
type NodeDef struct {
	ID          string         `yaml:"id"`
	Type        string         `yaml:"type"`
	Description string         `yaml:"description"`
	Entry       bool           `yaml:"entry"`
	Config      map[string]any `yaml:"config"`
}

// EdgeDef declares one edge. When holds an optional CEL expression over
// the workflow context.
type EdgeDef struct {
	From string `yaml:"from"`
	To   string `yaml:"to"`
	When string `yaml:"when"`
}

// CycleDef declares the cycle policy.
type CycleDef struct {
	Detect bool `yaml:"detect"`
	Allow  bool `yaml:"allow"`
}

// Definition is the YAML shape of a workflow.
type Definition struct {
	Name        string    `yaml:"name"`
	Entry       string    `yaml:"entry"`
	MaxSteps    int       `yaml:"max_steps"`
	MaxDuration string    `yaml:"max_duration"`
	Cycles      CycleDef  `yaml:"cycles"`
	Nodes       []NodeDef `yaml:"nodes"`
	Edges       []EdgeDef `yaml:"edges"`
}

// NodeFactory builds a node from its definition.
type NodeFactory[T any] func(def NodeDef) (graph.Node[T], error)

// Registry maps node type names to factories.
type Registry[T any] struct {
	factories map[string]NodeFactory[T]
}

// NewRegistry creates an empty registry.
func NewRegistry[T any]() *Registry[T] {
	return &Registry[T]{factories: make(map[string]NodeFactory[T])}
}

// Register binds a node type name to a factory. Re-registering replaces.
func (r *Registry[T]) Register(nodeType string, factory NodeFactory[T]) {
	r.factories[nodeType] = factory
}

// Build constructs a node from a definition.
func (r *Registry[T]) Build(def NodeDef) (graph.Node[T], error) {
	factory, ok := r.factories[def.Type]
	if !ok {
		return nil, fmt.Errorf("unknown node type %q for node %q", def.Type, def.ID)
	}
	return factory(def)
}

// Parse decodes a YAML definition.
func Parse(data []byte) (*Definition, error) {
	var def Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("parsing workflow definition: %w", err)
	}
	return &def, nil
}

// Load parses YAML and assembles a graph.Builder using the registry. The
// caller still sets the output extractor (and optionally a monitor) before
// Build, since neither is expressible in YAML.
func Load[T, O any](data []byte, registry *Registry[T]) (*graph.Builder[T, O], error) {
	def, err := Parse(data)
	if err != nil {
		return nil, err
	}
	return Assemble[T, O](def, registry)
}

// Assemble wires a parsed definition into a builder.
func Assemble[T, O any](def *Definition, registry *Registry[T]) (*graph.Builder[T, O], error) {
	b := graph.NewBuilder[T, O](def.Name)

	for _, nodeDef := range def.Nodes {
		node, err := registry.Build(nodeDef)
		if err != nil {
			return nil, err
		}
		if node.ID() != graph.NodeID(nodeDef.ID) {
			return nil, fmt.Errorf("factory for type %q produced node %q, definition says %q",
				nodeDef.Type, node.ID(), nodeDef.ID)
		}
		b.AddNode(node)
		if nodeDef.Entry {
			b.SetEntryPoint(node.ID())
		}
	}

	for _, edgeDef := range def.Edges {
		if edgeDef.When == "" {
			b.AddEdge(graph.NodeID(edgeDef.From), graph.NodeID(edgeDef.To))
			continue
		}
		cond, err := graph.CompileCondition(edgeDef.When)
		if err != nil {
			return nil, fmt.Errorf("edge %s -> %s: %w", edgeDef.From, edgeDef.To, err)
		}
		b.AddConditionalEdge(graph.NodeID(edgeDef.From), graph.NodeID(edgeDef.To), cond)
	}

	if def.Entry != "" {
		b.SetDefaultEntry(graph.NodeID(def.Entry))
	}
	if def.MaxSteps > 0 {
		b.SetMaxSteps(def.MaxSteps)
	}
	if def.MaxDuration != "" {
		d, err := time.ParseDuration(def.MaxDuration)
		if err != nil {
			return nil, fmt.Errorf("invalid max_duration %q: %w", def.MaxDuration, err)
		}
		b.SetMaxDuration(d)
	}
	b.SetCyclePolicy(def.Cycles.Detect, def.Cycles.Allow)

	return b, nil
}
