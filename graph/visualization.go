package graph

import (
	"fmt"
	"sort"
	"strings"
)

// Exporter renders a workflow model in diagram formats.
type Exporter[T any] struct {
	workflow *Workflow[T]
}

// NewExporter creates an exporter for the given workflow.
func NewExporter[T any](workflow *Workflow[T]) *Exporter[T] {
	return &Exporter[T]{workflow: workflow}
}

// MermaidOptions configure Mermaid diagram generation.
type MermaidOptions struct {
	// Direction of the flowchart (e.g. "TD", "LR").
	Direction string
}

// DrawMermaid generates a Mermaid flowchart of the workflow.
func (ex *Exporter[T]) DrawMermaid() string {
	return ex.DrawMermaidWithOptions(MermaidOptions{Direction: "TD"})
}

// DrawMermaidWithOptions generates a Mermaid flowchart with custom options.
// Entry points are highlighted and conditional edges drawn dashed.
func (ex *Exporter[T]) DrawMermaidWithOptions(opts MermaidOptions) string {
	var sb strings.Builder

	direction := opts.Direction
	if direction == "" {
		direction = "TD"
	}
	sb.WriteString(fmt.Sprintf("flowchart %s\n", direction))

	entries := make(map[NodeID]bool)
	for _, ep := range ex.workflow.EntryPoints() {
		entries[ep] = true
	}

	names := ex.sortedNodes()
	for _, id := range names {
		label := string(id)
		if node, ok := ex.workflow.Node(id); ok && node.Description() != "" {
			label = fmt.Sprintf("%s<br/>%s", id, node.Description())
		}
		if entries[id] {
			sb.WriteString(fmt.Sprintf("    %s[[\"%s\"]]\n", id, label))
		} else {
			sb.WriteString(fmt.Sprintf("    %s[\"%s\"]\n", id, label))
		}
	}

	if def := ex.workflow.DefaultEntry(); def != "" {
		sb.WriteString("    START([\"START\"])\n")
		sb.WriteString(fmt.Sprintf("    START --> %s\n", def))
		sb.WriteString("    style START fill:#90EE90\n")
	}

	for _, e := range ex.workflow.Edges() {
		if e.Conditional() {
			sb.WriteString(fmt.Sprintf("    %s -.->|cond| %s\n", e.From, e.To))
		} else {
			sb.WriteString(fmt.Sprintf("    %s --> %s\n", e.From, e.To))
		}
	}

	return sb.String()
}

// DrawDOT generates a Graphviz DOT representation of the workflow.
func (ex *Exporter[T]) DrawDOT() string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("digraph %q {\n", ex.workflow.Name()))
	sb.WriteString("    rankdir=TB;\n")
	sb.WriteString("    node [shape=box, style=rounded];\n")

	entries := make(map[NodeID]bool)
	for _, ep := range ex.workflow.EntryPoints() {
		entries[ep] = true
	}

	for _, id := range ex.sortedNodes() {
		attrs := fmt.Sprintf("label=%q", id)
		if node, ok := ex.workflow.Node(id); ok && node.Description() != "" {
			attrs = fmt.Sprintf("label=%q, tooltip=%q", id, node.Description())
		}
		if entries[id] {
			attrs += ", peripheries=2"
		}
		sb.WriteString(fmt.Sprintf("    %q [%s];\n", id, attrs))
	}

	for _, e := range ex.workflow.Edges() {
		if e.Conditional() {
			sb.WriteString(fmt.Sprintf("    %q -> %q [style=dashed, label=\"cond\"];\n", e.From, e.To))
		} else {
			sb.WriteString(fmt.Sprintf("    %q -> %q;\n", e.From, e.To))
		}
	}

	sb.WriteString("}\n")
	return sb.String()
}

func (ex *Exporter[T]) sortedNodes() []NodeID {
	ids := ex.workflow.Nodes()
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
