package graph

import (
	"fmt"
	"strings"

	dgraph "github.com/dominikbraun/graph"
)

// ValidationIssue is one structural problem found in a workflow.
type ValidationIssue struct {
	// Field names the part of the workflow the issue concerns.
	Field string

	// Message describes the problem.
	Message string
}

func (i ValidationIssue) String() string {
	return fmt.Sprintf("%s: %s", i.Field, i.Message)
}

// ValidationResult collects every structural issue instead of stopping at
// the first one.
type ValidationResult struct {
	Issues []ValidationIssue
}

// Valid reports whether no issues were found.
func (r ValidationResult) Valid() bool { return len(r.Issues) == 0 }

// Err converts the result into a workflow error, or nil when valid.
func (r ValidationResult) Err() *WorkflowError {
	if r.Valid() {
		return nil
	}
	msgs := make([]string, len(r.Issues))
	for i, issue := range r.Issues {
		msgs[i] = issue.String()
	}
	return NewWorkflowError(ErrKindInvalidWorkflow, "", "workflow validation failed: %s", strings.Join(msgs, "; "))
}

func (r *ValidationResult) add(field, format string, args ...any) {
	r.Issues = append(r.Issues, ValidationIssue{Field: field, Message: fmt.Sprintf(format, args...)})
}

// Validate runs the structural consistency checks over a workflow: name
// set, at least one node, at least one entry point, a default entry point
// whenever more than one exists, edge endpoints resolving to declared
// nodes, and an output extractor configured. Reachability is deliberately
// not checked; unreachable subgraphs are legal and used for conditionally
// activated branches (see Reachability).
func Validate[T, O any](w *Workflow[T], extractor OutputExtractor[T, O]) ValidationResult {
	var result ValidationResult

	if strings.TrimSpace(w.name) == "" {
		result.add("name", "workflow name must not be empty")
	}
	if len(w.nodes) == 0 {
		result.add("nodes", "workflow must declare at least one node")
	}
	if len(w.entryPoints) == 0 {
		result.add("entryPoints", "workflow must declare at least one entry point")
	}
	if len(w.entryPoints) > 1 && w.defaultEntry == "" {
		result.add("defaultEntry", "a default entry point is required when %d entry points exist", len(w.entryPoints))
	}
	if w.defaultEntry != "" {
		if _, ok := w.nodes[w.defaultEntry]; !ok {
			result.add("defaultEntry", "default entry point %q is not a declared node", w.defaultEntry)
		}
	}
	for _, ep := range w.entryPoints {
		if _, ok := w.nodes[ep]; !ok {
			result.add("entryPoints", "entry point %q is not a declared node", ep)
		}
	}
	for _, e := range w.edges {
		if _, ok := w.nodes[e.From]; !ok {
			result.add("edges", "edge %s references unknown source node %q", e.ID, e.From)
		}
		if _, ok := w.nodes[e.To]; !ok {
			result.add("edges", "edge %s references unknown target node %q", e.ID, e.To)
		}
	}
	if extractor == nil {
		result.add("outputExtractor", "an output extractor must be configured")
	}

	return result
}

// Reachability reports which declared nodes cannot be reached from any
// entry point by following declared edges. Unreachable nodes are not a
// validation error; command-directed traversal can still land on them.
func Reachability[T any](w *Workflow[T]) []NodeID {
	g := dgraph.New(func(id NodeID) NodeID { return id }, dgraph.Directed())
	for id := range w.nodes {
		_ = g.AddVertex(id)
	}
	for _, e := range w.edges {
		// Endpoint problems are Validate's concern, not ours.
		_ = g.AddEdge(e.From, e.To)
	}

	reached := make(map[NodeID]bool)
	for _, ep := range w.entryPoints {
		_ = dgraph.BFS(g, ep, func(id NodeID) bool {
			reached[id] = true
			return false
		})
	}

	var unreachable []NodeID
	for id := range w.nodes {
		if !reached[id] {
			unreachable = append(unreachable, id)
		}
	}
	return unreachable
}
