package graph

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a WorkflowError so callers can react to the
// machine-readable kind instead of parsing messages.
type ErrorKind string

const (
	// ErrKindNodeNotFound indicates the current or target node id does not
	// exist in the workflow.
	ErrKindNodeNotFound ErrorKind = "NODE_NOT_FOUND"

	// ErrKindCycleDetected indicates a node was visited twice while cycle
	// detection was enabled and cycles were not allowed.
	ErrKindCycleDetected ErrorKind = "CYCLE_DETECTED"

	// ErrKindEdgeConditionFailed indicates every edge between the current
	// node and the traverse target rejected the state.
	ErrKindEdgeConditionFailed ErrorKind = "EDGE_CONDITION_FAILED"

	// ErrKindNodeFailed indicates a node returned an error or panicked
	// during processing.
	ErrKindNodeFailed ErrorKind = "NODE_FAILED"

	// ErrKindMaxStepsExceeded indicates the step budget was exhausted.
	ErrKindMaxStepsExceeded ErrorKind = "MAX_STEPS_EXCEEDED"

	// ErrKindExecutionTimeout indicates the wall-clock budget was exhausted.
	ErrKindExecutionTimeout ErrorKind = "EXECUTION_TIMEOUT"

	// ErrKindForkNoTargets indicates a Fork command carried no targets.
	ErrKindForkNoTargets ErrorKind = "FORK_NO_TARGETS"

	// ErrKindOutputExtraction indicates the output extractor failed on the
	// Complete path.
	ErrKindOutputExtraction ErrorKind = "OUTPUT_EXTRACTION_FAILED"

	// ErrKindInvalidWorkflow indicates the workflow failed structural
	// validation at build time.
	ErrKindInvalidWorkflow ErrorKind = "INVALID_WORKFLOW"

	// ErrKindRoutingFailed indicates a router could not produce a route and
	// had no fallback or suspension policy configured.
	ErrKindRoutingFailed ErrorKind = "ROUTING_FAILED"
)

// WorkflowError is the structured error type every failure surfaces as.
// Raw errors from nodes are wrapped; no plain error crosses the executor
// boundary.
type WorkflowError struct {
	// Kind is the machine-readable classification.
	Kind ErrorKind

	// Node is the node the error originated at, when known.
	Node NodeID

	// Message is a human-readable description.
	Message string

	// Err is the underlying cause, if any.
	Err error
}

// Error implements the error interface.
func (e *WorkflowError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Kind, e.Message)
	if e.Node != "" {
		msg = fmt.Sprintf("%s (node %s)", msg, e.Node)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap exposes the underlying cause to errors.Is/As.
func (e *WorkflowError) Unwrap() error { return e.Err }

// Is matches two workflow errors by kind so sentinel comparison works.
func (e *WorkflowError) Is(target error) bool {
	var we *WorkflowError
	if errors.As(target, &we) {
		return e.Kind == we.Kind
	}
	return false
}

// NewWorkflowError creates a workflow error of the given kind.
func NewWorkflowError(kind ErrorKind, node NodeID, format string, args ...any) *WorkflowError {
	return &WorkflowError{
		Kind:    kind,
		Node:    node,
		Message: fmt.Sprintf(format, args...),
	}
}

// WrapNodeError converts an arbitrary node failure into a structured
// workflow error. A *WorkflowError passes through with its node filled in.
func WrapNodeError(node NodeID, err error) *WorkflowError {
	var we *WorkflowError
	if errors.As(err, &we) {
		if we.Node == "" {
			we.Node = node
		}
		return we
	}
	return &WorkflowError{
		Kind:    ErrKindNodeFailed,
		Node:    node,
		Message: "node processing failed",
		Err:     err,
	}
}
