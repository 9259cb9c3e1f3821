package graph

import (
	"fmt"

	"github.com/google/uuid"
)

// NodeID identifies a node within a workflow.
type NodeID string

// EdgeID identifies an edge within a workflow.
type EdgeID string

// WorkflowID identifies one execution of a workflow.
type WorkflowID string

// NewWorkflowID generates a fresh execution identifier.
func NewWorkflowID() WorkflowID {
	return WorkflowID(uuid.NewString())
}

// NewSuspensionID generates an identifier for a suspension point.
func NewSuspensionID() string {
	return "susp_" + uuid.NewString()
}

// NewEdgeID derives a stable edge identifier from its endpoints. ordinal
// disambiguates multiple edges between the same pair.
func NewEdgeID(from, to NodeID, ordinal int) EdgeID {
	return EdgeID(fmt.Sprintf("%s->%s#%d", from, to, ordinal))
}
