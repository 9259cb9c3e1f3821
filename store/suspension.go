// Package store defines persistence for suspended workflow executions.
//
// The engine never persists anything on its own: when an execution
// suspends, the caller owns the returned state and may capture it into a
// Suspension record through a Serializer, park it in any SuspensionStore
// backend, and restore it later to resume.
package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/smallnest/graphflow/graph"
)

// Suspension is a persisted suspended execution: enough to find it again
// (workflow id, suspension id), explain it (node, reason) and resume it
// (the serialized state).
type Suspension struct {
	ID            string         `json:"id"`
	WorkflowID    string         `json:"workflow_id"`
	NodeID        string         `json:"node_id"`
	Reason        string         `json:"reason"`
	State         []byte         `json:"state"`
	SchemaVersion int            `json:"schema_version"`
	Metadata      map[string]any `json:"metadata,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
}

// SuspensionStore is the persistence interface for suspended executions.
type SuspensionStore interface {
	// Save stores a suspension. Saving an existing ID overwrites it.
	Save(ctx context.Context, susp *Suspension) error

	// Load retrieves a suspension by its ID.
	Load(ctx context.Context, id string) (*Suspension, error)

	// List returns all suspensions of a workflow execution, oldest first.
	List(ctx context.Context, workflowID string) ([]*Suspension, error)

	// Delete removes a suspension.
	Delete(ctx context.Context, id string) error

	// Clear removes all suspensions of a workflow execution.
	Clear(ctx context.Context, workflowID string) error
}

// Serializer converts workflow states to and from bytes. The schema
// version travels with each record so readers can reject or migrate
// incompatible payloads.
type Serializer interface {
	Serialize(state any) ([]byte, error)
	Deserialize(data []byte, into any) error
	SchemaVersion() int
	ContentType() string
}

// JSONSerializer is the default Serializer; graph.State implements the
// json.Marshaler/Unmarshaler pair it relies on.
type JSONSerializer struct{}

var _ Serializer = JSONSerializer{}

// Serialize encodes the state as JSON.
func (JSONSerializer) Serialize(state any) ([]byte, error) {
	return json.Marshal(state)
}

// Deserialize decodes JSON into the given state pointer.
func (JSONSerializer) Deserialize(data []byte, into any) error {
	return json.Unmarshal(data, into)
}

// SchemaVersion returns the current wire schema version.
func (JSONSerializer) SchemaVersion() int { return 1 }

// ContentType returns the MIME type of the encoding.
func (JSONSerializer) ContentType() string { return "application/json" }

// Capture converts a suspended state into a persistable record.
func Capture[T any](ser Serializer, suspensionID, reason string, state graph.State[T]) (*Suspension, error) {
	data, err := ser.Serialize(state)
	if err != nil {
		return nil, err
	}
	return &Suspension{
		ID:            suspensionID,
		WorkflowID:    string(state.WorkflowID()),
		NodeID:        string(state.Current()),
		Reason:        reason,
		State:         data,
		SchemaVersion: ser.SchemaVersion(),
		CreatedAt:     time.Now(),
	}, nil
}

// Restore decodes a suspension record back into a workflow state.
func Restore[T any](ser Serializer, susp *Suspension) (graph.State[T], error) {
	var state graph.State[T]
	if err := ser.Deserialize(susp.State, &state); err != nil {
		return state, err
	}
	return state, nil
}
