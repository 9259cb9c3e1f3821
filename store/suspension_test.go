package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smallnest/graphflow/graph"
)

type approvalPayload struct {
	Amount   float64 `json:"amount"`
	Approver string  `json:"approver"`
}

func TestJSONSerializer(t *testing.T) {
	ser := JSONSerializer{}

	assert.Equal(t, 1, ser.SchemaVersion())
	assert.Equal(t, "application/json", ser.ContentType())

	data, err := ser.Serialize(map[string]int{"a": 1})
	require.NoError(t, err)

	var decoded map[string]int
	require.NoError(t, ser.Deserialize(data, &decoded))
	assert.Equal(t, 1, decoded["a"])
}

func TestCaptureRestore_RoundTrip(t *testing.T) {
	key := graph.NewContextKey[string]("approval.status")

	state := graph.NewStateWithID[approvalPayload]("wf-9", "intake", approvalPayload{Amount: 125.50})
	state = state.MoveTo("approve").MergeContext(graph.With(graph.NewContext(), key, "pending"))

	ser := JSONSerializer{}
	susp, err := Capture(ser, "susp-1", "awaiting approval", state)
	require.NoError(t, err)

	assert.Equal(t, "susp-1", susp.ID)
	assert.Equal(t, "wf-9", susp.WorkflowID)
	assert.Equal(t, "approve", susp.NodeID)
	assert.Equal(t, "awaiting approval", susp.Reason)
	assert.Equal(t, 1, susp.SchemaVersion)
	assert.False(t, susp.CreatedAt.IsZero())
	assert.NotEmpty(t, susp.State)

	restored, err := Restore[approvalPayload](ser, susp)
	require.NoError(t, err)

	assert.Equal(t, graph.WorkflowID("wf-9"), restored.WorkflowID())
	assert.Equal(t, graph.NodeID("approve"), restored.Current())
	assert.Equal(t, 125.50, restored.Data().Amount)
	assert.Equal(t, []graph.NodeID{"intake"}, restored.Visited())

	status, ok := graph.Value(restored.Context(), key)
	assert.True(t, ok)
	assert.Equal(t, "pending", status)
}

func TestRestore_CorruptPayload(t *testing.T) {
	susp := &Suspension{ID: "bad", State: []byte("{not json")}

	_, err := Restore[approvalPayload](JSONSerializer{}, susp)
	assert.Error(t, err)
}
