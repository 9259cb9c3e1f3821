package graph

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

type countingMonitor struct {
	NopMonitor[string]
	events int
}

func (m *countingMonitor) OnWorkflowStart(context.Context, State[string]) { m.events++ }
func (m *countingMonitor) OnNodeStart(context.Context, NodeID, State[string]) {
	m.events++
}
func (m *countingMonitor) OnComplete(context.Context, State[string], any) { m.events++ }

func TestMultiMonitor_FansOutInOrder(t *testing.T) {
	first := &countingMonitor{}
	second := &countingMonitor{}
	multi := NewMultiMonitor[string](first, second)

	ctx := context.Background()
	state := NewState[string]("a", "")

	multi.OnWorkflowStart(ctx, state)
	multi.OnNodeStart(ctx, "a", state)
	multi.OnComplete(ctx, state, "out")

	assert.Equal(t, 3, first.events)
	assert.Equal(t, 3, second.events)
}

func TestSafeMonitor_NilBecomesNop(t *testing.T) {
	sm := newSafeMonitor[string](nil)

	assert.NotPanics(t, func() {
		sm.workflowStart(context.Background(), NewState[string]("a", ""))
		sm.warning(context.Background(), "a", "msg")
	})
}

func TestSafeMonitor_AbsorbsPanics(t *testing.T) {
	panicky := &panickyMonitor{}
	sm := newSafeMonitor[string](panicky)

	assert.NotPanics(t, func() {
		sm.workflowStart(context.Background(), NewState[string]("a", ""))
	})
	assert.Equal(t, 1, panicky.calls)
}
