package graph

import "context"

// Monitor observes workflow lifecycle events. Implementations are passive:
// the executor calls them synchronously at the point of occurrence and
// absorbs any panic they raise, so a misbehaving monitor cannot affect
// execution.
type Monitor[T any] interface {
	// OnWorkflowStart is called once when execution begins.
	OnWorkflowStart(ctx context.Context, state State[T])

	// OnWorkflowResume is called when a suspended state re-enters the loop.
	OnWorkflowResume(ctx context.Context, state State[T], resumeCount int)

	// OnNodeStart is called before a node runs.
	OnNodeStart(ctx context.Context, node NodeID, state State[T])

	// OnNodeComplete is called after a node returns a command.
	OnNodeComplete(ctx context.Context, node NodeID, command *Command[T])

	// OnNodeError is called when a node fails or panics.
	OnNodeError(ctx context.Context, node NodeID, err *WorkflowError)

	// OnTransition is called when execution moves between nodes. edge is
	// empty when no declared edge covers the move.
	OnTransition(ctx context.Context, from, to NodeID, edge EdgeID)

	// OnSuspend is called when execution suspends.
	OnSuspend(ctx context.Context, suspensionID, reason string, state State[T])

	// OnComplete is called when execution finishes successfully.
	OnComplete(ctx context.Context, state State[T], result any)

	// OnWorkflowError is called when execution terminates with a failure.
	OnWorkflowError(ctx context.Context, err *WorkflowError)

	// OnWarning is called for engine-level warnings, e.g. unsupported
	// parallel fork branching.
	OnWarning(ctx context.Context, node NodeID, message string)
}

// NopMonitor is a Monitor that ignores every event.
type NopMonitor[T any] struct{}

var _ Monitor[any] = NopMonitor[any]{}

func (NopMonitor[T]) OnWorkflowStart(context.Context, State[T])             {}
func (NopMonitor[T]) OnWorkflowResume(context.Context, State[T], int)       {}
func (NopMonitor[T]) OnNodeStart(context.Context, NodeID, State[T])         {}
func (NopMonitor[T]) OnNodeComplete(context.Context, NodeID, *Command[T])   {}
func (NopMonitor[T]) OnNodeError(context.Context, NodeID, *WorkflowError)   {}
func (NopMonitor[T]) OnTransition(context.Context, NodeID, NodeID, EdgeID)  {}
func (NopMonitor[T]) OnSuspend(context.Context, string, string, State[T])   {}
func (NopMonitor[T]) OnComplete(context.Context, State[T], any)             {}
func (NopMonitor[T]) OnWorkflowError(context.Context, *WorkflowError)       {}
func (NopMonitor[T]) OnWarning(context.Context, NodeID, string)             {}

// MultiMonitor fans every event out to a list of monitors in order.
type MultiMonitor[T any] struct {
	monitors []Monitor[T]
}

// NewMultiMonitor combines monitors into one.
func NewMultiMonitor[T any](monitors ...Monitor[T]) *MultiMonitor[T] {
	return &MultiMonitor[T]{monitors: monitors}
}

func (m *MultiMonitor[T]) OnWorkflowStart(ctx context.Context, state State[T]) {
	for _, mon := range m.monitors {
		mon.OnWorkflowStart(ctx, state)
	}
}

func (m *MultiMonitor[T]) OnWorkflowResume(ctx context.Context, state State[T], resumeCount int) {
	for _, mon := range m.monitors {
		mon.OnWorkflowResume(ctx, state, resumeCount)
	}
}

func (m *MultiMonitor[T]) OnNodeStart(ctx context.Context, node NodeID, state State[T]) {
	for _, mon := range m.monitors {
		mon.OnNodeStart(ctx, node, state)
	}
}

func (m *MultiMonitor[T]) OnNodeComplete(ctx context.Context, node NodeID, command *Command[T]) {
	for _, mon := range m.monitors {
		mon.OnNodeComplete(ctx, node, command)
	}
}

func (m *MultiMonitor[T]) OnNodeError(ctx context.Context, node NodeID, err *WorkflowError) {
	for _, mon := range m.monitors {
		mon.OnNodeError(ctx, node, err)
	}
}

func (m *MultiMonitor[T]) OnTransition(ctx context.Context, from, to NodeID, edge EdgeID) {
	for _, mon := range m.monitors {
		mon.OnTransition(ctx, from, to, edge)
	}
}

func (m *MultiMonitor[T]) OnSuspend(ctx context.Context, suspensionID, reason string, state State[T]) {
	for _, mon := range m.monitors {
		mon.OnSuspend(ctx, suspensionID, reason, state)
	}
}

func (m *MultiMonitor[T]) OnComplete(ctx context.Context, state State[T], result any) {
	for _, mon := range m.monitors {
		mon.OnComplete(ctx, state, result)
	}
}

func (m *MultiMonitor[T]) OnWorkflowError(ctx context.Context, err *WorkflowError) {
	for _, mon := range m.monitors {
		mon.OnWorkflowError(ctx, err)
	}
}

func (m *MultiMonitor[T]) OnWarning(ctx context.Context, node NodeID, message string) {
	for _, mon := range m.monitors {
		mon.OnWarning(ctx, node, message)
	}
}

// safeMonitor shields the executor from monitor panics. Every callback is
// fire-and-forget.
type safeMonitor[T any] struct {
	inner Monitor[T]
}

func newSafeMonitor[T any](inner Monitor[T]) safeMonitor[T] {
	if inner == nil {
		inner = NopMonitor[T]{}
	}
	return safeMonitor[T]{inner: inner}
}

func (m safeMonitor[T]) call(fn func()) {
	defer func() {
		_ = recover()
	}()
	fn()
}

func (m safeMonitor[T]) workflowStart(ctx context.Context, state State[T]) {
	m.call(func() { m.inner.OnWorkflowStart(ctx, state) })
}

func (m safeMonitor[T]) workflowResume(ctx context.Context, state State[T], count int) {
	m.call(func() { m.inner.OnWorkflowResume(ctx, state, count) })
}

func (m safeMonitor[T]) nodeStart(ctx context.Context, node NodeID, state State[T]) {
	m.call(func() { m.inner.OnNodeStart(ctx, node, state) })
}

func (m safeMonitor[T]) nodeComplete(ctx context.Context, node NodeID, cmd *Command[T]) {
	m.call(func() { m.inner.OnNodeComplete(ctx, node, cmd) })
}

func (m safeMonitor[T]) nodeError(ctx context.Context, node NodeID, err *WorkflowError) {
	m.call(func() { m.inner.OnNodeError(ctx, node, err) })
}

func (m safeMonitor[T]) transition(ctx context.Context, from, to NodeID, edge EdgeID) {
	m.call(func() { m.inner.OnTransition(ctx, from, to, edge) })
}

func (m safeMonitor[T]) suspend(ctx context.Context, id, reason string, state State[T]) {
	m.call(func() { m.inner.OnSuspend(ctx, id, reason, state) })
}

func (m safeMonitor[T]) complete(ctx context.Context, state State[T], result any) {
	m.call(func() { m.inner.OnComplete(ctx, state, result) })
}

func (m safeMonitor[T]) workflowError(ctx context.Context, err *WorkflowError) {
	m.call(func() { m.inner.OnWorkflowError(ctx, err) })
}

func (m safeMonitor[T]) warning(ctx context.Context, node NodeID, message string) {
	m.call(func() { m.inner.OnWarning(ctx, node, message) })
}
