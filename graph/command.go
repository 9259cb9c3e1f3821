package graph

import "fmt"

// CommandKind discriminates the Command union. The executor switches over
// every kind exhaustively; adding a kind means touching that one switch.
type CommandKind int

const (
	// CommandTraverse moves execution to Target.
	CommandTraverse CommandKind = iota

	// CommandComplete terminates successfully with Result.
	CommandComplete

	// CommandSuspend pauses execution and hands the state to the caller.
	CommandSuspend

	// CommandError reports a local failure, optionally re-routing to
	// Fallback instead of failing the workflow.
	CommandError

	// CommandFork requests parallel branching into Targets. Only the first
	// target is currently followed; see Executor.
	CommandFork
)

// String returns the name of the command kind.
func (k CommandKind) String() string {
	switch k {
	case CommandTraverse:
		return "traverse"
	case CommandComplete:
		return "complete"
	case CommandSuspend:
		return "suspend"
	case CommandError:
		return "error"
	case CommandFork:
		return "fork"
	default:
		return fmt.Sprintf("unknown(%d)", int(k))
	}
}

// Command is the value a node returns to direct the executor. Exactly one
// kind is set; the optional Updates and Data fields apply to the state
// before the command itself is interpreted.
type Command[T any] struct {
	// Kind selects the variant.
	Kind CommandKind

	// Target is the destination node for Traverse.
	Target NodeID

	// Targets are the destinations for Fork.
	Targets []NodeID

	// Result is the completion value handed to the output extractor.
	Result any

	// SuspensionID identifies the suspension point for later resumption.
	SuspensionID string

	// Reason is the human-readable suspension reason.
	Reason string

	// Err is the failure carried by an Error command.
	Err *WorkflowError

	// Fallback, when set on an Error command, re-routes execution there
	// instead of failing the workflow.
	Fallback NodeID

	// Updates are context entries layered onto the state before the
	// command is interpreted.
	Updates Context

	// Data, when non-nil, replaces the state payload before the command
	// is interpreted.
	Data *T
}

// Traverse builds a command that moves execution to target.
func Traverse[T any](target NodeID) *Command[T] {
	return &Command[T]{Kind: CommandTraverse, Target: target}
}

// Complete builds a command that terminates the workflow with result.
func Complete[T any](result any) *Command[T] {
	return &Command[T]{Kind: CommandComplete, Result: result}
}

// Suspend builds a command that pauses the workflow. An empty suspensionID
// gets a generated one.
func Suspend[T any](suspensionID, reason string) *Command[T] {
	if suspensionID == "" {
		suspensionID = NewSuspensionID()
	}
	return &Command[T]{Kind: CommandSuspend, SuspensionID: suspensionID, Reason: reason}
}

// Fail builds an Error command carrying err.
func Fail[T any](err *WorkflowError) *Command[T] {
	return &Command[T]{Kind: CommandError, Err: err}
}

// FailWithFallback builds an Error command that re-routes to fallback.
func FailWithFallback[T any](err *WorkflowError, fallback NodeID) *Command[T] {
	return &Command[T]{Kind: CommandError, Err: err, Fallback: fallback}
}

// Fork builds a command requesting parallel branching into targets.
func Fork[T any](targets ...NodeID) *Command[T] {
	return &Command[T]{Kind: CommandFork, Targets: targets}
}

// WithUpdates attaches context updates to the command.
func (c *Command[T]) WithUpdates(updates Context) *Command[T] {
	c.Updates = updates
	return c
}

// CommandUpdate attaches a single typed context update to the command.
// It is a free function because methods cannot add type parameters.
func CommandUpdate[T, V any](c *Command[T], key ContextKey[V], value V) *Command[T] {
	c.Updates = With(c.Updates, key, value)
	return c
}

// WithData attaches a payload replacement to the command.
func (c *Command[T]) WithData(data T) *Command[T] {
	c.Data = &data
	return c
}
