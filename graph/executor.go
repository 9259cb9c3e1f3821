package graph

import (
	"context"
	"fmt"
	"time"

	"github.com/smallnest/graphflow/log"
)

// DefaultMaxSteps bounds the step loop when no budget is configured.
const DefaultMaxSteps = 100

// ExecutorOptions configure budgets and cycle policy for an executor.
type ExecutorOptions struct {
	// MaxSteps is the node-invocation budget. Zero means DefaultMaxSteps.
	MaxSteps int

	// MaxDuration is the wall-clock budget. Zero means unbounded. The
	// budget applies only while the loop is running; suspended states age
	// freely.
	MaxDuration time.Duration

	// DetectCycles enables revisit detection over the state's history.
	DetectCycles bool

	// AllowCycles permits revisits even when detection is enabled, turning
	// detection into bookkeeping only.
	AllowCycles bool
}

// Executor runs a workflow: it repeatedly invokes the current node,
// interprets the returned command, and advances or terminates the state.
// A single execution is strictly sequential; concurrency only exists
// between independent executions, which share nothing but the immutable
// workflow model.
type Executor[T, O any] struct {
	workflow  *Workflow[T]
	extractor OutputExtractor[T, O]
	monitor   safeMonitor[T]
	logger    log.Logger
	opts      ExecutorOptions
}

// NewExecutor creates an executor over a built workflow. The workflow is
// treated as read-only configuration and may be shared across executors.
func NewExecutor[T, O any](w *Workflow[T], extractor OutputExtractor[T, O], monitor Monitor[T], logger log.Logger, opts ExecutorOptions) *Executor[T, O] {
	if opts.MaxSteps <= 0 {
		opts.MaxSteps = DefaultMaxSteps
	}
	if logger == nil {
		logger = &log.NoOpLogger{}
	}
	return &Executor[T, O]{
		workflow:  w,
		extractor: extractor,
		monitor:   newSafeMonitor(monitor),
		logger:    logger,
		opts:      opts,
	}
}

// Workflow returns the workflow model this executor runs.
func (e *Executor[T, O]) Workflow() *Workflow[T] { return e.workflow }

// Start creates an initial state at the default entry point and executes.
func (e *Executor[T, O]) Start(ctx context.Context, data T) Result[T, O] {
	entry := e.workflow.DefaultEntry()
	if entry == "" {
		return Failure[T, O](NewWorkflowError(ErrKindInvalidWorkflow, "", "workflow has no default entry point"))
	}
	return e.Execute(ctx, NewState(entry, data))
}

// Execute runs the step loop from the given initial state until a terminal
// command is reached or a budget is exhausted.
func (e *Executor[T, O]) Execute(ctx context.Context, initial State[T]) Result[T, O] {
	state := initial.MergeContext(e.bootstrapContext(initial))
	e.monitor.workflowStart(ctx, state)
	e.logger.Info("workflow %s starting at node %s", state.WorkflowID(), state.Current())
	return e.run(ctx, state)
}

// Resume re-enters the loop at the node recorded in a suspended state,
// optionally layering caller-supplied context updates on top. The caller
// owned the state since suspension; the engine trusts it as-is.
func (e *Executor[T, O]) Resume(ctx context.Context, suspended State[T], updates Context) Result[T, O] {
	count := ValueOr(suspended.Context(), KeyResumeCount, 0) + 1
	resumeCtx := With(NewContext(), KeyResumedAt, time.Now())
	resumeCtx = With(resumeCtx, KeyResumeCount, count)
	state := suspended.MergeContext(updates).MergeContext(resumeCtx)

	e.monitor.workflowResume(ctx, state, count)
	e.logger.Info("workflow %s resuming at node %s (resume %d)", state.WorkflowID(), state.Current(), count)
	return e.run(ctx, state)
}

func (e *Executor[T, O]) bootstrapContext(initial State[T]) Context {
	c := With(NewContext(), KeyWorkflowID, string(initial.WorkflowID()))
	c = With(c, KeyWorkflowName, e.workflow.Name())
	c = With(c, KeyStartedAt, time.Now())
	return c
}

func (e *Executor[T, O]) run(ctx context.Context, state State[T]) Result[T, O] {
	deadline := time.Time{}
	if e.opts.MaxDuration > 0 {
		deadline = time.Now().Add(e.opts.MaxDuration)
	}

	for step := 0; ; step++ {
		if step >= e.opts.MaxSteps {
			return e.fail(ctx, NewWorkflowError(ErrKindMaxStepsExceeded, state.Current(),
				"step budget of %d exhausted", e.opts.MaxSteps))
		}
		if !deadline.IsZero() && time.Now().After(deadline) {
			return e.fail(ctx, NewWorkflowError(ErrKindExecutionTimeout, state.Current(),
				"execution exceeded %s", e.opts.MaxDuration))
		}
		if err := ctx.Err(); err != nil {
			return e.fail(ctx, &WorkflowError{
				Kind:    ErrKindExecutionTimeout,
				Node:    state.Current(),
				Message: "execution context cancelled",
				Err:     err,
			})
		}

		node, ok := e.workflow.Node(state.Current())
		if !ok {
			return e.fail(ctx, NewWorkflowError(ErrKindNodeNotFound, state.Current(),
				"node %q is not declared in workflow %q", state.Current(), e.workflow.Name()))
		}

		if e.opts.DetectCycles && !e.opts.AllowCycles && state.HasVisited(state.Current()) {
			return e.fail(ctx, NewWorkflowError(ErrKindCycleDetected, state.Current(),
				"node %q visited twice", state.Current()))
		}

		e.monitor.nodeStart(ctx, node.ID(), state)
		cmd, err := e.invoke(ctx, node, state)
		if err != nil {
			werr := WrapNodeError(node.ID(), err)
			e.monitor.nodeError(ctx, node.ID(), werr)
			return e.fail(ctx, werr)
		}
		e.monitor.nodeComplete(ctx, node.ID(), cmd)

		// Updates apply before the command is interpreted, so a Traverse
		// can set the very flag its edge condition depends on.
		state = applyCommandUpdates(state, cmd)

		switch cmd.Kind {
		case CommandTraverse:
			next, err := e.traverse(ctx, state, cmd.Target)
			if err != nil {
				return e.fail(ctx, err)
			}
			state = next

		case CommandComplete:
			output, xerr := e.extract(cmd.Result, state)
			if xerr != nil {
				return e.fail(ctx, xerr)
			}
			e.monitor.complete(ctx, state, cmd.Result)
			e.logger.Info("workflow %s completed at node %s after %d steps", state.WorkflowID(), state.Current(), step+1)
			return Success[T, O](output)

		case CommandSuspend:
			e.monitor.suspend(ctx, cmd.SuspensionID, cmd.Reason, state)
			e.logger.Info("workflow %s suspended at node %s: %s", state.WorkflowID(), state.Current(), cmd.Reason)
			return Suspended[T, O](cmd.SuspensionID, cmd.Reason, state)

		case CommandError:
			werr := cmd.Err
			if werr == nil {
				werr = NewWorkflowError(ErrKindNodeFailed, node.ID(), "node reported an error command with no error")
			} else if werr.Node == "" {
				werr.Node = node.ID()
			}
			e.monitor.nodeError(ctx, node.ID(), werr)
			if cmd.Fallback != "" {
				if _, ok := e.workflow.Node(cmd.Fallback); !ok {
					return e.fail(ctx, NewWorkflowError(ErrKindNodeNotFound, cmd.Fallback,
						"fallback node %q is not declared", cmd.Fallback))
				}
				e.logger.Warn("workflow %s: node %s failed, re-routing to fallback %s: %v",
					state.WorkflowID(), node.ID(), cmd.Fallback, werr)
				e.monitor.transition(ctx, state.Current(), cmd.Fallback, "")
				state = state.MoveTo(cmd.Fallback)
				continue
			}
			return e.fail(ctx, werr)

		case CommandFork:
			if len(cmd.Targets) == 0 {
				return e.fail(ctx, NewWorkflowError(ErrKindForkNoTargets, node.ID(), "fork command carried no targets"))
			}
			// Parallel branching is not implemented; only the first branch
			// is followed.
			if len(cmd.Targets) > 1 {
				e.monitor.warning(ctx, node.ID(), fmt.Sprintf(
					"fork requested %d branches; parallel branching is unsupported, following %q only",
					len(cmd.Targets), cmd.Targets[0]))
			}
			next, err := e.traverse(ctx, state, cmd.Targets[0])
			if err != nil {
				return e.fail(ctx, err)
			}
			state = next

		default:
			return e.fail(ctx, NewWorkflowError(ErrKindNodeFailed, node.ID(),
				"node returned unknown command kind %d", cmd.Kind))
		}
	}
}

// invoke runs a node, converting panics into errors so no raw failure
// crosses the executor boundary.
func (e *Executor[T, O]) invoke(ctx context.Context, node Node[T], state State[T]) (cmd *Command[T], err error) {
	defer func() {
		if r := recover(); r != nil {
			cmd = nil
			err = fmt.Errorf("panic in node %s: %v", node.ID(), r)
		}
	}()
	cmd, err = node.Run(ctx, state)
	if err == nil && cmd == nil {
		err = fmt.Errorf("node %s returned neither command nor error", node.ID())
	}
	return cmd, err
}

// traverse validates and performs a move to target, evaluating edge
// conditions against the already-updated state.
func (e *Executor[T, O]) traverse(ctx context.Context, state State[T], target NodeID) (State[T], *WorkflowError) {
	if _, ok := e.workflow.Node(target); !ok {
		return state, NewWorkflowError(ErrKindNodeNotFound, target, "traverse target %q is not declared", target)
	}

	var usedEdge EdgeID
	edges := e.workflow.EdgesBetween(state.Current(), target)
	if len(edges) > 0 {
		passed := false
		for _, edge := range edges {
			if edge.allows(state.Context()) {
				usedEdge = edge.ID
				passed = true
				break
			}
		}
		if !passed {
			return state, NewWorkflowError(ErrKindEdgeConditionFailed, state.Current(),
				"no edge from %q to %q accepted the current context", state.Current(), target)
		}
	}

	e.monitor.transition(ctx, state.Current(), target, usedEdge)
	e.logger.Debug("workflow %s: %s -> %s", state.WorkflowID(), state.Current(), target)

	next := state.MoveTo(target)
	if usedEdge != "" {
		edgeCtx := With(NewContext(), KeyLastEdge, string(usedEdge))
		edgeCtx = With(edgeCtx, KeyLastEdgeAt, time.Now())
		next = next.MergeContext(edgeCtx)
	}
	return next, nil
}

func (e *Executor[T, O]) extract(result any, final State[T]) (O, *WorkflowError) {
	var zero O
	if e.extractor == nil {
		return zero, NewWorkflowError(ErrKindOutputExtraction, final.Current(), "no output extractor configured")
	}
	output, err := e.extractor(result, final)
	if err != nil {
		return zero, &WorkflowError{
			Kind:    ErrKindOutputExtraction,
			Node:    final.Current(),
			Message: "output extractor failed",
			Err:     err,
		}
	}
	return output, nil
}

func (e *Executor[T, O]) fail(ctx context.Context, err *WorkflowError) Result[T, O] {
	e.monitor.workflowError(ctx, err)
	e.logger.Error("workflow failed: %v", err)
	return Failure[T, O](err)
}

// applyCommandUpdates layers a command's context and data updates onto the
// state.
func applyCommandUpdates[T any](state State[T], cmd *Command[T]) State[T] {
	state = state.MergeContext(cmd.Updates)
	if cmd.Data != nil {
		state = state.WithData(*cmd.Data)
	}
	return state
}
