package graph

// ResultKind discriminates the Result union returned to the caller.
type ResultKind int

const (
	// ResultSuccess carries the extracted output.
	ResultSuccess ResultKind = iota

	// ResultFailure carries a structured workflow error.
	ResultFailure

	// ResultSuspended carries the suspended state; the caller owns it
	// until resume.
	ResultSuspended
)

// Result is the outward-facing outcome of a workflow execution.
type Result[T, O any] struct {
	// Kind selects the variant.
	Kind ResultKind

	// Output is the extracted output on the Success path.
	Output O

	// Err is the failure on the Failure path.
	Err *WorkflowError

	// SuspensionID identifies the suspension on the Suspended path.
	SuspensionID string

	// Reason is the suspension reason.
	Reason string

	// State is the suspended state, valid only when Kind is
	// ResultSuspended.
	State State[T]
}

// Success builds a successful result.
func Success[T, O any](output O) Result[T, O] {
	return Result[T, O]{Kind: ResultSuccess, Output: output}
}

// Failure builds a failed result.
func Failure[T, O any](err *WorkflowError) Result[T, O] {
	return Result[T, O]{Kind: ResultFailure, Err: err}
}

// Suspended builds a suspended result carrying the state back to the caller.
func Suspended[T, O any](suspensionID, reason string, state State[T]) Result[T, O] {
	return Result[T, O]{
		Kind:         ResultSuspended,
		SuspensionID: suspensionID,
		Reason:       reason,
		State:        state,
	}
}

// IsSuccess reports whether the result is a success.
func (r Result[T, O]) IsSuccess() bool { return r.Kind == ResultSuccess }

// IsFailure reports whether the result is a failure.
func (r Result[T, O]) IsFailure() bool { return r.Kind == ResultFailure }

// IsSuspended reports whether the result is a suspension.
func (r Result[T, O]) IsSuspended() bool { return r.Kind == ResultSuspended }
