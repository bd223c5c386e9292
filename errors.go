package coreloop

import (
	"errors"
	"fmt"
)

// QueueFull is returned by TimedQueue.Push (and surfaced by CallSoon,
// CallLater, CallAt, CallAfter, CreateTask) when a push would exceed the
// queue's fixed capacity.
var QueueFull = errors.New("coreloop: queue full")

// UnknownDirective is returned when a Task yields a Directive whose Kind
// isn't one the loop understands. It is fatal: the task's expected
// re-enqueue is undefined, so the loop cannot safely continue past it.
var UnknownDirective = errors.New("coreloop: unknown directive")

// BadWhenArgument is returned when a DirectiveWhen is yielded with a nil
// predicate.
var BadWhenArgument = errors.New("coreloop: When directive requires a non-nil predicate")

// ErrLoopAlreadyRunning is returned by RunForever/RunUntilComplete if the
// loop is already inside a dispatch run.
var ErrLoopAlreadyRunning = errors.New("coreloop: loop already running")

// ErrLoopClosed is returned by RunForever (and so by RunUntilComplete)
// once Close has been called. The scheduling methods (CreateTask,
// CallSoon and the like) do not check for it.
var ErrLoopClosed = errors.New("coreloop: loop closed")

// TaskError wraps an uncaught failure from inside a Task's resumption
// (including a recovered panic). Per the error handling policy, a
// TaskError is reported (logged) and the offending task is dropped; it
// never tears down the loop or RunForever.
type TaskError struct {
	Cause error
}

// Error implements the error interface.
func (e *TaskError) Error() string {
	return fmt.Sprintf("coreloop: task error: %v", e.Cause)
}

// Unwrap supports errors.Is/errors.As against the wrapped cause.
func (e *TaskError) Unwrap() error {
	return e.Cause
}

// WrapError wraps an error with a message, preserving it as the cause for
// errors.Is/errors.As, mirroring the convenience helper pattern used
// throughout this codebase's ambient error types.
func WrapError(message string, cause error) error {
	return fmt.Errorf("%s: %w", message, cause)
}
