package coreloop

// DirectiveKind tags the variant of a Directive. Dispatch in the loop
// switches on Kind rather than doing any class-hierarchy identity check.
type DirectiveKind int

const (
	// DirectiveNone is the zero value: equivalent to a task yielding
	// nil/None — re-enqueue on NQ with zero delay, a fair yield.
	DirectiveNone DirectiveKind = iota
	// DirectiveSleepMs re-enqueues on NQ after Arg milliseconds.
	DirectiveSleepMs
	// DirectiveAfterMs re-enqueues on LPQ after Arg milliseconds.
	DirectiveAfterMs
	// DirectiveWhen registers Pred on the HPQ; the task resumes the
	// first tick Pred() is truthy.
	DirectiveWhen
	// DirectiveIORead registers the yielding task as a reader on Handle.
	DirectiveIORead
	// DirectiveIOWrite registers the yielding task as a writer on Handle.
	DirectiveIOWrite
	// DirectiveIOReadDone deregisters Handle as a reader, then falls
	// through to the default zero-delay re-enqueue.
	DirectiveIOReadDone
	// DirectiveIOWriteDone deregisters Handle as a writer, then falls
	// through to the default zero-delay re-enqueue.
	DirectiveIOWriteDone
	// DirectiveStopLoop terminates RunForever, which returns Arg.
	DirectiveStopLoop
	// DirectiveTask schedules Task via CreateTask, and re-enqueues the
	// yielding task with zero delay.
	DirectiveTask
	// DirectiveIntMs is equivalent to DirectiveSleepMs; it exists so a
	// task can yield a bare integer and get normal-priority re-enqueue
	// after that many milliseconds, matching the source's "integer n"
	// variant.
	DirectiveIntMs
)

// Directive is the tagged value a Task yields from Resume to tell the
// loop how to treat its suspension. It is a small value type (a tag plus
// at most one payload field), not an interface, so that constructing and
// interpreting one never allocates on the hot path.
type Directive struct {
	Kind   DirectiveKind
	Ms     int64         // milliseconds, for SleepMs/AfterMs/IntMs/StopLoop(unused)
	Pred   func() bool   // predicate, for When
	Handle IOHandle      // file descriptor-like handle, for IORead/IOWrite/*Done
	Task   Task          // nested task, for DirectiveTask
	Value  any           // StopLoop's return value
}

// IOHandle identifies a reactor-registered I/O source. It is typically a
// file descriptor; it is opaque to the loop itself.
type IOHandle int

// None is the zero directive: fair, zero-delay re-enqueue.
func None() Directive { return Directive{Kind: DirectiveNone} }

// SleepMs yields a normal-priority re-enqueue after ms milliseconds.
func SleepMs(ms int64) Directive { return Directive{Kind: DirectiveSleepMs, Ms: ms} }

// Sleep yields a normal-priority re-enqueue after secs seconds, truncated
// to milliseconds (not rounded), matching the source's int(secs*1000).
func Sleep(secs float64) Directive { return SleepMs(truncMs(secs)) }

// AfterMs yields a low-priority re-enqueue after ms milliseconds.
func AfterMs(ms int64) Directive { return Directive{Kind: DirectiveAfterMs, Ms: ms} }

// After yields a low-priority re-enqueue after secs seconds, truncated.
func After(secs float64) Directive { return AfterMs(truncMs(secs)) }

// When yields HPQ registration: the task resumes the first tick pred()
// returns true. pred must be non-nil; a nil predicate is a
// BadWhenArgument error at interpretation time.
func When(pred func() bool) Directive { return Directive{Kind: DirectiveWhen, Pred: pred} }

// IORead registers the yielding task as a reader on h and does not
// re-enqueue; the reactor re-enqueues it on NQ on readiness.
func IORead(h IOHandle) Directive { return Directive{Kind: DirectiveIORead, Handle: h} }

// IOWrite registers the yielding task as a writer on h; see IORead.
func IOWrite(h IOHandle) Directive { return Directive{Kind: DirectiveIOWrite, Handle: h} }

// IOReadDone deregisters h as a reader, then falls through to a
// zero-delay re-enqueue of the yielding task.
func IOReadDone(h IOHandle) Directive { return Directive{Kind: DirectiveIOReadDone, Handle: h} }

// IOWriteDone deregisters h as a writer, then falls through to a
// zero-delay re-enqueue of the yielding task.
func IOWriteDone(h IOHandle) Directive { return Directive{Kind: DirectiveIOWriteDone, Handle: h} }

// StopLoop terminates RunForever, which then returns value.
func StopLoop(value any) Directive { return Directive{Kind: DirectiveStopLoop, Value: value} }

// NestedTask schedules t via CreateTask and re-enqueues the yielding task
// with zero delay.
func NestedTask(t Task) Directive { return Directive{Kind: DirectiveTask, Task: t} }

// IntMs is equivalent to SleepMs(ms); it exists so callers mirroring the
// source's "yield an integer" idiom have a named constructor.
func IntMs(ms int64) Directive { return Directive{Kind: DirectiveIntMs, Ms: ms} }

// truncMs truncates seconds to milliseconds, matching int(secs*1000) in
// the original source: truncation toward zero, not rounding to nearest.
func truncMs(secs float64) int64 {
	return int64(secs * 1000)
}
