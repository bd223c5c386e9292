package coreloop

// LoopState marks where an EventLoop is in its lifecycle. Unlike the
// teacher's FastState, this is a plain field rather than an atomic CAS
// machine: the loop is single-threaded and cooperative by design (see
// spec.md's Non-goals), so there is exactly one goroutine that ever reads
// or writes it.
type LoopState int

const (
	// StateIdle is the state before the first RunForever call and again
	// after each RunForever call returns.
	StateIdle LoopState = iota
	// StateRunning is set for the duration of a RunForever call.
	StateRunning
	// StateClosed is set once Close has been called; the loop must not
	// be run again.
	StateClosed
)

// String returns a human-readable representation of the state.
func (s LoopState) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateRunning:
		return "Running"
	case StateClosed:
		return "Closed"
	default:
		return "Unknown"
	}
}
