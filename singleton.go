package coreloop

import (
	"fmt"
	"sync"
)

var (
	singletonOnce sync.Once
	singletonLoop *EventLoop
	singletonErr  error
)

// GetEventLoop returns the process-wide EventLoop, constructing it on the
// first call with the given packed capacities and options; subsequent
// calls return the same instance regardless of the arguments passed,
// matching the source's "the first call fixes the capacities" contract
// from spec.md §9's Design Notes.
func GetEventLoop(packed int, opts ...LoopOption) (*EventLoop, error) {
	singletonOnce.Do(func() {
		singletonLoop, singletonErr = New(packed, opts...)
		if singletonErr != nil {
			singletonErr = WrapError("coreloop: initializing process-wide event loop", singletonErr)
		}
	})
	return singletonLoop, singletonErr
}

// EnsureFuture schedules t on the process-wide loop, creating the loop
// with default capacities if it does not exist yet.
//
// This resolves spec.md §9's Open Question about the source's
// `_event_loop` latent bug: the source's `ensure_future`/`Task` reference
// a module-level loop captured at *definition* time, before it is
// initialized. EnsureFuture instead looks the loop up lazily, at call
// time, via GetEventLoop, so it can never observe an uninitialized
// singleton.
func EnsureFuture(t Task) error {
	loop, err := GetEventLoop(defaultPacked)
	if err != nil {
		return err
	}
	return loop.CreateTask(t)
}

// CreateTask is an alias for EnsureFuture, named after the source's
// asyncio-compatible spelling.
func CreateTask(t Task) error {
	return EnsureFuture(t)
}

// defaultPacked is the packed qlen|lpqlen<<16 argument used when the
// process-wide loop is created implicitly via EnsureFuture/CreateTask
// rather than explicitly via GetEventLoop; it matches the source's
// `len=42` default (qlen=42, lpqlen=0).
const defaultPacked = 42

func init() {
	// Sanity-check defaultPacked unpacks the way New expects; this only
	// guards against a future edit of the constant, not runtime state.
	if qlen := defaultPacked & 0xFFFF; qlen != 42 {
		panic(fmt.Sprintf("coreloop: defaultPacked unpack mismatch: %d", qlen))
	}
}
