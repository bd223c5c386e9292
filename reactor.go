package coreloop

import (
	"errors"
	"time"
)

// ErrFDOutOfRange is returned by the default Linux (epoll) reactor when
// asked to register a handle outside the range it directly indexes.
var ErrFDOutOfRange = errors.New("coreloop: fd out of range")

// Reactor is the external collaborator the loop blocks through and
// registers I/O interest with. It is the boundary named in spec.md §6;
// the loop never performs I/O multiplexing itself.
type Reactor interface {
	// Wait blocks up to delayMs milliseconds (-1 = indefinite). It may
	// return early. As a side effect it may call back into the loop to
	// enqueue tasks whose I/O became ready; the default reactors do so
	// through the schedule function they are constructed with, which
	// pushes the task onto NQ at the current time.
	Wait(delayMs int64) error

	// AddReader registers task to be scheduled (pushed onto NQ) when h
	// becomes readable. Replacing an existing registration for
	// the same handle is the caller's responsibility to order.
	AddReader(h IOHandle, task Task) error

	// AddWriter registers task to be scheduled when h becomes writable.
	AddWriter(h IOHandle, task Task) error

	// RemoveReader deregisters h's reader interest, if any.
	RemoveReader(h IOHandle) error

	// RemoveWriter deregisters h's writer interest, if any.
	RemoveWriter(h IOHandle) error
}

// sleepOnlyReactor is the minimal default promised by spec.md §9: it only
// calls the platform sleep for Wait and errors on any I/O registration.
// It backs platforms (or builds) that don't have a native epoll/kqueue
// reactor wired in (see reactor_other.go).
type sleepOnlyReactor struct{}

// NewSleepOnlyReactor returns a Reactor that can wait but never services
// I/O registration; useful for timer-only tests and for platforms without
// a native poller.
func NewSleepOnlyReactor() Reactor { return sleepOnlyReactor{} }

func (sleepOnlyReactor) Wait(delayMs int64) error {
	if delayMs < 0 {
		// No I/O source will ever wake an indefinite wait on this
		// reactor; returning immediately keeps RunForever responsive
		// rather than blocking forever with nothing that could ever
		// unblock it.
		return nil
	}
	time.Sleep(time.Duration(delayMs) * time.Millisecond)
	return nil
}

var ErrNoReactorIO = errReactorUnsupported{}

type errReactorUnsupported struct{}

func (errReactorUnsupported) Error() string {
	return "coreloop: reactor does not support I/O registration"
}

func (sleepOnlyReactor) AddReader(IOHandle, Task) error { return ErrNoReactorIO }
func (sleepOnlyReactor) AddWriter(IOHandle, Task) error { return ErrNoReactorIO }
func (sleepOnlyReactor) RemoveReader(IOHandle) error    { return ErrNoReactorIO }
func (sleepOnlyReactor) RemoveWriter(IOHandle) error    { return ErrNoReactorIO }
