package coreloop

import (
	"fmt"

	"github.com/joeycumines/logiface"
	"github.com/joeycumines/stumpy"
)

// EventLoop is the scheduler core: NQ, LPQ, HPQ, the fairness threshold,
// and the reactor handle, exactly the entity spec.md's data model names.
// It is a process-local value, not safe for concurrent use from more than
// one goroutine — see the Non-goals in SPEC_FULL.md §1.
type EventLoop struct {
	clock        Clock
	nq           *TimedQueue
	lpq          *TimedQueue
	hpq          hpSlots
	maxOverdueMs int64
	reactor      Reactor
	logger       *logiface.Logger[*stumpy.Event]
	state        LoopState
}

// NewWithCapacities constructs an EventLoop with independently specified
// NQ/LPQ capacities; it is the idiomatic two-argument alternative
// SPEC_FULL.md's constructor-quirk section permits alongside New.
func NewWithCapacities(qlen, lpqlen int, opts ...LoopOption) (*EventLoop, error) {
	cfg, err := resolveLoopOptions(opts)
	if err != nil {
		return nil, err
	}

	clock := cfg.clock
	if clock == nil {
		clock = NewSystemClock()
	}

	l := &EventLoop{
		clock:        clock,
		nq:           NewTimedQueue(clock, qlen),
		lpq:          NewTimedQueue(clock, lpqlen),
		maxOverdueMs: cfg.maxOverdueMs,
		logger:       cfg.logger,
	}
	if l.logger == nil {
		l.logger = newDiscardLogger()
	}
	if cfg.hpqCapacity > 0 {
		l.hpq.Allocate(cfg.hpqCapacity)
	}

	if cfg.reactor != nil {
		l.reactor = cfg.reactor
	} else {
		r, err := newDefaultReactor(l.scheduleFromReactor)
		if err != nil {
			return nil, err
		}
		l.reactor = r
	}

	return l, nil
}

// New constructs an EventLoop from the packed single-integer constructor
// argument spec.md §6 requires for source-API compatibility:
// qlen = packed & 0xFFFF, lpqlen = (packed >> 16) & 0xFFFF.
func New(packed int, opts ...LoopOption) (*EventLoop, error) {
	qlen := packed & 0xFFFF
	lpqlen := (packed >> 16) & 0xFFFF
	return NewWithCapacities(qlen, lpqlen, opts...)
}

// scheduleFromReactor is the callback the default reactors use to deliver
// an I/O-ready task back into NQ, matching spec.md §4.4 step 1e's note
// that the reactor may insert new NQ entries as a side effect of waiting.
func (l *EventLoop) scheduleFromReactor(t Task) error {
	return l.nq.Push(l.clock.Now(), payload{task: t})
}

// Time returns the loop's current clock reading.
func (l *EventLoop) Time() uint64 { return l.clock.Now() }

// CreateTask enqueues t on NQ with zero delay. No task handle is
// returned, matching the source API.
func (l *EventLoop) CreateTask(t Task) error {
	return l.nq.Push(l.clock.Now(), payload{task: t})
}

// CallSoon enqueues fn on NQ keyed by the current time.
func (l *EventLoop) CallSoon(fn Func, args any) error {
	return l.nq.Push(l.clock.Now(), payload{fn: fn, args: args})
}

// CallLater enqueues fn on NQ at now + truncate(secs*1000) ms.
func (l *EventLoop) CallLater(secs float64, fn Func, args any) error {
	return l.nq.Push(l.clock.Add(l.clock.Now(), truncMs(secs)), payload{fn: fn, args: args})
}

// CallLaterMs enqueues fn on NQ at now + ms milliseconds.
func (l *EventLoop) CallLaterMs(ms int64, fn Func, args any) error {
	return l.nq.Push(l.clock.Add(l.clock.Now(), ms), payload{fn: fn, args: args})
}

// CallAt enqueues fn on NQ at the given absolute clock key.
func (l *EventLoop) CallAt(absMs uint64, fn Func, args any) error {
	return l.nq.Push(absMs, payload{fn: fn, args: args})
}

// CallAfter enqueues fn on LPQ at now + truncate(secs*1000) ms.
func (l *EventLoop) CallAfter(secs float64, fn Func, args any) error {
	return l.lpq.Push(l.clock.Add(l.clock.Now(), truncMs(secs)), payload{fn: fn, args: args})
}

// MaxOverdueMs returns the current LPQ fairness threshold.
func (l *EventLoop) MaxOverdueMs() int64 { return l.maxOverdueMs }

// SetMaxOverdueMs sets the LPQ fairness threshold; 0 disables the
// LPQ-overdue override entirely.
func (l *EventLoop) SetMaxOverdueMs(ms int64) { l.maxOverdueMs = ms }

// AllocateHPQ pre-sizes the HPQ to at least n empty slots.
func (l *EventLoop) AllocateHPQ(n int) { l.hpq.Allocate(n) }

// Close marks the loop closed; by default this is a no-op beyond state
// tracking, but the default platform reactors release their poller file
// descriptor here.
func (l *EventLoop) Close() error {
	l.state = StateClosed
	if c, ok := l.reactor.(interface{ Close() error }); ok {
		return c.Close()
	}
	return nil
}

// RunForever enters the dispatch loop and blocks until a task yields
// StopLoop(v), at which point RunForever returns v.
func (l *EventLoop) RunForever() (any, error) {
	if l.state == StateClosed {
		return nil, ErrLoopClosed
	}
	if l.state == StateRunning {
		return nil, ErrLoopAlreadyRunning
	}
	l.state = StateRunning
	defer func() {
		if l.state == StateRunning {
			l.state = StateIdle
		}
	}()

	for {
		entry, err := l.selectEntry()
		if err != nil {
			return nil, err
		}
		logDispatch(l.logger, entry.source)

		value, stopped, err := l.dispatchEntry(entry)
		if err != nil {
			return nil, err
		}
		if stopped {
			return value, nil
		}
	}
}

// RunUntilComplete wraps t so that, once it completes, a StopLoop(0) is
// yielded in its place, then calls RunForever.
func (l *EventLoop) RunUntilComplete(t Task) (any, error) {
	wrapper := &runUntilCompleteTask{inner: t}
	if err := l.CreateTask(wrapper); err != nil {
		return nil, err
	}
	return l.RunForever()
}

// runUntilCompleteTask forwards every yield from inner unchanged, then
// yields StopLoop(0) exactly once inner signals completion, mirroring
// `yield from coro; yield StopLoop(0)` in the source.
type runUntilCompleteTask struct {
	inner    Task
	stopping bool
}

func (w *runUntilCompleteTask) Resume(in any) (Directive, bool, error) {
	if w.stopping {
		return Directive{}, true, nil
	}
	d, done, err := w.inner.Resume(in)
	if err != nil {
		return Directive{}, true, err
	}
	if done {
		w.stopping = true
		return StopLoop(0), false, nil
	}
	return d, false, nil
}

// selectedEntry is a TimedEntry plus the precedence branch that produced
// it, kept only for logging.
type selectedEntry struct {
	TimedEntry
	source string
}

// selectEntry implements the selection rule of spec.md §4.4: HPQ scan,
// LPQ-overdue override, NQ due, LPQ due, else block and retry. It is a
// direct structural translation of the source's nested while loops, kept
// that shape deliberately rather than flattened, since the precedence and
// retry-on-premature-wakeup behavior are the hard part of this component.
func (l *EventLoop) selectEntry() (selectedEntry, error) {
	for {
		if l.nq.Len() > 0 {
			for {
				if p, ok := l.hpq.Fire(); ok {
					return selectedEntry{TimedEntry{Payload: p}, "hpq"}, nil
				}

				now := l.clock.Now()

				if l.maxOverdueMs > 0 && l.lpq.Len() > 0 {
					t := l.lpq.PeekTime()
					overdue := -l.clock.Diff(t, now)
					if overdue > l.maxOverdueMs {
						logOverdue(l.logger, overdue, l.maxOverdueMs)
						return selectedEntry{l.lpq.Pop(), "lpq-overdue"}, nil
					}
				}

				delay := l.clock.Diff(l.nq.PeekTime(), now)
				if delay <= 0 {
					return selectedEntry{l.nq.Pop(), "nq"}, nil
				}

				sleepMs := delay
				if l.lpq.Len() > 0 {
					lpDelay := l.clock.Diff(l.lpq.PeekTime(), now)
					if lpDelay <= 0 {
						return selectedEntry{l.lpq.Pop(), "lpq"}, nil
					}
					if lpDelay < sleepMs {
						sleepMs = lpDelay
					}
				}

				if err := l.reactor.Wait(sleepMs); err != nil {
					logReactorWaitError(l.logger, err)
				}
				// reactor.Wait may have returned early, failed, or
				// scheduled new NQ entries as a side effect; restart the
				// scan either way, per spec.md §7's "failing wait is
				// equivalent to an early return" rule.
			}
		}

		if l.lpq.Len() > 0 {
			now := l.clock.Now()
			if l.clock.Diff(l.lpq.PeekTime(), now) <= 0 {
				return selectedEntry{l.lpq.Pop(), "lpq"}, nil
			}
		}
		if err := l.reactor.Wait(-1); err != nil {
			logReactorWaitError(l.logger, err)
		}
		// Assume I/O completion scheduled some tasks, or the wait failed
		// and should be retried per spec.md §7; restart either way.
	}
}

// dispatchEntry runs the selected entry and, for resumable tasks,
// interprets the yielded directive per spec.md §4.5/§4.4's re-enqueue
// policy. It returns (stopValue, stopped, err); err is reserved for fatal
// loop-level failures (QueueFull, UnknownDirective, BadWhenArgument, and
// errors from the reactor's registration methods) -
// task-local failures are reported via logTaskError and never surface
// here.
func (l *EventLoop) dispatchEntry(e selectedEntry) (any, bool, error) {
	p := e.Payload
	if p.fn != nil {
		l.safeCall(p.fn, p.args)
		return nil, false, nil
	}

	task := p.task
	d, done, err := l.safeResume(task, p.args)
	if err != nil {
		logTaskError(l.logger, err)
		return nil, false, nil
	}
	if done {
		return nil, false, nil
	}

	switch d.Kind {
	case DirectiveWhen:
		if d.Pred == nil {
			return nil, false, BadWhenArgument
		}
		l.hpq.Schedule(d.Pred, payload{task: task})
		return nil, false, nil

	case DirectiveIORead:
		if err := l.reactor.AddReader(d.Handle, task); err != nil {
			return nil, false, err
		}
		logReactorIO(l.logger, "add_reader", d.Handle)
		return nil, false, nil

	case DirectiveIOWrite:
		if err := l.reactor.AddWriter(d.Handle, task); err != nil {
			return nil, false, err
		}
		logReactorIO(l.logger, "add_writer", d.Handle)
		return nil, false, nil

	case DirectiveIOReadDone:
		if err := l.reactor.RemoveReader(d.Handle); err != nil {
			return nil, false, err
		}
		logReactorIO(l.logger, "remove_reader", d.Handle)
		return nil, false, l.nq.Push(l.clock.Now(), payload{task: task})

	case DirectiveIOWriteDone:
		if err := l.reactor.RemoveWriter(d.Handle); err != nil {
			return nil, false, err
		}
		logReactorIO(l.logger, "remove_writer", d.Handle)
		return nil, false, l.nq.Push(l.clock.Now(), payload{task: task})

	case DirectiveStopLoop:
		return d.Value, true, nil

	case DirectiveTask:
		if err := l.CreateTask(d.Task); err != nil {
			return nil, false, err
		}
		return nil, false, l.nq.Push(l.clock.Now(), payload{task: task})

	case DirectiveAfterMs:
		when := l.clock.Add(l.clock.Now(), d.Ms)
		logSchedule(l.logger, "lpq", when, d.Ms)
		return nil, false, l.lpq.Push(when, payload{task: task})

	case DirectiveNone, DirectiveSleepMs, DirectiveIntMs:
		when := l.clock.Add(l.clock.Now(), d.Ms)
		logSchedule(l.logger, "nq", when, d.Ms)
		return nil, false, l.nq.Push(when, payload{task: task})

	default:
		return nil, false, UnknownDirective
	}
}

// safeCall invokes fn, recovering and logging a panic as a task error
// rather than letting it unwind into the dispatch loop.
func (l *EventLoop) safeCall(fn Func, args any) {
	defer func() {
		if r := recover(); r != nil {
			logTaskError(l.logger, &TaskError{Cause: fmt.Errorf("%v", r)})
		}
	}()
	fn(args)
}

// safeResume resumes task, recovering a panic and wrapping both it and
// any returned error as a TaskError, so callers have one uniform
// "task failed" signal regardless of cause.
func (l *EventLoop) safeResume(task Task, args any) (d Directive, done bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &TaskError{Cause: fmt.Errorf("%v", r)}
			done = true
		}
	}()
	d, done, taskErr := task.Resume(args)
	if taskErr != nil {
		return Directive{}, true, &TaskError{Cause: taskErr}
	}
	return d, done, nil
}
