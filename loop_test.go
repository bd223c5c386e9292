package coreloop

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeReactor is a deterministic test double: Wait advances a manualClock
// by the requested delay instead of sleeping real time, and I/O
// registration is recorded rather than backed by a real poller.
type fakeReactor struct {
	clock        *manualClock
	waitCalls    []int64
	readerAdds   map[IOHandle]Task
	writerAdds   map[IOHandle]Task
	removedReads []IOHandle
}

func newFakeReactor(c *manualClock) *fakeReactor {
	return &fakeReactor{
		clock:      c,
		readerAdds: map[IOHandle]Task{},
		writerAdds: map[IOHandle]Task{},
	}
}

func (r *fakeReactor) Wait(delayMs int64) error {
	r.waitCalls = append(r.waitCalls, delayMs)
	if delayMs >= 0 {
		r.clock.advance(delayMs)
	}
	return nil
}

func (r *fakeReactor) AddReader(h IOHandle, t Task) error { r.readerAdds[h] = t; return nil }
func (r *fakeReactor) AddWriter(h IOHandle, t Task) error { r.writerAdds[h] = t; return nil }
func (r *fakeReactor) RemoveReader(h IOHandle) error {
	r.removedReads = append(r.removedReads, h)
	delete(r.readerAdds, h)
	return nil
}
func (r *fakeReactor) RemoveWriter(h IOHandle) error { delete(r.writerAdds, h); return nil }

func step(t *testing.T, l *EventLoop) (any, bool) {
	t.Helper()
	e, err := l.selectEntry()
	require.NoError(t, err)
	v, stopped, err := l.dispatchEntry(e)
	require.NoError(t, err)
	return v, stopped
}

// Scenario 1: simple sleep chain.
func TestScenarioSimpleSleepChain(t *testing.T) {
	mc := newManualClock(0)
	l, err := NewWithCapacities(8, 8, WithClock(mc), WithReactor(newFakeReactor(mc)))
	require.NoError(t, err)

	task := Go(func(ctx context.Context, y Yielder, _ any) error {
		y.Yield(SleepMs(10))
		y.Yield(SleepMs(20))
		y.Yield(StopLoop(42))
		return nil
	})

	got, err := l.RunUntilComplete(task)
	require.NoError(t, err)
	assert.Equal(t, 42, got)
	assert.GreaterOrEqual(t, mc.Now(), uint64(30), "elapsed time across the sleep chain")
}

// Scenario 2: priority mix - a When() predicate preempts a busy NQ chain
// the very tick it becomes truthy.
func TestScenarioPriorityMixWhenPreemptsNQ(t *testing.T) {
	mc := newManualClock(0)
	l, err := NewWithCapacities(8, 8, WithClock(mc), WithReactor(newFakeReactor(mc)))
	require.NoError(t, err)

	var ticksA int
	taskA := TaskFuncLoop(func() Directive {
		ticksA++
		return SleepMs(0)
	})

	flag := false
	var resumedB bool
	registered := false
	taskB := taskFunc(func(in any) (Directive, bool, error) {
		if !registered {
			registered = true
			return When(func() bool { return flag }), false, nil
		}
		resumedB = true
		return Directive{}, true, nil
	})

	require.NoError(t, l.CreateTask(taskA))
	require.NoError(t, l.CreateTask(taskB))

	for ticksA < 5 {
		step(t, l)
	}
	assert.False(t, resumedB, "B resumed before the predicate became truthy")

	flag = true
	step(t, l)

	assert.True(t, resumedB, "B did not resume on the tick after the predicate became truthy")
	assert.Equal(t, 5, ticksA, "A must not run again before B preempts it")
}

// Scenario 3: LPQ overdue fairness preempts a busy NQ chain once the LPQ
// head exceeds max_overdue_ms.
func TestScenarioLPQOverdueFairness(t *testing.T) {
	mc := newManualClock(0)
	l, err := NewWithCapacities(8, 8, WithClock(mc), WithReactor(newFakeReactor(mc)))
	require.NoError(t, err)
	l.SetMaxOverdueMs(50)

	var firedAt []uint64
	require.NoError(t, l.CallAfter(0.100, func(any) { firedAt = append(firedAt, mc.Now()) }, nil))

	nqChain := TaskFuncLoop(func() Directive { return SleepMs(0) })
	require.NoError(t, l.CreateTask(nqChain))

	for i := 0; i < 1000 && len(firedAt) == 0; i++ {
		mc.advance(1)
		step(t, l)
	}

	require.Len(t, firedAt, 1, "LPQ callback fire count")
	assert.Greater(t, firedAt[0], uint64(150), "fired too early: want > 150 (100ms schedule + 50ms overdue threshold)")
}

// Scenario 4: pushing past capacity fails with QueueFull.
func TestScenarioQueueFull(t *testing.T) {
	l, err := New(4) // qlen=4, lpqlen=0
	require.NoError(t, err)
	noop := func(any) {}
	for i := 0; i < 4; i++ {
		require.NoErrorf(t, l.CallSoon(noop, nil), "CallSoon #%d", i)
	}
	assert.ErrorIs(t, l.CallSoon(noop, nil), QueueFull)
}

// Scenario 5: entries scheduled across the clock's wraparound boundary
// still dispatch in time order.
func TestScenarioWraparound(t *testing.T) {
	mc := newManualClock(wrapMask - 4) // now() == 2^32-5
	l, err := NewWithCapacities(8, 8, WithClock(mc), WithReactor(newFakeReactor(mc)))
	require.NoError(t, err)

	var order []string
	require.NoError(t, l.CallLaterMs(10, func(any) { order = append(order, "later") }, nil))
	require.NoError(t, l.CallLaterMs(2, func(any) { order = append(order, "sooner") }, nil))

	step(t, l)
	step(t, l)

	assert.Equal(t, []string{"sooner", "later"}, order, "dispatch order across the wraparound boundary")
}

// Scenario 6: an IORead directive registers the task on the reactor and
// does not re-enqueue it; a subsequent reactor-driven resume processes
// the task's next yield normally.
func TestScenarioIORegistration(t *testing.T) {
	mc := newManualClock(0)
	reactor := newFakeReactor(mc)
	l, err := NewWithCapacities(8, 8, WithClock(mc), WithReactor(reactor))
	require.NoError(t, err)

	const handle IOHandle = 7
	task := &ioRegTask{handle: handle}

	require.NoError(t, l.CreateTask(task))

	step(t, l) // dispatches the task's first resume, yielding IORead

	assert.Same(t, task, reactor.readerAdds[handle], "reactor.AddReader was not called with the yielding task")
	assert.Equal(t, 0, l.nq.Len(), "task was re-enqueued despite yielding IORead")

	// Simulate the reactor's readiness callback: call_soon(task).
	require.NoError(t, l.CreateTask(task))
	step(t, l)

	assert.Nil(t, task.secondResumeArg, "call_soon passes no resume value")
}

// ioRegTask is a pointer-identity Task (unlike taskFunc, safe to compare
// with == against a reactor's recorded registration).
type ioRegTask struct {
	handle          IOHandle
	stage           int
	secondResumeArg any
}

func (tk *ioRegTask) Resume(in any) (Directive, bool, error) {
	tk.stage++
	if tk.stage == 1 {
		return IORead(tk.handle), false, nil
	}
	tk.secondResumeArg = in
	return Directive{}, true, nil
}

// taskFunc adapts a Resume-shaped function directly into a Task, for
// tests that need fine control over successive yields.
type taskFunc func(in any) (Directive, bool, error)

func (f taskFunc) Resume(in any) (Directive, bool, error) { return f(in) }

// TaskFuncLoop adapts a function returning only the next Directive into a
// Task that never completes, for tests modeling an infinite busy chain.
type TaskFuncLoop func() Directive

func (f TaskFuncLoop) Resume(any) (Directive, bool, error) { return f(), false, nil }
