package coreloop

import "testing"

// TestSteadyStateDispatchZeroAlloc verifies the Allocation property: a
// steady-state run with a constant task population, no I/O registration
// churn, and a pre-sized HPQ performs zero heap allocations after warmup.
// One task cycles through the HPQ (When/Fire slot reuse), the other
// through NQ (SleepMs re-enqueue), so both allocation-sensitive paths
// named in doc.go/hpq.go/queue.go are exercised.
func TestSteadyStateDispatchZeroAlloc(t *testing.T) {
	mc := newManualClock(0)
	l, err := NewWithCapacities(8, 8, WithClock(mc), WithReactor(newFakeReactor(mc)), WithHPQCapacity(4))
	if err != nil {
		t.Fatalf("NewWithCapacities: %v", err)
	}

	flag := true
	pred := func() bool { return flag }
	whenTask := TaskFuncLoop(func() Directive { return When(pred) })
	sleepTask := TaskFuncLoop(func() Directive { return SleepMs(0) })

	if err := l.CreateTask(whenTask); err != nil {
		t.Fatalf("CreateTask(whenTask): %v", err)
	}
	if err := l.CreateTask(sleepTask); err != nil {
		t.Fatalf("CreateTask(sleepTask): %v", err)
	}

	drive := func() {
		e, err := l.selectEntry()
		if err != nil {
			t.Fatalf("selectEntry: %v", err)
		}
		if _, _, err := l.dispatchEntry(e); err != nil {
			t.Fatalf("dispatchEntry: %v", err)
		}
	}

	// Warm up: let both the HPQ slot and the NQ heap settle into their
	// steady-state reuse pattern before measuring.
	for i := 0; i < 100; i++ {
		drive()
	}

	allocs := testing.AllocsPerRun(1000, drive)
	if allocs > 0 {
		t.Fatalf("steady-state dispatch allocates %f objects/op, want 0", allocs)
	}
}
