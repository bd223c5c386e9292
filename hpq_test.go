package coreloop

import "testing"

func TestHPSlotsFireFirstTruthyPredicate(t *testing.T) {
	var h hpSlots

	called1 := false
	h.Schedule(func() bool { called1 = true; return false }, payload{args: "one"})
	h.Schedule(func() bool { return true }, payload{args: "two"})

	p, ok := h.Fire()
	if !ok {
		t.Fatal("Fire() returned ok=false, want true")
	}
	if got := p.args.(string); got != "two" {
		t.Fatalf("Fire() payload = %q, want %q", got, "two")
	}
	if !called1 {
		t.Fatal("first predicate was never evaluated")
	}
}

func TestHPSlotsFireNoneTruthy(t *testing.T) {
	var h hpSlots
	h.Schedule(func() bool { return false }, payload{})
	if _, ok := h.Fire(); ok {
		t.Fatal("Fire() returned ok=true, want false")
	}
}

func TestHPSlotsReusesEmptySlotBeforeGrowing(t *testing.T) {
	var h hpSlots
	h.Schedule(func() bool { return true }, payload{args: "a"})

	if _, ok := h.Fire(); !ok {
		t.Fatal("expected first Fire to find the predicate")
	}
	if got := h.Len(); got != 1 {
		t.Fatalf("Len() = %d, want 1 after firing (slot recycled, not removed)", got)
	}

	h.Schedule(func() bool { return true }, payload{args: "b"})
	if got := h.Len(); got != 1 {
		t.Fatalf("Len() = %d, want 1 (reused the empty slot instead of appending)", got)
	}

	p, ok := h.Fire()
	if !ok || p.args.(string) != "b" {
		t.Fatalf("Fire() = (%v, %v), want (b, true)", p, ok)
	}
}

func TestHPSlotsAllocatePreSizes(t *testing.T) {
	var h hpSlots
	h.Allocate(4)
	if got := h.Len(); got != 4 {
		t.Fatalf("Len() = %d, want 4", got)
	}

	// Scheduling into a pre-allocated table must not grow it.
	h.Schedule(func() bool { return false }, payload{})
	if got := h.Len(); got != 4 {
		t.Fatalf("Len() = %d, want 4 after one Schedule", got)
	}
}
