package coreloop

import "testing"

func TestWrapDiffShortestDistance(t *testing.T) {
	cases := []struct {
		name     string
		a, b     uint64
		wantSign int // -1, 0, 1
	}{
		{"equal", 100, 100, 0},
		{"a after b", 110, 100, 1},
		{"a before b", 90, 100, -1},
		{"wraparound a just after, b just before", 2, wrapMask - 2, 1},
		{"wraparound a just before, b just after", wrapMask - 2, 2, -1},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := wrapDiff(c.a, c.b)
			switch {
			case c.wantSign > 0 && got <= 0:
				t.Fatalf("wrapDiff(%d,%d) = %d, want > 0", c.a, c.b, got)
			case c.wantSign < 0 && got >= 0:
				t.Fatalf("wrapDiff(%d,%d) = %d, want < 0", c.a, c.b, got)
			case c.wantSign == 0 && got != 0:
				t.Fatalf("wrapDiff(%d,%d) = %d, want 0", c.a, c.b, got)
			}
		})
	}
}

func TestWrapAddWraps(t *testing.T) {
	got := wrapAdd(wrapMask-1, 5)
	want := uint64(3)
	if got != want {
		t.Fatalf("wrapAdd(wrapMask-1, 5) = %d, want %d", got, want)
	}
}

func TestManualClockAdvanceWraps(t *testing.T) {
	c := newManualClock(wrapMask - 2)
	c.advance(10)
	if got, want := c.Now(), uint64(7); got != want {
		t.Fatalf("Now() = %d, want %d", got, want)
	}
}

func TestWraparoundOrdering(t *testing.T) {
	// A task scheduled just before wraparound and one just after must
	// sort by the short signed distance, not raw integer order.
	c := newManualClock(0)
	before := wrapAdd(0, -5) // close to the top of the range
	after := wrapAdd(0, 5)
	if d := c.Diff(before, after); d >= 0 {
		t.Fatalf("Diff(before, after) = %d, want negative", d)
	}
	if d := c.Diff(after, before); d <= 0 {
		t.Fatalf("Diff(after, before) = %d, want positive", d)
	}
}
