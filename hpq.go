package coreloop

// hpEntry is one HPQ slot: a predicate plus the payload to run when it
// fires. pred == nil marks the slot empty.
type hpEntry struct {
	pred    func() bool
	payload payload
}

// hpSlots is the high-priority slot table (HPQ). Slots are reused before
// the table grows: Schedule scans for an empty slot and overwrites it in
// place, only appending when every existing slot is occupied. This keeps
// the common case — a fixed population of When() conditions firing and
// re-registering over and over — allocation-free after warmup.
//
// A map keyed by predicate identity is deliberately not used: predicate
// equality has no defined meaning here (Go func values are not
// comparable), so the table is scanned, not looked up.
type hpSlots struct {
	slots []hpEntry
}

// Allocate pre-sizes the table to at least n empty slots, so the first n
// Schedule calls in a run never need to append.
func (h *hpSlots) Allocate(n int) {
	for len(h.slots) < n {
		h.slots = append(h.slots, hpEntry{})
	}
}

// Schedule installs pred/payload into an empty slot, reusing one if
// available, and appending a new slot only as a last resort.
func (h *hpSlots) Schedule(pred func() bool, p payload) {
	for i := range h.slots {
		if h.slots[i].pred == nil {
			h.slots[i] = hpEntry{pred: pred, payload: p}
			return
		}
	}
	h.slots = append(h.slots, hpEntry{pred: pred, payload: p})
}

// Fire scans the table for the first non-empty slot whose predicate
// returns true, clears that slot, and returns its payload. The second
// return value is false if no predicate fired this tick.
func (h *hpSlots) Fire() (payload, bool) {
	for i := range h.slots {
		if h.slots[i].pred == nil {
			continue
		}
		if h.slots[i].pred() {
			p := h.slots[i].payload
			h.slots[i] = hpEntry{}
			return p, true
		}
	}
	return payload{}, false
}

// Len returns the number of slots in the table, empty or not. It is used
// only for diagnostics; selection never needs a count, only Fire's scan.
func (h *hpSlots) Len() int { return len(h.slots) }
