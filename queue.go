package coreloop

import "container/heap"

// payload is whatever a TimedEntry carries: either a Callable (runs to
// completion synchronously) or a resumable Task.
type payload struct {
	task Task  // non-nil if this entry resumes a Task
	fn   Func  // valid if task == nil
	args any   // args delivered to task.Resume, or passed to fn
}

// TimedEntry is one scheduled (time, payload) pair, per spec's data model.
type TimedEntry struct {
	When    uint64
	Payload payload
	seq     uint64 // insertion sequence, for FIFO tie-break
}

// TimedQueue is a fixed-capacity min-heap keyed by wraparound-aware
// scheduled time, with FIFO tie-break among equal keys. It backs both the
// normal-priority queue (NQ) and the low-priority queue (LPQ); which one a
// given instance plays is purely a matter of how the loop uses it.
//
// Push/Pop are O(log n). Capacity is fixed at construction: pushing past
// capacity fails with QueueFull rather than growing, so steady-state
// scheduling never allocates on this path.
type TimedQueue struct {
	clock    Clock
	entries  []TimedEntry
	capacity int
	nextSeq  uint64
}

// NewTimedQueue returns an empty TimedQueue with the given fixed capacity.
func NewTimedQueue(clock Clock, capacity int) *TimedQueue {
	q := &TimedQueue{
		clock:    clock,
		entries:  make([]TimedEntry, 0, capacity),
		capacity: capacity,
	}
	return q
}

// Len reports the number of entries currently queued.
func (q *TimedQueue) Len() int { return len(q.entries) }

// Push inserts an entry at key t. It fails with QueueFull if the queue is
// already at capacity.
func (q *TimedQueue) Push(t uint64, p payload) error {
	if len(q.entries) >= q.capacity {
		return QueueFull
	}
	q.entries = append(q.entries, TimedEntry{When: t, Payload: p, seq: q.nextSeq})
	q.nextSeq++
	heap.Push((*timedHeap)(q), len(q.entries)-1)
	return nil
}

// PeekTime returns the smallest scheduled time currently queued. The
// caller must ensure the queue is non-empty.
func (q *TimedQueue) PeekTime() uint64 {
	return q.entries[0].When
}

// Pop removes and returns the minimum entry. The caller must ensure the
// queue is non-empty.
func (q *TimedQueue) Pop() TimedEntry {
	e := q.entries[0]
	heap.Pop((*timedHeap)(q))
	return e
}

// timedHeap adapts TimedQueue to container/heap. Push/Pop here operate on
// an already-appended/to-be-truncated backing slice, matching the
// heap.Push/heap.Pop convention of taking/returning the last element.
type timedHeap TimedQueue

func (h *timedHeap) Len() int { return len(h.entries) }

func (h *timedHeap) Less(i, j int) bool {
	a, b := h.entries[i], h.entries[j]
	d := h.clock.Diff(a.When, b.When)
	if d != 0 {
		return d < 0
	}
	return a.seq < b.seq
}

func (h *timedHeap) Swap(i, j int) {
	h.entries[i], h.entries[j] = h.entries[j], h.entries[i]
}

func (h *timedHeap) Push(x any) {
	// The element is already appended by TimedQueue.Push, so x (its
	// index) is unused: heap.Push sifts up from Len()-1, which is where
	// the new element sits.
	_ = x
}

func (h *timedHeap) Pop() any {
	n := len(h.entries)
	e := h.entries[n-1]
	h.entries = h.entries[:n-1]
	return e
}
