// Package turn provides the initiative queue that orders actor turns.
package turn

import (
	"container/heap"

	"github.com/google/uuid"
)

// Entry is one scheduled turn in the queue.
type Entry struct {
	ID  uuid.UUID
	At  int64  // scheduler tick when the actor acts
	seq uint64 // insertion order; breaks ties so equal initiative is FIFO
}

// Scheduler orders actors by when they next act. Exactly one actor acts
// at a time: the caller peeks at the head, runs the action, and only pops
// and reschedules once a turn was actually consumed. Actions that were
// rejected leave the queue untouched.
//
// Removal is lazy: removed IDs stay in the heap but are discarded when
// they surface, so a dead actor is never handed out again.
type Scheduler struct {
	entries entryHeap
	live    map[uuid.UUID]bool
	clock   int64
	seq     uint64
}

// NewScheduler creates an empty scheduler.
func NewScheduler() *Scheduler {
	return &Scheduler{
		live: make(map[uuid.UUID]bool),
	}
}

// Add registers an actor to act at the given tick.
func (s *Scheduler) Add(id uuid.UUID, at int64) {
	s.live[id] = true
	s.push(id, at)
}

// Schedule re-inserts an actor to act delay ticks after the current clock.
func (s *Scheduler) Schedule(id uuid.UUID, delay int64) {
	if !s.live[id] {
		return
	}
	s.push(id, s.clock+delay)
}

// Remove takes an actor out of the queue permanently, e.g. on death.
func (s *Scheduler) Remove(id uuid.UUID) {
	delete(s.live, id)
}

// Contains returns true if the actor is still scheduled.
func (s *Scheduler) Contains(id uuid.UUID) bool {
	return s.live[id]
}

// Peek returns the next actor to act without removing it. Stale entries
// for removed actors are discarded along the way.
func (s *Scheduler) Peek() (uuid.UUID, bool) {
	s.discardDead()
	if s.entries.Len() == 0 {
		return uuid.Nil, false
	}
	return s.entries[0].ID, true
}

// Pop removes the head of the queue and advances the clock to its tick.
// Call it only after the actor's turn was consumed, then Schedule the
// actor's next turn.
func (s *Scheduler) Pop() (uuid.UUID, bool) {
	s.discardDead()
	if s.entries.Len() == 0 {
		return uuid.Nil, false
	}
	e := heap.Pop(&s.entries).(Entry)
	s.clock = e.At
	return e.ID, true
}

// At returns the tick at which the actor next acts. Used when persisting
// the queue.
func (s *Scheduler) At(id uuid.UUID) (int64, bool) {
	if !s.live[id] {
		return 0, false
	}
	for _, e := range s.entries {
		if e.ID == id {
			return e.At, true
		}
	}
	return 0, false
}

// Clock returns the current scheduler tick.
func (s *Scheduler) Clock() int64 {
	return s.clock
}

// SetClock restores the clock, used when loading a saved session.
func (s *Scheduler) SetClock(t int64) {
	s.clock = t
}

// Len returns the number of live actors in the queue.
func (s *Scheduler) Len() int {
	return len(s.live)
}

// Empty returns true when no live actor remains.
func (s *Scheduler) Empty() bool {
	return len(s.live) == 0
}

func (s *Scheduler) push(id uuid.UUID, at int64) {
	s.seq++
	heap.Push(&s.entries, Entry{ID: id, At: at, seq: s.seq})
}

// discardDead drops heap entries whose actor has been removed.
func (s *Scheduler) discardDead() {
	for s.entries.Len() > 0 && !s.live[s.entries[0].ID] {
		heap.Pop(&s.entries)
	}
}

// entryHeap is a min-heap ordered by (At, seq).
type entryHeap []Entry

func (h entryHeap) Len() int { return len(h) }

func (h entryHeap) Less(i, j int) bool {
	if h[i].At != h[j].At {
		return h[i].At < h[j].At
	}
	return h[i].seq < h[j].seq
}

func (h entryHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *entryHeap) Push(x any) {
	*h = append(*h, x.(Entry))
}

func (h *entryHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	*h = old[:n-1]
	return e
}
