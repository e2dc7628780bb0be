package turn

import (
	"testing"

	"github.com/google/uuid"
)

func TestPopOrdersByTime(t *testing.T) {
	s := NewScheduler()
	slow := uuid.New()
	fast := uuid.New()
	s.Add(slow, 20)
	s.Add(fast, 10)

	if id, ok := s.Pop(); !ok || id != fast {
		t.Fatalf("expected the earlier actor first, got %v", id)
	}
	if s.Clock() != 10 {
		t.Errorf("clock should advance to the popped tick, got %d", s.Clock())
	}
	if id, ok := s.Pop(); !ok || id != slow {
		t.Fatalf("expected the later actor second, got %v", id)
	}
}

func TestEqualInitiativeIsFIFO(t *testing.T) {
	// Two actors at the same tick with the same delay must alternate:
	// neither acts twice before the other had a chance.
	s := NewScheduler()
	a := uuid.New()
	b := uuid.New()
	s.Add(a, 10)
	s.Add(b, 10)

	var order []uuid.UUID
	for i := 0; i < 6; i++ {
		id, ok := s.Pop()
		if !ok {
			t.Fatal("queue unexpectedly empty")
		}
		order = append(order, id)
		s.Schedule(id, 10)
	}

	for i, id := range order {
		want := a
		if i%2 == 1 {
			want = b
		}
		if id != want {
			t.Fatalf("turn %d: expected FIFO alternation, got %v", i, order)
		}
	}
}

func TestRemovedActorNeverPops(t *testing.T) {
	s := NewScheduler()
	alive := uuid.New()
	dead := uuid.New()
	s.Add(dead, 5)
	s.Add(alive, 10)

	s.Remove(dead)

	for i := 0; i < 3; i++ {
		id, ok := s.Peek()
		if !ok {
			t.Fatal("queue unexpectedly empty")
		}
		if id == dead {
			t.Fatal("removed actor surfaced from the queue")
		}
		s.Pop()
		s.Schedule(id, 10)
	}
}

func TestScheduleIgnoresRemoved(t *testing.T) {
	s := NewScheduler()
	id := uuid.New()
	s.Add(id, 5)
	s.Remove(id)
	s.Schedule(id, 10)

	if _, ok := s.Peek(); ok {
		t.Error("scheduling a removed actor should be a no-op")
	}
	if !s.Empty() {
		t.Error("scheduler should be empty")
	}
}

func TestPeekDoesNotAdvance(t *testing.T) {
	s := NewScheduler()
	id := uuid.New()
	s.Add(id, 7)

	for i := 0; i < 3; i++ {
		got, ok := s.Peek()
		if !ok || got != id {
			t.Fatal("peek lost the head entry")
		}
	}
	if s.Clock() != 0 {
		t.Errorf("peek must not advance the clock, got %d", s.Clock())
	}
	if s.Len() != 1 {
		t.Errorf("peek must not remove entries, len = %d", s.Len())
	}
}

func TestAtReportsNextTurn(t *testing.T) {
	s := NewScheduler()
	id := uuid.New()
	s.Add(id, 42)

	if at, ok := s.At(id); !ok || at != 42 {
		t.Errorf("At = (%d, %v), want (42, true)", at, ok)
	}
	s.Remove(id)
	if _, ok := s.At(id); ok {
		t.Error("At should report false for removed actors")
	}
}
