package game

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/google/uuid"

	"github.com/halbard/undermount/internal/entity"
	"github.com/halbard/undermount/internal/save"
	"github.com/halbard/undermount/internal/world"
)

func sessionWithStore(t *testing.T) *Session {
	t.Helper()
	s := newSession(Config{Seed: 42, Width: world.DefaultWidth, Height: world.DefaultHeight})
	store, err := save.Open(filepath.Join(t.TempDir(), "save.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	s.store = store
	if err := s.generate(context.Background()); err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	return s
}

func TestSaveRestoreRoundtrip(t *testing.T) {
	ctx := context.Background()
	s := sessionWithStore(t)
	s.saveGame(ctx)

	// Restore into a second session sharing the same store.
	s2 := newSession(Config{})
	s2.store = s.store
	if err := s2.restore(ctx, s.id); err != nil {
		t.Fatalf("restore failed: %v", err)
	}

	if s2.seed != s.seed {
		t.Errorf("seed mismatch: %d != %d", s2.seed, s.seed)
	}
	if len(s2.actors) != len(s.actors) {
		t.Fatalf("actor count mismatch: %d != %d", len(s2.actors), len(s.actors))
	}
	for id, want := range s.actors {
		got, ok := s2.actors[id]
		if !ok {
			t.Fatalf("actor %s missing after restore", want.Name)
		}
		if got.X != want.X || got.Y != want.Y || got.HP != want.HP {
			t.Errorf("actor %s state mismatch: (%d,%d,%d HP) != (%d,%d,%d HP)",
				want.Name, got.X, got.Y, got.HP, want.X, want.Y, want.HP)
		}
		if idx, ok := s2.dungeon.OccupantAt(got.X, got.Y); !ok || idx != id {
			t.Errorf("actor %s missing from restored spatial index", want.Name)
		}
		if !s2.sched.Contains(id) {
			t.Errorf("actor %s missing from restored queue", want.Name)
		}
	}

	p := s2.player()
	if p == nil {
		t.Fatal("no player after restore")
	}
	if s2.sched.Clock() != s.sched.Clock() {
		t.Errorf("clock mismatch: %d != %d", s2.sched.Clock(), s.sched.Clock())
	}

	// Restored monsters should have their definitions reattached.
	for _, a := range s2.actors {
		if a.Kind == entity.KindMonster && a.Def == nil {
			t.Errorf("monster %s lost its definition", a.Name)
		}
	}
}

func TestRestorePreservesTurnOrder(t *testing.T) {
	ctx := context.Background()
	s := sessionWithStore(t)
	s.saveGame(ctx)

	s2 := newSession(Config{})
	s2.store = s.store
	if err := s2.restore(ctx, s.id); err != nil {
		t.Fatalf("restore failed: %v", err)
	}

	want, ok1 := s.sched.Peek()
	got, ok2 := s2.sched.Peek()
	if !ok1 || !ok2 || want != got {
		t.Errorf("restored queue head %v, want %v", got, want)
	}
}

func TestRestoreUnknownSession(t *testing.T) {
	ctx := context.Background()
	s := sessionWithStore(t)

	s2 := newSession(Config{})
	s2.store = s.store
	err := s2.restore(ctx, uuid.New())
	if !errors.Is(err, save.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestRestoreExploredTiles(t *testing.T) {
	ctx := context.Background()
	s := sessionWithStore(t)
	s.refreshFOV(ctx)

	explored := 0
	for y := 0; y < s.dungeon.Height; y++ {
		for x := 0; x < s.dungeon.Width; x++ {
			if s.dungeon.Tiles[y][x].Explored {
				explored++
			}
		}
	}
	if explored == 0 {
		t.Fatal("FOV pass explored nothing")
	}
	s.saveGame(ctx)

	s2 := newSession(Config{})
	s2.store = s.store
	if err := s2.restore(ctx, s.id); err != nil {
		t.Fatalf("restore failed: %v", err)
	}

	restored := 0
	for y := 0; y < s2.dungeon.Height; y++ {
		for x := 0; x < s2.dungeon.Width; x++ {
			if s2.dungeon.Tiles[y][x].Explored {
				restored++
			}
		}
	}
	if restored != explored {
		t.Errorf("explored tiles: %d restored, %d saved", restored, explored)
	}
}
