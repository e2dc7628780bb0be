package world

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
)

func mustUUID(t *testing.T) uuid.UUID {
	t.Helper()
	return uuid.New()
}

func TestGenerateReproducibility(t *testing.T) {
	ctx := context.Background()
	seed := int64(12345)

	d1, err := NewGenerator(seed, DefaultWidth, DefaultHeight).Generate(ctx)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	d2, err := NewGenerator(seed, DefaultWidth, DefaultHeight).Generate(ctx)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if len(d1.Rooms) != len(d2.Rooms) {
		t.Fatalf("Room count mismatch: %d != %d", len(d1.Rooms), len(d2.Rooms))
	}
	for i := range d1.Rooms {
		r1, r2 := d1.Rooms[i], d2.Rooms[i]
		if r1 != r2 {
			t.Errorf("Room %d mismatch: %+v != %+v", i, r1, r2)
		}
	}
	if d1.Entry != d2.Entry {
		t.Errorf("Entry mismatch: %+v != %+v", d1.Entry, d2.Entry)
	}
	for y := 0; y < d1.Height; y++ {
		for x := 0; x < d1.Width; x++ {
			if d1.Tiles[y][x].Kind != d2.Tiles[y][x].Kind {
				t.Errorf("Tile mismatch at (%d,%d)", x, y)
			}
		}
	}
}

func TestGenerateDifferentSeeds(t *testing.T) {
	ctx := context.Background()

	d1, err := NewGenerator(12345, DefaultWidth, DefaultHeight).Generate(ctx)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	d2, err := NewGenerator(54321, DefaultWidth, DefaultHeight).Generate(ctx)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	identical := len(d1.Rooms) == len(d2.Rooms)
	if identical {
		for i := range d1.Rooms {
			if d1.Rooms[i] != d2.Rooms[i] {
				identical = false
				break
			}
		}
	}
	if identical {
		t.Error("Dungeons with different seeds should not be identical")
	}
}

func TestGenerateConnectivity(t *testing.T) {
	// Every floor tile must be reachable from the entry, for any seed.
	ctx := context.Background()
	for seed := int64(1); seed <= 25; seed++ {
		m, err := NewGenerator(seed, DefaultWidth, DefaultHeight).Generate(ctx)
		if err != nil {
			t.Fatalf("seed %d: Generate failed: %v", seed, err)
		}
		reached := m.ReachableFrom(m.Entry.X, m.Entry.Y)
		floors := m.FloorCount()
		if reached != floors {
			t.Errorf("seed %d: reached %d of %d floor tiles from entry", seed, reached, floors)
		}
		if len(m.Rooms) == 0 {
			t.Errorf("seed %d: no rooms generated", seed)
		}
	}
}

func TestGenerateRoomSizes(t *testing.T) {
	ctx := context.Background()
	m, err := NewGenerator(7, DefaultWidth, DefaultHeight).Generate(ctx)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	for i, room := range m.Rooms {
		if room.Width < minRoomSize || room.Height < minRoomSize {
			t.Errorf("room %d is degenerate: %dx%d", i, room.Width, room.Height)
		}
	}
}

func TestGenerateFailsOnTinyMap(t *testing.T) {
	// A 7x7 map cannot hold a room at all, so every attempt fails and
	// the bounded retry gives up.
	ctx := context.Background()
	_, err := NewGenerator(1, 7, 7).Generate(ctx)
	if err == nil {
		t.Fatal("expected generation to fail on a 7x7 map")
	}
	if !errors.Is(err, ErrGeneration) {
		t.Errorf("expected ErrGeneration, got %v", err)
	}
}

func TestMapOccupancy(t *testing.T) {
	ctx := context.Background()
	m, err := NewGenerator(3, DefaultWidth, DefaultHeight).Generate(ctx)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	id := mustUUID(t)
	x, y := m.Entry.X, m.Entry.Y
	if !m.PlaceOccupant(id, x, y) {
		t.Fatal("PlaceOccupant on free tile failed")
	}
	if m.PlaceOccupant(mustUUID(t), x, y) {
		t.Error("PlaceOccupant on taken tile should fail")
	}
	if !m.MoveOccupant(id, x, y, x+1, y) {
		t.Error("MoveOccupant to free tile failed")
	}
	if got, ok := m.OccupantAt(x+1, y); !ok || got != id {
		t.Error("occupant not found at new position")
	}
	if m.Occupied(x, y) {
		t.Error("old position still occupied after move")
	}
	m.RemoveOccupant(id, x+1, y)
	if m.Occupied(x+1, y) {
		t.Error("position still occupied after removal")
	}
}
