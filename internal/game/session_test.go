package game

import (
	"context"
	"math/rand"
	"testing"

	"github.com/halbard/undermount/internal/entity"
	"github.com/halbard/undermount/internal/gamedata"
	"github.com/halbard/undermount/internal/world"
)

// testSession builds a headless session on a small open room with the
// player at (2,2). The outer ring of the map is wall.
func testSession(t *testing.T) (*Session, *entity.Actor) {
	t.Helper()

	s := newSession(Config{Seed: 1})
	m := world.NewMap(10, 10)
	for y := 1; y < 9; y++ {
		for x := 1; x < 9; x++ {
			m.Tiles[y][x].Kind = world.TileFloor
		}
	}
	m.Entry = world.Point{X: 2, Y: 2}
	s.dungeon = m
	s.rng = rand.New(rand.NewSource(1))

	player := entity.NewPlayer(2, 2)
	s.addActor(player)
	s.playerID = player.ID
	return s, player
}

// spawnTestMonster adds a goblin-statted monster at the given position.
func spawnTestMonster(t *testing.T, s *Session, x, y, hp int) *entity.Actor {
	t.Helper()
	def := &gamedata.MonsterDef{
		ID: "test", Name: "Test Monster", Glyph: "m", Color: "#FF00FF",
		HP: hp, Attack: 3, Defense: 0, Speed: 10, SpawnWeight: 1,
	}
	mon := entity.NewMonsterFromDef(def, x, y)
	s.addActor(mon)
	return mon
}

func TestMoveIntoOpenTile(t *testing.T) {
	s, player := testSession(t)
	ctx := context.Background()

	res := Move{DX: 1, DY: 0}.Apply(ctx, s, player)
	if !res.Consumed {
		t.Fatal("legal move should consume the turn")
	}
	if player.X != 3 || player.Y != 2 {
		t.Errorf("player at (%d,%d), want (3,2)", player.X, player.Y)
	}
	if !s.dungeon.Occupied(3, 2) {
		t.Error("spatial index not updated to new position")
	}
	if s.dungeon.Occupied(2, 2) {
		t.Error("spatial index still holds old position")
	}
}

func TestRejectedMoveDoesNotAdvanceQueue(t *testing.T) {
	s, player := testSession(t)
	ctx := context.Background()

	headBefore, _ := s.sched.Peek()
	clockBefore := s.sched.Clock()

	// Stand next to the wall ring and step into it.
	player.SetPosition(1, 2)
	res := Move{DX: -1, DY: 0}.Apply(ctx, s, player)
	if res.Consumed {
		t.Fatal("move into a wall must not consume the turn")
	}

	headAfter, _ := s.sched.Peek()
	if headAfter != headBefore {
		t.Error("queue head changed after a rejected move")
	}
	if s.sched.Clock() != clockBefore {
		t.Error("clock advanced after a rejected move")
	}
}

func TestMoveOutOfBoundsRejected(t *testing.T) {
	s, player := testSession(t)
	ctx := context.Background()

	player.SetPosition(1, 1)
	res := Move{DX: -1, DY: -1}.Apply(ctx, s, player)
	if res.Consumed {
		t.Error("diagonal into the corner wall should be rejected")
	}
}

func TestBumpAttackKillsAndRemoves(t *testing.T) {
	s, player := testSession(t)
	ctx := context.Background()
	mon := spawnTestMonster(t, s, 3, 2, 1)

	res := Move{DX: 1, DY: 0}.Apply(ctx, s, player)
	if !res.Consumed {
		t.Fatal("bump attack should consume the turn")
	}
	if player.X != 2 {
		t.Error("attacker should not move onto the defender's tile")
	}
	if _, ok := s.actors[mon.ID]; ok {
		t.Error("dead monster still in the actor table")
	}
	if s.sched.Contains(mon.ID) {
		t.Error("dead monster still in the turn queue")
	}
	if s.dungeon.Occupied(3, 2) {
		t.Error("dead monster still in the spatial index")
	}
}

func TestBumpAttackSurvivor(t *testing.T) {
	s, player := testSession(t)
	ctx := context.Background()
	mon := spawnTestMonster(t, s, 3, 2, 20)

	Move{DX: 1, DY: 0}.Apply(ctx, s, player)
	if !mon.IsAlive() {
		t.Fatal("monster with 20 HP should survive one bump")
	}
	if mon.HP != 20-player.Attack {
		t.Errorf("monster HP = %d, want %d", mon.HP, 20-player.Attack)
	}
	if !s.sched.Contains(mon.ID) {
		t.Error("surviving monster dropped from the queue")
	}
}

func TestPlayerDeathEndsSession(t *testing.T) {
	s, player := testSession(t)
	ctx := context.Background()
	mon := spawnTestMonster(t, s, 3, 2, 10)

	player.HP = 1
	s.bumpAttack(ctx, mon, player)

	if s.running {
		t.Error("session should stop when the player dies")
	}
	if s.player() != nil {
		t.Error("dead player should be out of the actor table")
	}
}

func TestMonsterClosesOnVisiblePlayer(t *testing.T) {
	s, _ := testSession(t)
	ctx := context.Background()
	mon := spawnTestMonster(t, s, 6, 2, 10)

	s.monsterAct(ctx, mon)
	if mon.X != 5 || mon.Y != 2 {
		t.Errorf("monster at (%d,%d), want (5,2)", mon.X, mon.Y)
	}
}

func TestMonsterBlockedStepStillConsumes(t *testing.T) {
	s, _ := testSession(t)
	ctx := context.Background()

	// Box the monster in so its step toward the player is a wall.
	mon := spawnTestMonster(t, s, 8, 8, 10)
	for _, p := range [][2]int{{7, 8}, {7, 7}, {8, 7}} {
		s.dungeon.Tiles[p[1]][p[0]].Kind = world.TileWall
	}

	// Must not panic or loop; the monster degrades to waiting.
	s.monsterAct(ctx, mon)
	if mon.X != 8 || mon.Y != 8 {
		t.Errorf("boxed-in monster moved to (%d,%d)", mon.X, mon.Y)
	}
}

func TestFriendlyActorsDoNotStack(t *testing.T) {
	s, _ := testSession(t)
	ctx := context.Background()

	m1 := spawnTestMonster(t, s, 5, 5, 10)
	spawnTestMonster(t, s, 6, 5, 10)

	res := Move{DX: 1, DY: 0}.Apply(ctx, s, m1)
	if res.Consumed {
		t.Error("move onto a friendly actor should be rejected")
	}
	if m1.X != 5 {
		t.Error("monster moved onto an occupied tile")
	}
}

func TestGenerateSpawnsPlayerAtEntry(t *testing.T) {
	s := newSession(Config{Seed: 42, Width: world.DefaultWidth, Height: world.DefaultHeight})
	if err := s.generate(context.Background()); err != nil {
		t.Fatalf("generate failed: %v", err)
	}

	p := s.player()
	if p == nil {
		t.Fatal("no player after generate")
	}
	if p.X != s.dungeon.Entry.X || p.Y != s.dungeon.Entry.Y {
		t.Errorf("player at (%d,%d), entry at %+v", p.X, p.Y, s.dungeon.Entry)
	}
	if id, ok := s.dungeon.OccupantAt(p.X, p.Y); !ok || id != p.ID {
		t.Error("player missing from the spatial index")
	}
	if s.sched.Len() != len(s.actors) {
		t.Errorf("queue has %d actors, session has %d", s.sched.Len(), len(s.actors))
	}
}

func TestGenerateDeterministicSpawns(t *testing.T) {
	build := func() map[string]int {
		s := newSession(Config{Seed: 42, Width: world.DefaultWidth, Height: world.DefaultHeight})
		if err := s.generate(context.Background()); err != nil {
			t.Fatalf("generate failed: %v", err)
		}
		counts := make(map[string]int)
		for _, a := range s.actors {
			if a.Kind == entity.KindMonster {
				counts[a.Name]++
			}
		}
		return counts
	}

	first := build()
	second := build()
	if len(first) != len(second) {
		t.Fatalf("spawn sets differ: %v vs %v", first, second)
	}
	for name, n := range first {
		if second[name] != n {
			t.Errorf("spawn count for %s: %d vs %d", name, n, second[name])
		}
	}
}
