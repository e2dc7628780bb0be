package game

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/halbard/undermount/internal/combat"
	"github.com/halbard/undermount/internal/entity"
	"github.com/halbard/undermount/internal/fov"
	"github.com/halbard/undermount/internal/gamedata"
	"github.com/halbard/undermount/internal/save"
	"github.com/halbard/undermount/internal/telemetry"
	"github.com/halbard/undermount/internal/turn"
	"github.com/halbard/undermount/internal/ui"
	"github.com/halbard/undermount/internal/world"
)

// maxLogLines is how many recent messages the session keeps for display.
const maxLogLines = 6

// Session holds one run of the game: the map, the actors, the turn queue
// and the terminal surface. All mutation happens on the single loop
// goroutine; suspension only occurs at the player-input boundary.
type Session struct {
	cfg      Config
	id       uuid.UUID
	seed     int64
	screen   *ui.Screen
	renderer *ui.Renderer
	store    *save.Store

	dungeon  *world.Map
	actors   map[uuid.UUID]*entity.Actor
	playerID uuid.UUID
	sched    *turn.Scheduler
	rng      *rand.Rand
	registry *gamedata.MonsterRegistry

	log     []string
	running bool
}

// New creates a session with a terminal screen attached.
func New(cfg Config) (*Session, error) {
	screen, err := ui.NewScreen()
	if err != nil {
		return nil, err
	}

	s := newSession(cfg)
	s.screen = screen
	s.renderer = ui.NewRenderer(screen)

	if cfg.SavePath != "" {
		store, err := save.Open(cfg.SavePath)
		if err != nil {
			screen.Close()
			return nil, err
		}
		s.store = store
	}
	return s, nil
}

// newSession builds the headless core shared by New and the tests.
func newSession(cfg Config) *Session {
	return &Session{
		cfg:      cfg,
		id:       uuid.New(),
		seed:     cfg.effectiveSeed(),
		actors:   make(map[uuid.UUID]*entity.Actor),
		sched:    turn.NewScheduler(),
		registry: gamedata.MustLoadMonsterRegistry(),
		running:  true,
	}
}

// Run initializes the session and drives the turn loop until the player
// quits or dies.
func (s *Session) Run(ctx context.Context) error {
	tracer := telemetry.Tracer("game")

	ctx, initSpan := tracer.Start(ctx, "game.init")
	var err error
	if s.cfg.Resume != uuid.Nil && s.store != nil {
		err = s.restore(ctx, s.cfg.Resume)
	} else {
		err = s.generate(ctx)
	}
	if err != nil {
		initSpan.RecordError(err)
		initSpan.End()
		return err
	}
	initSpan.SetAttributes(
		attribute.String("session.id", s.id.String()),
		attribute.Int64("session.seed", s.seed),
		attribute.Int("session.actors", len(s.actors)),
		attribute.Int("dungeon.rooms", len(s.dungeon.Rooms)),
	)
	initSpan.End()

	s.refreshFOV(ctx)
	s.loop(ctx)

	return nil
}

// loop is the cooperative turn scheduler: exactly one actor acts at a
// time, in initiative order, and the queue only advances when a turn was
// actually consumed.
func (s *Session) loop(ctx context.Context) {
	for s.running {
		id, ok := s.sched.Peek()
		if !ok {
			return
		}
		actor, ok := s.actors[id]
		if !ok {
			// Defensive: a peeked ID always maps to a live actor.
			s.sched.Remove(id)
			continue
		}

		if actor.Kind == entity.KindPlayer {
			s.render()
			action := s.awaitCommand(ctx)
			if action == nil {
				continue // quit, save, or a non-command event
			}
			if res := action.Apply(ctx, s, actor); !res.Consumed {
				continue // rejected input; the queue does not advance
			}
		} else {
			s.monsterAct(ctx, actor)
		}

		s.sched.Pop()
		if actor.IsAlive() {
			s.sched.Schedule(actor.ID, actor.ActionDelay())
		}
		if actor.Kind == entity.KindPlayer {
			s.refreshFOV(ctx)
		}
	}
}

// generate builds a fresh dungeon and populates it.
func (s *Session) generate(ctx context.Context) error {
	width, height := s.cfg.Width, s.cfg.Height
	if width <= 0 {
		width = world.DefaultWidth
	}
	if height <= 0 {
		height = world.DefaultHeight
	}

	gen := world.NewGenerator(s.seed, width, height)
	m, err := gen.Generate(ctx)
	if err != nil {
		return fmt.Errorf("generate dungeon: %w", err)
	}
	s.dungeon = m
	s.rng = rand.New(rand.NewSource(s.seed))

	player := entity.NewPlayer(m.Entry.X, m.Entry.Y)
	s.addActor(player)
	s.playerID = player.ID

	s.spawnMonsters()
	s.logf("You descend into the undermount. (seed %d)", s.seed)
	return nil
}

// spawnMonsters places weighted-random monsters in every room except the
// entry room.
func (s *Session) spawnMonsters() {
	entryRoom := s.dungeon.RoomIndexAt(s.dungeon.Entry.X, s.dungeon.Entry.Y)
	for i, room := range s.dungeon.Rooms {
		if i == entryRoom {
			continue
		}
		for n := s.rng.Intn(3); n > 0; n-- {
			def := s.registry.SpawnRandom(s.rng)
			if def == nil {
				return
			}
			x, y, ok := s.freePointInRoom(room)
			if !ok {
				continue
			}
			s.addActor(entity.NewMonsterFromDef(def, x, y))
		}
	}
}

// freePointInRoom picks a random unoccupied floor tile within the room.
func (s *Session) freePointInRoom(room world.Room) (int, int, bool) {
	for i := 0; i < 50; i++ {
		x := room.X + s.rng.Intn(room.Width)
		y := room.Y + s.rng.Intn(room.Height)
		if s.dungeon.Walkable(x, y) && !s.dungeon.Occupied(x, y) {
			return x, y, true
		}
	}
	return 0, 0, false
}

// addActor registers an actor with the map index and the turn queue.
func (s *Session) addActor(a *entity.Actor) {
	s.actors[a.ID] = a
	s.dungeon.PlaceOccupant(a.ID, a.X, a.Y)
	s.sched.Add(a.ID, s.sched.Clock()+a.ActionDelay())
}

// removeActor destroys an actor: spatial index, turn queue, actor table.
// Once removed it can never be popped from the queue again.
func (s *Session) removeActor(a *entity.Actor) {
	s.dungeon.RemoveOccupant(a.ID, a.X, a.Y)
	s.sched.Remove(a.ID)
	delete(s.actors, a.ID)
}

// player returns the player actor, or nil after death.
func (s *Session) player() *entity.Actor {
	return s.actors[s.playerID]
}

// monsterAct runs one monster turn: close on the player when it is in
// sight, otherwise shuffle around. Blocked steps degrade to waiting so a
// monster turn is always consumed.
func (s *Session) monsterAct(ctx context.Context, m *entity.Actor) {
	p := s.player()
	if p == nil {
		Wait{}.Apply(ctx, s, m)
		return
	}

	dx, dy := 0, 0
	distX, distY := p.X-m.X, p.Y-m.Y
	if distX*distX+distY*distY <= fov.DefaultRadius*fov.DefaultRadius &&
		fov.Visible(s.dungeon, m.X, m.Y, p.X, p.Y) {
		dx, dy = sign(distX), sign(distY)
	} else if s.rng != nil && s.rng.Intn(4) == 0 {
		dx, dy = s.rng.Intn(3)-1, s.rng.Intn(3)-1
	}

	if dx == 0 && dy == 0 {
		Wait{}.Apply(ctx, s, m)
		return
	}
	if res := (Move{DX: dx, DY: dy}).Apply(ctx, s, m); !res.Consumed {
		Wait{}.Apply(ctx, s, m)
	}
}

// refreshFOV recomputes visibility from the player's position.
func (s *Session) refreshFOV(ctx context.Context) {
	p := s.player()
	if p == nil {
		return
	}
	fov.Compute(ctx, s.dungeon, p.X, p.Y, fov.DefaultRadius)
}

// render draws the current state. Headless sessions (tests) skip drawing.
func (s *Session) render() {
	if s.renderer == nil {
		return
	}
	p := s.player()
	if p == nil {
		return
	}
	actors := make([]*entity.Actor, 0, len(s.actors))
	for _, a := range s.actors {
		actors = append(actors, a)
	}
	s.renderer.Render(s.dungeon, actors, p, s.log)
}

// logf appends a message to the session log, keeping the tail.
func (s *Session) logf(format string, args ...any) {
	s.log = append(s.log, fmt.Sprintf(format, args...))
	if len(s.log) > maxLogLines {
		s.log = s.log[len(s.log)-maxLogLines:]
	}
}

// recordCombat emits a span for one melee exchange.
func (s *Session) recordCombat(ctx context.Context, attacker, defender *entity.Actor, res combat.Result) {
	tracer := telemetry.Tracer("combat")
	_, span := tracer.Start(ctx, "combat.melee")
	span.SetAttributes(
		attribute.String("attacker", attacker.Name),
		attribute.String("defender", defender.Name),
		attribute.Int("damage", res.Damage),
		attribute.Bool("killed", res.Killed),
	)
	span.End()
}

// Close releases the terminal and the save store.
func (s *Session) Close() {
	if s.screen != nil {
		s.screen.Close()
	}
	if s.store != nil {
		s.store.Close()
	}
}

func sign(v int) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}
