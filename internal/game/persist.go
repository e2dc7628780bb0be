package game

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/halbard/undermount/internal/entity"
	"github.com/halbard/undermount/internal/save"
	"github.com/halbard/undermount/internal/telemetry"
	"github.com/halbard/undermount/internal/turn"
)

// saveGame writes the session to the store. Saving does not consume a
// turn; failures are logged and leave the session running.
func (s *Session) saveGame(ctx context.Context) {
	if s.store == nil {
		s.logf("No save store configured.")
		return
	}

	tracer := telemetry.Tracer("game")
	ctx, span := tracer.Start(ctx, "game.save")
	defer span.End()

	snap := s.snapshot()
	if err := s.store.Save(ctx, snap); err != nil {
		span.RecordError(err)
		s.logf("Save failed: %v", err)
		return
	}
	span.SetAttributes(
		attribute.String("session.id", snap.ID.String()),
		attribute.Int("session.actors", len(snap.Actors)),
	)
	s.logf("Saved. Resume with UNDERMOUNT_SESSION=%s", snap.ID)
}

// snapshot captures the live session state for persistence.
func (s *Session) snapshot() *save.Snapshot {
	snap := &save.Snapshot{
		ID:    s.id,
		Seed:  s.seed,
		Clock: s.sched.Clock(),
		Map:   s.dungeon,
	}
	for _, a := range s.actors {
		at, ok := s.sched.At(a.ID)
		if !ok {
			continue
		}
		st := save.ActorState{
			ID:      a.ID,
			Name:    a.Name,
			Kind:    a.Kind,
			Glyph:   a.Glyph,
			X:       a.X,
			Y:       a.Y,
			HP:      a.HP,
			MaxHP:   a.MaxHP,
			Attack:  a.Attack,
			Defense: a.Defense,
			Speed:   a.Speed,
			QueueAt: at,
		}
		if a.Def != nil {
			st.DefID = a.Def.ID
		}
		snap.Actors = append(snap.Actors, st)
	}
	return snap
}

// restore rebuilds the session from a stored snapshot. The snapshot is
// fully decoded and validated by the store before anything here mutates
// the session, so a bad save leaves no half-loaded state behind.
func (s *Session) restore(ctx context.Context, id uuid.UUID) error {
	tracer := telemetry.Tracer("game")
	ctx, span := tracer.Start(ctx, "game.load")
	defer span.End()

	snap, err := s.store.Load(ctx, id)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("load session %s: %w", id, err)
	}

	s.id = snap.ID
	s.seed = snap.Seed
	s.dungeon = snap.Map
	s.rng = newSessionRand(snap.Seed, snap.Clock)
	s.sched = turn.NewScheduler()
	s.sched.SetClock(snap.Clock)
	s.actors = make(map[uuid.UUID]*entity.Actor, len(snap.Actors))

	foundPlayer := false
	for _, st := range snap.Actors {
		a := s.actorFromState(st)
		s.actors[a.ID] = a
		s.dungeon.PlaceOccupant(a.ID, a.X, a.Y)
		s.sched.Add(a.ID, st.QueueAt)
		if a.Kind == entity.KindPlayer {
			s.playerID = a.ID
			foundPlayer = true
		}
	}
	if !foundPlayer {
		return fmt.Errorf("load session %s: %w", id, save.ErrCorrupt)
	}

	span.SetAttributes(
		attribute.String("session.id", snap.ID.String()),
		attribute.Int("session.actors", len(snap.Actors)),
	)
	s.logf("Welcome back to the undermount.")
	return nil
}

// newSessionRand derives the session rng for a resumed session. The
// clock is folded in so monster decisions don't replay the pre-save
// sequence verbatim.
func newSessionRand(seed, clock int64) *rand.Rand {
	return rand.New(rand.NewSource(seed ^ clock))
}

// actorFromState reconstructs an actor, reattaching its monster
// definition when one is still known.
func (s *Session) actorFromState(st save.ActorState) *entity.Actor {
	a := &entity.Actor{
		ID:      st.ID,
		Name:    st.Name,
		Kind:    st.Kind,
		Glyph:   st.Glyph,
		X:       st.X,
		Y:       st.Y,
		HP:      st.HP,
		MaxHP:   st.MaxHP,
		Attack:  st.Attack,
		Defense: st.Defense,
		Speed:   st.Speed,
	}
	if st.DefID != "" {
		a.Def = s.registry.GetByID(st.DefID)
	}
	return a
}
