package game

import (
	"context"

	"github.com/halbard/undermount/internal/combat"
	"github.com/halbard/undermount/internal/entity"
)

// Result reports what an action did. A turn is only consumed when the
// action actually happened; a rejected action leaves the turn queue
// untouched so the actor may try something else.
type Result struct {
	Consumed bool
}

// Action is something an actor can attempt on its turn.
type Action interface {
	Apply(ctx context.Context, s *Session, a *entity.Actor) Result
}

// Direction deltas for the eight movement directions.
var (
	DirLeft      = [2]int{-1, 0}
	DirLeftUp    = [2]int{-1, -1}
	DirUp        = [2]int{0, -1}
	DirRightUp   = [2]int{1, -1}
	DirRight     = [2]int{1, 0}
	DirRightDown = [2]int{1, 1}
	DirDown      = [2]int{0, 1}
	DirLeftDown  = [2]int{-1, 1}
)

// Move steps the actor one tile. Moving into a hostile actor resolves a
// bump attack instead of a step.
type Move struct {
	DX, DY int
}

// Apply attempts the step. Out-of-bounds targets, walls and tiles held by
// a friendly actor reject the move without consuming the turn.
func (mv Move) Apply(ctx context.Context, s *Session, a *entity.Actor) Result {
	targetX := a.X + mv.DX
	targetY := a.Y + mv.DY

	if !s.dungeon.Walkable(targetX, targetY) {
		if a.Kind == entity.KindPlayer {
			s.logf("There is a wall in the way.")
		}
		return Result{Consumed: false}
	}

	if otherID, ok := s.dungeon.OccupantAt(targetX, targetY); ok {
		other := s.actors[otherID]
		if other == nil || other.Kind == a.Kind {
			// Friendly actors don't swap or stack.
			return Result{Consumed: false}
		}
		s.bumpAttack(ctx, a, other)
		return Result{Consumed: true}
	}

	if !s.dungeon.MoveOccupant(a.ID, a.X, a.Y, targetX, targetY) {
		return Result{Consumed: false}
	}
	a.SetPosition(targetX, targetY)
	return Result{Consumed: true}
}

// Wait passes the turn.
type Wait struct{}

// Apply consumes the turn without doing anything.
func (Wait) Apply(ctx context.Context, s *Session, a *entity.Actor) Result {
	return Result{Consumed: true}
}

// bumpAttack resolves melee between two actors and removes the defender
// if it died.
func (s *Session) bumpAttack(ctx context.Context, attacker, defender *entity.Actor) {
	res := combat.ResolveMelee(attacker, defender)
	s.logf("%s", res.Message)
	s.recordCombat(ctx, attacker, defender, res)

	if res.Killed {
		s.removeActor(defender)
		if defender.Kind == entity.KindPlayer {
			s.logf("You die...")
			s.running = false
		}
	}
}
