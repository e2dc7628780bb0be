// Package entity provides the actors that inhabit the dungeon.
package entity

import (
	"github.com/gdamore/tcell/v2"
	"github.com/google/uuid"

	"github.com/halbard/undermount/internal/combat"
	"github.com/halbard/undermount/internal/gamedata"
)

// Kind distinguishes player-controlled actors from monsters.
type Kind int

const (
	KindPlayer Kind = iota
	KindMonster
)

// String returns a human-readable kind name.
func (k Kind) String() string {
	switch k {
	case KindPlayer:
		return "player"
	case KindMonster:
		return "monster"
	default:
		return "unknown"
	}
}

// Default player stats. Monsters get theirs from monsters.json.
const (
	playerHP      = 30
	playerAttack  = 5
	playerDefense = 2
	playerSpeed   = 10
)

// Actor is any creature with a position on the map and a place in the
// turn queue. Actors are uniquely identified; the map's spatial index and
// the scheduler both refer to them by ID only.
type Actor struct {
	ID     uuid.UUID
	Name   string
	Kind   Kind
	Def    *gamedata.MonsterDef // nil for the player
	Glyph  rune
	X, Y   int

	HP, MaxHP int
	Attack    int
	Defense   int
	Speed     int // initiative; higher means shorter delay between turns
}

// NewPlayer creates the player actor at the given position.
func NewPlayer(x, y int) *Actor {
	return &Actor{
		ID:      uuid.New(),
		Name:    "you",
		Kind:    KindPlayer,
		Glyph:   '@',
		X:       x,
		Y:       y,
		HP:      playerHP,
		MaxHP:   playerHP,
		Attack:  playerAttack,
		Defense: playerDefense,
		Speed:   playerSpeed,
	}
}

// NewMonsterFromDef creates a monster from a data-driven definition.
func NewMonsterFromDef(def *gamedata.MonsterDef, x, y int) *Actor {
	return &Actor{
		ID:      uuid.New(),
		Name:    def.Name,
		Kind:    KindMonster,
		Def:     def,
		Glyph:   def.GlyphRune(),
		X:       x,
		Y:       y,
		HP:      def.HP,
		MaxHP:   def.HP,
		Attack:  def.Attack,
		Defense: def.Defense,
		Speed:   def.Speed,
	}
}

// Position returns the actor's current x, y coordinates.
func (a *Actor) Position() (int, int) {
	return a.X, a.Y
}

// SetPosition updates the actor's position.
func (a *Actor) SetPosition(x, y int) {
	a.X = x
	a.Y = y
}

// Color returns the tcell color used to render this actor.
func (a *Actor) Color() tcell.Color {
	if a.Def != nil {
		return a.Def.TCellColor()
	}
	if a.Kind == KindPlayer {
		return tcell.ColorYellow
	}
	return tcell.ColorWhite
}

// ActionDelay returns how many scheduler ticks pass before this actor
// acts again. Faster actors come up more often.
func (a *Actor) ActionDelay() int64 {
	speed := a.Speed
	if speed < 1 {
		speed = 1
	}
	return int64(1000 / speed)
}

// GetName returns the actor's name.
func (a *Actor) GetName() string { return a.Name }

// IsAlive returns true if the actor has HP remaining.
func (a *Actor) IsAlive() bool { return a.HP > 0 }

// GetHP returns current HP.
func (a *Actor) GetHP() int { return a.HP }

// GetMaxHP returns maximum HP.
func (a *Actor) GetMaxHP() int { return a.MaxHP }

// GetAttack returns attack power.
func (a *Actor) GetAttack() int { return a.Attack }

// GetDefense returns defense value.
func (a *Actor) GetDefense() int { return a.Defense }

// TakeDamage reduces HP and returns actual damage taken.
func (a *Actor) TakeDamage(amount int) int {
	if amount <= 0 {
		return 0
	}
	actual := amount
	if actual > a.HP {
		actual = a.HP
	}
	a.HP -= actual
	return actual
}

// Heal restores HP and returns the actual amount healed.
func (a *Actor) Heal(amount int) int {
	if amount <= 0 {
		return 0
	}
	actual := amount
	if a.HP+actual > a.MaxHP {
		actual = a.MaxHP - a.HP
	}
	a.HP += actual
	return actual
}

// Ensure Actor implements combat.Combatant
var _ combat.Combatant = (*Actor)(nil)
