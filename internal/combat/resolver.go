// Package combat resolves melee exchanges between actors.
package combat

import "fmt"

// Combatant is the interface for anything that can take part in a melee
// exchange. Both the player and monsters implement it.
type Combatant interface {
	GetName() string
	IsAlive() bool
	GetHP() int
	GetMaxHP() int
	GetAttack() int
	GetDefense() int

	// TakeDamage reduces HP and returns the damage actually taken.
	TakeDamage(amount int) int
}

// Result describes the outcome of one melee exchange.
type Result struct {
	Damage  int
	Killed  bool
	Message string
}

// ResolveMelee applies one bump attack from attacker to defender.
// Damage is attack minus defense, never less than 1: even the weakest
// attacker chips away at an armored target.
func ResolveMelee(attacker, defender Combatant) Result {
	damage := attacker.GetAttack() - defender.GetDefense()
	if damage < 1 {
		damage = 1
	}
	actual := defender.TakeDamage(damage)

	res := Result{
		Damage: actual,
		Killed: !defender.IsAlive(),
	}
	if res.Killed {
		res.Message = fmt.Sprintf("%s hits %s for %d and kills it!",
			attacker.GetName(), defender.GetName(), actual)
	} else {
		res.Message = fmt.Sprintf("%s hits %s for %d damage.",
			attacker.GetName(), defender.GetName(), actual)
	}
	return res
}
