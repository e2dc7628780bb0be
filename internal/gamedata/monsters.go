package gamedata

import (
	"errors"
	"math/rand"

	"github.com/gdamore/tcell/v2"
)

// MonsterDef defines a monster type loaded from JSON.
type MonsterDef struct {
	ID          string `json:"id"`          // Unique identifier (e.g., "goblin")
	Name        string `json:"name"`        // Display name (e.g., "Goblin")
	Glyph       string `json:"glyph"`       // Single character for rendering (e.g., "g")
	Color       string `json:"color"`       // Hex color code (e.g., "#00FF00")
	HP          int    `json:"hp"`          // Base hit points
	Attack      int    `json:"attack"`      // Base attack power
	Defense     int    `json:"defense"`     // Base defense value
	Speed       int    `json:"speed"`       // Initiative; higher acts more often
	SpawnWeight int    `json:"spawnWeight"` // Relative spawn frequency (higher = more common)
}

// GlyphRune returns the glyph as a rune for rendering.
func (d *MonsterDef) GlyphRune() rune {
	if len(d.Glyph) == 0 {
		return '?'
	}
	return rune(d.Glyph[0])
}

// TCellColor returns the color as a tcell.Color.
func (d *MonsterDef) TCellColor() tcell.Color {
	color, err := ParseHexColor(d.Color)
	if err != nil {
		return tcell.ColorWhite // fallback
	}
	return color
}

// MonstersFile represents the structure of monsters.json.
type MonstersFile struct {
	Monsters []MonsterDef `json:"monsters"`
}

// LoadMonsters loads monster definitions from the embedded monsters.json file.
func LoadMonsters() ([]MonsterDef, error) {
	file, err := Load[MonstersFile]("monsters.json")
	if err != nil {
		return nil, err
	}
	return file.Monsters, nil
}

// MonsterRegistry holds loaded monster definitions and provides spawning
// utilities.
type MonsterRegistry struct {
	monsters    []MonsterDef
	totalWeight int
}

// NewMonsterRegistry creates a registry from loaded monster definitions.
func NewMonsterRegistry(monsters []MonsterDef) *MonsterRegistry {
	totalWeight := 0
	for _, m := range monsters {
		totalWeight += m.SpawnWeight
	}
	return &MonsterRegistry{
		monsters:    monsters,
		totalWeight: totalWeight,
	}
}

// LoadMonsterRegistry loads and creates a registry from the embedded
// monsters.json.
func LoadMonsterRegistry() (*MonsterRegistry, error) {
	monsters, err := LoadMonsters()
	if err != nil {
		return nil, err
	}
	if len(monsters) == 0 {
		return nil, errors.New("no monsters loaded from monsters.json")
	}
	return NewMonsterRegistry(monsters), nil
}

// MustLoadMonsterRegistry loads a registry, panicking on error.
func MustLoadMonsterRegistry() *MonsterRegistry {
	registry, err := LoadMonsterRegistry()
	if err != nil {
		panic(err)
	}
	return registry
}

// SpawnRandom selects a random monster definition using weighted
// probability. Definitions with a higher spawnWeight are more likely.
func (r *MonsterRegistry) SpawnRandom(rng *rand.Rand) *MonsterDef {
	if r.totalWeight <= 0 || len(r.monsters) == 0 {
		return nil
	}

	roll := rng.Intn(r.totalWeight)
	cumulative := 0
	for i := range r.monsters {
		cumulative += r.monsters[i].SpawnWeight
		if roll < cumulative {
			return &r.monsters[i]
		}
	}
	return &r.monsters[0]
}

// GetByID returns the monster definition with the given ID, or nil.
func (r *MonsterRegistry) GetByID(id string) *MonsterDef {
	for i := range r.monsters {
		if r.monsters[i].ID == id {
			return &r.monsters[i]
		}
	}
	return nil
}

// All returns all monster definitions.
func (r *MonsterRegistry) All() []MonsterDef {
	return r.monsters
}

// Count returns the number of monster types in the registry.
func (r *MonsterRegistry) Count() int {
	return len(r.monsters)
}
