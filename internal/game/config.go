// Package game wires the map, actors, scheduler and UI into a running session.
package game

import (
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/halbard/undermount/internal/world"
)

// Config holds game configuration options.
type Config struct {
	// Seed for dungeon generation and monster placement. A seed of 0
	// means a time-based seed is chosen.
	Seed int64

	// Map dimensions. Zero values fall back to the world defaults.
	Width  int
	Height int

	// SavePath is the SQLite database used for save/load. Empty
	// disables persistence.
	SavePath string

	// Resume is the session ID to load instead of generating a fresh
	// dungeon. uuid.Nil starts a new session.
	Resume uuid.UUID
}

// ConfigFromEnv builds a Config from UNDERMOUNT_* environment variables.
// Unset or unparsable values fall back to defaults.
func ConfigFromEnv() Config {
	cfg := Config{
		Width:    world.DefaultWidth,
		Height:   world.DefaultHeight,
		SavePath: "saves/undermount.db",
	}

	if v := os.Getenv("UNDERMOUNT_SEED"); v != "" {
		if seed, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Seed = seed
		}
	}
	if v := os.Getenv("UNDERMOUNT_SAVE_PATH"); v != "" {
		cfg.SavePath = v
	}
	if v := os.Getenv("UNDERMOUNT_SESSION"); v != "" {
		if id, err := uuid.Parse(v); err == nil {
			cfg.Resume = id
		}
	}
	return cfg
}

// effectiveSeed resolves the configured seed, substituting the current
// time when no explicit seed was given.
func (c Config) effectiveSeed() int64 {
	if c.Seed != 0 {
		return c.Seed
	}
	return time.Now().UnixNano()
}
