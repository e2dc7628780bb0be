// Package save persists sessions to a local SQLite database.
package save

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/halbard/undermount/internal/entity"
	"github.com/halbard/undermount/internal/world"
)

var (
	// ErrNotFound is returned when no session with the given ID exists.
	ErrNotFound = errors.New("session not found")
	// ErrCorrupt is returned when stored state fails validation. A load
	// that returns ErrCorrupt has hydrated nothing.
	ErrCorrupt = errors.New("corrupt save")
)

// ActorState is the persisted form of one actor, including its place in
// the turn queue.
type ActorState struct {
	ID      uuid.UUID
	Name    string
	Kind    entity.Kind
	DefID   string // monster definition ID, empty for the player
	Glyph   rune
	X, Y    int
	HP      int
	MaxHP   int
	Attack  int
	Defense int
	Speed   int
	QueueAt int64 // scheduler tick of the actor's next turn
}

// Snapshot is a complete persisted session: the map, every live actor,
// and the scheduler clock.
type Snapshot struct {
	ID     uuid.UUID
	Seed   int64
	Clock  int64
	Map    *world.Map
	Actors []ActorState
}

// Store reads and writes snapshots.
type Store struct {
	db *sql.DB
}

// Open initializes the SQLite database at the given path, creating the
// schema if needed.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create save directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open save database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping save database: %w", err)
	}
	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("create save schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func createSchema(db *sql.DB) error {
	schemas := []string{
		`CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			created_at DATETIME NOT NULL,
			seed INTEGER NOT NULL,
			clock INTEGER NOT NULL,
			width INTEGER NOT NULL,
			height INTEGER NOT NULL,
			entry_x INTEGER NOT NULL,
			entry_y INTEGER NOT NULL,
			tiles BLOB NOT NULL,
			tiles_checksum INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS actors (
			session_id TEXT NOT NULL,
			id TEXT NOT NULL,
			name TEXT NOT NULL,
			kind INTEGER NOT NULL,
			def_id TEXT NOT NULL DEFAULT '',
			glyph INTEGER NOT NULL,
			x INTEGER NOT NULL,
			y INTEGER NOT NULL,
			hp INTEGER NOT NULL,
			max_hp INTEGER NOT NULL,
			attack INTEGER NOT NULL,
			defense INTEGER NOT NULL,
			speed INTEGER NOT NULL,
			queue_at INTEGER NOT NULL,
			PRIMARY KEY (session_id, id)
		);`,
	}
	for _, schema := range schemas {
		if _, err := db.Exec(schema); err != nil {
			return err
		}
	}
	return nil
}

// Save writes a snapshot, replacing any previous state for the same
// session ID. The write is a single transaction.
func (s *Store) Save(ctx context.Context, snap *Snapshot) error {
	blob := encodeTiles(snap.Map)
	checksum := int64(xxhash.Sum64(blob))

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM actors WHERE session_id = ?`, snap.ID.String()); err != nil {
		return fmt.Errorf("clear actors: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `INSERT OR REPLACE INTO sessions
		(id, created_at, seed, clock, width, height, entry_x, entry_y, tiles, tiles_checksum)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		snap.ID.String(), time.Now().UTC(), snap.Seed, snap.Clock,
		snap.Map.Width, snap.Map.Height, snap.Map.Entry.X, snap.Map.Entry.Y,
		blob, checksum); err != nil {
		return fmt.Errorf("write session: %w", err)
	}

	for _, a := range snap.Actors {
		if _, err := tx.ExecContext(ctx, `INSERT INTO actors
			(session_id, id, name, kind, def_id, glyph, x, y, hp, max_hp, attack, defense, speed, queue_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			snap.ID.String(), a.ID.String(), a.Name, int(a.Kind), a.DefID,
			int64(a.Glyph), a.X, a.Y, a.HP, a.MaxHP,
			a.Attack, a.Defense, a.Speed, a.QueueAt); err != nil {
			return fmt.Errorf("write actor %s: %w", a.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save: %w", err)
	}
	return nil
}

// Load reads a snapshot by session ID. Validation failures return
// ErrCorrupt before anything is handed back, so a malformed save can
// never be partially hydrated into a session.
func (s *Store) Load(ctx context.Context, id uuid.UUID) (*Snapshot, error) {
	row := s.db.QueryRowContext(ctx, `SELECT seed, clock, width, height,
		entry_x, entry_y, tiles, tiles_checksum
		FROM sessions WHERE id = ?`, id.String())

	var (
		snap     Snapshot
		width    int
		height   int
		entryX   int
		entryY   int
		blob     []byte
		checksum int64
	)
	snap.ID = id
	err := row.Scan(&snap.Seed, &snap.Clock, &width, &height,
		&entryX, &entryY, &blob, &checksum)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read session: %w", err)
	}

	if int64(xxhash.Sum64(blob)) != checksum {
		return nil, fmt.Errorf("%w: tile checksum mismatch", ErrCorrupt)
	}
	m, err := decodeTiles(blob, width, height)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	m.Entry = world.Point{X: entryX, Y: entryY}
	if !m.Walkable(m.Entry.X, m.Entry.Y) {
		return nil, fmt.Errorf("%w: entry tile is not walkable", ErrCorrupt)
	}
	snap.Map = m

	rows, err := s.db.QueryContext(ctx, `SELECT id, name, kind, def_id, glyph,
		x, y, hp, max_hp, attack, defense, speed, queue_at
		FROM actors WHERE session_id = ? ORDER BY queue_at, id`, id.String())
	if err != nil {
		return nil, fmt.Errorf("read actors: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			a       ActorState
			actorID string
			kind    int
			glyph   int64
		)
		if err := rows.Scan(&actorID, &a.Name, &kind, &a.DefID, &glyph,
			&a.X, &a.Y, &a.HP, &a.MaxHP, &a.Attack, &a.Defense,
			&a.Speed, &a.QueueAt); err != nil {
			return nil, fmt.Errorf("read actor row: %w", err)
		}
		a.ID, err = uuid.Parse(actorID)
		if err != nil {
			return nil, fmt.Errorf("%w: bad actor id %q", ErrCorrupt, actorID)
		}
		a.Kind = entity.Kind(kind)
		a.Glyph = rune(glyph)
		if !m.InBounds(a.X, a.Y) {
			return nil, fmt.Errorf("%w: actor %s is off the map", ErrCorrupt, a.Name)
		}
		snap.Actors = append(snap.Actors, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read actors: %w", err)
	}
	if len(snap.Actors) == 0 {
		return nil, fmt.Errorf("%w: session has no actors", ErrCorrupt)
	}
	return &snap, nil
}

// Tile payload: one byte per tile, row major.
const (
	tileFlagFloor    = 1 << 0
	tileFlagExplored = 1 << 1
)

func encodeTiles(m *world.Map) []byte {
	blob := make([]byte, 0, m.Width*m.Height)
	for y := 0; y < m.Height; y++ {
		for x := 0; x < m.Width; x++ {
			t := m.Tiles[y][x]
			var b byte
			if t.Kind == world.TileFloor {
				b |= tileFlagFloor
			}
			if t.Explored {
				b |= tileFlagExplored
			}
			blob = append(blob, b)
		}
	}
	return blob
}

func decodeTiles(blob []byte, width, height int) (*world.Map, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("bad dimensions %dx%d", width, height)
	}
	if len(blob) != width*height {
		return nil, fmt.Errorf("tile payload is %d bytes, want %d", len(blob), width*height)
	}
	m := world.NewMap(width, height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			b := blob[y*width+x]
			if b&tileFlagFloor != 0 {
				m.Tiles[y][x].Kind = world.TileFloor
			}
			m.Tiles[y][x].Explored = b&tileFlagExplored != 0
		}
	}
	return m, nil
}
