// Package world provides the tile map, dungeon generation and spatial indexing.
package world

// TileKind identifies the terrain of a map tile.
type TileKind uint8

const (
	// TileWall is impassable and blocks sight.
	TileWall TileKind = iota
	// TileFloor is passable and transparent.
	TileFloor
)

// Rune returns the display character for the terrain kind.
func (k TileKind) Rune() rune {
	switch k {
	case TileFloor:
		return '.'
	default:
		return '#'
	}
}

// Tile is a single map cell: terrain plus the two visibility flags
// maintained by the field-of-view pass.
type Tile struct {
	Kind     TileKind
	Explored bool // set permanently once the tile has been seen
	Visible  bool // true only for the current turn
}

// Walkable returns true if the tile can be walked over.
func (t Tile) Walkable() bool {
	return t.Kind == TileFloor
}

// Transparent returns true if the tile does not block field of view.
func (t Tile) Transparent() bool {
	return t.Kind == TileFloor
}
