package world

import "github.com/google/uuid"

// Point is a grid coordinate.
type Point struct {
	X, Y int
}

// Map is the tile grid for one dungeon level. It owns the terrain and the
// visibility flags, and keeps a non-owning index of which actor occupies
// which tile. Actors themselves live in the session.
type Map struct {
	Width  int
	Height int
	Tiles  [][]Tile
	Rooms  []Room
	Entry  Point // where the player starts; connectivity is measured from here

	occupants map[Point]uuid.UUID
}

// NewMap creates a map of the given size filled with walls.
func NewMap(width, height int) *Map {
	tiles := make([][]Tile, height)
	for y := range tiles {
		tiles[y] = make([]Tile, width)
	}
	return &Map{
		Width:     width,
		Height:    height,
		Tiles:     tiles,
		occupants: make(map[Point]uuid.UUID),
	}
}

// InBounds returns true if the position is on the map.
func (m *Map) InBounds(x, y int) bool {
	return x >= 0 && x < m.Width && y >= 0 && y < m.Height
}

// At returns the tile at the given position. Out-of-bounds reads return a wall.
func (m *Map) At(x, y int) Tile {
	if !m.InBounds(x, y) {
		return Tile{Kind: TileWall}
	}
	return m.Tiles[y][x]
}

// Walkable returns true if the position is on the map and passable terrain.
func (m *Map) Walkable(x, y int) bool {
	return m.InBounds(x, y) && m.Tiles[y][x].Walkable()
}

// Transparent returns true if the position does not block sight.
func (m *Map) Transparent(x, y int) bool {
	return m.InBounds(x, y) && m.Tiles[y][x].Transparent()
}

// OccupantAt returns the ID of the actor standing on the tile, if any.
func (m *Map) OccupantAt(x, y int) (uuid.UUID, bool) {
	id, ok := m.occupants[Point{x, y}]
	return id, ok
}

// Occupied returns true if an actor is standing on the tile.
func (m *Map) Occupied(x, y int) bool {
	_, ok := m.occupants[Point{x, y}]
	return ok
}

// PlaceOccupant records an actor on a tile. The tile must be free.
func (m *Map) PlaceOccupant(id uuid.UUID, x, y int) bool {
	p := Point{x, y}
	if _, taken := m.occupants[p]; taken {
		return false
	}
	m.occupants[p] = id
	return true
}

// MoveOccupant relocates an actor from one tile to another. The target
// tile must be free; on failure the index is unchanged.
func (m *Map) MoveOccupant(id uuid.UUID, fromX, fromY, toX, toY int) bool {
	from := Point{fromX, fromY}
	if m.occupants[from] != id {
		return false
	}
	to := Point{toX, toY}
	if _, taken := m.occupants[to]; taken {
		return false
	}
	delete(m.occupants, from)
	m.occupants[to] = id
	return true
}

// RemoveOccupant clears an actor from the index, e.g. on death.
func (m *Map) RemoveOccupant(id uuid.UUID, x, y int) {
	p := Point{x, y}
	if m.occupants[p] == id {
		delete(m.occupants, p)
	}
}

// ClearVisible resets the per-turn visible flag on every tile.
// Explored flags are left alone; they persist for the session.
func (m *Map) ClearVisible() {
	for y := range m.Tiles {
		for x := range m.Tiles[y] {
			m.Tiles[y][x].Visible = false
		}
	}
}

// MarkVisible flags a tile as visible this turn and permanently explored.
func (m *Map) MarkVisible(x, y int) {
	if !m.InBounds(x, y) {
		return
	}
	m.Tiles[y][x].Visible = true
	m.Tiles[y][x].Explored = true
}

// RoomIndexAt returns the index of the room containing the position, or -1.
func (m *Map) RoomIndexAt(x, y int) int {
	for i, room := range m.Rooms {
		if room.Contains(x, y) {
			return i
		}
	}
	return -1
}

// FloorCount returns the number of floor tiles on the map.
func (m *Map) FloorCount() int {
	n := 0
	for y := range m.Tiles {
		for x := range m.Tiles[y] {
			if m.Tiles[y][x].Walkable() {
				n++
			}
		}
	}
	return n
}

// ReachableFrom flood fills walkable tiles starting at the given point and
// returns how many were reached. The generator uses this to prove every
// floor tile can be walked to from the entry.
func (m *Map) ReachableFrom(x, y int) int {
	if !m.Walkable(x, y) {
		return 0
	}
	seen := make([]bool, m.Width*m.Height)
	stack := []Point{{x, y}}
	seen[y*m.Width+x] = true
	count := 0
	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		count++
		for _, d := range [4]Point{{1, 0}, {-1, 0}, {0, 1}, {0, -1}} {
			nx, ny := p.X+d.X, p.Y+d.Y
			if m.Walkable(nx, ny) && !seen[ny*m.Width+nx] {
				seen[ny*m.Width+nx] = true
				stack = append(stack, Point{nx, ny})
			}
		}
	}
	return count
}
