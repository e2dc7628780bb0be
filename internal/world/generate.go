package world

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.opentelemetry.io/otel/attribute"

	"github.com/halbard/undermount/internal/telemetry"
)

const (
	// Default dungeon dimensions
	DefaultWidth  = 80
	DefaultHeight = 24

	// BSP parameters
	minRoomSize = 4  // Minimum room dimension
	maxRoomSize = 12 // Maximum room dimension
	minLeafSize = 6  // Minimum BSP leaf size before stopping split

	// maxGenAttempts bounds how many fresh layouts are tried before the
	// generator reports failure.
	maxGenAttempts = 8
)

// ErrGeneration is returned when no connected layout could be produced
// within the bounded retry count.
var ErrGeneration = errors.New("dungeon generation failed")

// Generator produces connected dungeon maps. The same seed and dimensions
// always yield the same layout.
type Generator struct {
	Seed   int64
	Width  int
	Height int
}

// NewGenerator creates a generator for the given seed and dimensions.
func NewGenerator(seed int64, width, height int) *Generator {
	return &Generator{Seed: seed, Width: width, Height: height}
}

// Generate builds a dungeon. Each attempt runs BSP splitting, room carving
// and corridor carving, then proves connectivity by flood fill from the
// entry tile. A failed attempt is retried with a seed derived from the
// base seed, up to maxGenAttempts, so the whole sequence stays
// reproducible. Exhausting the retries returns ErrGeneration.
func (g *Generator) Generate(ctx context.Context) (*Map, error) {
	tracer := telemetry.Tracer("world")
	ctx, span := tracer.Start(ctx, "dungeon.generate")
	defer span.End()

	startTime := time.Now()
	attempt := 0

	m, err := backoff.Retry(ctx, func() (*Map, error) {
		// Derive a per-attempt seed so retries explore new layouts
		// while the sequence as a whole stays deterministic.
		seed := g.Seed + int64(attempt)*0x9E3779B9
		attempt++

		m, err := g.attempt(seed)
		if err != nil {
			return nil, err
		}
		return m, nil
	}, backoff.WithBackOff(&backoff.ZeroBackOff{}), backoff.WithMaxTries(maxGenAttempts))
	if err != nil {
		span.SetAttributes(attribute.Int("dungeon.attempts", attempt))
		return nil, fmt.Errorf("%w after %d attempts: %v", ErrGeneration, attempt, err)
	}

	span.SetAttributes(
		attribute.Int("dungeon.width", m.Width),
		attribute.Int("dungeon.height", m.Height),
		attribute.Int("dungeon.room_count", len(m.Rooms)),
		attribute.Int("dungeon.attempts", attempt),
		attribute.Int64("dungeon.generation_ms", time.Since(startTime).Milliseconds()),
	)
	return m, nil
}

// attempt builds one candidate layout and validates it.
func (g *Generator) attempt(seed int64) (*Map, error) {
	m := NewMap(g.Width, g.Height)
	rng := rand.New(rand.NewSource(seed))

	root := &bspNode{
		x:      1,
		y:      1,
		width:  g.Width - 2,
		height: g.Height - 2,
	}

	b := &builder{m: m, rng: rng}
	b.splitNode(root)
	b.createRooms(root)
	b.connectRooms(root)

	if len(m.Rooms) == 0 {
		return nil, errors.New("no rooms carved")
	}
	m.Entry = Point{}
	m.Entry.X, m.Entry.Y = m.Rooms[0].Center()

	// Every floor tile must be walkable from the entry.
	if reached := m.ReachableFrom(m.Entry.X, m.Entry.Y); reached != m.FloorCount() {
		return nil, fmt.Errorf("disconnected layout: reached %d of %d floor tiles",
			reached, m.FloorCount())
	}
	return m, nil
}

// builder carries the map and rng through one generation attempt.
type builder struct {
	m   *Map
	rng *rand.Rand
}

// bspNode is a node in the binary space partition tree.
type bspNode struct {
	x, y          int
	width, height int
	left, right   *bspNode
	room          *Room
}

// isLeaf returns true if this node has no children.
func (n *bspNode) isLeaf() bool {
	return n.left == nil && n.right == nil
}

// splitNode recursively splits a BSP node.
func (b *builder) splitNode(node *bspNode) {
	if node.width < minLeafSize*2 && node.height < minLeafSize*2 {
		return
	}

	var splitHorizontally bool
	if node.width > node.height && node.width >= minLeafSize*2 {
		splitHorizontally = false // split vertically (left/right)
	} else if node.height >= minLeafSize*2 {
		splitHorizontally = true // split horizontally (top/bottom)
	} else if node.width >= minLeafSize*2 {
		splitHorizontally = false
	} else {
		return
	}

	var splitPos int
	if splitHorizontally {
		min := minLeafSize
		max := node.height - minLeafSize
		if max <= min {
			return
		}
		splitPos = min + b.rng.Intn(max-min+1)
	} else {
		min := minLeafSize
		max := node.width - minLeafSize
		if max <= min {
			return
		}
		splitPos = min + b.rng.Intn(max-min+1)
	}

	if splitHorizontally {
		node.left = &bspNode{
			x:      node.x,
			y:      node.y,
			width:  node.width,
			height: splitPos,
		}
		node.right = &bspNode{
			x:      node.x,
			y:      node.y + splitPos,
			width:  node.width,
			height: node.height - splitPos,
		}
	} else {
		node.left = &bspNode{
			x:      node.x,
			y:      node.y,
			width:  splitPos,
			height: node.height,
		}
		node.right = &bspNode{
			x:      node.x + splitPos,
			y:      node.y,
			width:  node.width - splitPos,
			height: node.height,
		}
	}

	b.splitNode(node.left)
	b.splitNode(node.right)
}

// createRooms creates rooms in leaf nodes of the BSP tree.
func (b *builder) createRooms(node *bspNode) {
	if node == nil {
		return
	}

	if !node.isLeaf() {
		b.createRooms(node.left)
		b.createRooms(node.right)
		return
	}

	if node.width < minRoomSize+2 || node.height < minRoomSize+2 {
		return
	}

	roomWidth := minRoomSize + b.rng.Intn(min(maxRoomSize-minRoomSize+1, node.width-minRoomSize-1))
	roomHeight := minRoomSize + b.rng.Intn(min(maxRoomSize-minRoomSize+1, node.height-minRoomSize-1))
	if roomWidth > node.width-2 {
		roomWidth = node.width - 2
	}
	if roomHeight > node.height-2 {
		roomHeight = node.height - 2
	}
	// Anything smaller cannot hold an actor plus walls; skip it rather
	// than carve a degenerate room.
	if roomWidth < minRoomSize || roomHeight < minRoomSize {
		return
	}

	roomX := node.x + 1 + b.rng.Intn(node.width-roomWidth-1)
	roomY := node.y + 1 + b.rng.Intn(node.height-roomHeight-1)

	room := Room{
		X:      roomX,
		Y:      roomY,
		Width:  roomWidth,
		Height: roomHeight,
	}
	node.room = &room
	b.m.Rooms = append(b.m.Rooms, room)
	b.carveRoom(room)
}

// carveRoom sets all tiles within the room to floor.
func (b *builder) carveRoom(room Room) {
	for y := room.Y; y < room.Y+room.Height; y++ {
		for x := room.X; x < room.X+room.Width; x++ {
			if x > 0 && x < b.m.Width-1 && y > 0 && y < b.m.Height-1 {
				b.m.Tiles[y][x].Kind = TileFloor
			}
		}
	}
}

// connectRooms connects sibling subtrees with corridors.
func (b *builder) connectRooms(node *bspNode) {
	if node == nil || node.isLeaf() {
		return
	}

	b.connectRooms(node.left)
	b.connectRooms(node.right)

	leftRoom := b.getRoom(node.left)
	rightRoom := b.getRoom(node.right)
	if leftRoom != nil && rightRoom != nil {
		b.carveCorridor(*leftRoom, *rightRoom)
	}
}

// getRoom returns a room from a subtree (any room will do).
func (b *builder) getRoom(node *bspNode) *Room {
	if node == nil {
		return nil
	}
	if node.room != nil {
		return node.room
	}
	if room := b.getRoom(node.left); room != nil {
		return room
	}
	return b.getRoom(node.right)
}

// carveCorridor creates an L-shaped corridor between two rooms.
func (b *builder) carveCorridor(room1, room2 Room) {
	x1, y1 := room1.Center()
	x2, y2 := room2.Center()

	if b.rng.Intn(2) == 0 {
		b.carveHorizontalTunnel(x1, x2, y1)
		b.carveVerticalTunnel(y1, y2, x2)
	} else {
		b.carveVerticalTunnel(y1, y2, x1)
		b.carveHorizontalTunnel(x1, x2, y2)
	}
}

// carveHorizontalTunnel carves a horizontal tunnel.
func (b *builder) carveHorizontalTunnel(x1, x2, y int) {
	if x1 > x2 {
		x1, x2 = x2, x1
	}
	for x := x1; x <= x2; x++ {
		if x > 0 && x < b.m.Width-1 && y > 0 && y < b.m.Height-1 {
			b.m.Tiles[y][x].Kind = TileFloor
		}
	}
}

// carveVerticalTunnel carves a vertical tunnel.
func (b *builder) carveVerticalTunnel(y1, y2, x int) {
	if y1 > y2 {
		y1, y2 = y2, y1
	}
	for y := y1; y <= y2; y++ {
		if x > 0 && x < b.m.Width-1 && y > 0 && y < b.m.Height-1 {
			b.m.Tiles[y][x].Kind = TileFloor
		}
	}
}
