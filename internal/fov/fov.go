// Package fov computes field of view over the tile map.
package fov

import (
	"context"

	"go.opentelemetry.io/otel/attribute"

	"github.com/halbard/undermount/internal/telemetry"
	"github.com/halbard/undermount/internal/world"
)

// DefaultRadius is how far an observer can see in open terrain.
const DefaultRadius = 8

// Compute runs a visibility pass for the observer at (ox, oy). Prior
// visible flags are cleared first; every tile found visible is flagged for
// the current turn and marked explored permanently.
//
// A tile is visible when an unobstructed sight line exists between it and
// the observer in either direction, which makes the relation symmetric by
// construction: if A sees B over some terrain, B sees A over the same
// terrain.
func Compute(ctx context.Context, m *world.Map, ox, oy, radius int) {
	tracer := telemetry.Tracer("fov")
	_, span := tracer.Start(ctx, "fov.compute")
	defer span.End()

	m.ClearVisible()

	if !m.InBounds(ox, oy) {
		return
	}
	m.MarkVisible(ox, oy)

	visible := 1
	for y := oy - radius; y <= oy+radius; y++ {
		for x := ox - radius; x <= ox+radius; x++ {
			if x == ox && y == oy {
				continue
			}
			if !m.InBounds(x, y) {
				continue
			}
			dx, dy := x-ox, y-oy
			if dx*dx+dy*dy > radius*radius {
				continue
			}
			if Visible(m, ox, oy, x, y) {
				m.MarkVisible(x, y)
				visible++
			}
		}
	}

	span.SetAttributes(
		attribute.Int("fov.radius", radius),
		attribute.Int("fov.visible_tiles", visible),
	)
}

// Visible reports whether an unobstructed sight line exists between the
// two positions. Sight lines are rasterized with Bresenham's algorithm; a
// single raster is not symmetric, so both directions are tried and either
// clear line grants visibility.
func Visible(m *world.Map, x1, y1, x2, y2 int) bool {
	return lineClear(m, x1, y1, x2, y2) || lineClear(m, x2, y2, x1, y1)
}

// lineClear walks the Bresenham line from (x1,y1) to (x2,y2) and returns
// true if every tile strictly between the endpoints is transparent.
func lineClear(m *world.Map, x1, y1, x2, y2 int) bool {
	dx := abs(x2 - x1)
	dy := abs(y2 - y1)
	sx, sy := 1, 1
	if x1 > x2 {
		sx = -1
	}
	if y1 > y2 {
		sy = -1
	}
	err := dx - dy

	x, y := x1, y1
	for {
		if x == x2 && y == y2 {
			return true
		}
		// Intermediate tiles must not block sight; the endpoints are
		// exempt so walls themselves can be seen.
		if !(x == x1 && y == y1) && !m.Transparent(x, y) {
			return false
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x += sx
		}
		if e2 < dx {
			err += dx
			y += sy
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
