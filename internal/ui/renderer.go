package ui

import (
	"fmt"

	"github.com/gdamore/tcell/v2"

	"github.com/halbard/undermount/internal/entity"
	"github.com/halbard/undermount/internal/world"
)

// Renderer draws the game to the screen. It reads the map and actors and
// never mutates them.
type Renderer struct {
	screen *Screen
}

// NewRenderer creates a renderer for the given screen.
func NewRenderer(screen *Screen) *Renderer {
	return &Renderer{screen: screen}
}

// Render draws the explored map, every actor standing on a visible tile,
// the message log and a status line. The view scrolls to keep the player
// centered when the map is larger than the terminal.
func (r *Renderer) Render(m *world.Map, actors []*entity.Actor, player *entity.Actor, log []string) {
	r.screen.Clear()

	viewW, viewH := r.screen.Size()
	mapH := viewH - len(log) - 1
	if mapH < 1 {
		mapH = 1
	}
	offX, offY := cameraOffset(player.X, player.Y, viewW, mapH, m.Width, m.Height)

	for sy := 0; sy < mapH; sy++ {
		for sx := 0; sx < viewW; sx++ {
			x, y := sx+offX, sy+offY
			if !m.InBounds(x, y) {
				continue
			}
			tile := m.At(x, y)
			if !tile.Explored {
				continue // unexplored tiles stay blank
			}
			r.screen.SetContent(sx, sy, tile.Kind.Rune(), tileStyle(tile))
		}
	}

	// Actors are drawn only while visible; the player is drawn last so
	// nothing overlaps it.
	for _, a := range actors {
		if a.ID == player.ID {
			continue
		}
		if !m.At(a.X, a.Y).Visible {
			continue
		}
		sx, sy := a.X-offX, a.Y-offY
		if sx < 0 || sx >= viewW || sy < 0 || sy >= mapH {
			continue
		}
		r.screen.SetContent(sx, sy, a.Glyph, tcell.StyleDefault.Foreground(a.Color()))
	}
	playerStyle := tcell.StyleDefault.Foreground(player.Color()).Bold(true)
	r.screen.SetContent(player.X-offX, player.Y-offY, player.Glyph, playerStyle)

	r.renderStatus(player, mapH)
	for i, msg := range log {
		r.renderLine(msg, mapH+1+i, tcell.StyleDefault.Foreground(tcell.ColorWhite))
	}

	r.screen.Show()
}

// renderStatus draws the HP line under the map.
func (r *Renderer) renderStatus(player *entity.Actor, y int) {
	status := fmt.Sprintf("HP %d/%d", player.HP, player.MaxHP)
	style := tcell.StyleDefault.Foreground(tcell.ColorGreen)
	if player.HP*4 <= player.MaxHP {
		style = tcell.StyleDefault.Foreground(tcell.ColorRed)
	}
	r.renderLine(status, y, style)
}

// renderLine writes a string at the given row.
func (r *Renderer) renderLine(msg string, y int, style tcell.Style) {
	for i, ch := range msg {
		r.screen.SetContent(i, y, ch, style)
	}
}

// tileStyle picks the style for a tile: normal when visible this turn,
// dimmed when only remembered from exploration.
func tileStyle(t world.Tile) tcell.Style {
	if t.Visible {
		switch t.Kind {
		case world.TileWall:
			return tcell.StyleDefault.Foreground(tcell.ColorGray)
		default:
			return tcell.StyleDefault.Foreground(tcell.ColorBeige)
		}
	}
	return tcell.StyleDefault.Foreground(tcell.ColorDarkSlateGray)
}

// cameraOffset centers the view on the player, clamped to the map edges.
func cameraOffset(px, py, viewW, viewH, mapW, mapH int) (int, int) {
	offX := clamp(px-viewW/2, 0, max(0, mapW-viewW))
	offY := clamp(py-viewH/2, 0, max(0, mapH-viewH))
	return offX, offY
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
