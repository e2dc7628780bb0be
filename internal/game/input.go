package game

import (
	"context"

	"github.com/gdamore/tcell/v2"
)

// keyToDir maps movement runes to direction deltas: vi keys plus the
// diagonals (y/u/b/n).
var keyToDir = map[rune][2]int{
	'h': DirLeft,
	'j': DirDown,
	'k': DirUp,
	'l': DirRight,
	'y': DirLeftUp,
	'u': DirRightUp,
	'b': DirLeftDown,
	'n': DirRightDown,
}

// awaitCommand blocks on terminal input until the player issues an
// action. It returns nil when the event was handled without producing an
// action (quit, save, resize), letting the loop come back around without
// advancing the turn queue.
func (s *Session) awaitCommand(ctx context.Context) Action {
	if s.screen == nil {
		// Headless sessions never block on input.
		s.running = false
		return nil
	}

	ev := s.screen.PollEvent()
	switch ev := ev.(type) {
	case *tcell.EventKey:
		return s.handleKey(ctx, ev)
	case *tcell.EventResize:
		s.screen.Sync()
	}
	return nil
}

// handleKey translates one key event into an action.
func (s *Session) handleKey(ctx context.Context, ev *tcell.EventKey) Action {
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		s.running = false
		return nil

	case tcell.KeyUp:
		return Move{DX: DirUp[0], DY: DirUp[1]}
	case tcell.KeyDown:
		return Move{DX: DirDown[0], DY: DirDown[1]}
	case tcell.KeyLeft:
		return Move{DX: DirLeft[0], DY: DirLeft[1]}
	case tcell.KeyRight:
		return Move{DX: DirRight[0], DY: DirRight[1]}

	case tcell.KeyRune:
		r := ev.Rune()
		if d, ok := keyToDir[r]; ok {
			return Move{DX: d[0], DY: d[1]}
		}
		switch r {
		case '.':
			return Wait{}
		case 'S':
			s.saveGame(ctx)
			return nil
		case 'q', 'Q':
			s.running = false
			return nil
		}
	}
	return nil
}
