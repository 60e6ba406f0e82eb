package engine

// MaxRedrawCycles bounds how many times the stuck detector and autoplay
// recycle the discard pile without an intervening foundation move.
const MaxRedrawCycles = 3

// Status classifies a state for the terminal check.
type Status uint8

const (
	StatusPlaying Status = iota
	StatusWon
	StatusStuck
)

func (s Status) String() string {
	switch s {
	case StatusWon:
		return "won"
	case StatusStuck:
		return "stuck"
	}
	return "playing"
}

// advance performs one simulated stock step for the search loops: a single
// deal, or a single redraw once the stock is empty, so the last dealt cards
// stay playable for one step. It reports false once the stock and discard
// are both empty or the redraw budget is spent.
func advance(g GameState, mode DrawMode, redraws *int) (GameState, bool) {
	if len(g.Draw) > 0 {
		return deal(g, mode), true
	}
	if len(g.Discard) == 0 || *redraws >= MaxRedrawCycles {
		return g, false
	}
	*redraws++
	return redraw(g), true
}

// HasMoveToFoundation reports whether some card can reach a foundation
// from g, drawing through the stock as needed. It works on private copies
// and never modifies g.
func HasMoveToFoundation(g GameState, mode DrawMode) bool {
	cur := g
	redraws := 0
	for {
		if _, ok := NextFoundationMove(cur); ok {
			return true
		}
		var ok bool
		if cur, ok = advance(cur, mode, &redraws); !ok {
			return false
		}
	}
}

// IsStuck reports whether g is not won and no card can reach a foundation.
func IsStuck(g GameState, mode DrawMode) bool {
	return !g.IsWon() && !HasMoveToFoundation(g, mode)
}

// Classify returns the terminal status of g.
func Classify(g GameState, mode DrawMode) Status {
	switch {
	case g.IsWon():
		return StatusWon
	case !HasMoveToFoundation(g, mode):
		return StatusStuck
	}
	return StatusPlaying
}
