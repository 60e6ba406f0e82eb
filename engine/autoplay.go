package engine

// AutoplayResult summarizes an Autocomplete run.
type AutoplayResult struct {
	State GameState
	// Moves counts every applied step: foundation moves plus the draws
	// and redraws that exposed them.
	Moves int
	// FoundationMoves counts only the cards sent to a foundation.
	FoundationMoves int
}

// Autocomplete greedily sends cards to the foundations. Each pass tries the
// tableau tops in pile order, then the discard top, and otherwise draws
// from the stock (or redraws). Steps are scored exactly as Validate scores
// them.
//
// The returned state is the one reached by the last foundation move;
// draws made after it found nothing and are dropped, so running
// Autocomplete on its own result makes no moves. If no foundation move is
// found at all, g is returned unchanged.
//
// The solver does not backtrack and can stop short of a win that a
// different move order would reach.
func Autocomplete(g GameState, mode DrawMode) AutoplayResult {
	best := AutoplayResult{State: g}
	cur := g
	moves, foundation, redraws := 0, 0, 0

	for {
		if m, ok := NextFoundationMove(cur); ok {
			cur = apply(cur, m)
			moves++
			foundation++
			redraws = 0
			best = AutoplayResult{State: cur, Moves: moves, FoundationMoves: foundation}
			continue
		}
		var ok bool
		if cur, ok = advance(cur, mode, &redraws); !ok {
			return best
		}
		moves++
	}
}
