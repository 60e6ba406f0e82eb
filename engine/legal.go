package engine

// foundationMoveFrom returns the first legal move of the top card of src
// onto a foundation, scanning stack1..stack4.
func foundationMoveFrom(g *GameState, src PileID) (Move, bool) {
	top, ok := g.Top(src)
	if !ok || !top.FaceUp {
		return Move{}, false
	}
	for i := 0; i < NumFoundations; i++ {
		m := Move{Cards: []Card{top}, Src: src, Dst: Foundation(i)}
		if checkRun(g, m) == nil && checkPlacement(g, m) == nil {
			return m, true
		}
	}
	return Move{}, false
}

// NextFoundationMove returns the move autoplay would make next from g
// without drawing: tableau piles are scanned in order first, then the
// discard top.
func NextFoundationMove(g GameState) (Move, bool) {
	for i := 0; i < NumTableau; i++ {
		if m, ok := foundationMoveFrom(&g, Tableau(i)); ok {
			return m, true
		}
	}
	return foundationMoveFrom(&g, DiscardPile)
}

// FoundationMoves lists every legal single-card move onto a foundation
// from the tableau tops and the discard top.
func FoundationMoves(g GameState) []Move {
	var out []Move
	srcs := make([]PileID, 0, NumTableau+1)
	for i := 0; i < NumTableau; i++ {
		srcs = append(srcs, Tableau(i))
	}
	srcs = append(srcs, DiscardPile)
	for _, src := range srcs {
		top, ok := g.Top(src)
		if !ok || !top.FaceUp {
			continue
		}
		for i := 0; i < NumFoundations; i++ {
			m := Move{Cards: []Card{top}, Src: src, Dst: Foundation(i)}
			if checkRun(&g, m) == nil && checkPlacement(&g, m) == nil {
				out = append(out, m)
			}
		}
	}
	return out
}

// TableauMoves lists every legal move of a face-up run from a tableau pile
// or the discard top onto another tableau pile. Moving a king that is
// already the bottom of its pile onto an empty pile is omitted.
func TableauMoves(g GameState) []Move {
	var out []Move
	for s := 0; s < NumTableau; s++ {
		src := g.Tableau[s]
		for start := len(src) - 1; start >= 0 && src[start].FaceUp; start-- {
			if start == 0 && src[0].Rank == King {
				break
			}
			out = appendTableauTargets(out, &g, Tableau(s), src[start:])
		}
	}
	if top, ok := g.Top(DiscardPile); ok && top.FaceUp {
		out = appendTableauTargets(out, &g, DiscardPile, []Card{top})
	}
	return out
}

func appendTableauTargets(out []Move, g *GameState, src PileID, run []Card) []Move {
	for d := 0; d < NumTableau; d++ {
		dst := Tableau(d)
		if dst == src {
			continue
		}
		m := Move{Cards: clonePile(run), Src: src, Dst: dst}
		if checkRun(g, m) == nil && checkPlacement(g, m) == nil {
			out = append(out, m)
		}
	}
	return out
}
