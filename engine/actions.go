package engine

// Validate checks m against g and, if it is legal, returns the resulting
// state. Rules are checked in a fixed order and the first failing rule
// determines the returned error. g is never modified.
func Validate(g GameState, m Move) (GameState, error) {
	if !m.Src.Valid() || !m.Dst.Valid() {
		return GameState{}, ErrInvalidPile
	}
	if err := checkRun(&g, m); err != nil {
		return GameState{}, err
	}
	if err := checkPlacement(&g, m); err != nil {
		return GameState{}, err
	}
	return apply(g, m), nil
}

// checkRun verifies the moved cards are the face-up tail of the source.
func checkRun(g *GameState, m Move) error {
	src := g.Pile(m.Src)
	n := len(m.Cards)
	if n == 0 || n > len(src) {
		return ErrCardMismatch
	}
	tail := src[len(src)-n:]
	for i, c := range m.Cards {
		if c != tail[i] {
			return ErrCardMismatch
		}
	}
	for _, c := range m.Cards {
		if !c.FaceUp {
			return ErrFaceDownMove
		}
	}
	if m.Src == DiscardPile && n != 1 {
		return ErrDiscardSingleOnly
	}
	return nil
}

// checkPlacement verifies the destination accepts the run.
func checkPlacement(g *GameState, m Move) error {
	bottom := m.Cards[0]
	top, hasTop := g.Top(m.Dst)

	switch m.Dst.Kind() {
	case KindFoundation:
		if len(m.Cards) != 1 {
			return ErrFoundationSingleOnly
		}
		if !hasTop {
			if bottom.Rank != Ace {
				return ErrFoundationNeedsAce
			}
			return nil
		}
		if bottom.Suit != top.Suit {
			return ErrFoundationSuitMismatch
		}
		if bottom.Rank != top.Rank+1 {
			return ErrFoundationSequenceBreak
		}
		return nil

	case KindTableau:
		if !hasTop {
			if bottom.Rank != King {
				return ErrTableauNeedsKing
			}
			return nil
		}
		if bottom.Color() == top.Color() {
			return ErrTableauColorMismatch
		}
		if bottom.Rank+1 != top.Rank {
			return ErrTableauSequenceBreak
		}
		return nil
	}
	return ErrInvalidDestination
}

// apply performs a move that has already been validated.
func apply(g GameState, m Move) GameState {
	next := g.Clone()
	src := next.pileRef(m.Src)
	dst := next.pileRef(m.Dst)

	n := len(m.Cards)
	run := (*src)[len(*src)-n:]
	*dst = append(*dst, run...)
	*src = (*src)[:len(*src)-n]

	next.Score = g.Score + moveScore(m.Src, m.Dst)

	if m.Src.Kind() == KindTableau && len(*src) > 0 {
		last := len(*src) - 1
		if !(*src)[last].FaceUp {
			(*src)[last] = (*src)[last].Up()
			next.Score += ScoreFlipTableau
		}
	}
	return next
}

// Draw deals min(mode, len(draw)) cards from the stock onto the discard
// pile face up, preserving their order. Whenever the stock ends up empty
// with cards on the discard pile, including right after a deal, the same
// call redraws: the discard pile is turned face down, reversed and becomes
// the new stock. If both piles are empty it fails with ErrNoCardsToDraw.
// The score is unchanged.
func Draw(g GameState, mode DrawMode) (GameState, error) {
	next := g
	if len(g.Draw) > 0 {
		next = deal(g, mode)
	}
	switch {
	case len(next.Draw) == 0 && len(next.Discard) > 0:
		return redraw(next), nil
	case len(next.Draw) == 0:
		return GameState{}, ErrNoCardsToDraw
	}
	return next, nil
}

func deal(g GameState, mode DrawMode) GameState {
	next := g.Clone()
	n := min(mode.count(), len(next.Draw))
	cut := len(next.Draw) - n
	for _, c := range next.Draw[cut:] {
		next.Discard = append(next.Discard, c.Up())
	}
	next.Draw = next.Draw[:cut]
	return next
}

func redraw(g GameState) GameState {
	next := g.Clone()
	stock := make([]Card, 0, len(next.Discard))
	for i := len(next.Discard) - 1; i >= 0; i-- {
		stock = append(stock, next.Discard[i].Down())
	}
	next.Draw = stock
	next.Discard = []Card{}
	return next
}
