package engine

import "testing"

// up returns a face-up card.
func up(s Suit, r Rank) Card { return Card{Suit: s, Rank: r, FaceUp: true} }

// down returns a face-down card.
func down(s Suit, r Rank) Card { return Card{Suit: s, Rank: r} }

// emptyState returns a layout with every pile empty.
func emptyState() GameState {
	var g GameState
	for i := range g.Tableau {
		g.Tableau[i] = []Card{}
	}
	for i := range g.Foundations {
		g.Foundations[i] = []Card{}
	}
	g.Draw = []Card{}
	g.Discard = []Card{}
	return g
}

// fullSuit returns ace..king of s, face up.
func fullSuit(s Suit) []Card {
	out := make([]Card, 0, FoundationSize)
	for r := Ace; r <= King; r++ {
		out = append(out, up(s, r))
	}
	return out
}

// nearlyWon returns a state with every card on the foundations except the
// king of spades, which sits face up on pile1.
func nearlyWon() GameState {
	g := emptyState()
	g.Foundations[0] = fullSuit(Spades)[:12]
	g.Foundations[1] = fullSuit(Clubs)
	g.Foundations[2] = fullSuit(Hearts)
	g.Foundations[3] = fullSuit(Diamonds)
	g.Tableau[0] = []Card{up(Spades, King)}
	return g
}

// mustValidate applies m and fails the test on error.
func mustValidate(t *testing.T, g GameState, m Move) GameState {
	t.Helper()
	next, err := Validate(g, m)
	if err != nil {
		t.Fatalf("Validate(%v -> %v): %v", m.Src, m.Dst, err)
	}
	return next
}

// mustDraw draws and fails the test on error.
func mustDraw(t *testing.T, g GameState, mode DrawMode) GameState {
	t.Helper()
	next, err := Draw(g, mode)
	if err != nil {
		t.Fatalf("Draw: %v", err)
	}
	return next
}

// legalMoves returns every foundation and tableau move available in g.
func legalMoves(g GameState) []Move {
	return append(FoundationMoves(g), TableauMoves(g)...)
}
