// Package engine implements the Klondike solitaire rules.
//
// Every operation is a pure function of an explicit GameState: it either
// returns a new, independent state or a *RuleError and leaves its input
// untouched. The package holds no mutable globals and performs no I/O, so
// callers serialize access per game and own persistence.
package engine

import (
	"errors"
	"fmt"
	"math/rand/v2"
)

// ErrInvalidDeck is returned by Deal and Verify when the cards are not
// exactly one standard 52-card deck.
var ErrInvalidDeck = errors.New("not a standard 52-card deck")

// NewDeck returns the 52 cards in suit-major order, all face down.
func NewDeck() []Card {
	deck := make([]Card, 0, DeckSize)
	for s := Spades; s <= Diamonds; s++ {
		for r := Ace; r <= King; r++ {
			deck = append(deck, NewCard(s, r))
		}
	}
	return deck
}

// Shuffle returns a uniformly random permutation of a fresh deck, all cards
// face down. rng must not be nil.
func Shuffle(rng *rand.Rand) []Card {
	deck := NewDeck()
	// Fisher-Yates.
	for i := len(deck) - 1; i > 0; i-- {
		j := rng.IntN(i + 1)
		deck[i], deck[j] = deck[j], deck[i]
	}
	return deck
}

// NewRand returns a deterministic generator for seed.
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// Deal lays out deck: pile i (1..7) receives i cards with only the last
// one face up, and the remaining 24 cards form the draw pile. The first
// card of deck goes to pile1; the last card of deck is the top of the draw
// pile. Deal is deterministic in deck.
func Deal(deck []Card) (GameState, error) {
	if err := verifyCards(deck); err != nil {
		return GameState{}, err
	}

	var g GameState
	next := 0
	for i := 0; i < NumTableau; i++ {
		pile := make([]Card, 0, i+1)
		for j := 0; j <= i; j++ {
			c := deck[next].Down()
			next++
			if j == i {
				c = c.Up()
			}
			pile = append(pile, c)
		}
		g.Tableau[i] = pile
	}

	g.Draw = make([]Card, 0, DeckSize-next)
	for _, c := range deck[next:] {
		g.Draw = append(g.Draw, c.Down())
	}
	for i := range g.Foundations {
		g.Foundations[i] = []Card{}
	}
	g.Discard = []Card{}
	return g, nil
}

// NewGame shuffles with a generator seeded from seed and deals.
func NewGame(seed uint64) GameState {
	g, err := Deal(Shuffle(NewRand(seed)))
	if err != nil {
		// Shuffle always yields a full deck.
		panic(err)
	}
	return g
}

// Verify checks the deck-conservation invariant: the piles together hold
// every card of one standard deck exactly once.
func (g *GameState) Verify() error {
	return verifyCards(g.AllCards())
}

func verifyCards(cards []Card) error {
	if len(cards) != DeckSize {
		return fmt.Errorf("%w: have %d cards", ErrInvalidDeck, len(cards))
	}
	var seen [4][King + 1]bool
	for _, c := range cards {
		if c.Suit > Diamonds || !c.Rank.Valid() {
			return fmt.Errorf("%w: malformed card %v", ErrInvalidDeck, c)
		}
		if seen[c.Suit][c.Rank] {
			return fmt.Errorf("%w: duplicate %v", ErrInvalidDeck, c.Down())
		}
		seen[c.Suit][c.Rank] = true
	}
	return nil
}

// IsWon reports whether every foundation holds a complete suit.
func (g *GameState) IsWon() bool {
	for _, f := range g.Foundations {
		if len(f) != FoundationSize {
			return false
		}
	}
	return true
}
