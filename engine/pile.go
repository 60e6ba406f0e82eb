package engine

import (
	"encoding/json"
	"fmt"
)

// PileID names one of the thirteen piles of a Klondike layout.
type PileID uint8

const (
	Pile1 PileID = iota
	Pile2
	Pile3
	Pile4
	Pile5
	Pile6
	Pile7
	Stack1
	Stack2
	Stack3
	Stack4
	DrawPile
	DiscardPile

	numPiles = int(DiscardPile) + 1
)

const (
	NumTableau     = 7
	NumFoundations = 4
	DeckSize       = 52
	FoundationSize = 13
)

// PileKind groups piles by the rules that govern them.
type PileKind uint8

const (
	KindInvalid PileKind = iota
	KindTableau
	KindFoundation
	KindDraw
	KindDiscard
)

var pileNames = [numPiles]string{
	"pile1", "pile2", "pile3", "pile4", "pile5", "pile6", "pile7",
	"stack1", "stack2", "stack3", "stack4",
	"draw", "discard",
}

// Tableau returns the id of the i-th tableau pile (0-based).
func Tableau(i int) PileID { return Pile1 + PileID(i) }

// Foundation returns the id of the i-th foundation stack (0-based).
func Foundation(i int) PileID { return Stack1 + PileID(i) }

// Kind classifies p. Unknown ids report KindInvalid.
func (p PileID) Kind() PileKind {
	switch {
	case p <= Pile7:
		return KindTableau
	case p <= Stack4:
		return KindFoundation
	case p == DrawPile:
		return KindDraw
	case p == DiscardPile:
		return KindDiscard
	}
	return KindInvalid
}

// Valid reports whether p names an existing pile.
func (p PileID) Valid() bool { return int(p) < numPiles }

func (p PileID) String() string {
	if p.Valid() {
		return pileNames[p]
	}
	return fmt.Sprintf("PileID(%d)", uint8(p))
}

// ParsePile maps a pile name such as "pile3" or "discard" to its id.
func ParsePile(name string) (PileID, error) {
	for i, n := range pileNames {
		if n == name {
			return PileID(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidPile, name)
}

// MarshalText implements encoding.TextMarshaler.
func (p PileID) MarshalText() ([]byte, error) {
	if !p.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidPile, uint8(p))
	}
	return []byte(pileNames[p]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *PileID) UnmarshalText(b []byte) error {
	id, err := ParsePile(string(b))
	if err != nil {
		return err
	}
	*p = id
	return nil
}

// GameState is the complete Klondike layout plus the running score.
//
// A GameState is treated as a value: operations in this package never
// modify their input and always return a state whose slices are not
// shared with it.
type GameState struct {
	Tableau     [NumTableau][]Card
	Foundations [NumFoundations][]Card
	Draw        []Card
	Discard     []Card
	Score       int
}

// Pile returns the cards of p, bottom first. The returned slice aliases
// the state and must not be modified.
func (g *GameState) Pile(p PileID) []Card {
	if ref := g.pileRef(p); ref != nil {
		return *ref
	}
	return nil
}

func (g *GameState) pileRef(p PileID) *[]Card {
	switch p.Kind() {
	case KindTableau:
		return &g.Tableau[p-Pile1]
	case KindFoundation:
		return &g.Foundations[p-Stack1]
	case KindDraw:
		return &g.Draw
	case KindDiscard:
		return &g.Discard
	}
	return nil
}

// Top returns the most accessible card of p.
func (g *GameState) Top(p PileID) (Card, bool) {
	cards := g.Pile(p)
	if len(cards) == 0 {
		return Card{}, false
	}
	return cards[len(cards)-1], true
}

// Clone returns a deep copy of the state.
func (g GameState) Clone() GameState {
	out := GameState{Score: g.Score}
	for i := range g.Tableau {
		out.Tableau[i] = clonePile(g.Tableau[i])
	}
	for i := range g.Foundations {
		out.Foundations[i] = clonePile(g.Foundations[i])
	}
	out.Draw = clonePile(g.Draw)
	out.Discard = clonePile(g.Discard)
	return out
}

func clonePile(cards []Card) []Card {
	out := make([]Card, len(cards))
	copy(out, cards)
	return out
}

// Equal reports whether two states hold identical piles and score.
// Nil and empty piles compare equal.
func (g *GameState) Equal(o *GameState) bool {
	if g.Score != o.Score {
		return false
	}
	for p := PileID(0); int(p) < numPiles; p++ {
		a, b := g.Pile(p), o.Pile(p)
		if len(a) != len(b) {
			return false
		}
		for i := range a {
			if a[i] != b[i] {
				return false
			}
		}
	}
	return true
}

// AllCards returns every card in the layout, in pile order.
func (g *GameState) AllCards() []Card {
	out := make([]Card, 0, DeckSize)
	for p := PileID(0); int(p) < numPiles; p++ {
		out = append(out, g.Pile(p)...)
	}
	return out
}

// FoundationCount returns the number of cards on all foundations.
func (g *GameState) FoundationCount() int {
	n := 0
	for _, f := range g.Foundations {
		n += len(f)
	}
	return n
}

// CardsRemaining is the number of cards not yet on a foundation.
func (g *GameState) CardsRemaining() int { return DeckSize - g.FoundationCount() }

// wireState is the flat JSON shape of a GameState.
type wireState struct {
	Pile1   []Card `json:"pile1"`
	Pile2   []Card `json:"pile2"`
	Pile3   []Card `json:"pile3"`
	Pile4   []Card `json:"pile4"`
	Pile5   []Card `json:"pile5"`
	Pile6   []Card `json:"pile6"`
	Pile7   []Card `json:"pile7"`
	Stack1  []Card `json:"stack1"`
	Stack2  []Card `json:"stack2"`
	Stack3  []Card `json:"stack3"`
	Stack4  []Card `json:"stack4"`
	Draw    []Card `json:"draw"`
	Discard []Card `json:"discard"`
	Score   int    `json:"score"`
}

func (w *wireState) piles() [numPiles]*[]Card {
	return [numPiles]*[]Card{
		&w.Pile1, &w.Pile2, &w.Pile3, &w.Pile4, &w.Pile5, &w.Pile6, &w.Pile7,
		&w.Stack1, &w.Stack2, &w.Stack3, &w.Stack4,
		&w.Draw, &w.Discard,
	}
}

// MarshalJSON encodes the state as a flat object keyed by pile name.
func (g GameState) MarshalJSON() ([]byte, error) {
	w := wireState{Score: g.Score}
	for i, ref := range w.piles() {
		cards := g.Pile(PileID(i))
		if cards == nil {
			cards = []Card{}
		}
		*ref = cards
	}
	return json.Marshal(w)
}

// UnmarshalJSON decodes the flat pile-keyed form produced by MarshalJSON.
func (g *GameState) UnmarshalJSON(b []byte) error {
	var w wireState
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	var out GameState
	out.Score = w.Score
	for i, ref := range w.piles() {
		*out.pileRef(PileID(i)) = *ref
	}
	*g = out
	return nil
}
