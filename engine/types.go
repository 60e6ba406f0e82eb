package engine

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Suit identifies one of the four French suits.
type Suit uint8

const (
	Spades Suit = iota
	Clubs
	Hearts
	Diamonds
)

var suitNames = [...]string{"spades", "clubs", "hearts", "diamonds"}

func (s Suit) String() string {
	if int(s) < len(suitNames) {
		return suitNames[s]
	}
	return "Suit(" + strconv.Itoa(int(s)) + ")"
}

// IsRed reports whether the suit is hearts or diamonds.
func (s Suit) IsRed() bool { return s == Hearts || s == Diamonds }

// Color is derived from the suit.
type Color uint8

const (
	Black Color = iota
	Red
)

func (s Suit) Color() Color {
	if s.IsRed() {
		return Red
	}
	return Black
}

// MarshalText implements encoding.TextMarshaler.
func (s Suit) MarshalText() ([]byte, error) {
	if int(s) >= len(suitNames) {
		return nil, fmt.Errorf("invalid suit %d", s)
	}
	return []byte(suitNames[s]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Suit) UnmarshalText(b []byte) error {
	for i, name := range suitNames {
		if name == string(b) {
			*s = Suit(i)
			return nil
		}
	}
	return fmt.Errorf("unknown suit %q", b)
}

// Rank is the numeric card rank, Ace=1 through King=13.
type Rank uint8

const (
	Ace   Rank = 1
	Two   Rank = 2
	Three Rank = 3
	Four  Rank = 4
	Five  Rank = 5
	Six   Rank = 6
	Seven Rank = 7
	Eight Rank = 8
	Nine  Rank = 9
	Ten   Rank = 10
	Jack  Rank = 11
	Queen Rank = 12
	King  Rank = 13
)

// Valid reports whether r is within Ace..King.
func (r Rank) Valid() bool { return r >= Ace && r <= King }

func (r Rank) String() string {
	switch r {
	case Ace:
		return "ace"
	case Jack:
		return "jack"
	case Queen:
		return "queen"
	case King:
		return "king"
	}
	return strconv.Itoa(int(r))
}

// MarshalJSON encodes face ranks as strings and pip ranks as numbers,
// e.g. "ace", 7, "queen".
func (r Rank) MarshalJSON() ([]byte, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("invalid rank %d", r)
	}
	switch r {
	case Ace, Jack, Queen, King:
		return json.Marshal(r.String())
	}
	return []byte(strconv.Itoa(int(r))), nil
}

// UnmarshalJSON accepts both the string and numeric forms.
func (r *Rank) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		var n int
		if err := json.Unmarshal(b, &n); err != nil {
			return fmt.Errorf("rank: %w", err)
		}
		s = strconv.Itoa(n)
	}
	switch s {
	case "ace":
		*r = Ace
	case "jack":
		*r = Jack
	case "queen":
		*r = Queen
	case "king":
		*r = King
	default:
		n, err := strconv.Atoi(s)
		if err != nil || n < 2 || n > 10 {
			return fmt.Errorf("unknown rank %q", s)
		}
		*r = Rank(n)
	}
	return nil
}

// Card is an immutable playing card value.
type Card struct {
	Suit   Suit `json:"suit"`
	Rank   Rank `json:"value"`
	FaceUp bool `json:"up"`
}

// NewCard returns a face-down card.
func NewCard(s Suit, r Rank) Card { return Card{Suit: s, Rank: r} }

// Up returns a face-up copy of c.
func (c Card) Up() Card {
	c.FaceUp = true
	return c
}

// Down returns a face-down copy of c.
func (c Card) Down() Card {
	c.FaceUp = false
	return c
}

// Color returns the derived card color.
func (c Card) Color() Color { return c.Suit.Color() }

func (c Card) String() string {
	s := c.Rank.String() + " of " + c.Suit.String()
	if !c.FaceUp {
		s += " (down)"
	}
	return s
}

// Move asks to transfer the trailing run Cards of Src onto Dst.
type Move struct {
	Cards []Card `json:"cards"`
	Src   PileID `json:"src"`
	Dst   PileID `json:"dst"`
}

// DrawMode is the number of cards dealt from the stock per draw.
type DrawMode uint8

const (
	DrawOne   DrawMode = 1
	DrawThree DrawMode = 3
)

// count returns the effective number of cards per draw, treating
// out-of-range values as DrawOne.
func (m DrawMode) count() int {
	if m == DrawThree {
		return 3
	}
	return 1
}

func (m DrawMode) String() string {
	return "Draw " + strconv.Itoa(m.count())
}

// ParseDrawMode accepts "Draw 1", "Draw 3", "1" or "3".
func ParseDrawMode(s string) (DrawMode, error) {
	switch s {
	case "Draw 1", "1":
		return DrawOne, nil
	case "Draw 3", "3":
		return DrawThree, nil
	}
	return 0, fmt.Errorf("unknown draw mode %q", s)
}
