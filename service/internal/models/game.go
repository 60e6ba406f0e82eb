// internal/models/game.go
package models

import (
	"time"

	"github.com/google/uuid"
	engine "github.com/jason-s-yu/klondike/engine"
)

// GameKlondike is the only game family the engine implements.
const GameKlondike = "klondike"

// Game is the persisted record of a single solitaire game.
type Game struct {
	ID       uuid.UUID       `json:"id"`
	Owner    uuid.UUID       `json:"owner"`
	Game     string          `json:"game"`  // Family, always "klondike".
	Type     string          `json:"type"`  // Display variant chosen at creation, e.g. "Klondike".
	Color    string          `json:"color"` // Card back color chosen by the player.
	DrawMode engine.DrawMode `json:"drawCount"`

	Active  bool      `json:"active"`
	Won     bool      `json:"won"`
	Score   int       `json:"score"`
	Moves   int       `json:"moves"`   // Moves, draws and autoplay steps; undo/redo excluded.
	Actions int       `json:"actions"` // Sequence number of the last published action.
	Start   time.Time `json:"start"`

	State engine.GameState `json:"state"`
}

// Clone returns a copy of g that shares no pile storage with it.
func (g *Game) Clone() *Game {
	out := *g
	out.State = g.State.Clone()
	return &out
}

// GameSummary is the trimmed view of a game used in profile listings.
type GameSummary struct {
	ID     uuid.UUID `json:"id"`
	Game   string    `json:"game"`
	Type   string    `json:"type"`
	Active bool      `json:"active"`
	Won    bool      `json:"won"`
	Score  int       `json:"score"`
	Moves  int       `json:"moves"`
	Start  time.Time `json:"start"`
}

// Summary returns the profile listing entry for g.
func (g *Game) Summary() GameSummary {
	return GameSummary{
		ID:     g.ID,
		Game:   g.Game,
		Type:   g.Type,
		Active: g.Active,
		Won:    g.Won,
		Score:  g.Score,
		Moves:  g.Moves,
		Start:  g.Start,
	}
}
