// internal/models/move.go
package models

import (
	"time"

	"github.com/google/uuid"
	engine "github.com/jason-s-yu/klondike/engine"
)

// MoveRecord is an accepted manual move, attributed to the user who made
// it, along with the state it produced.
type MoveRecord struct {
	ID     uuid.UUID        `json:"id"`
	GameID uuid.UUID        `json:"game"`
	UserID uuid.UUID        `json:"user"`
	Cards  []engine.Card    `json:"cards"`
	Src    engine.PileID    `json:"src"`
	Dst    engine.PileID    `json:"dst"`
	Date   time.Time        `json:"date"`
	State  engine.GameState `json:"state"`
}
