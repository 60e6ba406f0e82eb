// internal/game/sync_state.go
package game

import (
	"time"

	"github.com/google/uuid"
	engine "github.com/jason-s-yu/klondike/engine"
	"github.com/jason-s-yu/klondike/service/internal/models"
)

// View is the client-facing snapshot of a game.
type View struct {
	ID             uuid.UUID        `json:"id"`
	Game           string           `json:"game"`
	Type           string           `json:"type"`
	Color          string           `json:"color"`
	DrawCount      int              `json:"drawCount"`
	Start          time.Time        `json:"start"`
	Active         bool             `json:"active"`
	Won            bool             `json:"won"`
	Score          int              `json:"score"`
	Moves          int              `json:"moves"`
	CardsRemaining int              `json:"cards_remaining"`
	State          engine.GameState `json:"state"`
}

// newView builds the view of g. The state is copied.
func newView(g *models.Game) View {
	return View{
		ID:             g.ID,
		Game:           g.Game,
		Type:           g.Type,
		Color:          g.Color,
		DrawCount:      int(g.DrawMode),
		Start:          g.Start,
		Active:         g.Active,
		Won:            g.Won,
		Score:          g.Score,
		Moves:          g.Moves,
		CardsRemaining: g.State.CardsRemaining(),
		State:          g.State.Clone(),
	}
}
