// internal/game/engine_adapter.go
package game

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	engine "github.com/jason-s-yu/klondike/engine"
	"github.com/jason-s-yu/klondike/service/internal/cache"
	"github.com/jason-s-yu/klondike/service/internal/database"
	"github.com/jason-s-yu/klondike/service/internal/models"
	"github.com/sirupsen/logrus"
)

const publishTimeout = 2 * time.Second

// session is a game loaded together with its history. It is only valid
// while the game lock is held.
type session struct {
	game *models.Game
	hist *engine.History
}

// loadGame fetches a game and checks that userID owns it.
// Assumes the game lock is held by the caller.
func (s *Service) loadGame(ctx context.Context, userID, gameID uuid.UUID) (*models.Game, error) {
	g, err := s.store.GetGame(ctx, gameID)
	if errors.Is(err, database.ErrNotFound) {
		return nil, ErrGameNotFound
	}
	if err != nil {
		s.log.WithError(err).WithField("game_id", gameID).Error("load game failed")
		return nil, fmt.Errorf("load game %s: %w", gameID, err)
	}
	if g.Owner != userID {
		return nil, ErrForbidden
	}
	return g, nil
}

// loadSession loads a game and its history. A missing history is restarted
// with the current state as its baseline.
// Assumes the game lock is held by the caller.
func (s *Service) loadSession(ctx context.Context, userID, gameID uuid.UUID) (*session, error) {
	g, err := s.loadGame(ctx, userID, gameID)
	if err != nil {
		return nil, err
	}
	h, err := s.history.LoadHistory(ctx, gameID)
	switch {
	case errors.Is(err, cache.ErrHistoryNotFound):
		s.log.WithField("game_id", gameID).Warn("history missing, restarting from current state")
		h = engine.NewHistory(g.State)
	case errors.Is(err, cache.ErrHistoryCorrupt):
		entry := s.log.WithError(err).WithField("game_id", gameID)
		entry.Warn("history unreadable, dropping it and restarting from current state")
		if err := s.history.DeleteHistory(ctx, gameID); err != nil {
			entry.WithError(err).Error("delete history failed")
		}
		h = engine.NewHistory(g.State)
	case err != nil:
		s.log.WithError(err).WithField("game_id", gameID).Error("load history failed")
		return nil, fmt.Errorf("load history of %s: %w", gameID, err)
	}
	return &session{game: g, hist: h}, nil
}

// commit installs next as the game's state, refreshes the derived fields
// and persists the game and its history. The history must already reflect
// the operation.
// Assumes the game lock is held by the caller.
func (s *Service) commit(ctx context.Context, sess *session, next engine.GameState) error {
	g := sess.game
	g.State = next
	g.Score = next.Score
	g.Won = next.IsWon()
	g.Active = !g.Won

	if err := s.store.UpdateGame(ctx, g); err != nil {
		s.log.WithError(err).WithField("game_id", g.ID).Error("save game failed")
		return fmt.Errorf("save game %s: %w", g.ID, err)
	}
	if err := s.history.SaveHistory(ctx, g.ID, sess.hist); err != nil {
		// The stored game is authoritative; a lost history only limits undo.
		s.log.WithError(err).WithField("game_id", g.ID).Warn("save history failed")
	}
	return nil
}

// publish sends an action record for g. Failures are logged and otherwise
// ignored.
// Assumes the game lock is held by the caller.
func (s *Service) publish(ctx context.Context, g *models.Game, actor uuid.UUID, actionType string, payload map[string]interface{}) {
	if payload == nil {
		payload = make(map[string]interface{})
	}
	rec := cache.GameActionRecord{
		GameID:        g.ID,
		ActionIndex:   g.Actions,
		ActorUserID:   actor,
		ActionType:    actionType,
		ActionPayload: payload,
		Timestamp:     s.now().UnixMilli(),
	}

	entry := s.log.WithFields(logrus.Fields{
		"game_id": g.ID,
		"op":      actionType,
		"index":   rec.ActionIndex,
		"score":   g.Score,
		"moves":   g.Moves,
	})
	entry.Debug("action")

	if s.publisher == nil {
		return
	}
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := s.publisher.PublishGameAction(pctx, rec); err != nil {
		entry.WithError(err).Error("publish action failed")
	}
}

// apply runs one recorded operation: the pre-operation state is pushed onto
// the history, the game is saved and the action is published.
// Assumes the game lock is held by the caller.
func (s *Service) apply(ctx context.Context, sess *session, actor uuid.UUID, next engine.GameState, steps int, actionType string, payload map[string]interface{}) error {
	sess.hist.Record(sess.game.State)
	sess.game.Moves += steps
	sess.game.Actions++
	if err := s.commit(ctx, sess, next); err != nil {
		return err
	}
	s.publish(ctx, sess.game, actor, actionType, payload)
	return nil
}

// rejected logs an operation the engine refused.
func (s *Service) rejected(gameID uuid.UUID, op string, err error) {
	s.log.WithFields(logrus.Fields{
		"game_id": gameID,
		"op":      op,
		"code":    engine.CodeOf(err),
	}).Info(err.Error())
}
