// internal/game/special_actions.go
package game

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	engine "github.com/jason-s-yu/klondike/engine"
	"github.com/jason-s-yu/klondike/service/internal/models"
)

// Move validates m against the game and applies it. The move is recorded
// with userID as its author.
func (s *Service) Move(ctx context.Context, userID, gameID uuid.UUID, m engine.Move) (*View, error) {
	unlock := s.lock(gameID)
	defer unlock()

	sess, err := s.loadSession(ctx, userID, gameID)
	if err != nil {
		return nil, err
	}
	next, err := engine.Validate(sess.game.State, m)
	if err != nil {
		s.rejected(gameID, ActionMove, err)
		return nil, err
	}

	payload := map[string]interface{}{
		"cards": m.Cards,
		"src":   m.Src.String(),
		"dst":   m.Dst.String(),
	}
	if err := s.apply(ctx, sess, userID, next, 1, ActionMove, payload); err != nil {
		return nil, err
	}

	rec := &models.MoveRecord{
		ID:     uuid.New(),
		GameID: gameID,
		UserID: userID,
		Cards:  append([]engine.Card(nil), m.Cards...),
		Src:    m.Src,
		Dst:    m.Dst,
		Date:   s.now(),
		State:  next.Clone(),
	}
	if err := s.store.AppendMove(ctx, rec); err != nil {
		s.log.WithError(err).WithField("game_id", gameID).Error("append move failed")
		return nil, fmt.Errorf("record move: %w", err)
	}

	v := newView(sess.game)
	return &v, nil
}

// Draw deals from the stock using the game's draw mode. Once the stock is
// empty the discard pile is turned back into the stock in the same call.
func (s *Service) Draw(ctx context.Context, userID, gameID uuid.UUID) (*View, error) {
	unlock := s.lock(gameID)
	defer unlock()

	sess, err := s.loadSession(ctx, userID, gameID)
	if err != nil {
		return nil, err
	}
	next, err := engine.Draw(sess.game.State, sess.game.DrawMode)
	if err != nil {
		s.rejected(gameID, ActionDraw, err)
		return nil, err
	}
	payload := map[string]interface{}{"redraw": len(next.Discard) == 0}
	if err := s.apply(ctx, sess, userID, next, 1, ActionDraw, payload); err != nil {
		return nil, err
	}
	v := newView(sess.game)
	return &v, nil
}

// Autocomplete sends every reachable card to the foundations. A run that
// makes no move leaves the game and its history untouched.
func (s *Service) Autocomplete(ctx context.Context, userID, gameID uuid.UUID) (*View, error) {
	unlock := s.lock(gameID)
	defer unlock()

	sess, err := s.loadSession(ctx, userID, gameID)
	if err != nil {
		return nil, err
	}
	res := engine.Autocomplete(sess.game.State, sess.game.DrawMode)
	if res.Moves == 0 {
		v := newView(sess.game)
		return &v, nil
	}
	payload := map[string]interface{}{
		"steps":      res.Moves,
		"foundation": res.FoundationMoves,
	}
	if err := s.apply(ctx, sess, userID, res.State, res.Moves, ActionAutocomplete, payload); err != nil {
		return nil, err
	}
	v := newView(sess.game)
	return &v, nil
}

// Undo restores the state before the last move, draw or autocomplete.
func (s *Service) Undo(ctx context.Context, userID, gameID uuid.UUID) (*View, error) {
	return s.travel(ctx, userID, gameID, ActionUndo, (*engine.History).Undo)
}

// Redo reapplies the last undone operation.
func (s *Service) Redo(ctx context.Context, userID, gameID uuid.UUID) (*View, error) {
	return s.travel(ctx, userID, gameID, ActionRedo, (*engine.History).Redo)
}

func (s *Service) travel(ctx context.Context, userID, gameID uuid.UUID, op string, step func(*engine.History, engine.GameState) (engine.GameState, error)) (*View, error) {
	unlock := s.lock(gameID)
	defer unlock()

	sess, err := s.loadSession(ctx, userID, gameID)
	if err != nil {
		return nil, err
	}
	next, err := step(sess.hist, sess.game.State)
	if err != nil {
		s.rejected(gameID, op, err)
		return nil, err
	}
	sess.game.Actions++
	if err := s.commit(ctx, sess, next); err != nil {
		return nil, err
	}
	s.publish(ctx, sess.game, userID, op, nil)
	v := newView(sess.game)
	return &v, nil
}

// CheckGameOver reports whether the game can no longer make progress: it is
// not won and no card can reach a foundation even after cycling the stock.
func (s *Service) CheckGameOver(ctx context.Context, userID, gameID uuid.UUID) (bool, error) {
	unlock := s.lock(gameID)
	defer unlock()

	g, err := s.loadGame(ctx, userID, gameID)
	if err != nil {
		return false, err
	}
	return !g.Won && !engine.HasMoveToFoundation(g.State, g.DrawMode), nil
}

// ListMoves returns the recorded manual moves of a game, oldest first.
func (s *Service) ListMoves(ctx context.Context, userID, gameID uuid.UUID) ([]models.MoveRecord, error) {
	unlock := s.lock(gameID)
	defer unlock()

	if _, err := s.loadGame(ctx, userID, gameID); err != nil {
		return nil, err
	}
	moves, err := s.store.ListMoves(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("list moves: %w", err)
	}
	return moves, nil
}

// StateAt returns the state recorded after the index-th manual move
// (0-based).
func (s *Service) StateAt(ctx context.Context, userID, gameID uuid.UUID, index int) (engine.GameState, error) {
	moves, err := s.ListMoves(ctx, userID, gameID)
	if err != nil {
		return engine.GameState{}, err
	}
	if index < 0 || index >= len(moves) {
		return engine.GameState{}, fmt.Errorf("%w: %d of %d", ErrInvalidMoveIndex, index, len(moves))
	}
	return moves[index].State, nil
}
