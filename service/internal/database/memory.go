// internal/database/memory.go
package database

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	engine "github.com/jason-s-yu/klondike/engine"
	"github.com/jason-s-yu/klondike/service/internal/models"
)

// MemoryStore keeps games and moves in process. Records are copied on the
// way in and out so callers never share state with the store.
type MemoryStore struct {
	mu    sync.RWMutex
	games map[uuid.UUID]*models.Game
	moves map[uuid.UUID][]models.MoveRecord
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		games: make(map[uuid.UUID]*models.Game),
		moves: make(map[uuid.UUID][]models.MoveRecord),
	}
}

func copyMove(m models.MoveRecord) models.MoveRecord {
	m.Cards = append([]engine.Card(nil), m.Cards...)
	m.State = m.State.Clone()
	return m
}

// CreateGame stores g. Creating an id twice is an error.
func (s *MemoryStore) CreateGame(_ context.Context, g *models.Game) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.games[g.ID]; ok {
		return fmt.Errorf("game %s already exists", g.ID)
	}
	s.games[g.ID] = g.Clone()
	return nil
}

// GetGame returns a copy of the game.
func (s *MemoryStore) GetGame(_ context.Context, id uuid.UUID) (*models.Game, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.games[id]
	if !ok {
		return nil, ErrNotFound
	}
	return g.Clone(), nil
}

// UpdateGame replaces a stored game.
func (s *MemoryStore) UpdateGame(_ context.Context, g *models.Game) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.games[g.ID]; !ok {
		return ErrNotFound
	}
	s.games[g.ID] = g.Clone()
	return nil
}

// ListGames returns the games of owner, newest first.
func (s *MemoryStore) ListGames(_ context.Context, owner uuid.UUID) ([]*models.Game, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Game
	for _, g := range s.games {
		if g.Owner == owner {
			out = append(out, g.Clone())
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Start.After(out[j].Start) })
	return out, nil
}

// AppendMove records a move.
func (s *MemoryStore) AppendMove(_ context.Context, m *models.MoveRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.moves[m.GameID] = append(s.moves[m.GameID], copyMove(*m))
	return nil
}

// ListMoves returns the moves of a game in insertion order.
func (s *MemoryStore) ListMoves(_ context.Context, gameID uuid.UUID) ([]models.MoveRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	src := s.moves[gameID]
	out := make([]models.MoveRecord, len(src))
	for i, m := range src {
		out[i] = copyMove(m)
	}
	return out, nil
}
