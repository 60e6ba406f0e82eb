// internal/cache/memory.go
package cache

import (
	"context"
	"sync"

	"github.com/google/uuid"
	engine "github.com/jason-s-yu/klondike/engine"
)

// MemoryHistoryStore is an in-process history store for tests and the
// simulator.
type MemoryHistoryStore struct {
	mu      sync.RWMutex
	entries map[uuid.UUID]engine.History
}

// NewMemoryHistoryStore returns an empty store.
func NewMemoryHistoryStore() *MemoryHistoryStore {
	return &MemoryHistoryStore{entries: make(map[uuid.UUID]engine.History)}
}

func copyHistory(h engine.History) engine.History {
	out := engine.History{
		Past:   make([]engine.GameState, len(h.Past)),
		Future: make([]engine.GameState, len(h.Future)),
	}
	for i, s := range h.Past {
		out.Past[i] = s.Clone()
	}
	for i, s := range h.Future {
		out.Future[i] = s.Clone()
	}
	return out
}

// LoadHistory returns a copy of the stored history.
func (s *MemoryHistoryStore) LoadHistory(_ context.Context, gameID uuid.UUID) (*engine.History, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	h, ok := s.entries[gameID]
	if !ok {
		return nil, ErrHistoryNotFound
	}
	out := copyHistory(h)
	return &out, nil
}

// SaveHistory stores a copy of h.
func (s *MemoryHistoryStore) SaveHistory(_ context.Context, gameID uuid.UUID, h *engine.History) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[gameID] = copyHistory(*h)
	return nil
}

// DeleteHistory removes the history of a game.
func (s *MemoryHistoryStore) DeleteHistory(_ context.Context, gameID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, gameID)
	return nil
}

// MemoryPublisher collects published actions in order.
type MemoryPublisher struct {
	mu      sync.Mutex
	records []GameActionRecord
}

// PublishGameAction appends rec.
func (p *MemoryPublisher) PublishGameAction(_ context.Context, rec GameActionRecord) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.records = append(p.records, rec)
	return nil
}

// Records returns a snapshot of everything published so far.
func (p *MemoryPublisher) Records() []GameActionRecord {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]GameActionRecord, len(p.records))
	copy(out, p.records)
	return out
}
