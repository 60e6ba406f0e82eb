// internal/game/game.go
package game

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	engine "github.com/jason-s-yu/klondike/engine"
	"github.com/jason-s-yu/klondike/service/internal/cache"
	"github.com/jason-s-yu/klondike/service/internal/database"
	"github.com/jason-s-yu/klondike/service/internal/models"
	"github.com/sirupsen/logrus"
)

// Errors returned by the Service in addition to the engine's rule errors,
// which are passed through unchanged.
var (
	ErrGameNotFound     = errors.New("game not found")
	ErrForbidden        = errors.New("game belongs to another user")
	ErrUnsupportedType  = errors.New("unsupported game type")
	ErrInvalidOptions   = errors.New("invalid game options")
	ErrInvalidMoveIndex = errors.New("move index out of range")
)

// TypeKlondike is the display type of the only implemented variant.
const TypeKlondike = "Klondike"

// Action types published to the action log.
const (
	ActionCreate       = "game_create"
	ActionMove         = "game_move"
	ActionDraw         = "game_draw"
	ActionAutocomplete = "game_autocomplete"
	ActionUndo         = "game_undo"
	ActionRedo         = "game_redo"
)

// Store persists games and their move records.
type Store interface {
	CreateGame(ctx context.Context, g *models.Game) error
	GetGame(ctx context.Context, id uuid.UUID) (*models.Game, error)
	UpdateGame(ctx context.Context, g *models.Game) error
	ListGames(ctx context.Context, owner uuid.UUID) ([]*models.Game, error)
	AppendMove(ctx context.Context, m *models.MoveRecord) error
	ListMoves(ctx context.Context, gameID uuid.UUID) ([]models.MoveRecord, error)
}

// HistoryStore keeps the undo/redo history of each game.
type HistoryStore interface {
	LoadHistory(ctx context.Context, gameID uuid.UUID) (*engine.History, error)
	SaveHistory(ctx context.Context, gameID uuid.UUID, h *engine.History) error
	DeleteHistory(ctx context.Context, gameID uuid.UUID) error
}

// ActionPublisher receives an entry for every state change.
type ActionPublisher interface {
	PublishGameAction(ctx context.Context, rec cache.GameActionRecord) error
}

var (
	_ Store           = (*database.PostgresStore)(nil)
	_ Store           = (*database.MemoryStore)(nil)
	_ HistoryStore    = (*cache.RedisHistoryStore)(nil)
	_ HistoryStore    = (*cache.MemoryHistoryStore)(nil)
	_ ActionPublisher = (*cache.RedisPublisher)(nil)
	_ ActionPublisher = (*cache.MemoryPublisher)(nil)
)

// Service runs Klondike games on top of the engine. All operations on one
// game are serialized by a per-game lock; different games proceed in
// parallel.
type Service struct {
	store     Store
	history   HistoryStore
	publisher ActionPublisher
	log       *logrus.Entry

	locksMu sync.Mutex
	locks   map[uuid.UUID]*gameLock

	defaultDraw engine.DrawMode
	now         func() time.Time
	seed        func() uint64
}

// Option configures a Service.
type Option func(*Service)

// WithPublisher sets where action records are sent. Without it actions are
// only logged.
func WithPublisher(p ActionPublisher) Option {
	return func(s *Service) { s.publisher = p }
}

// WithLogger sets the base logger.
func WithLogger(l *logrus.Logger) Option {
	return func(s *Service) { s.log = l.WithField("component", "game") }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithSeedSource replaces the source of shuffle seeds.
func WithSeedSource(seed func() uint64) Option {
	return func(s *Service) { s.seed = seed }
}

// WithDefaultDraw sets the draw mode used when CreateOptions leaves it unset.
func WithDefaultDraw(m engine.DrawMode) Option {
	return func(s *Service) { s.defaultDraw = m }
}

// NewService returns a Service backed by store and history.
func NewService(store Store, history HistoryStore, opts ...Option) *Service {
	s := &Service{
		store:       store,
		history:     history,
		log:         logrus.StandardLogger().WithField("component", "game"),
		defaultDraw: engine.DrawOne,
		now:         time.Now,
		seed:        rand.Uint64,
		locks:       make(map[uuid.UUID]*gameLock),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// gameLock is the mutex of one game. refs counts holders and waiters; the
// entry leaves the table when it drops to zero.
type gameLock struct {
	mu   sync.Mutex
	refs int
}

// lock acquires the mutex of a game and returns its release function.
func (s *Service) lock(id uuid.UUID) func() {
	s.locksMu.Lock()
	l, ok := s.locks[id]
	if !ok {
		l = &gameLock{}
		s.locks[id] = l
	}
	l.refs++
	s.locksMu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		s.locksMu.Lock()
		if l.refs--; l.refs == 0 {
			delete(s.locks, id)
		}
		s.locksMu.Unlock()
	}
}

// CreateOptions are the player's choices for a new game.
type CreateOptions struct {
	Type  string          // "Klondike" if empty.
	Color string          // Card back color; required.
	Draw  engine.DrawMode // Service default if zero.
}

func (s *Service) normalize(opts CreateOptions) (CreateOptions, error) {
	switch strings.ToLower(opts.Type) {
	case "", "klondike":
		opts.Type = TypeKlondike
	default:
		return opts, fmt.Errorf("%w: %q", ErrUnsupportedType, opts.Type)
	}
	opts.Color = strings.ToLower(strings.TrimSpace(opts.Color))
	if opts.Color == "" {
		return opts, fmt.Errorf("%w: color is required", ErrInvalidOptions)
	}
	switch opts.Draw {
	case 0:
		opts.Draw = s.defaultDraw
	case engine.DrawOne, engine.DrawThree:
	default:
		return opts, fmt.Errorf("%w: draw must be 1 or 3, got %d", ErrInvalidOptions, opts.Draw)
	}
	return opts, nil
}

// CreateGame deals a new game for owner and starts its history.
func (s *Service) CreateGame(ctx context.Context, owner uuid.UUID, opts CreateOptions) (*View, error) {
	opts, err := s.normalize(opts)
	if err != nil {
		return nil, err
	}

	seed := s.seed()
	g := &models.Game{
		ID:       uuid.New(),
		Owner:    owner,
		Game:     models.GameKlondike,
		Type:     opts.Type,
		Color:    opts.Color,
		DrawMode: opts.Draw,
		Active:   true,
		Start:    s.now(),
		State:    engine.NewGame(seed),
	}

	unlock := s.lock(g.ID)
	defer unlock()

	if err := s.store.CreateGame(ctx, g); err != nil {
		s.log.WithError(err).WithField("game_id", g.ID).Error("create game failed")
		return nil, fmt.Errorf("create game: %w", err)
	}
	if err := s.history.SaveHistory(ctx, g.ID, engine.NewHistory(g.State)); err != nil {
		// The history is rebuilt from the stored state on the next load.
		s.log.WithError(err).WithField("game_id", g.ID).Warn("save initial history failed")
	}

	s.publish(ctx, g, owner, ActionCreate, map[string]interface{}{
		"type":  g.Type,
		"color": g.Color,
		"draw":  int(g.DrawMode),
		"seed":  seed,
	})
	s.log.WithFields(logrus.Fields{
		"game_id": g.ID,
		"owner":   owner,
		"draw":    g.DrawMode.String(),
	}).Info("game created")

	v := newView(g)
	return &v, nil
}

// GetGame returns the current view of a game owned by userID.
func (s *Service) GetGame(ctx context.Context, userID, gameID uuid.UUID) (*View, error) {
	unlock := s.lock(gameID)
	defer unlock()

	g, err := s.loadGame(ctx, userID, gameID)
	if err != nil {
		return nil, err
	}
	v := newView(g)
	return &v, nil
}

// ListGames returns profile summaries of every game owned by owner, newest
// first.
func (s *Service) ListGames(ctx context.Context, owner uuid.UUID) ([]models.GameSummary, error) {
	games, err := s.store.ListGames(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("list games: %w", err)
	}
	out := make([]models.GameSummary, 0, len(games))
	for _, g := range games {
		out = append(out, g.Summary())
	}
	return out, nil
}
