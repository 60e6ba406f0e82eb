// internal/database/database.go
package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	engine "github.com/jason-s-yu/klondike/engine"
	"github.com/jason-s-yu/klondike/service/internal/models"
)

// ErrNotFound is returned when a game does not exist.
var ErrNotFound = errors.New("not found")

const schema = `
CREATE TABLE IF NOT EXISTS games (
	id          UUID PRIMARY KEY,
	owner_id    UUID NOT NULL,
	game        TEXT NOT NULL,
	type        TEXT NOT NULL,
	color       TEXT NOT NULL,
	draw_count  SMALLINT NOT NULL,
	active      BOOLEAN NOT NULL,
	won         BOOLEAN NOT NULL,
	score       INTEGER NOT NULL,
	moves       INTEGER NOT NULL,
	actions     INTEGER NOT NULL,
	start_time  TIMESTAMPTZ NOT NULL,
	state       JSONB NOT NULL
);
CREATE INDEX IF NOT EXISTS games_owner_idx ON games (owner_id, start_time DESC);

CREATE TABLE IF NOT EXISTS moves (
	seq         BIGSERIAL PRIMARY KEY,
	id          UUID NOT NULL UNIQUE,
	game_id     UUID NOT NULL REFERENCES games (id) ON DELETE CASCADE,
	user_id     UUID NOT NULL,
	cards       JSONB NOT NULL,
	src         TEXT NOT NULL,
	dst         TEXT NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL,
	state       JSONB NOT NULL
);
CREATE INDEX IF NOT EXISTS moves_game_idx ON moves (game_id, seq);
`

// Connect opens a pgx pool for databaseURL and verifies it with a ping.
func Connect(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open pool: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}

// PostgresStore persists games and move records in PostgreSQL.
type PostgresStore struct {
	db *pgxpool.Pool
}

// NewPostgresStore wraps an open pool.
func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migrate creates the tables if they do not exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.db.Exec(ctx, schema)
	return err
}

const gameColumns = `id, owner_id, game, type, color, draw_count, active, won, score, moves, actions, start_time, state`

// CreateGame inserts a new game.
func (s *PostgresStore) CreateGame(ctx context.Context, g *models.Game) error {
	state, err := json.Marshal(g.State)
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	query := `INSERT INTO games (` + gameColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
	_, err = s.db.Exec(ctx, query,
		g.ID,
		g.Owner,
		g.Game,
		g.Type,
		g.Color,
		int16(g.DrawMode),
		g.Active,
		g.Won,
		g.Score,
		g.Moves,
		g.Actions,
		g.Start,
		state,
	)
	return err
}

// GetGame loads a game by id.
func (s *PostgresStore) GetGame(ctx context.Context, id uuid.UUID) (*models.Game, error) {
	query := `SELECT ` + gameColumns + ` FROM games WHERE id = $1`
	g, err := scanGame(s.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return g, err
}

// UpdateGame writes the mutable columns of g.
func (s *PostgresStore) UpdateGame(ctx context.Context, g *models.Game) error {
	state, err := json.Marshal(g.State)
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	query := `UPDATE games
		SET active = $2, won = $3, score = $4, moves = $5, actions = $6, state = $7
		WHERE id = $1`
	tag, err := s.db.Exec(ctx, query, g.ID, g.Active, g.Won, g.Score, g.Moves, g.Actions, state)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListGames returns the games owned by owner, newest first.
func (s *PostgresStore) ListGames(ctx context.Context, owner uuid.UUID) ([]*models.Game, error) {
	query := `SELECT ` + gameColumns + ` FROM games WHERE owner_id = $1 ORDER BY start_time DESC`
	rows, err := s.db.Query(ctx, query, owner)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var games []*models.Game
	for rows.Next() {
		g, err := scanGame(rows)
		if err != nil {
			return nil, err
		}
		games = append(games, g)
	}
	return games, rows.Err()
}

// AppendMove records an accepted move.
func (s *PostgresStore) AppendMove(ctx context.Context, m *models.MoveRecord) error {
	cards, err := json.Marshal(m.Cards)
	if err != nil {
		return fmt.Errorf("encode cards: %w", err)
	}
	state, err := json.Marshal(m.State)
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	query := `INSERT INTO moves (id, game_id, user_id, cards, src, dst, created_at, state)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err = s.db.Exec(ctx, query,
		m.ID,
		m.GameID,
		m.UserID,
		cards,
		m.Src.String(),
		m.Dst.String(),
		m.Date,
		state,
	)
	return err
}

// ListMoves returns the moves of a game in the order they were made.
func (s *PostgresStore) ListMoves(ctx context.Context, gameID uuid.UUID) ([]models.MoveRecord, error) {
	query := `SELECT id, game_id, user_id, cards, src, dst, created_at, state
		FROM moves WHERE game_id = $1 ORDER BY seq`
	rows, err := s.db.Query(ctx, query, gameID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var moves []models.MoveRecord
	for rows.Next() {
		var (
			m         models.MoveRecord
			cards, st []byte
			src, dst  string
		)
		if err := rows.Scan(&m.ID, &m.GameID, &m.UserID, &cards, &src, &dst, &m.Date, &st); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(cards, &m.Cards); err != nil {
			return nil, fmt.Errorf("decode cards of move %s: %w", m.ID, err)
		}
		if err := json.Unmarshal(st, &m.State); err != nil {
			return nil, fmt.Errorf("decode state of move %s: %w", m.ID, err)
		}
		if m.Src, err = engine.ParsePile(src); err != nil {
			return nil, err
		}
		if m.Dst, err = engine.ParsePile(dst); err != nil {
			return nil, err
		}
		moves = append(moves, m)
	}
	return moves, rows.Err()
}

func scanGame(row pgx.Row) (*models.Game, error) {
	var (
		g     models.Game
		draw  int16
		state []byte
	)
	err := row.Scan(
		&g.ID,
		&g.Owner,
		&g.Game,
		&g.Type,
		&g.Color,
		&draw,
		&g.Active,
		&g.Won,
		&g.Score,
		&g.Moves,
		&g.Actions,
		&g.Start,
		&state,
	)
	if err != nil {
		return nil, err
	}
	g.DrawMode = engine.DrawMode(draw)
	if err := json.Unmarshal(state, &g.State); err != nil {
		return nil, fmt.Errorf("decode state of game %s: %w", g.ID, err)
	}
	return &g, nil
}
