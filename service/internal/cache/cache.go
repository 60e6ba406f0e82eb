// internal/cache/cache.go
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	engine "github.com/jason-s-yu/klondike/engine"
	"github.com/redis/go-redis/v9"
)

// ActionsKey is the Redis list that receives published game actions.
const ActionsKey = "klondike:actions"

// ErrHistoryNotFound is returned when no undo/redo history is cached for a game.
var ErrHistoryNotFound = errors.New("history not found")

// ErrHistoryCorrupt is returned when a cached history cannot be decoded.
var ErrHistoryCorrupt = errors.New("history corrupt")

// GameActionRecord is one entry in the action log of a game.
type GameActionRecord struct {
	GameID        uuid.UUID              `json:"game_id"`
	ActionIndex   int                    `json:"action_index"`
	ActorUserID   uuid.UUID              `json:"actor_user_id"`
	ActionType    string                 `json:"action_type"`
	ActionPayload map[string]interface{} `json:"action_payload"`
	Timestamp     int64                  `json:"timestamp"` // Unix milliseconds.
}

// NewClient creates a Redis client and checks the connection.
func NewClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("ping redis %s: %w", addr, err)
	}
	return rdb, nil
}

func historyKey(gameID uuid.UUID) string {
	return "klondike:history:" + gameID.String()
}

// RedisHistoryStore keeps each game's undo/redo stacks as a JSON value that
// expires after ttl of inactivity.
type RedisHistoryStore struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisHistoryStore returns a store using rdb. A zero ttl keeps entries forever.
func NewRedisHistoryStore(rdb *redis.Client, ttl time.Duration) *RedisHistoryStore {
	return &RedisHistoryStore{rdb: rdb, ttl: ttl}
}

// LoadHistory returns the cached history of a game.
func (s *RedisHistoryStore) LoadHistory(ctx context.Context, gameID uuid.UUID) (*engine.History, error) {
	data, err := s.rdb.Get(ctx, historyKey(gameID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrHistoryNotFound
	}
	if err != nil {
		return nil, err
	}
	var h engine.History
	if err := json.Unmarshal(data, &h); err != nil {
		return nil, fmt.Errorf("%w: game %s: %v", ErrHistoryCorrupt, gameID, err)
	}
	return &h, nil
}

// SaveHistory replaces the cached history of a game and refreshes its TTL.
func (s *RedisHistoryStore) SaveHistory(ctx context.Context, gameID uuid.UUID, h *engine.History) error {
	data, err := json.Marshal(h)
	if err != nil {
		return fmt.Errorf("encode history: %w", err)
	}
	return s.rdb.Set(ctx, historyKey(gameID), data, s.ttl).Err()
}

// DeleteHistory drops the cached history of a game.
func (s *RedisHistoryStore) DeleteHistory(ctx context.Context, gameID uuid.UUID) error {
	return s.rdb.Del(ctx, historyKey(gameID)).Err()
}

// RedisPublisher appends action records to the ActionsKey list.
type RedisPublisher struct {
	rdb *redis.Client
}

// NewRedisPublisher returns a publisher using rdb.
func NewRedisPublisher(rdb *redis.Client) *RedisPublisher {
	return &RedisPublisher{rdb: rdb}
}

// PublishGameAction pushes rec onto the actions list.
func (p *RedisPublisher) PublishGameAction(ctx context.Context, rec GameActionRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return p.rdb.RPush(ctx, ActionsKey, data).Err()
}
