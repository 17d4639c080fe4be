package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rickgao/ticker-feed/internal/model"
	"github.com/rickgao/ticker-feed/internal/provider"
)

// DefaultKey is the Redis key used when none is configured.
const DefaultKey = "ticker-feed:quotes"

// Config holds Redis connection settings.
type Config struct {
	Addr     string
	Password string
	DB       int
}

// NewRedisClient creates a client and verifies the connection.
func NewRedisClient(ctx context.Context, cfg Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
		PoolTimeout:  4 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect to redis at %s: %w", cfg.Addr, err)
	}
	return client, nil
}

// snapshot is the stored document.
type snapshot struct {
	FetchedAt time.Time          `json:"fetched_at"`
	Items     []model.TickerItem `json:"items"`
}

// RedisStore implements provider.Store on a single Redis key.
type RedisStore struct {
	client redis.Cmdable
	key    string
	ttl    time.Duration
}

var _ provider.Store = (*RedisStore)(nil)

// NewRedisStore creates a store. An empty key uses DefaultKey; a
// non-positive ttl stores without expiry.
func NewRedisStore(client redis.Cmdable, key string, ttl time.Duration) *RedisStore {
	if key == "" {
		key = DefaultKey
	}
	if ttl < 0 {
		ttl = 0
	}
	return &RedisStore{client: client, key: key, ttl: ttl}
}

// Key returns the Redis key holding the snapshot.
func (s *RedisStore) Key() string {
	return s.key
}

// Load returns the cached snapshot. A missing key is a miss, not an error.
func (s *RedisStore) Load(ctx context.Context) ([]model.TickerItem, time.Time, bool, error) {
	data, err := s.client.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, time.Time{}, false, nil
	}
	if err != nil {
		return nil, time.Time{}, false, fmt.Errorf("redis get %s: %w", s.key, err)
	}

	snap, err := decodeSnapshot(data)
	if err != nil {
		return nil, time.Time{}, false, err
	}
	return snap.Items, snap.FetchedAt, true, nil
}

// Save stores items with their fetch time.
func (s *RedisStore) Save(ctx context.Context, items []model.TickerItem, fetchedAt time.Time) error {
	data, err := encodeSnapshot(items, fetchedAt)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, s.key, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", s.key, err)
	}
	return nil
}

// Delete removes the snapshot.
func (s *RedisStore) Delete(ctx context.Context) error {
	if err := s.client.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", s.key, err)
	}
	return nil
}

func encodeSnapshot(items []model.TickerItem, fetchedAt time.Time) ([]byte, error) {
	if items == nil {
		items = []model.TickerItem{}
	}
	data, err := json.Marshal(snapshot{FetchedAt: fetchedAt.UTC(), Items: items})
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return data, nil
}

func decodeSnapshot(data []byte) (snapshot, error) {
	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return snapshot{}, fmt.Errorf("decode snapshot: %w", err)
	}
	if snap.FetchedAt.IsZero() {
		return snapshot{}, errors.New("decode snapshot: missing fetched_at")
	}
	return snap, nil
}
