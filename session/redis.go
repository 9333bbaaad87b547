package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// DefaultStorageKey is the fixed key the persisted session lives under
// when the host does not override it.
const DefaultStorageKey = "clubauth:session"

var errRedisUnavailable = errors.New("session redis unavailable")

// RedisStorage persists the session record in Redis under a fixed key.
type RedisStorage struct {
	redis *redis.Client
	key   string
}

// NewRedisStorage creates a storage on client. An empty key falls back
// to [DefaultStorageKey].
func NewRedisStorage(client *redis.Client, key string) *RedisStorage {
	if key == "" {
		key = DefaultStorageKey
	}
	return &RedisStorage{redis: client, key: key}
}

func (s *RedisStorage) Write(ctx context.Context, rec Record) error {
	encoded, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	if err := s.redis.Set(ctx, s.key, encoded, 0).Err(); err != nil {
		return fmt.Errorf("%w: %v", errRedisUnavailable, err)
	}
	return nil
}

func (s *RedisStorage) Read(ctx context.Context) (Record, error) {
	data, err := s.redis.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return Record{}, ErrNoRecord
	}
	if err != nil {
		return Record{}, fmt.Errorf("%w: %v", errRedisUnavailable, err)
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		// A corrupt record is as good as no record.
		return Record{}, ErrNoRecord
	}
	return rec, nil
}

func (s *RedisStorage) Delete(ctx context.Context) error {
	if err := s.redis.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("%w: %v", errRedisUnavailable, err)
	}
	return nil
}
