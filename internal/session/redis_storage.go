package session

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

// RedisStorage persists session snapshots as plain string keys in Redis.
// Keys have no TTL: a session survives reloads and restarts until it is
// overwritten by a fresh initialization or the attempt is submitted.
type RedisStorage struct {
	rdb *redis.Client
}

// NewRedisStorage creates a Redis-backed Storage.
func NewRedisStorage(rdb *redis.Client) *RedisStorage {
	return &RedisStorage{rdb: rdb}
}

// Read fetches the snapshot stored under key.
func (s *RedisStorage) Read(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := s.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return data, true, nil
}

// Write stores the snapshot under key.
func (s *RedisStorage) Write(ctx context.Context, key string, data []byte) error {
	return s.rdb.Set(ctx, key, data, 0).Err()
}
