package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/layer-3/xamanauth/core"
	"github.com/layer-3/xamanauth/ports"
	"github.com/redis/go-redis/v9"
)

// RedisStore keeps the session record in Redis
type RedisStore struct {
	client *redis.Client
	key    string
}

// NewRedisStore creates a Redis store for the given record key
func NewRedisStore(client *redis.Client, key string) *RedisStore {
	if key == "" {
		key = DefaultKey
	}
	return &RedisStore{
		client: client,
		key:    "xamanauth:" + key,
	}
}

var _ ports.SessionStore = (*RedisStore)(nil)

// Restore loads the session record
func (s *RedisStore) Restore(ctx context.Context) (*core.Session, error) {
	data, err := s.client.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	return restoreRecord(ctx, data, s.Clear)
}

// Save stores the session record without expiry; SET replaces it atomically
func (s *RedisStore) Save(ctx context.Context, session core.Session) error {
	data, err := encodeSession(session)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, s.key, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// Clear deletes the session record
func (s *RedisStore) Clear(ctx context.Context) error {
	if err := s.client.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}
