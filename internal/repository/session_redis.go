package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"propertyagent/internal/model"

	"github.com/redis/go-redis/v9"
)

// RedisSessionStore stores each session record as a JSON string
type RedisSessionStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisSessionStore wraps client; ttl 0 keeps records until deleted
func NewRedisSessionStore(client *redis.Client, prefix string, ttl time.Duration) *RedisSessionStore {
	return &RedisSessionStore{client: client, prefix: prefix, ttl: ttl}
}

func (s *RedisSessionStore) key(sessionID string) string {
	return s.prefix + sessionID
}

func (s *RedisSessionStore) Get(ctx context.Context, sessionID string) (model.Fields, bool, error) {
	data, err := s.client.Get(ctx, s.key(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get %s: %w", sessionID, err)
	}

	var record model.Fields
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, false, fmt.Errorf("decode session %s: %w", sessionID, err)
	}
	return record, true, nil
}

func (s *RedisSessionStore) Set(ctx context.Context, sessionID string, record model.Fields) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode session %s: %w", sessionID, err)
	}
	if err := s.client.Set(ctx, s.key(sessionID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", sessionID, err)
	}
	return nil
}

func (s *RedisSessionStore) Delete(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, s.key(sessionID)).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", sessionID, err)
	}
	return nil
}

func (s *RedisSessionStore) Close() error {
	return s.client.Close()
}
