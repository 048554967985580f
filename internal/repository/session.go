package repository

import (
	"context"
	"fmt"
	"log"
	"time"

	"propertyagent/internal/config"
	"propertyagent/internal/model"

	"github.com/redis/go-redis/v9"
)

// SessionStore keeps one partially filled record per session
type SessionStore interface {
	// Get returns the record and whether one exists
	Get(ctx context.Context, sessionID string) (model.Fields, bool, error)
	Set(ctx context.Context, sessionID string, record model.Fields) error
	Delete(ctx context.Context, sessionID string) error
	Close() error
}

// NewSessionStore picks Redis when REDIS_URL is set and the in-process store otherwise.
// An unreachable Redis is logged but still returned: session memory degrades until it comes back.
func NewSessionStore(ctx context.Context, cfg *config.Config) (SessionStore, error) {
	if cfg.Redis.URL == "" {
		log.Printf("⚠️  REDIS_URL not set, using in-process session store")
		return NewInMemorySessionStore(cfg.Session.TTL), nil
	}

	opts, err := redis.ParseURL(cfg.Redis.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		log.Printf("⚠️  [Warning] Redis connection failed: %v", err)
	} else {
		log.Printf("✅ Connected to Redis at %s", opts.Addr)
	}

	return NewRedisSessionStore(client, cfg.Redis.KeyPrefix, cfg.Session.TTL), nil
}
