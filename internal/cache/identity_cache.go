package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"go-dive-auth/internal/model"
)

const identityKeyPrefix = "dive-auth:identity:"

// Connect parses a redis:// URL and pings the server before returning the client.
func Connect(ctx context.Context, url, password string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	if password != "" {
		opts.Password = password
	}

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return client, nil
}

// IdentityCache stores the per-user identity snapshot the access gate evaluates.
// A nil *IdentityCache is valid and caches nothing.
type IdentityCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewIdentityCache(client *redis.Client, ttl time.Duration) *IdentityCache {
	if client == nil {
		return nil
	}
	return &IdentityCache{client: client, ttl: ttl}
}

func (c *IdentityCache) Get(ctx context.Context, userID string) (model.Identity, bool, error) {
	if c == nil {
		return model.Identity{}, false, nil
	}

	raw, err := c.client.Get(ctx, identityKeyPrefix+userID).Bytes()
	if errors.Is(err, redis.Nil) {
		return model.Identity{}, false, nil
	}
	if err != nil {
		return model.Identity{}, false, fmt.Errorf("get cached identity: %w", err)
	}

	var identity model.Identity
	if err := json.Unmarshal(raw, &identity); err != nil {
		return model.Identity{}, false, fmt.Errorf("decode cached identity: %w", err)
	}
	return identity, true, nil
}

func (c *IdentityCache) Set(ctx context.Context, identity model.Identity) error {
	if c == nil {
		return nil
	}

	raw, err := json.Marshal(identity)
	if err != nil {
		return fmt.Errorf("encode identity: %w", err)
	}
	if err := c.client.Set(ctx, identityKeyPrefix+identity.UserID, raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache identity: %w", err)
	}
	return nil
}

func (c *IdentityCache) Invalidate(ctx context.Context, userID string) error {
	if c == nil {
		return nil
	}

	if err := c.client.Del(ctx, identityKeyPrefix+userID).Err(); err != nil {
		return fmt.Errorf("invalidate identity: %w", err)
	}
	return nil
}
