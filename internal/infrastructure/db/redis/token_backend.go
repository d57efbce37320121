package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "clinic:session:"

// TokenBackend persists the session token in a single Redis key.
// Key format: clinic:session:<profile>
type TokenBackend struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

// NewTokenBackend creates a TokenBackend for profile. A zero ttl keeps the
// key until it is deleted.
func NewTokenBackend(client *redis.Client, profile string, ttl time.Duration) *TokenBackend {
	if profile == "" {
		profile = "default"
	}
	return &TokenBackend{client: client, key: keyPrefix + profile, ttl: ttl}
}

// Key returns the Redis key holding the token.
func (b *TokenBackend) Key() string { return b.key }

func (b *TokenBackend) Load(ctx context.Context) (string, bool, error) {
	token, err := b.client.Get(ctx, b.key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis get token: %w", err)
	}
	return token, token != "", nil
}

func (b *TokenBackend) Save(ctx context.Context, token string) error {
	if err := b.client.Set(ctx, b.key, token, b.ttl).Err(); err != nil {
		return fmt.Errorf("redis set token: %w", err)
	}
	return nil
}

func (b *TokenBackend) Delete(ctx context.Context) error {
	if err := b.client.Del(ctx, b.key).Err(); err != nil {
		return fmt.Errorf("redis del token: %w", err)
	}
	return nil
}
