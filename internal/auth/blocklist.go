package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Blocklist tracks revoked token ids (jti) in the queue store. Each entry's
// TTL equals the revoked token's own remaining lifetime, so entries vanish
// exactly when the token would have expired anyway.
type Blocklist struct {
	redis *redis.Client
}

// NewBlocklist wraps a Redis client for token revocation checks.
func NewBlocklist(redis *redis.Client) *Blocklist {
	return &Blocklist{redis: redis}
}

func blocklistKey(jti string) string {
	return "jti:" + jti
}

// Add marks a token id revoked for the remainder of its lifetime. A token
// already past expiry needs no entry.
func (b *Blocklist) Add(ctx context.Context, jti string, remaining time.Duration) error {
	if remaining <= 0 {
		return nil
	}
	if err := b.redis.Set(ctx, blocklistKey(jti), "revoked", remaining).Err(); err != nil {
		return fmt.Errorf("add jti to blocklist: %w", err)
	}
	return nil
}

// Contains reports whether a token id has been revoked.
func (b *Blocklist) Contains(ctx context.Context, jti string) (bool, error) {
	n, err := b.redis.Exists(ctx, blocklistKey(jti)).Result()
	if err != nil {
		return false, fmt.Errorf("check jti blocklist: %w", err)
	}
	return n > 0, nil
}
