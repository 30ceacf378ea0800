package revocation

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// revokedKeyPrefix matches the key convention consumed by operational tooling.
const revokedKeyPrefix = "revoked_jti:"

// RedisCache implements Cache over a redis client, relying on redis per-key
// expiry instead of any application-side sweeping.
type RedisCache struct {
	redis *redis.Client
}

// NewRedisCache constructs a RedisCache.
func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{redis: client}
}

func (c *RedisCache) key(jti string) string {
	return revokedKeyPrefix + jti
}

// SetRevoked writes the marker with SETNX: the first write for a jti wins, so
// a repeated Logout cannot shrink the revocation window.
func (c *RedisCache) SetRevoked(ctx context.Context, jti string, ttl time.Duration) error {
	if err := c.redis.SetNX(ctx, c.key(jti), "1", ttl).Err(); err != nil {
		return fmt.Errorf("revocation cache: %w", err)
	}
	return nil
}

// IsRevoked checks marker existence; an expired or absent key reads as not
// revoked.
func (c *RedisCache) IsRevoked(ctx context.Context, jti string) (bool, error) {
	n, err := c.redis.Exists(ctx, c.key(jti)).Result()
	if err != nil {
		return false, fmt.Errorf("revocation cache: %w", err)
	}
	return n > 0, nil
}
