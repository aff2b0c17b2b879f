package app

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisTokenCache implements TokenCache on top of Redis so that several dashboard
// instances share one PayPal token.
type RedisTokenCache struct {
	client redis.UniversalClient
}

func NewRedisTokenCache(client redis.UniversalClient) *RedisTokenCache {
	return &RedisTokenCache{client: client}
}

// TokenCacheKey derives the cache key from the client id without storing the id itself.
func TokenCacheKey(prefix, clientID string) string {
	trimmedPrefix := strings.TrimSuffix(strings.TrimSpace(prefix), ":")
	sum := sha256.Sum256([]byte(clientID))
	return trimmedPrefix + ":" + hex.EncodeToString(sum[:8])
}

func (c *RedisTokenCache) Get(ctx context.Context, key string) (string, bool, error) {
	token, err := c.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return token, true, nil
}

func (c *RedisTokenCache) Set(ctx context.Context, key, token string, ttl time.Duration) error {
	return c.client.Set(ctx, key, token, ttl).Err()
}
