package cds

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rotisserie/eris"
)

// RedisTokenCache shares tokens between app instances through Redis. Entries
// expire through the Redis TTL.
type RedisTokenCache struct {
	client redis.UniversalClient
}

// NewRedisTokenCache wraps an existing client. The caller owns its lifecycle.
func NewRedisTokenCache(client redis.UniversalClient) *RedisTokenCache {
	return &RedisTokenCache{client: client}
}

// Get implements TokenCache.
func (c *RedisTokenCache) Get(ctx context.Context, key string) (Token, bool, error) {
	raw, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return Token{}, false, nil
	}
	if err != nil {
		return Token{}, false, eris.Wrap(err, "cds: redis get token")
	}
	var tok Token
	if err := json.Unmarshal(raw, &tok); err != nil {
		return Token{}, false, eris.Wrap(err, "cds: decode cached token")
	}
	return tok, true, nil
}

// Set implements TokenCache. A non-positive ttl stores nothing.
func (c *RedisTokenCache) Set(ctx context.Context, key string, tok Token, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	raw, err := json.Marshal(tok)
	if err != nil {
		return eris.Wrap(err, "cds: encode token")
	}
	return eris.Wrap(c.client.Set(ctx, key, raw, ttl).Err(), "cds: redis set token")
}

// Delete implements TokenCache.
func (c *RedisTokenCache) Delete(ctx context.Context, key string) error {
	return eris.Wrap(c.client.Del(ctx, key).Err(), "cds: redis delete token")
}

// NewRedisClient parses a redis:// URL and pings the server.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, eris.Wrap(err, "cds: parse redis url")
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, eris.Wrap(err, "cds: redis ping")
	}
	return client, nil
}
