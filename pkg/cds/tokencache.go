package cds

import (
	"context"
	"sync"
	"time"
)

// TokenCache stores tokens by key. Get reports ok=false for a missing or
// expired entry.
type TokenCache interface {
	Get(ctx context.Context, key string) (Token, bool, error)
	Set(ctx context.Context, key string, tok Token, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// MemoryTokenCache is a process-local TokenCache.
type MemoryTokenCache struct {
	mu     sync.RWMutex
	tokens map[string]memoryEntry
	now    func() time.Time
}

type memoryEntry struct {
	tok     Token
	expires time.Time
}

// NewMemoryTokenCache creates an empty MemoryTokenCache.
func NewMemoryTokenCache() *MemoryTokenCache {
	return &MemoryTokenCache{tokens: make(map[string]memoryEntry), now: time.Now}
}

// Get implements TokenCache.
func (c *MemoryTokenCache) Get(_ context.Context, key string) (Token, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.tokens[key]
	if !ok || !c.now().Before(e.expires) {
		return Token{}, false, nil
	}
	return e.tok, true, nil
}

// Set implements TokenCache. A non-positive ttl stores nothing.
func (c *MemoryTokenCache) Set(_ context.Context, key string, tok Token, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tokens[key] = memoryEntry{tok: tok, expires: c.now().Add(ttl)}
	return nil
}

// Delete implements TokenCache.
func (c *MemoryTokenCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.tokens, key)
	return nil
}
