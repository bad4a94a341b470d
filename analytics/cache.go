package analytics

import (
	"sync"
	"time"
)

type cacheEntry struct {
	body    []byte
	fetched time.Time
}

// ResponseCache keeps proxied responses per (period, type) for a TTL.
type ResponseCache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
	ttl     time.Duration
	now     func() time.Time
}

// NewResponseCache creates a cache. A non-positive ttl disables caching.
func NewResponseCache(ttl time.Duration) *ResponseCache {
	return &ResponseCache{
		entries: make(map[string]cacheEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

func cacheKey(p Period, typ string) string {
	return string(p) + "|" + typ
}

// Get returns a fresh cached body.
func (c *ResponseCache) Get(key string) ([]byte, bool) {
	if c == nil || c.ttl <= 0 {
		return nil, false
	}
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok || c.now().Sub(e.fetched) >= c.ttl {
		return nil, false
	}
	return e.body, true
}

// Set stores body under key and drops expired entries.
func (c *ResponseCache) Set(key string, body []byte) {
	if c == nil || c.ttl <= 0 {
		return
	}
	now := c.now()
	c.mu.Lock()
	defer c.mu.Unlock()
	for k, e := range c.entries {
		if now.Sub(e.fetched) >= c.ttl {
			delete(c.entries, k)
		}
	}
	c.entries[key] = cacheEntry{body: body, fetched: now}
}

// Invalidate clears the cache so the next read triggers a fresh fetch.
func (c *ResponseCache) Invalidate() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.entries = make(map[string]cacheEntry)
	c.mu.Unlock()
}
