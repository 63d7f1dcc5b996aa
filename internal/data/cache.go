package data

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"paper-trader/internal/model"
)

type cacheEntry struct {
	bars      []model.Bar
	expiresAt time.Time
}

// BarCache is an in-memory TTL cache of fetched bar series.
//
// Market data licences usually forbid redistribution, so the cache is meant
// for local development only; config leaves it off when env is production.
// A nil *BarCache is valid and never hits.
type BarCache struct {
	mu    sync.RWMutex
	store map[string]cacheEntry
	ttl   time.Duration
	now   func() time.Time

	stop     chan struct{}
	stopOnce sync.Once
}

// NewBarCache starts a cache whose entries live for ttl. Call Close to stop
// the background cleanup.
func NewBarCache(ttl time.Duration) *BarCache {
	if ttl <= 0 {
		ttl = time.Hour
	}
	c := &BarCache{
		store: make(map[string]cacheEntry),
		ttl:   ttl,
		now:   time.Now,
		stop:  make(chan struct{}),
	}
	go c.cleanup(5 * time.Minute)
	return c
}

// Get returns a copy of the cached bars if present and not expired.
func (c *BarCache) Get(key string) ([]model.Bar, bool) {
	if c == nil {
		return nil, false
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.store[key]
	if !ok || c.now().After(entry.expiresAt) {
		return nil, false
	}
	return append([]model.Bar(nil), entry.bars...), true
}

func (c *BarCache) Set(key string, bars []model.Bar) {
	if c == nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.store[key] = cacheEntry{
		bars:      append([]model.Bar(nil), bars...),
		expiresAt: c.now().Add(c.ttl),
	}
}

func (c *BarCache) Len() int {
	if c == nil {
		return 0
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.store)
}

func (c *BarCache) Clear() {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store = make(map[string]cacheEntry)
}

func (c *BarCache) Close() {
	if c == nil {
		return
	}
	c.stopOnce.Do(func() { close(c.stop) })
}

func (c *BarCache) cleanup(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			c.evictExpired()
		}
	}
}

func (c *BarCache) evictExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	for key, entry := range c.store {
		if now.After(entry.expiresAt) {
			delete(c.store, key)
		}
	}
}

// barCacheKey hashes every parameter that changes the returned series.
func barCacheKey(symbol string, p BarsParams) string {
	keyStr := fmt.Sprintf("%s:%s:%s:%s:%s:%d",
		symbol,
		p.Timeframe,
		p.Start.UTC().Format(time.RFC3339),
		p.End.UTC().Format(time.RFC3339),
		p.Feed,
		p.Limit,
	)
	hash := sha256.Sum256([]byte(keyStr))
	return hex.EncodeToString(hash[:])
}
