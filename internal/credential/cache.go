package credential

import (
	"context"
	"sync"
	"time"
)

const (
	positiveCacheTTL   = 5 * time.Minute
	negativeCacheTTL   = 30 * time.Second
	maxCacheEntries    = 10000
	cacheCleanupPeriod = 60 * time.Second
)

// cacheEntry is a cached verify outcome for one tenant ID. A nil tenant
// with found=false is a negative cache entry.
type cacheEntry struct {
	tenant    *cachedTenant
	found     bool
	fetchedAt time.Time
}

// cachedTenant is the subset of tenant state the cache needs to answer a
// verify call without another store round trip.
type cachedTenant struct {
	tenantID   string
	keyHash    string
	salt       string
	iterations int
	revoked    bool
}

func (e cacheEntry) ttl() time.Duration {
	if e.found {
		return positiveCacheTTL
	}

	return negativeCacheTTL
}

// verifyCache is a bounded in-process cache of (tenant_id -> key_hash, salt,
// iterations) with positive and negative entries and background eviction.
// When full it drops expired entries first, then arbitrary ones; it keeps
// no recency order, so it is not an LRU. Adapted from the
// teacher's internal/middleware/auth_cache.go, re-keyed on tenant ID
// instead of a hash of the presented key since C1 operates on
// (tenant_id, presented_key) pairs.
type verifyCache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
}

func newVerifyCache(ctx context.Context) *verifyCache {
	c := &verifyCache{entries: make(map[string]cacheEntry)}
	go c.evictLoop(ctx)

	return c
}

func (c *verifyCache) get(tenantID string) (cacheEntry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[tenantID]
	if !ok || time.Since(entry.fetchedAt) >= entry.ttl() {
		return cacheEntry{}, false
	}

	return entry, true
}

func (c *verifyCache) putFound(tenantID string, t *cachedTenant) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.evictIfFullLocked()
	c.entries[tenantID] = cacheEntry{tenant: t, found: true, fetchedAt: time.Now()}
}

func (c *verifyCache) putNotFound(tenantID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.evictIfFullLocked()
	c.entries[tenantID] = cacheEntry{found: false, fetchedAt: time.Now()}
}

func (c *verifyCache) invalidate(tenantID string) {
	c.mu.Lock()
	delete(c.entries, tenantID)
	c.mu.Unlock()
}

// evictIfFullLocked drops expired entries, then arbitrary entries if still
// over maxCacheEntries. Caller must hold c.mu.
func (c *verifyCache) evictIfFullLocked() {
	if len(c.entries) < maxCacheEntries {
		return
	}

	now := time.Now()
	for k, v := range c.entries {
		if now.Sub(v.fetchedAt) >= v.ttl() {
			delete(c.entries, k)
		}
	}

	for k := range c.entries {
		if len(c.entries) < maxCacheEntries {
			break
		}

		delete(c.entries, k)
	}
}

func (c *verifyCache) evictLoop(ctx context.Context) {
	ticker := time.NewTicker(cacheCleanupPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.mu.Lock()
			now := time.Now()
			for k, v := range c.entries {
				if now.Sub(v.fetchedAt) >= v.ttl() {
					delete(c.entries, k)
				}
			}
			c.mu.Unlock()
		}
	}
}
