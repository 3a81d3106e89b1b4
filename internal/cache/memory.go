package cache

import (
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/ppiankov/claimcheck/internal/model"
)

// MemoryCache keeps search results in process memory with TTL expiry
type MemoryCache struct {
	cache *gocache.Cache
}

// NewMemoryCache creates a new memory cache
func NewMemoryCache(defaultTTL time.Duration, cleanupInterval time.Duration) *MemoryCache {
	return &MemoryCache{
		cache: gocache.New(defaultTTL, cleanupInterval),
	}
}

// Get returns a copy of the cached results
func (c *MemoryCache) Get(key string) ([]model.SearchResult, bool) {
	val, found := c.cache.Get(key)
	if !found {
		return nil, false
	}
	results, ok := val.([]model.SearchResult)
	if !ok {
		return nil, false
	}
	return cloneResults(results), true
}

// Set stores results; ttl 0 uses the default expiration
func (c *MemoryCache) Set(key string, results []model.SearchResult, ttl time.Duration) error {
	c.cache.Set(key, cloneResults(results), ttl)
	return nil
}

// Delete removes a value from the cache
func (c *MemoryCache) Delete(key string) error {
	c.cache.Delete(key)
	return nil
}

// Clear removes all values from the cache
func (c *MemoryCache) Clear() error {
	c.cache.Flush()
	return nil
}

// Len returns the number of cached queries, including expired ones not yet cleaned up
func (c *MemoryCache) Len() int {
	return c.cache.ItemCount()
}
