package autoconf

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// ProgramCache stores compiled expression programs keyed by expression strings.
type ProgramCache interface {
	Get(key string) (any, bool)
	Set(key string, value any)
}

// WithProgramCache registers a program cache used by the default evaluator.
func WithProgramCache(cache ProgramCache) ResolverOption {
	return func(cfg *resolverConfig) {
		cfg.programCache = cache
	}
}

// MemoryProgramCache is a ProgramCache backed by go-cache. Entries expire after
// the configured TTL; a TTL of zero keeps them forever.
type MemoryProgramCache struct {
	cache *gocache.Cache
	ttl   time.Duration
}

// NewMemoryProgramCache constructs an in-memory cache with ttl expiry.
func NewMemoryProgramCache(ttl time.Duration) *MemoryProgramCache {
	expiration := ttl
	cleanup := ttl * 2
	if ttl <= 0 {
		expiration = gocache.NoExpiration
		cleanup = 0
	}
	return &MemoryProgramCache{
		cache: gocache.New(expiration, cleanup),
		ttl:   expiration,
	}
}

// Get implements ProgramCache.
func (c *MemoryProgramCache) Get(key string) (any, bool) {
	if c == nil {
		return nil, false
	}
	return c.cache.Get(key)
}

// Set implements ProgramCache.
func (c *MemoryProgramCache) Set(key string, value any) {
	if c == nil {
		return
	}
	c.cache.Set(key, value, gocache.DefaultExpiration)
}

// Len returns the number of unexpired programs.
func (c *MemoryProgramCache) Len() int {
	if c == nil {
		return 0
	}
	return c.cache.ItemCount()
}
