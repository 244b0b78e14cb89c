package cache

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Cache is an explicit handle around an in-process TTL store. It is
// constructed once at startup and passed to the components that need it; the
// underlying janitor sweeps expired entries on the configured interval.
// Authorization decisions are never cached, only ancestor-chain lookups, so
// staleness is bounded by the TTL and corrected on every write through
// Invalidate.
type Cache struct {
	store *gocache.Cache
}

// New returns a cache with the given default TTL and sweep interval.
func New(ttl, sweepInterval time.Duration) *Cache {
	return &Cache{store: gocache.New(ttl, sweepInterval)}
}

// Disabled returns a nil cache handle; all operations on it are no-ops, so
// callers do not branch on configuration.
func Disabled() *Cache {
	return nil
}

func (c *Cache) Get(key string) (interface{}, bool) {
	if c == nil {
		return nil, false
	}
	return c.store.Get(key)
}

func (c *Cache) Set(key string, value interface{}) {
	if c == nil {
		return
	}
	c.store.SetDefault(key, value)
}

func (c *Cache) Invalidate(key string) {
	if c == nil {
		return
	}
	c.store.Delete(key)
}

func (c *Cache) Flush() {
	if c == nil {
		return
	}
	c.store.Flush()
}

func (c *Cache) Len() int {
	if c == nil {
		return 0
	}
	return c.store.ItemCount()
}
