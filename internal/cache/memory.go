package cache

import (
	"fmt"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// MaxMemoryEntry bounds payloads held in process memory
const MaxMemoryEntry = 32 << 20

// MemoryCache shares payloads between the splits of one run
type MemoryCache struct {
	items    *gocache.Cache
	maxEntry int
}

// NewMemoryCache creates a memory cache. A non-positive ttl never expires.
func NewMemoryCache(ttl time.Duration) *MemoryCache {
	if ttl <= 0 {
		ttl = gocache.NoExpiration
	}
	return &MemoryCache{
		items:    gocache.New(ttl, 10*time.Minute),
		maxEntry: MaxMemoryEntry,
	}
}

func (c *MemoryCache) Get(key string) ([]byte, bool) {
	v, found := c.items.Get(key)
	if !found {
		return nil, false
	}
	b, ok := v.([]byte)
	return b, ok
}

// Set keeps value unless it exceeds the entry limit
func (c *MemoryCache) Set(key string, value []byte, ttl time.Duration) error {
	if len(value) > c.maxEntry {
		return fmt.Errorf("%w: %d bytes (limit %d)", ErrTooLarge, len(value), c.maxEntry)
	}
	if ttl <= 0 {
		ttl = gocache.DefaultExpiration
	}
	c.items.Set(key, value, ttl)
	return nil
}
