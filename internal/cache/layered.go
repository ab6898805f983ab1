package cache

import (
	"errors"
	"time"
)

// LayeredCache reads memory, then disk. Disk hits are copied into memory.
type LayeredCache struct {
	memory *MemoryCache
	disk   *DiskCache
}

// NewLayeredCache creates a cache persisted under dir
func NewLayeredCache(dir string, ttl time.Duration) *LayeredCache {
	return &LayeredCache{
		memory: NewMemoryCache(ttl),
		disk:   NewDiskCache(dir, ttl),
	}
}

func (c *LayeredCache) Get(key string) ([]byte, bool) {
	if val, found := c.memory.Get(key); found {
		return val, true
	}
	val, found := c.disk.Get(key)
	if !found {
		return nil, false
	}
	_ = c.memory.Set(key, val, 0)
	return val, true
}

// Set persists value to disk and keeps it in memory when it fits
func (c *LayeredCache) Set(key string, value []byte, ttl time.Duration) error {
	if err := c.disk.Set(key, value, ttl); err != nil {
		return err
	}
	if err := c.memory.Set(key, value, ttl); err != nil && !errors.Is(err, ErrTooLarge) {
		return err
	}
	return nil
}
