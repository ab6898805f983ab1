// Package cache stores downloaded source payloads between splits and runs.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/pdevulapally/fakeverifier-data/internal/model"
)

// Cache holds payloads keyed by Key. A ttl of zero uses the cache default.
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
}

// ErrTooLarge is returned when a payload exceeds a layer's entry limit
var ErrTooLarge = errors.New("payload too large for cache")

// Key generates a cache key from a source URL
func Key(url string) string {
	hash := sha256.Sum256([]byte(url))
	return "fakeverifier:v1:" + hex.EncodeToString(hash[:])
}

// New builds the cache described by cfg. A disabled cache stores nothing;
// an empty directory keeps entries in memory only.
func New(cfg model.CacheConfig) Cache {
	if !cfg.Enabled {
		return Noop{}
	}
	if cfg.Dir == "" {
		return NewMemoryCache(cfg.TTL)
	}
	return NewLayeredCache(cfg.Dir, cfg.TTL)
}

// Noop is a cache that never hits
type Noop struct{}

func (Noop) Get(string) ([]byte, bool)               { return nil, false }
func (Noop) Set(string, []byte, time.Duration) error { return nil }
