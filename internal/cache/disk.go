package cache

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// DiskCache persists payloads across runs. Each key has a raw payload file
// and a JSON sidecar with its expiry and checksum.
type DiskCache struct {
	dir string
	ttl time.Duration
}

// NewDiskCache creates a disk cache rooted at dir
func NewDiskCache(dir string, ttl time.Duration) *DiskCache {
	return &DiskCache{dir: dir, ttl: ttl}
}

type diskMeta struct {
	SHA256    string    `json:"sha256"`
	Size      int       `json:"size"`
	StoredAt  time.Time `json:"stored_at"`
	ExpiresAt time.Time `json:"expires_at,omitempty"`
}

// now is swapped in tests
var now = time.Now

// Get returns the payload when it is unexpired and matches its checksum.
// Stale or damaged entries are removed.
func (c *DiskCache) Get(key string) ([]byte, bool) {
	payloadPath, metaPath := c.paths(key)

	raw, err := os.ReadFile(metaPath)
	if err != nil {
		return nil, false
	}
	var meta diskMeta
	if err := json.Unmarshal(raw, &meta); err != nil {
		c.remove(key)
		return nil, false
	}
	if !meta.ExpiresAt.IsZero() && now().After(meta.ExpiresAt) {
		c.remove(key)
		return nil, false
	}

	payload, err := os.ReadFile(payloadPath)
	if err != nil || len(payload) != meta.Size || checksum(payload) != meta.SHA256 {
		c.remove(key)
		return nil, false
	}
	return payload, true
}

// Set writes the payload, then its sidecar. Both go through a temporary
// file so a reader never sees a partial entry.
func (c *DiskCache) Set(key string, value []byte, ttl time.Duration) error {
	if ttl == 0 {
		ttl = c.ttl
	}
	meta := diskMeta{SHA256: checksum(value), Size: len(value), StoredAt: now()}
	if ttl > 0 {
		meta.ExpiresAt = meta.StoredAt.Add(ttl)
	}
	encoded, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("marshal cache metadata: %w", err)
	}

	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}

	payloadPath, metaPath := c.paths(key)
	if err := c.writeAtomic(payloadPath, value); err != nil {
		return err
	}
	return c.writeAtomic(metaPath, encoded)
}

func (c *DiskCache) writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(c.dir, "entry-*.tmp")
	if err != nil {
		return fmt.Errorf("create cache file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("write cache file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("close cache file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("commit cache file: %w", err)
	}
	return nil
}

func (c *DiskCache) remove(key string) {
	payloadPath, metaPath := c.paths(key)
	_ = os.Remove(metaPath)
	_ = os.Remove(payloadPath)
}

func (c *DiskCache) paths(key string) (payload, meta string) {
	base := filepath.Join(c.dir, sanitizeKey(key))
	return base + ".payload", base + ".json"
}

func checksum(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// sanitizeKey makes a key safe to use as a file name
func sanitizeKey(key string) string {
	return string(bytes.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			return r
		default:
			return '_'
		}
	}, []byte(key)))
}
