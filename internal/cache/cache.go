// Package cache provides a TTL key-value store for discovery results, backed
// by a JSON file on disk so repeated runs skip redundant network and API
// cost. Reads that find an expired entry behave as not-found; physical
// removal is deferred to the next write. A corrupt or unreadable backing
// file degrades to an empty cache rather than failing the run.
package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/daz2d/coptic-service-events/internal/logger"
)

const (
	// RegionTTL is how long a region's venue listing stays fresh. Venue
	// rosters change on the order of days.
	RegionTTL = 24 * time.Hour

	// ContactTTL is how long per-venue contact metadata stays fresh.
	// Contact details change far less often than listings.
	ContactTTL = 7 * 24 * time.Hour
)

// RegionKey returns the cache key for a region's venue listing.
func RegionKey(code string) string {
	return "region:" + strings.ToUpper(strings.TrimSpace(code))
}

// ContactKey returns the cache key for one venue's contact metadata.
func ContactKey(sourceID string) string {
	return "contact:" + sourceID
}

// Entry is one cached payload with its freshness window.
type Entry struct {
	Payload  json.RawMessage `json:"payload"`
	StoredAt time.Time       `json:"stored_at"`
	TTL      time.Duration   `json:"ttl"`
}

// valid reports whether the entry is still fresh at now.
func (e Entry) valid(now time.Time) bool {
	return now.Sub(e.StoredAt) < e.TTL
}

// Cache is a concurrency-safe TTL store. The zero value is not usable; use
// New. A Cache created with an empty path keeps entries in memory only.
type Cache struct {
	mu      sync.RWMutex
	path    string
	entries map[string]Entry

	logWriteErr sync.Once
	now         func() time.Time
}

// New loads a cache from path, creating the parent directory if needed.
// Unreadable files and unreadable individual entries are skipped; the cache
// starts empty in the worst case and the run refetches everything.
func New(path string) *Cache {
	c := &Cache{
		path:    path,
		entries: make(map[string]Entry),
		now:     time.Now,
	}
	c.load()
	return c
}

// NewMemory creates a cache with no backing file.
func NewMemory() *Cache {
	return New("")
}

func (c *Cache) load() {
	if c.path == "" {
		return
	}

	data, err := os.ReadFile(c.path)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Warn("cache file unreadable, starting empty", logger.Fields{"path": c.path, "error": err.Error()})
		}
		return
	}

	// Decode entry-by-entry so one corrupt value does not discard the rest.
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		logger.Warn("cache file corrupt, starting empty", logger.Fields{"path": c.path, "error": err.Error()})
		return
	}

	skipped := 0
	for key, blob := range raw {
		var entry Entry
		if err := json.Unmarshal(blob, &entry); err != nil || entry.StoredAt.IsZero() {
			skipped++
			continue
		}
		c.entries[key] = entry
	}
	if skipped > 0 {
		logger.Warn("skipped unreadable cache entries", logger.Fields{"path": c.path, "skipped": skipped})
	}
}

// Get returns the payload stored under key if present and unexpired.
func (c *Cache) Get(key string) (json.RawMessage, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[key]
	if !ok || !entry.valid(c.now()) {
		return nil, false
	}
	return entry.Payload, true
}

// GetJSON unmarshals the payload stored under key into v. Returns false if
// the key is absent, expired, or does not decode into v.
func (c *Cache) GetJSON(key string, v any) bool {
	payload, ok := c.Get(key)
	if !ok {
		return false
	}
	return json.Unmarshal(payload, v) == nil
}

// Set stores payload under key with the given ttl and writes through to
// disk. Expired entries are compacted away on the same pass. A write failure
// degrades to memory-only operation and is logged once.
func (c *Cache) Set(key string, payload any, ttl time.Duration) error {
	blob, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encoding cache payload for %q: %w", key, err)
	}

	c.mu.Lock()
	now := c.now()
	for k, entry := range c.entries {
		if !entry.valid(now) {
			delete(c.entries, k)
		}
	}
	c.entries[key] = Entry{Payload: blob, StoredAt: now, TTL: ttl}
	c.mu.Unlock()

	c.flush()
	return nil
}

// Invalidate removes key from the cache and the backing file.
func (c *Cache) Invalidate(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()

	c.flush()
}

// flush persists the current entries. Failures never propagate: the cache is
// an optimization, not a source of truth.
func (c *Cache) flush() {
	if c.path == "" {
		return
	}

	c.mu.RLock()
	data, err := json.MarshalIndent(c.entries, "", "  ")
	c.mu.RUnlock()
	if err == nil {
		if mkErr := os.MkdirAll(filepath.Dir(c.path), 0o755); mkErr == nil {
			err = os.WriteFile(c.path, data, 0o644)
		} else {
			err = mkErr
		}
	}
	if err != nil {
		c.logWriteErr.Do(func() {
			logger.Warn("cache not persistable, continuing in memory", logger.Fields{"path": c.path, "error": err.Error()})
		})
	}
}

// Stats summarizes cache contents for reporting.
type Stats struct {
	Entries  int `json:"entries"`
	Regions  int `json:"regions"`
	Contacts int `json:"contacts"`
	Expired  int `json:"expired"`
}

// Stats returns a point-in-time summary of cache contents.
func (c *Cache) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var s Stats
	now := c.now()
	for key, entry := range c.entries {
		s.Entries++
		switch {
		case strings.HasPrefix(key, "region:"):
			s.Regions++
		case strings.HasPrefix(key, "contact:"):
			s.Contacts++
		}
		if !entry.valid(now) {
			s.Expired++
		}
	}
	return s
}
