// Package cache implements the incremental fetch cache: a per-URL record of
// the last content fingerprint, fetch time, and extracted batch, persisted to
// disk so restarts do not lose freshness information.
package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/stwalsh4118/roofline/internal/models"
)

// Entry holds what the cache knows about one URL. Leads is the batch the
// extractor produced the last time the URL was fetched; when the entry is
// fresh, the orchestrator substitutes it for a live fetch+extract cycle, so
// it must be structurally identical to a fresh extraction's output.
type Entry struct {
	ContentHash string        `json:"content_hash"`
	FetchedAt   time.Time     `json:"fetched_at"`
	Leads       []models.Lead `json:"leads,omitempty"`
}

// Cache is the incremental fetch cache. All methods are safe for concurrent
// use; the single mutex is fine because entries are only touched around
// network calls, never during them.
type Cache struct {
	mu       sync.Mutex
	entries  map[string]Entry
	duration time.Duration
	path     string
	now      func() time.Time
}

// Option configures a Cache.
type Option func(*Cache)

// WithClock overrides the cache's notion of the current time.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// New creates a Cache that considers entries stale after duration and
// persists to path. If path is empty the cache is memory-only. An existing
// cache file is loaded immediately; expired entries are dropped on load.
func New(path string, duration time.Duration, opts ...Option) (*Cache, error) {
	c := &Cache{
		entries:  make(map[string]Entry),
		duration: duration,
		path:     path,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	if path != "" {
		if err := c.load(); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// ShouldFetch reports whether url needs a live fetch: true when the URL has
// never been cached or its entry has aged past the freshness window.
func (c *Cache) ShouldFetch(url string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[url]
	if !ok {
		return true
	}
	return c.now().Sub(entry.FetchedAt) > c.duration
}

// Record stores the outcome of a successful fetch+extract cycle for url.
func (c *Cache) Record(url, contentHash string, leads []models.Lead) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[url] = Entry{
		ContentHash: contentHash,
		FetchedAt:   c.now(),
		Leads:       leads,
	}
}

// Cached returns the last extracted batch for url and whether one exists.
// The returned slice is a copy; callers may mutate it freely.
func (c *Cache) Cached(url string) ([]models.Lead, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[url]
	if !ok {
		return nil, false
	}
	leads := make([]models.Lead, len(entry.Leads))
	copy(leads, entry.Leads)
	return leads, true
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Save writes the cache to disk. A no-op for memory-only caches.
func (c *Cache) Save() error {
	if c.path == "" {
		return nil
	}

	c.mu.Lock()
	data, err := json.Marshal(c.entries)
	c.mu.Unlock()
	if err != nil {
		return fmt.Errorf("failed to encode cache: %w", err)
	}

	if dir := filepath.Dir(c.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create cache directory: %w", err)
		}
	}

	// Write-then-rename so a crash mid-save never corrupts the cache file.
	tmp := c.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write cache file: %w", err)
	}
	if err := os.Rename(tmp, c.path); err != nil {
		return fmt.Errorf("failed to replace cache file: %w", err)
	}
	return nil
}

// load reads the cache file if present and discards entries older than the
// freshness window.
func (c *Cache) load() error {
	data, err := os.ReadFile(c.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read cache file: %w", err)
	}

	var entries map[string]Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		// A corrupt cache file is not fatal; start fresh.
		c.entries = make(map[string]Entry)
		return nil
	}

	cutoff := c.now().Add(-c.duration)
	c.mu.Lock()
	defer c.mu.Unlock()
	for url, entry := range entries {
		if entry.FetchedAt.After(cutoff) {
			c.entries[url] = entry
		}
	}
	return nil
}
