// Package cache implements the two-tier enrichment cache: a bounded
// in-process tier in front of the persistent store tier. Negative lookup
// results are cached the same way as positive ones, which is what keeps
// repeated pipeline runs from hammering the rate-limited lookup APIs for
// names that never resolve.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/msavelyev/productscout/app/store"
)

const persistentKeyPrefix = "cache:"

// Entry is one memoized lookup result. A nil Payload is a cached negative
// result, distinct from the key being absent.
type Entry struct {
	Payload    json.RawMessage `json:"payload"`
	CachedAt   time.Time       `json:"cached_at"`
	TTLSeconds int64           `json:"ttl_seconds"`
}

func (e Entry) expired(now time.Time) bool {
	return now.Sub(e.CachedAt) >= time.Duration(e.TTLSeconds)*time.Second
}

type Stats struct {
	VolatileSize    int   `json:"volatile_size"`
	VolatileCap     int   `json:"volatile_capacity"`
	PersistentCount int   `json:"persistent_count"`
	Hits            int64 `json:"hits"`
	Misses          int64 `json:"misses"`
}

// TwoTier checks the volatile tier first and promotes persistent hits into
// it. The volatile tier is bounded; when full, the oldest inserted entry is
// evicted (insertion order, not access order).
type TwoTier struct {
	store    store.Store
	capacity int

	mu       sync.Mutex
	volatile map[string]Entry
	order    []string
	hits     int64
	misses   int64

	now func() time.Time
}

func New(s store.Store, capacity int) *TwoTier {
	return &TwoTier{
		store:    s,
		capacity: capacity,
		volatile: make(map[string]Entry, capacity),
		now:      time.Now,
	}
}

// Get returns the cached entry for key, or ok=false when the key is absent
// or expired in both tiers. An expired persistent entry is deleted so the
// next write starts clean.
func (c *TwoTier) Get(ctx context.Context, key string) (Entry, bool, error) {
	now := c.now()

	c.mu.Lock()
	if entry, ok := c.volatile[key]; ok {
		if !entry.expired(now) {
			c.hits++
			c.mu.Unlock()
			return entry, true, nil
		}
		c.removeVolatile(key)
	}
	c.mu.Unlock()

	data, ok, err := c.store.Get(ctx, persistentKeyPrefix+key)
	if err != nil {
		return Entry{}, false, fmt.Errorf("failed to read persistent cache for %s: %w", key, err)
	}
	if !ok {
		c.countMiss()
		return Entry{}, false, nil
	}

	var entry Entry
	if err := json.Unmarshal([]byte(data), &entry); err != nil {
		slog.Warn("Deleting malformed cache entry", "key", key, "error", err)
		c.store.Delete(ctx, persistentKeyPrefix+key)
		c.countMiss()
		return Entry{}, false, nil
	}

	if entry.expired(now) {
		if err := c.store.Delete(ctx, persistentKeyPrefix+key); err != nil {
			slog.Warn("Failed to delete expired cache entry", "key", key, "error", err)
		}
		c.countMiss()
		return Entry{}, false, nil
	}

	c.mu.Lock()
	c.insertVolatile(key, entry)
	c.hits++
	c.mu.Unlock()

	return entry, true, nil
}

// Set writes through to both tiers. A nil payload records a negative result.
func (c *TwoTier) Set(ctx context.Context, key string, payload json.RawMessage, ttl time.Duration) error {
	entry := Entry{
		Payload:    payload,
		CachedAt:   c.now().UTC(),
		TTLSeconds: int64(ttl / time.Second),
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal cache entry for %s: %w", key, err)
	}

	if err := c.store.Set(ctx, persistentKeyPrefix+key, string(data)); err != nil {
		return fmt.Errorf("failed to write persistent cache for %s: %w", key, err)
	}

	c.mu.Lock()
	c.insertVolatile(key, entry)
	c.mu.Unlock()

	return nil
}

// InvalidateByPrefix removes all entries whose key starts with prefix from
// both tiers and returns the number of persistent entries removed.
func (c *TwoTier) InvalidateByPrefix(ctx context.Context, prefix string) (int, error) {
	c.mu.Lock()
	for key := range c.volatile {
		if strings.HasPrefix(key, prefix) {
			c.removeVolatile(key)
		}
	}
	c.mu.Unlock()

	keys, err := c.store.ListKeys(ctx, persistentKeyPrefix+prefix)
	if err != nil {
		return 0, fmt.Errorf("failed to list cache keys for prefix %s: %w", prefix, err)
	}

	removed := 0
	for _, key := range keys {
		if err := c.store.Delete(ctx, key); err != nil {
			slog.Warn("Failed to delete cache entry", "key", key, "error", err)
			continue
		}
		removed++
	}

	return removed, nil
}

// CleanupExpired sweeps the persistent tier, deleting entries past their TTL.
// Returns counts of removed and kept entries.
func (c *TwoTier) CleanupExpired(ctx context.Context) (removed int, kept int, err error) {
	keys, err := c.store.ListKeys(ctx, persistentKeyPrefix)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to list cache keys: %w", err)
	}

	now := c.now()
	for _, key := range keys {
		data, ok, err := c.store.Get(ctx, key)
		if err != nil || !ok {
			continue
		}

		var entry Entry
		if err := json.Unmarshal([]byte(data), &entry); err != nil || entry.expired(now) {
			if delErr := c.store.Delete(ctx, key); delErr != nil {
				slog.Warn("Failed to delete cache entry", "key", key, "error", delErr)
				continue
			}
			c.mu.Lock()
			c.removeVolatile(strings.TrimPrefix(key, persistentKeyPrefix))
			c.mu.Unlock()
			removed++
		} else {
			kept++
		}
	}

	return removed, kept, nil
}

func (c *TwoTier) Stats(ctx context.Context) (Stats, error) {
	keys, err := c.store.ListKeys(ctx, persistentKeyPrefix)
	if err != nil {
		return Stats{}, fmt.Errorf("failed to list cache keys: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	return Stats{
		VolatileSize:    len(c.volatile),
		VolatileCap:     c.capacity,
		PersistentCount: len(keys),
		Hits:            c.hits,
		Misses:          c.misses,
	}, nil
}

// insertVolatile assumes c.mu is held.
func (c *TwoTier) insertVolatile(key string, entry Entry) {
	if _, ok := c.volatile[key]; !ok {
		for len(c.volatile) >= c.capacity && len(c.order) > 0 {
			oldest := c.order[0]
			c.order = c.order[1:]
			delete(c.volatile, oldest)
		}
		c.order = append(c.order, key)
	}
	c.volatile[key] = entry
}

// removeVolatile assumes c.mu is held.
func (c *TwoTier) removeVolatile(key string) {
	if _, ok := c.volatile[key]; !ok {
		return
	}
	delete(c.volatile, key)
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}

func (c *TwoTier) countMiss() {
	c.mu.Lock()
	c.misses++
	c.mu.Unlock()
}
