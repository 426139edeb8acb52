// Feedwise - Community Feed Ranking and Moderation Engine
// Copyright 2026 D. Halvorsen (dhalvorsen)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/dhalvorsen/feedwise

// Package cache provides a partitioned in-memory TTL cache with dependency
// tags for targeted invalidation.
//
// Partitions isolate subsystems so invalidating one user's profile does not
// disturb trending results. Entries may carry tags; InvalidateTag removes
// every entry tagged with a given dependency (for example all cached data
// derived from one user).
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/goccy/go-json"

	"github.com/dhalvorsen/feedwise/internal/logging"
	"github.com/dhalvorsen/feedwise/internal/metrics"
)

// Partition identifies an isolated cache namespace.
type Partition string

const (
	// PartitionUserData holds behavior profiles and per-user derived data.
	PartitionUserData Partition = "user_data"
	// PartitionAnalytics holds trending topics and aggregate statistics.
	PartitionAnalytics Partition = "analytics"
	// PartitionSearch holds ranked feed results.
	PartitionSearch Partition = "search"
	// PartitionModeration holds moderation decisions keyed by content hash.
	PartitionModeration Partition = "moderation"
)

// partitions lists every known partition, for stats and sweeping.
var partitions = []Partition{
	PartitionUserData,
	PartitionAnalytics,
	PartitionSearch,
	PartitionModeration,
}

// entry is a cached value with its expiry and dependency tags.
type entry struct {
	data      any
	expiresAt time.Time
	tags      []string
}

// Cache is a thread-safe partitioned TTL cache.
type Cache struct {
	mu sync.RWMutex

	// data maps partition -> key -> entry.
	data map[Partition]map[string]*entry

	// tagIndex maps tag -> partition -> set of keys, for O(tag) invalidation.
	tagIndex map[string]map[Partition]map[string]struct{}

	// maxEntries caps entries per partition. 0 means unlimited.
	maxEntries int

	cleanupInterval time.Duration

	hits   uint64
	misses uint64
}

// Option configures a Cache.
type Option func(*Cache)

// WithMaxEntries caps the number of entries per partition. When full, Set
// evicts the entry closest to expiry.
func WithMaxEntries(n int) Option {
	return func(c *Cache) { c.maxEntries = n }
}

// WithCleanupInterval sets the janitor sweep interval used by Serve.
func WithCleanupInterval(d time.Duration) Option {
	return func(c *Cache) { c.cleanupInterval = d }
}

// New creates an empty cache.
func New(opts ...Option) *Cache {
	c := &Cache{
		data:            make(map[Partition]map[string]*entry),
		tagIndex:        make(map[string]map[Partition]map[string]struct{}),
		cleanupInterval: time.Minute,
	}
	for _, p := range partitions {
		c.data[p] = make(map[string]*entry)
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the cached value for key in partition, or (nil, false) when
// absent or expired. Expired entries are removed lazily.
func (c *Cache) Get(partition Partition, key string) (any, bool) {
	c.mu.RLock()
	e, ok := c.data[partition][key]
	c.mu.RUnlock()

	if !ok {
		c.miss(partition)
		return nil, false
	}

	if time.Now().After(e.expiresAt) {
		c.mu.Lock()
		// Re-check under write lock; another goroutine may have replaced it.
		if cur, still := c.data[partition][key]; still && cur == e {
			c.removeLocked(partition, key, cur)
			metrics.CacheEvictionsTotal.WithLabelValues(string(partition), "expired").Inc()
		}
		c.mu.Unlock()
		c.miss(partition)
		return nil, false
	}

	c.mu.Lock()
	c.hits++
	c.mu.Unlock()
	metrics.CacheHitsTotal.WithLabelValues(string(partition)).Inc()
	return e.data, true
}

// Set stores value under key in partition with the given TTL. Optional tags
// register the entry for tag-based invalidation.
func (c *Cache) Set(partition Partition, key string, value any, ttl time.Duration, tags ...string) {
	if ttl <= 0 {
		return
	}

	e := &entry{
		data:      value,
		expiresAt: time.Now().Add(ttl),
		tags:      tags,
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if old, ok := c.data[partition][key]; ok {
		c.unindexLocked(partition, key, old)
	} else if c.maxEntries > 0 && len(c.data[partition]) >= c.maxEntries {
		c.evictSoonestLocked(partition)
	}

	c.data[partition][key] = e
	for _, tag := range tags {
		if c.tagIndex[tag] == nil {
			c.tagIndex[tag] = make(map[Partition]map[string]struct{})
		}
		if c.tagIndex[tag][partition] == nil {
			c.tagIndex[tag][partition] = make(map[string]struct{})
		}
		c.tagIndex[tag][partition][key] = struct{}{}
	}
	metrics.CacheEntries.WithLabelValues(string(partition)).Set(float64(len(c.data[partition])))
}

// Delete removes a single entry.
func (c *Cache) Delete(partition Partition, key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.data[partition][key]; ok {
		c.removeLocked(partition, key, e)
	}
}

// InvalidateTag removes every entry (in any partition) carrying the tag.
// Returns the number of entries removed.
func (c *Cache) InvalidateTag(tag string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	byPartition, ok := c.tagIndex[tag]
	if !ok {
		return 0
	}

	removed := 0
	for partition, keys := range byPartition {
		for key := range keys {
			if e, ok := c.data[partition][key]; ok {
				c.removeLocked(partition, key, e)
				metrics.CacheEvictionsTotal.WithLabelValues(string(partition), "invalidated").Inc()
				removed++
			}
		}
	}
	delete(c.tagIndex, tag)
	return removed
}

// Clear empties a partition.
func (c *Cache) Clear(partition Partition) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key, e := range c.data[partition] {
		c.unindexLocked(partition, key, e)
	}
	c.data[partition] = make(map[string]*entry)
	metrics.CacheEntries.WithLabelValues(string(partition)).Set(0)
}

// Stats reports per-partition entry counts and the overall hit rate.
type Stats struct {
	Entries map[Partition]int `json:"entries"`
	Hits    uint64            `json:"hits"`
	Misses  uint64            `json:"misses"`
	HitRate float64           `json:"hit_rate"`
}

// Stats returns a snapshot of cache statistics.
func (c *Cache) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	s := Stats{
		Entries: make(map[Partition]int, len(partitions)),
		Hits:    c.hits,
		Misses:  c.misses,
	}
	for _, p := range partitions {
		s.Entries[p] = len(c.data[p])
	}
	if total := c.hits + c.misses; total > 0 {
		s.HitRate = float64(c.hits) / float64(total)
	}
	return s
}

// Serve runs the expiry janitor until ctx is canceled. It implements
// suture.Service so the cache participates in the supervision tree.
func (c *Cache) Serve(ctx context.Context) error {
	logger := logging.With().Str("component", "cache").Logger()
	logger.Debug().Dur("interval", c.cleanupInterval).Msg("cache janitor started")

	ticker := time.NewTicker(c.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if n := c.sweep(); n > 0 {
				logger.Debug().Int("evicted", n).Msg("swept expired cache entries")
			}
		}
	}
}

// String implements fmt.Stringer for supervisor logging.
func (c *Cache) String() string { return "cache-janitor" }

// sweep removes all expired entries and returns how many were evicted.
func (c *Cache) sweep() int {
	now := time.Now()
	c.mu.Lock()
	defer c.mu.Unlock()

	evicted := 0
	for _, p := range partitions {
		for key, e := range c.data[p] {
			if now.After(e.expiresAt) {
				c.removeLocked(p, key, e)
				metrics.CacheEvictionsTotal.WithLabelValues(string(p), "expired").Inc()
				evicted++
			}
		}
	}
	return evicted
}

// miss records a cache miss.
func (c *Cache) miss(partition Partition) {
	c.mu.Lock()
	c.misses++
	c.mu.Unlock()
	metrics.CacheMissesTotal.WithLabelValues(string(partition)).Inc()
}

// removeLocked deletes an entry and its tag index references. mu must be held.
func (c *Cache) removeLocked(partition Partition, key string, e *entry) {
	c.unindexLocked(partition, key, e)
	delete(c.data[partition], key)
	metrics.CacheEntries.WithLabelValues(string(partition)).Set(float64(len(c.data[partition])))
}

// unindexLocked removes tag index references for an entry. mu must be held.
func (c *Cache) unindexLocked(partition Partition, key string, e *entry) {
	for _, tag := range e.tags {
		if byPartition, ok := c.tagIndex[tag]; ok {
			if keys, ok := byPartition[partition]; ok {
				delete(keys, key)
				if len(keys) == 0 {
					delete(byPartition, partition)
				}
			}
			if len(byPartition) == 0 {
				delete(c.tagIndex, tag)
			}
		}
	}
}

// evictSoonestLocked evicts the entry closest to expiry. mu must be held.
func (c *Cache) evictSoonestLocked(partition Partition) {
	var (
		victimKey string
		victim    *entry
	)
	for key, e := range c.data[partition] {
		if victim == nil || e.expiresAt.Before(victim.expiresAt) {
			victimKey, victim = key, e
		}
	}
	if victim != nil {
		c.removeLocked(partition, victimKey, victim)
		metrics.CacheEvictionsTotal.WithLabelValues(string(partition), "capacity").Inc()
	}
}

// UserTag returns the dependency tag for all cached data derived from a user.
func UserTag(userID string) string {
	return "user_" + userID
}

// GenerateKey builds a deterministic cache key from a prefix and parameters.
// Parameters are serialized to JSON with sorted keys and hashed, so logically
// identical requests share an entry regardless of argument ordering.
func GenerateKey(prefix string, params map[string]any) string {
	if len(params) == 0 {
		return prefix
	}

	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	ordered := make([]any, 0, len(keys)*2)
	for _, k := range keys {
		ordered = append(ordered, k, params[k])
	}

	raw, err := json.Marshal(ordered)
	if err != nil {
		// Fall back to a non-colliding but uncacheable-across-runs key.
		raw = []byte(fmt.Sprintf("%v", ordered))
	}
	sum := sha256.Sum256(raw)
	return prefix + ":" + hex.EncodeToString(sum[:16])
}
