// Tastemirror - Taste Archetypes, Daily Mood Recommendations and Badges
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tastemirror

// Package cache provides a bounded in-memory TTL cache with LRU eviction.
// It memoizes item detail lookups so repeated taps on the same
// recommendation do not reach the recommendation service again.
package cache

import (
	"context"
	"crypto/sha256"
	"fmt"
	"sync"
	"time"

	"github.com/goccy/go-json"
)

const (
	defaultCapacity        = 1024
	defaultCleanupInterval = 5 * time.Minute
)

type entry[V any] struct {
	key       string
	value     V
	expiresAt time.Time
	prev      *entry[V]
	next      *entry[V]
}

// Stats is a snapshot of cache counters.
type Stats struct {
	Hits        int64
	Misses      int64
	Evictions   int64
	TotalKeys   int64
	LastCleanup time.Time
}

// Cache is a thread-safe TTL cache holding at most capacity entries.
// When full, the least recently used entry is evicted.
type Cache[V any] struct {
	mu       sync.Mutex
	items    map[string]*entry[V]
	head     *entry[V] // head.next is most recently used
	tail     *entry[V] // tail.prev is least recently used
	ttl      time.Duration
	capacity int
	now      func() time.Time
	stats    Stats
}

// New creates a cache with the given default TTL and capacity.
// Non-positive capacity falls back to 1024 entries.
//
//	details := cache.New[Details](30*time.Minute, 512)
//	details.Set(key, d)
//	if d, ok := details.Get(key); ok { ... }
func New[V any](ttl time.Duration, capacity int) *Cache[V] {
	if capacity <= 0 {
		capacity = defaultCapacity
	}
	c := &Cache[V]{
		items:    make(map[string]*entry[V], capacity),
		head:     &entry[V]{},
		tail:     &entry[V]{},
		ttl:      ttl,
		capacity: capacity,
		now:      time.Now,
	}
	c.head.next = c.tail
	c.tail.prev = c.head
	c.stats.LastCleanup = c.now()
	return c
}

// Get returns the value for key if present and not expired. Expired
// entries are removed on access.
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	e, ok := c.items[key]
	if !ok {
		c.stats.Misses++
		return zero, false
	}
	if c.now().After(e.expiresAt) {
		c.remove(e)
		c.stats.Misses++
		c.stats.Evictions++
		return zero, false
	}

	c.moveToFront(e)
	c.stats.Hits++
	return e.value, true
}

// Set stores value under key with the default TTL.
func (c *Cache[V]) Set(key string, value V) {
	c.SetWithTTL(key, value, c.ttl)
}

// SetWithTTL stores value under key with a custom TTL.
func (c *Cache[V]) SetWithTTL(key string, value V, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	expiresAt := c.now().Add(ttl)
	if e, ok := c.items[key]; ok {
		e.value = value
		e.expiresAt = expiresAt
		c.moveToFront(e)
		return
	}

	e := &entry[V]{key: key, value: value, expiresAt: expiresAt}
	c.pushFront(e)
	c.items[key] = e
	for len(c.items) > c.capacity {
		c.remove(c.tail.prev)
		c.stats.Evictions++
	}
	c.stats.TotalKeys = int64(len(c.items))
}

// Delete removes key. Missing keys are ignored.
func (c *Cache[V]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.items[key]; ok {
		c.remove(e)
		c.stats.Evictions++
	}
}

// Clear drops every entry.
func (c *Cache[V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stats.Evictions += int64(len(c.items))
	c.items = make(map[string]*entry[V], c.capacity)
	c.head.next = c.tail
	c.tail.prev = c.head
	c.stats.TotalKeys = 0
}

// Len returns the number of entries, expired ones included until cleanup.
func (c *Cache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// GetStats returns a copy of the counters.
func (c *Cache[V]) GetStats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

// HitRate returns hits as a percentage of lookups.
func (c *Cache[V]) HitRate() float64 {
	s := c.GetStats()
	total := s.Hits + s.Misses
	if total == 0 {
		return 0.0
	}
	return float64(s.Hits) / float64(total) * 100.0
}

// Cleanup removes every expired entry and returns how many were removed.
func (c *Cache[V]) Cleanup() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for e := c.tail.prev; e != c.head; {
		prev := e.prev
		if now.After(e.expiresAt) {
			c.remove(e)
			removed++
		}
		e = prev
	}
	c.stats.Evictions += int64(removed)
	c.stats.LastCleanup = now
	return removed
}

// Serve runs periodic cleanup until ctx is cancelled. It satisfies
// suture.Service so the cache janitor can be supervised.
func (c *Cache[V]) Serve(ctx context.Context) error {
	ticker := time.NewTicker(defaultCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			c.Cleanup()
		}
	}
}

// String names the janitor in supervisor logs.
func (c *Cache[V]) String() string {
	return "cache-janitor"
}

// list helpers, called with mu held

func (c *Cache[V]) pushFront(e *entry[V]) {
	e.prev = c.head
	e.next = c.head.next
	c.head.next.prev = e
	c.head.next = e
}

func (c *Cache[V]) moveToFront(e *entry[V]) {
	e.prev.next = e.next
	e.next.prev = e.prev
	c.pushFront(e)
}

func (c *Cache[V]) remove(e *entry[V]) {
	e.prev.next = e.next
	e.next.prev = e.prev
	delete(c.items, e.key)
	c.stats.TotalKeys = int64(len(c.items))
}

// GenerateKey builds a compact cache key from a method name and its
// parameters.
func GenerateKey(method string, params interface{}) string {
	data, err := json.Marshal(params)
	if err != nil {
		return fmt.Sprintf("%s:%v", method, params)
	}
	hash := sha256.Sum256(data)
	return fmt.Sprintf("%s:%x", method, hash[:16])
}
