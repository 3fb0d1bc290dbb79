// Reelmates - Letterboxd Pair Scraping and Recommendation Engine
// Copyright 2026 Reelmates Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/reelmates/reelmates

// Package cache provides a thread-safe LRU cache with TTL support.
// The metadata resolver uses it to avoid redundant TMDB lookups for
// titles that recur across pipeline runs.
package cache

import (
	"sync"
	"time"
)

// entry is a node in the doubly-linked recency list.
type entry[V any] struct {
	key       string
	value     V
	prev      *entry[V]
	next      *entry[V]
	expiresAt time.Time
}

// LRU implements a thread-safe Least Recently Used cache with TTL support.
//
// Key features:
//   - O(1) Get, Add, Remove operations
//   - O(1) eviction when capacity is reached
//   - TTL with lazy expiration on read
//
// The implementation uses a doubly-linked list for ordering and a map for
// lookups; head.next is the most recently used entry, tail.prev the least.
type LRU[V any] struct {
	mu sync.Mutex

	capacity int
	ttl      time.Duration

	items map[string]*entry[V]

	// head and tail are sentinel nodes for the recency list.
	head *entry[V]
	tail *entry[V]

	hits   int64
	misses int64
}

// NewLRU creates an LRU cache with the given capacity and TTL.
// Non-positive values fall back to 1024 entries and 24h.
func NewLRU[V any](capacity int, ttl time.Duration) *LRU[V] {
	if capacity <= 0 {
		capacity = 1024
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}

	c := &LRU[V]{
		capacity: capacity,
		ttl:      ttl,
		items:    make(map[string]*entry[V], capacity),
		head:     &entry[V]{},
		tail:     &entry[V]{},
	}
	c.head.next = c.tail
	c.tail.prev = c.head

	return c
}

// Get retrieves a value from the cache. Found entries are moved to the
// front of the recency list. Expired entries are removed lazily.
func (c *LRU[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	e, ok := c.items[key]
	if !ok {
		c.misses++
		return zero, false
	}

	if time.Now().After(e.expiresAt) {
		c.removeLocked(e)
		c.misses++
		return zero, false
	}

	c.moveToFrontLocked(e)
	c.hits++
	return e.value, true
}

// Add inserts or updates a value. When the cache is at capacity the least
// recently used entry is evicted.
func (c *LRU[V]) Add(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.items[key]; ok {
		e.value = value
		e.expiresAt = time.Now().Add(c.ttl)
		c.moveToFrontLocked(e)
		return
	}

	if len(c.items) >= c.capacity {
		c.removeLocked(c.tail.prev)
	}

	e := &entry[V]{
		key:       key,
		value:     value,
		expiresAt: time.Now().Add(c.ttl),
	}
	c.items[key] = e
	c.pushFrontLocked(e)
}

// Remove deletes a key from the cache. Returns true if the key was present.
func (c *LRU[V]) Remove(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.items[key]
	if !ok {
		return false
	}
	c.removeLocked(e)
	return true
}

// Len returns the number of entries currently in the cache, including
// entries that have expired but not yet been lazily removed.
func (c *LRU[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Stats returns cumulative hit and miss counts.
func (c *LRU[V]) Stats() (hits, misses int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}

// Purge removes all entries.
func (c *LRU[V]) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make(map[string]*entry[V], c.capacity)
	c.head.next = c.tail
	c.tail.prev = c.head
}

// pushFrontLocked inserts e right after the head sentinel.
func (c *LRU[V]) pushFrontLocked(e *entry[V]) {
	e.prev = c.head
	e.next = c.head.next
	c.head.next.prev = e
	c.head.next = e
}

// moveToFrontLocked detaches e and reinserts it at the front.
func (c *LRU[V]) moveToFrontLocked(e *entry[V]) {
	e.prev.next = e.next
	e.next.prev = e.prev
	c.pushFrontLocked(e)
}

// removeLocked detaches e from the list and deletes it from the map.
func (c *LRU[V]) removeLocked(e *entry[V]) {
	e.prev.next = e.next
	e.next.prev = e.prev
	delete(c.items, e.key)
}
