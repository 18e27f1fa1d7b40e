// Package cache provides a generic sharded LRU cache. Keys are hashed onto a
// fixed set of shards, each guarded by its own mutex, so concurrent readers
// and writers rarely contend on the same lock.
package cache

import (
	"hash/fnv"
	"sync"
)

const (
	// shardCount is the number of shards. Must be a power of two so shard
	// selection reduces to a bitwise AND of the key hash.
	shardCount = 16
	shardMask  = shardCount - 1

	// DefaultCapacity is the per-shard entry limit used when NewSharded is
	// given a non-positive capacity.
	DefaultCapacity = 256
)

// Hasher computes the shard-selection hash for a key.
type Hasher[K any] func(K) uint64

// StringHasher hashes a string key with FNV-1a.
//
// Parameters:
//   - s: the key to hash
//
// Returns:
//   - uint64: the FNV-1a hash of the key
func StringHasher(s string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(s))
	return h.Sum64()
}

// ShardedCache is a thread-safe LRU cache split across fixed shards. Each
// shard evicts its own least recently used entries once it reaches the
// per-shard capacity, so the total capacity is capacity * 16.
type ShardedCache[K comparable, V any] struct {
	shards   [shardCount]*cacheShard[K, V]
	hasher   Hasher[K]
	capacity int
}

// cacheShard is one shard: a map for lookup plus an intrusive LRU list for
// eviction order. The shard mutex covers both.
type cacheShard[K comparable, V any] struct {
	mu      sync.RWMutex
	entries map[K]*cacheEntry[K, V]
	lru     lruList[K]
}

// cacheEntry pairs a cached value with its LRU list node.
type cacheEntry[K comparable, V any] struct {
	value V
	node  *lruNode[K]
}

// NewSharded creates a sharded LRU cache with the given per-shard capacity.
// Capacities <= 0 select DefaultCapacity.
//
// Parameters:
//   - capacity: the maximum entries retained per shard
//   - hasher: the key hash used for shard selection
//
// Returns:
//   - *ShardedCache[K, V]: the newly created cache
func NewSharded[K comparable, V any](capacity int, hasher Hasher[K]) *ShardedCache[K, V] {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	c := &ShardedCache[K, V]{
		hasher:   hasher,
		capacity: capacity,
	}
	for i := range c.shards {
		c.shards[i] = &cacheShard[K, V]{
			entries: make(map[K]*cacheEntry[K, V]),
		}
	}
	return c
}

func (c *ShardedCache[K, V]) shard(key K) *cacheShard[K, V] {
	return c.shards[c.hasher(key)&shardMask]
}

// Get retrieves a cached value and marks it most recently used.
//
// Parameters:
//   - key: the key to look up
//
// Returns:
//   - V: the cached value, or the zero value when absent
//   - bool: true if the key was present
func (c *ShardedCache[K, V]) Get(key K) (V, bool) {
	s := c.shard(key)

	// Fast path: a read lock answers the common miss without contending
	// with writers.
	s.mu.RLock()
	_, exists := s.entries[key]
	s.mu.RUnlock()
	if !exists {
		var zero V
		return zero, false
	}

	// The LRU bump needs the write lock; re-check under it since the entry
	// may have been evicted between the two acquisitions.
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[key]
	if !ok {
		var zero V
		return zero, false
	}
	s.lru.moveToFront(entry.node)
	return entry.value, true
}

// Set stores a value, evicting least recently used entries when the shard is
// at capacity. The value is stored as-is, not copied.
//
// Parameters:
//   - key: the key to store under
//   - value: the value to cache
func (c *ShardedCache[K, V]) Set(key K, value V) {
	s := c.shard(key)
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.entries[key]; ok {
		existing.value = value
		s.lru.moveToFront(existing.node)
		return
	}

	for s.lru.len >= c.capacity {
		oldest, ok := s.lru.removeOldest()
		if !ok {
			break
		}
		delete(s.entries, oldest)
	}

	s.entries[key] = &cacheEntry[K, V]{
		value: value,
		node:  s.lru.pushFront(key),
	}
}

// Delete removes an entry.
//
// Parameters:
//   - key: the key to remove
//
// Returns:
//   - bool: true if the entry existed
func (c *ShardedCache[K, V]) Delete(key K) bool {
	s := c.shard(key)
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[key]
	if !ok {
		return false
	}
	s.lru.remove(entry.node)
	delete(s.entries, key)
	return true
}

// Clear removes every entry from every shard.
func (c *ShardedCache[K, V]) Clear() {
	for _, s := range c.shards {
		s.mu.Lock()
		s.entries = make(map[K]*cacheEntry[K, V])
		s.lru = lruList[K]{}
		s.mu.Unlock()
	}
}

// Len returns the total entry count across all shards.
//
// Returns:
//   - int: the number of cached entries
func (c *ShardedCache[K, V]) Len() int {
	total := 0
	for _, s := range c.shards {
		s.mu.RLock()
		total += len(s.entries)
		s.mu.RUnlock()
	}
	return total
}

// Capacity returns the per-shard capacity.
//
// Returns:
//   - int: the maximum entries retained per shard
func (c *ShardedCache[K, V]) Capacity() int {
	return c.capacity
}
