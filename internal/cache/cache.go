// Package cache provides the LRU cache behind glyph thumbnails.
//
//	c := cache.New[string, *image.Alpha](512)
//	c.Add(key, img)
//	img, ok := c.Get(key)
//
// Cache is safe for concurrent use and must not be copied after creation.
package cache

import "sync"

// Cache is a thread-safe LRU cache holding at most Capacity entries.
type Cache[K comparable, V any] struct {
	mu       sync.Mutex
	entries  map[K]*node[K, V]
	order    lruList[K, V]
	capacity int

	hits, misses, evictions uint64
}

// New creates a cache holding at most capacity entries. A capacity of 0
// means unlimited.
func New[K comparable, V any](capacity int) *Cache[K, V] {
	return &Cache[K, V]{
		entries:  make(map[K]*node[K, V]),
		capacity: capacity,
	}
}

// Get returns the cached value for key and marks it most recently used.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	n, ok := c.entries[key]
	if !ok {
		c.misses++
		var zero V
		return zero, false
	}
	c.hits++
	c.order.moveToFront(n)
	return n.value, true
}

// Add stores value under key, evicting the least recently used entry when
// the cache is full.
func (c *Cache[K, V]) Add(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.add(key, value)
}

// Caller must hold c.mu.
func (c *Cache[K, V]) add(key K, value V) {
	if n, ok := c.entries[key]; ok {
		n.value = value
		c.order.moveToFront(n)
		return
	}
	c.entries[key] = c.order.pushFront(key, value)
	for c.capacity > 0 && len(c.entries) > c.capacity {
		oldest := c.order.removeOldest()
		delete(c.entries, oldest.key)
		c.evictions++
	}
}

// GetOrCreate returns the cached value or stores the result of create.
// create runs under the cache lock, so concurrent callers never create
// the same key twice.
func (c *Cache[K, V]) GetOrCreate(key K, create func() V) V {
	c.mu.Lock()
	defer c.mu.Unlock()

	if n, ok := c.entries[key]; ok {
		c.hits++
		c.order.moveToFront(n)
		return n.value
	}
	c.misses++
	value := create()
	c.add(key, value)
	return value
}

// Remove deletes key and reports whether it was present.
func (c *Cache[K, V]) Remove(key K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	n, ok := c.entries[key]
	if !ok {
		return false
	}
	c.order.remove(n)
	delete(c.entries, key)
	return true
}

// RemoveFunc deletes every entry whose key satisfies match and returns the
// number removed.
func (c *Cache[K, V]) RemoveFunc(match func(K) bool) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for key, n := range c.entries {
		if match(key) {
			c.order.remove(n)
			delete(c.entries, key)
			removed++
		}
	}
	return removed
}

// Clear removes all entries. Statistics are kept.
func (c *Cache[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	clear(c.entries)
	c.order = lruList[K, V]{}
}

// Len returns the number of entries.
func (c *Cache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Stats returns a snapshot of the cache statistics.
func (c *Cache[K, V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Stats{
		Len:       len(c.entries),
		Capacity:  c.capacity,
		Hits:      c.hits,
		Misses:    c.misses,
		Evictions: c.evictions,
	}
	if total := c.hits + c.misses; total > 0 {
		s.HitRate = float64(c.hits) / float64(total)
	}
	return s
}

// Stats contains cache statistics.
type Stats struct {
	Len       int
	Capacity  int
	Hits      uint64
	Misses    uint64
	Evictions uint64
	// HitRate is Hits / (Hits + Misses), or 0 before the first lookup.
	HitRate float64
}
