package rescache

import (
	"errors"
	"fmt"
	"sync"
)

// ErrNoResource is returned by Acquire when create reports success but
// returns a zero-sized resource.
var ErrNoResource = errors.New("rescache: create returned an empty resource")

// Cache is a thread-safe LRU cache of GPU resources with a byte budget.
// When the cached bytes exceed the budget, least recently used unpinned
// entries are evicted. Pinned entries are never evicted, so the cache may
// stay over budget while they are in use.
//
// Cache must not be copied after creation (has mutex).
type Cache[K comparable, V any] struct {
	mu      sync.Mutex
	entries map[K]*entry[K, V]
	lru     lruList[K, V]
	onEvict func(K, V)

	budget      uint64
	bytes       uint64
	pinnedBytes uint64

	hits      uint64
	misses    uint64
	evictions uint64
}

// New creates a cache with the given byte budget. A budget of 0 means
// unlimited. onEvict, if non-nil, is called for every value that leaves the
// cache, outside the cache lock.
func New[K comparable, V any](budget uint64, onEvict func(K, V)) *Cache[K, V] {
	return &Cache[K, V]{
		entries: make(map[K]*entry[K, V]),
		onEvict: onEvict,
		budget:  budget,
	}
}

// Acquire returns the value cached under key and pins it. On a miss it
// calls create, which returns the value and its size in bytes, and caches
// the result pinned. Each successful Acquire must be paired with Release.
//
// create runs under the cache lock, so concurrent Acquires of the same key
// never create twice.
func (c *Cache[K, V]) Acquire(key K, create func() (V, uint64, error)) (V, error) {
	c.mu.Lock()

	if e, ok := c.entries[key]; ok {
		c.pin(e)
		c.lru.moveToFront(e)
		c.hits++
		v := e.value
		c.mu.Unlock()
		return v, nil
	}

	c.misses++
	v, size, err := create()
	if err != nil {
		c.mu.Unlock()
		var zero V
		return zero, fmt.Errorf("rescache: create: %w", err)
	}
	if size == 0 {
		c.mu.Unlock()
		var zero V
		return zero, ErrNoResource
	}

	e := &entry[K, V]{key: key, value: v, bytes: size}
	c.entries[key] = e
	c.lru.pushFront(e)
	c.bytes += size
	c.pin(e)

	evicted := c.evictOverBudget()
	c.mu.Unlock()

	c.notifyEvicted(evicted)
	return v, nil
}

// Release unpins the value cached under key. It reports whether the key
// was present and pinned. An unpinned entry becomes purgeable and may be
// evicted immediately if the cache is over budget.
func (c *Cache[K, V]) Release(key K) bool {
	c.mu.Lock()
	e, ok := c.entries[key]
	if !ok || e.pins == 0 {
		c.mu.Unlock()
		return false
	}
	e.pins--
	if e.pins == 0 {
		c.pinnedBytes -= e.bytes
	}
	evicted := c.evictOverBudget()
	c.mu.Unlock()

	c.notifyEvicted(evicted)
	return true
}

// Remove evicts the entry under key. Pinned entries are left in place and
// Remove returns false.
func (c *Cache[K, V]) Remove(key K) bool {
	c.mu.Lock()
	e, ok := c.entries[key]
	if !ok || e.pins > 0 {
		c.mu.Unlock()
		return false
	}
	c.unlink(e)
	c.mu.Unlock()

	c.notifyEvicted([]*entry[K, V]{e})
	return true
}

// SetBudget changes the byte budget and evicts unpinned entries until the
// cache fits, if it can.
func (c *Cache[K, V]) SetBudget(budget uint64) {
	c.mu.Lock()
	c.budget = budget
	evicted := c.evictOverBudget()
	c.mu.Unlock()

	c.notifyEvicted(evicted)
}

// PurgeUnlocked evicts every unpinned entry and returns the bytes freed.
func (c *Cache[K, V]) PurgeUnlocked() uint64 {
	c.mu.Lock()
	var evicted []*entry[K, V]
	var freed uint64
	for e := c.lru.oldestUnpinned(); e != nil; e = c.lru.oldestUnpinned() {
		freed += e.bytes
		c.unlink(e)
		evicted = append(evicted, e)
	}
	c.evictions += uint64(len(evicted))
	c.mu.Unlock()

	if len(evicted) > 0 {
		slogger().Debug("purged unlocked resources", "count", len(evicted), "bytes", freed)
	}
	c.notifyEvicted(evicted)
	return freed
}

// Close evicts every entry, pinned or not.
func (c *Cache[K, V]) Close() {
	c.mu.Lock()
	evicted := make([]*entry[K, V], 0, len(c.entries))
	for e := c.lru.head; e != nil; e = e.next {
		evicted = append(evicted, e)
	}
	c.entries = make(map[K]*entry[K, V])
	c.lru.clear()
	c.bytes = 0
	c.pinnedBytes = 0
	c.mu.Unlock()

	c.notifyEvicted(evicted)
}

// ResourceCacheUsage returns the number of cached resources and their bytes.
func (c *Cache[K, V]) ResourceCacheUsage() (count int, bytes uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries), c.bytes
}

// ResourceCachePurgeableBytes returns the bytes held by unpinned entries.
func (c *Cache[K, V]) ResourceCachePurgeableBytes() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.bytes - c.pinnedBytes
}

// Len returns the number of entries in the cache.
func (c *Cache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Stats returns cache statistics.
func (c *Cache[K, V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Stats{
		Len:         len(c.entries),
		Bytes:       c.bytes,
		PinnedBytes: c.pinnedBytes,
		Budget:      c.budget,
		Hits:        c.hits,
		Misses:      c.misses,
		Evictions:   c.evictions,
	}
	if total := c.hits + c.misses; total > 0 {
		s.HitRate = float64(c.hits) / float64(total)
	}
	return s
}

// Stats contains cache statistics.
type Stats struct {
	// Len is the current number of entries.
	Len int
	// Bytes is the total size of cached resources.
	Bytes uint64
	// PinnedBytes is the part of Bytes currently in use.
	PinnedBytes uint64
	// Budget is the byte budget (0 means unlimited).
	Budget uint64
	// Hits is the number of Acquire calls served from the cache.
	Hits uint64
	// Misses is the number of Acquire calls that created a resource.
	Misses uint64
	// HitRate is the cache hit rate 0.0 to 1.0.
	HitRate float64
	// Evictions is the number of entries evicted by budget or purge.
	Evictions uint64
}

// pin increments e's pin count. Caller must hold c.mu.
func (c *Cache[K, V]) pin(e *entry[K, V]) {
	if e.pins == 0 {
		c.pinnedBytes += e.bytes
	}
	e.pins++
}

// unlink removes e from the map and the list. Caller must hold c.mu.
func (c *Cache[K, V]) unlink(e *entry[K, V]) {
	delete(c.entries, e.key)
	c.lru.remove(e)
	c.bytes -= e.bytes
	if e.pins > 0 {
		c.pinnedBytes -= e.bytes
	}
}

// evictOverBudget removes least recently used unpinned entries until the
// cache fits its budget or only pinned entries remain.
// Caller must hold c.mu.
func (c *Cache[K, V]) evictOverBudget() []*entry[K, V] {
	if c.budget == 0 {
		return nil
	}
	var evicted []*entry[K, V]
	for c.bytes > c.budget {
		e := c.lru.oldestUnpinned()
		if e == nil {
			break
		}
		c.unlink(e)
		evicted = append(evicted, e)
	}
	if len(evicted) > 0 {
		c.evictions += uint64(len(evicted))
		slogger().Debug("evicted resources over budget", "count", len(evicted), "budget", c.budget)
	}
	return evicted
}

// notifyEvicted hands evicted values to onEvict. Must be called without c.mu.
func (c *Cache[K, V]) notifyEvicted(evicted []*entry[K, V]) {
	if c.onEvict == nil {
		return
	}
	for _, e := range evicted {
		c.onEvict(e.key, e.value)
	}
}
