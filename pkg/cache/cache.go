// Package cache provides a thread-safe LRU cache for compiled expressions.
//
// The evaluator uses the cache when the WithCaching option is enabled. It
// maps source text to the compiled expression, skipping the tokenize and
// parse stages for repeated input.
//
// # Example
//
//	c := cache.New(1024)
//	expr, err := c.GetOrCompile("2 × (3 + 4)", compile)
package cache

import (
	"container/list"
	"sync"
	"sync/atomic"

	"github.com/sandrolain/gocalc/pkg/types"
)

// entry is a cache entry stored in the doubly-linked list.
type entry struct {
	key  string
	expr *types.Expression
}

// Stats is a point-in-time snapshot of cache activity.
type Stats struct {
	Hits      uint64 `json:"hits"`
	Misses    uint64 `json:"misses"`
	Evictions uint64 `json:"evictions"`
	Len       int    `json:"len"`
	Capacity  int    `json:"capacity"`
}

// Cache is a thread-safe LRU (Least Recently Used) cache for compiled expressions.
// Once the capacity is reached, the least recently accessed entry is evicted.
//
// Safe for concurrent use by multiple goroutines.
type Cache struct {
	mu       sync.Mutex
	capacity int
	ll       *list.List
	items    map[string]*list.Element

	hits      atomic.Uint64
	misses    atomic.Uint64
	evictions atomic.Uint64
}

// New creates a new LRU cache with the given capacity.
// capacity must be > 0; if <= 0, a default of 256 is used.
func New(capacity int) *Cache {
	if capacity <= 0 {
		capacity = 256
	}
	return &Cache{
		capacity: capacity,
		ll:       list.New(),
		items:    make(map[string]*list.Element, capacity),
	}
}

// Get retrieves a compiled expression from the cache and marks it as the
// most recently used.
func (c *Cache) Get(key string) (*types.Expression, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[key]
	if !ok {
		c.misses.Add(1)
		return nil, false
	}
	c.hits.Add(1)
	if c.ll.Front() != el {
		c.ll.MoveToFront(el)
	}
	return el.Value.(*entry).expr, true
}

// Set inserts or replaces an expression in the cache.
// If at capacity, the least recently used entry is evicted first.
func (c *Cache) Set(key string, expr *types.Expression) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[key]; ok {
		el.Value.(*entry).expr = expr
		c.ll.MoveToFront(el)
		return
	}

	if c.ll.Len() >= c.capacity {
		c.evictLocked()
	}

	el := c.ll.PushFront(&entry{key: key, expr: expr})
	c.items[key] = el
}

// GetOrCompile retrieves the expression for key from cache, or calls compile()
// to create it, caches the result, and returns it.
// Errors are not cached: malformed input is re-parsed so that its diagnostic
// is always fresh.
func (c *Cache) GetOrCompile(key string, compile func() (*types.Expression, error)) (*types.Expression, error) {
	if expr, ok := c.Get(key); ok {
		return expr, nil
	}
	expr, err := compile()
	if err != nil {
		return nil, err
	}
	c.Set(key, expr)
	return expr, nil
}

// Len returns the number of entries currently in the cache.
func (c *Cache) Len() int {
	c.mu.Lock()
	n := len(c.items)
	c.mu.Unlock()
	return n
}

// Capacity returns the maximum number of entries the cache can hold.
func (c *Cache) Capacity() int {
	return c.capacity
}

// Stats returns the current hit, miss and eviction counters.
func (c *Cache) Stats() Stats {
	return Stats{
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Evictions: c.evictions.Load(),
		Len:       c.Len(),
		Capacity:  c.capacity,
	}
}

// Invalidate removes a single entry from the cache.
func (c *Cache) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.items[key]; ok {
		c.ll.Remove(el)
		delete(c.items, key)
	}
}

// Clear removes all entries from the cache. Counters are kept.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ll.Init()
	c.items = make(map[string]*list.Element, c.capacity)
}

// evictLocked removes the least recently used entry.
// Must be called with c.mu held.
func (c *Cache) evictLocked() {
	el := c.ll.Back()
	if el == nil {
		return
	}
	c.ll.Remove(el)
	delete(c.items, el.Value.(*entry).key)
	c.evictions.Add(1)
}
