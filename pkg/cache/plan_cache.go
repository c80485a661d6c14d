// Package cache provides projection plan caching for agego.
//
// Synthesizing a column declaration scans the whole query text several times.
// Applications issue the same handful of queries over and over, so the result
// is cached by query text.
//
// Features:
// - LRU eviction for bounded memory
// - TTL expiration for stale plans
// - Thread-safe operations
// - Cache hit/miss statistics
//
// Usage:
//
//	cache := NewPlanCache(1000, 5*time.Minute)
//
//	// Check cache before synthesizing
//	if plan, ok := cache.Get(query); ok {
//		return plan // Cache hit
//	}
//
//	// Synthesize and cache
//	plan := cypher.NewPlan(query)
//	cache.Put(query, plan)
package cache

import (
	"container/list"
	"hash/fnv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/orneryd/agego/pkg/cypher"
)

// DefaultMaxSize is used when a cache is created with a non-positive size.
const DefaultMaxSize = 1000

// PlanCache is a thread-safe LRU cache of synthesized plans.
//
// The cache uses:
// - Hash map for O(1) lookups
// - Doubly-linked list for LRU ordering
// - TTL for automatic expiration
//
// Entries remember their query text, so a hash collision is a miss rather
// than a wrong plan.
type PlanCache struct {
	mu sync.Mutex

	// Configuration
	maxSize int
	ttl     time.Duration
	enabled bool

	// LRU list and map
	list  *list.List
	items map[uint64]*list.Element

	// Statistics
	hits   uint64
	misses uint64
}

// cacheEntry holds a cached plan with metadata.
type cacheEntry struct {
	key       uint64
	query     string
	plan      cypher.Plan
	expiresAt time.Time
}

// NewPlanCache creates a new plan cache.
//
// Parameters:
//   - maxSize: Maximum number of cached plans (LRU eviction when exceeded)
//   - ttl: Time-to-live for cached entries (0 = no expiration)
//
// Example:
//
//	// Cache up to 1000 plans for 5 minutes each
//	cache := NewPlanCache(1000, 5*time.Minute)
//
//	// Unlimited TTL (only LRU eviction)
//	cache = NewPlanCache(1000, 0)
func NewPlanCache(maxSize int, ttl time.Duration) *PlanCache {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	return &PlanCache{
		maxSize: maxSize,
		ttl:     ttl,
		enabled: true,
		list:    list.New(),
		items:   make(map[uint64]*list.Element, maxSize),
	}
}

// Key hashes query text into the cache's map key.
func Key(query string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(query))
	return h.Sum64()
}

// Get retrieves the cached plan for query if present and not expired.
//
// Returns (plan, true) on cache hit, (zero Plan, false) on miss.
// Moves the entry to front of LRU list on hit.
func (c *PlanCache) Get(query string) (cypher.Plan, bool) {
	key := Key(query)

	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.enabled {
		atomic.AddUint64(&c.misses, 1)
		return cypher.Plan{}, false
	}

	elem, ok := c.items[key]
	if !ok {
		atomic.AddUint64(&c.misses, 1)
		return cypher.Plan{}, false
	}

	entry := elem.Value.(*cacheEntry)
	if entry.query != query {
		atomic.AddUint64(&c.misses, 1)
		return cypher.Plan{}, false
	}

	// Check TTL
	if c.ttl > 0 && time.Now().After(entry.expiresAt) {
		// Expired - remove and return miss
		c.removeElement(elem)
		atomic.AddUint64(&c.misses, 1)
		return cypher.Plan{}, false
	}

	// Move to front (most recently used)
	c.list.MoveToFront(elem)

	atomic.AddUint64(&c.hits, 1)
	return entry.plan, true
}

// Put adds a plan to the cache.
//
// If the cache is full, the least recently used entry is evicted.
// If the query is already cached, the plan is replaced and its TTL refreshed.
func (c *PlanCache) Put(query string, plan cypher.Plan) {
	key := Key(query)

	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.enabled {
		return
	}

	// Check if already exists
	if elem, ok := c.items[key]; ok {
		// Update existing entry; a colliding query takes over the slot.
		entry := elem.Value.(*cacheEntry)
		entry.query = query
		entry.plan = plan
		if c.ttl > 0 {
			entry.expiresAt = time.Now().Add(c.ttl)
		}
		c.list.MoveToFront(elem)
		return
	}

	// Evict if at capacity
	for c.list.Len() >= c.maxSize {
		c.evictOldest()
	}

	// Add new entry
	entry := &cacheEntry{
		key:   key,
		query: query,
		plan:  plan,
	}
	if c.ttl > 0 {
		entry.expiresAt = time.Now().Add(c.ttl)
	}

	elem := c.list.PushFront(entry)
	c.items[key] = elem
}

// Remove removes the entry for query from the cache.
func (c *PlanCache) Remove(query string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[Key(query)]; ok {
		c.removeElement(elem)
	}
}

// Clear removes all entries from the cache.
func (c *PlanCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.list.Init()
	c.items = make(map[uint64]*list.Element, c.maxSize)
}

// Len returns the number of cached entries.
func (c *PlanCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.list.Len()
}

// Stats returns cache statistics.
func (c *PlanCache) Stats() CacheStats {
	hits := atomic.LoadUint64(&c.hits)
	misses := atomic.LoadUint64(&c.misses)

	c.mu.Lock()
	size := c.list.Len()
	c.mu.Unlock()

	total := hits + misses
	var hitRate float64
	if total > 0 {
		hitRate = float64(hits) / float64(total) * 100
	}

	return CacheStats{
		Size:    size,
		MaxSize: c.maxSize,
		Hits:    hits,
		Misses:  misses,
		HitRate: hitRate,
	}
}

// CacheStats holds cache performance statistics.
type CacheStats struct {
	Size    int     // Current number of entries
	MaxSize int     // Maximum capacity
	Hits    uint64  // Number of cache hits
	Misses  uint64  // Number of cache misses
	HitRate float64 // Hit rate percentage (0-100)
}

// SetEnabled enables or disables the cache. Disabling drops every entry.
func (c *PlanCache) SetEnabled(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.enabled = enabled

	if !enabled {
		c.list.Init()
		c.items = make(map[uint64]*list.Element, c.maxSize)
	}
}

// evictOldest removes the least recently used entry.
// Caller must hold the lock.
func (c *PlanCache) evictOldest() {
	elem := c.list.Back()
	if elem != nil {
		c.removeElement(elem)
	}
}

// removeElement removes an element from the cache.
// Caller must hold the lock.
func (c *PlanCache) removeElement(elem *list.Element) {
	c.list.Remove(elem)
	entry := elem.Value.(*cacheEntry)
	delete(c.items, entry.key)
}

// =============================================================================
// Global Plan Cache (singleton for convenience)
// =============================================================================

var (
	globalPlanCache     *PlanCache
	globalPlanCacheOnce sync.Once
)

// GlobalPlanCache returns the global plan cache instance.
//
// The global cache is lazily initialized with default settings.
// Use ConfigureGlobalCache to customize before first use.
func GlobalPlanCache() *PlanCache {
	globalPlanCacheOnce.Do(func() {
		globalPlanCache = NewPlanCache(DefaultMaxSize, 0)
	})
	return globalPlanCache
}

// ConfigureGlobalCache configures the global plan cache.
//
// Must be called before any Get/Put operations.
// Subsequent calls are no-ops.
func ConfigureGlobalCache(maxSize int, ttl time.Duration) {
	globalPlanCacheOnce.Do(func() {
		globalPlanCache = NewPlanCache(maxSize, ttl)
	})
}
