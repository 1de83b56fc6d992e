package sqlfs

import "sync"

// Cache holds values built during a query by key, so that features
// referenced several times are built once.
// Implementations must be safe for use by one query at a time; a Cache
// must not be shared between concurrent queries.
type Cache[V any] interface {
	// Get returns the value stored for key.
	Get(key string) (V, bool)

	// Set stores a value.
	Set(key string, v V)

	// Clear removes all values.
	Clear()
}

// CacheKey returns the cache key of a feature.
func CacheKey(featureType, id string) string {
	return featureType + ":" + id
}

// FIFOCache is a Cache bounded to a maximum number of entries. When full,
// the oldest entry is evicted.
type FIFOCache[V any] struct {
	mu    sync.Mutex
	size  int
	keys  []string
	items map[string]V
}

// NewFIFOCache returns a cache holding at most size entries. A size of
// zero or less means unbounded.
func NewFIFOCache[V any](size int) *FIFOCache[V] {
	return &FIFOCache[V]{size: size, items: make(map[string]V)}
}

// Get implements Cache.
func (c *FIFOCache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.items[key]
	return v, ok
}

// Set implements Cache.
func (c *FIFOCache[V]) Set(key string, v V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.items[key]; !ok {
		if c.size > 0 && len(c.keys) >= c.size {
			delete(c.items, c.keys[0])
			c.keys = c.keys[1:]
		}
		c.keys = append(c.keys, key)
	}
	c.items[key] = v
}

// Len returns the number of cached entries.
func (c *FIFOCache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Clear implements Cache.
func (c *FIFOCache[V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.keys = nil
	clear(c.items)
}

var _ Cache[int] = (*FIFOCache[int])(nil)
