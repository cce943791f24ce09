package convert

import (
	"container/list"
	"sync"
)

// resultCache is an LRU of conversion results keyed by source identity.
type resultCache struct {
	capacity int
	cache    map[string]*list.Element
	lru      *list.List
	mu       sync.Mutex
}

type cacheEntry struct {
	key   string
	value *Result
}

func newResultCache(capacity int) *resultCache {
	return &resultCache{
		capacity: capacity,
		cache:    make(map[string]*list.Element),
		lru:      list.New(),
	}
}

// Get returns the cached result for key if present and marks it most recently used.
func (c *resultCache) Get(key string) (*Result, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.cache[key]; ok {
		c.lru.MoveToFront(elem)
		return elem.Value.(*cacheEntry).value, true
	}
	return nil, false
}

// Set stores the result for key, evicting the oldest entry if at capacity.
func (c *resultCache) Set(key string, value *Result) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.cache[key]; ok {
		c.lru.MoveToFront(elem)
		elem.Value.(*cacheEntry).value = value
		return
	}

	entry := &cacheEntry{key: key, value: value}
	elem := c.lru.PushFront(entry)
	c.cache[key] = elem

	if c.lru.Len() > c.capacity {
		oldest := c.lru.Back()
		if oldest != nil {
			c.lru.Remove(oldest)
			delete(c.cache, oldest.Value.(*cacheEntry).key)
		}
	}
}

// Remove drops every entry whose result has the given conversion ID.
func (c *resultCache) Remove(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for key, elem := range c.cache {
		if elem.Value.(*cacheEntry).value.ID == id {
			c.lru.Remove(elem)
			delete(c.cache, key)
		}
	}
}

// Len returns the number of cached results.
func (c *resultCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}
