package cache

import (
	"container/list"
	"sync"
	"time"
)

// EvictFunc is called, outside the cache lock, for every entry that leaves
// the cache through expiry or capacity eviction.
type EvictFunc[T any] func(key string, data T)

// LRUCache is an LRU cache with a sliding TTL: every hit pushes the expiry
// of the entry forward, so only idle entries time out.
type LRUCache[T any] struct {
	mu      sync.Mutex
	maxSize int
	ttl     time.Duration
	items   map[string]*list.Element
	lru     *list.List
	onEvict EvictFunc[T]
	now     func() time.Time
}

type cacheItem[T any] struct {
	key       string
	data      T
	expiresAt time.Time
}

// NewLRUCache creates a new LRU cache with TTL
func NewLRUCache[T any](maxSize int, ttl time.Duration) *LRUCache[T] {
	if maxSize < 1 {
		maxSize = 1
	}
	return &LRUCache[T]{
		maxSize: maxSize,
		ttl:     ttl,
		items:   make(map[string]*list.Element),
		lru:     list.New(),
		now:     time.Now,
	}
}

// OnEvict registers fn to observe evicted entries.
func (c *LRUCache[T]) OnEvict(fn EvictFunc[T]) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onEvict = fn
}

// Get retrieves a value and refreshes its expiry.
func (c *LRUCache[T]) Get(key string) (T, bool) {
	var zero T
	c.mu.Lock()
	elem, exists := c.items[key]
	if !exists {
		c.mu.Unlock()
		return zero, false
	}
	item := elem.Value.(*cacheItem[T])
	now := c.now()
	if now.After(item.expiresAt) {
		c.removeElement(elem)
		fn := c.onEvict
		c.mu.Unlock()
		if fn != nil {
			fn(item.key, item.data)
		}
		return zero, false
	}
	item.expiresAt = now.Add(c.ttl)
	c.lru.MoveToFront(elem)
	c.mu.Unlock()
	return item.data, true
}

// GetOrCreate returns the live value for key, building it with create when
// absent. create runs under the cache lock and must not call back into it.
func (c *LRUCache[T]) GetOrCreate(key string, create func() T) (data T, created bool) {
	if v, ok := c.Get(key); ok {
		return v, false
	}
	c.mu.Lock()
	if elem, exists := c.items[key]; exists {
		// Lost a race with another creator.
		item := elem.Value.(*cacheItem[T])
		item.expiresAt = c.now().Add(c.ttl)
		c.lru.MoveToFront(elem)
		c.mu.Unlock()
		return item.data, false
	}
	v := create()
	evicted := c.insert(key, v)
	fn := c.onEvict
	c.mu.Unlock()
	if fn != nil && evicted != nil {
		fn(evicted.key, evicted.data)
	}
	return v, true
}

// insert adds a new entry and returns the entry evicted for capacity, if any.
func (c *LRUCache[T]) insert(key string, data T) *cacheItem[T] {
	elem := c.lru.PushFront(&cacheItem[T]{key: key, data: data, expiresAt: c.now().Add(c.ttl)})
	c.items[key] = elem
	if c.lru.Len() <= c.maxSize {
		return nil
	}
	oldest := c.lru.Back()
	item := oldest.Value.(*cacheItem[T])
	c.removeElement(oldest)
	return item
}

// Delete removes a key from the cache without calling the evict hook and
// returns the removed value.
func (c *LRUCache[T]) Delete(key string) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, exists := c.items[key]
	if !exists {
		var zero T
		return zero, false
	}
	item := elem.Value.(*cacheItem[T])
	c.removeElement(elem)
	return item.data, true
}

func (c *LRUCache[T]) removeElement(elem *list.Element) {
	item := elem.Value.(*cacheItem[T])
	delete(c.items, item.key)
	c.lru.Remove(elem)
}

// CleanExpired removes all expired entries and returns count of removed items
func (c *LRUCache[T]) CleanExpired() int {
	c.mu.Lock()
	now := c.now()
	var removed []*cacheItem[T]
	for elem := c.lru.Front(); elem != nil; {
		next := elem.Next()
		item := elem.Value.(*cacheItem[T])
		if now.After(item.expiresAt) {
			c.removeElement(elem)
			removed = append(removed, item)
		}
		elem = next
	}
	fn := c.onEvict
	c.mu.Unlock()

	if fn != nil {
		for _, item := range removed {
			fn(item.key, item.data)
		}
	}
	return len(removed)
}

// Size returns the current number of items in the cache
func (c *LRUCache[T]) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}
