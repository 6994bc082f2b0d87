package cache

import (
	"container/list"
	"sync"
	"time"
)

// EvictReason tells an eviction hook why an entry left the cache.
type EvictReason string

const (
	ReasonExpired  EvictReason = "expired"
	ReasonCapacity EvictReason = "capacity"
	ReasonDeleted  EvictReason = "deleted"
)

// EvictFunc is called after an entry has been removed. It runs outside the
// cache lock, so it may call back into the cache.
type EvictFunc[T any] func(key string, value T, reason EvictReason)

// LRUCache is a size-bounded cache with idle expiry: every Get pushes the
// entry's deadline ttl into the future.
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

type evicted[T any] struct {
	key    string
	data   T
	reason EvictReason
}

// NewLRUCache creates a new LRU cache with TTL
func NewLRUCache[T any](maxSize int, ttl time.Duration) *LRUCache[T] {
	return &LRUCache[T]{
		maxSize: maxSize,
		ttl:     ttl,
		items:   make(map[string]*list.Element),
		lru:     list.New(),
		now:     time.Now,
	}
}

// OnEvict installs the eviction hook. Set it before the cache is shared.
func (c *LRUCache[T]) OnEvict(fn EvictFunc[T]) {
	c.onEvict = fn
}

// Get retrieves a value and refreshes its deadline.
func (c *LRUCache[T]) Get(key string) (T, bool) {
	c.mu.Lock()
	var zero T
	elem, exists := c.items[key]
	if !exists {
		c.mu.Unlock()
		return zero, false
	}

	item := elem.Value.(*cacheItem[T])
	now := c.now()
	if now.After(item.expiresAt) {
		ev := c.removeElement(elem, ReasonExpired)
		c.mu.Unlock()
		c.notify(ev)
		return zero, false
	}

	item.expiresAt = now.Add(c.ttl)
	c.lru.MoveToFront(elem)
	c.mu.Unlock()
	return item.data, true
}

// Set stores a value. When full, the least recently used entry goes; it is
// reported as expired if its deadline has already passed.
func (c *LRUCache[T]) Set(key string, data T) {
	c.mu.Lock()
	now := c.now()
	item := &cacheItem[T]{
		key:       key,
		data:      data,
		expiresAt: now.Add(c.ttl),
	}

	if elem, exists := c.items[key]; exists {
		elem.Value = item
		c.lru.MoveToFront(elem)
		c.mu.Unlock()
		return
	}

	elem := c.lru.PushFront(item)
	c.items[key] = elem

	var out []evicted[T]
	for c.maxSize > 0 && c.lru.Len() > c.maxSize {
		oldest := c.lru.Back()
		reason := ReasonCapacity
		if now.After(oldest.Value.(*cacheItem[T]).expiresAt) {
			reason = ReasonExpired
		}
		out = append(out, c.removeElement(oldest, reason))
	}
	c.mu.Unlock()
	c.notify(out...)
}

// removeElement must be called with c.mu held.
func (c *LRUCache[T]) removeElement(elem *list.Element, reason EvictReason) evicted[T] {
	item := elem.Value.(*cacheItem[T])
	delete(c.items, item.key)
	c.lru.Remove(elem)
	return evicted[T]{key: item.key, data: item.data, reason: reason}
}

func (c *LRUCache[T]) notify(evs ...evicted[T]) {
	if c.onEvict == nil {
		return
	}
	for _, ev := range evs {
		c.onEvict(ev.key, ev.data, ev.reason)
	}
}

// CleanExpired removes all expired entries and returns count of removed items
func (c *LRUCache[T]) CleanExpired() int {
	c.mu.Lock()
	now := c.now()
	var out []evicted[T]
	for elem := c.lru.Back(); elem != nil; {
		prev := elem.Prev()
		if now.After(elem.Value.(*cacheItem[T]).expiresAt) {
			out = append(out, c.removeElement(elem, ReasonExpired))
		}
		elem = prev
	}
	c.mu.Unlock()

	c.notify(out...)
	return len(out)
}

// Purge empties the cache, reporting every entry as deleted.
func (c *LRUCache[T]) Purge() {
	c.mu.Lock()
	var out []evicted[T]
	for elem := c.lru.Back(); elem != nil; {
		prev := elem.Prev()
		out = append(out, c.removeElement(elem, ReasonDeleted))
		elem = prev
	}
	c.mu.Unlock()
	c.notify(out...)
}

// Size returns the current number of items in the cache
func (c *LRUCache[T]) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}
