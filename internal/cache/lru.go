package cache

import (
	"container/list"
	"sync"
	"time"
)

// Stats counts lookups since the cache was built.
type Stats struct {
	Hits   uint64
	Misses uint64
}

// LRU is a size-bounded cache whose items also expire after a fixed TTL.
// The least recently read item goes first when the cache is full.
type LRU[K comparable, V any] struct {
	mu       sync.Mutex
	capacity int
	ttl      time.Duration
	index    map[K]*list.Element
	order    *list.List
	stats    Stats
	now      func() time.Time
}

type lruEntry[K comparable, V any] struct {
	key     K
	value   V
	expires time.Time
}

func NewLRU[K comparable, V any](capacity int, ttl time.Duration) *LRU[K, V] {
	return &LRU[K, V]{
		capacity: max(capacity, 1),
		ttl:      ttl,
		index:    make(map[K]*list.Element),
		order:    list.New(),
		now:      time.Now,
	}
}

var _ Cache[string, []string] = (*LRU[string, []string])(nil)

func (c *LRU[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.index[key]
	if ok && c.expired(el) {
		c.drop(el)
		ok = false
	}
	if !ok {
		c.stats.Misses++
		var zero V
		return zero, false
	}

	c.stats.Hits++
	c.order.MoveToFront(el)
	return el.Value.(*lruEntry[K, V]).value, true
}

func (c *LRU[K, V]) Set(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e := &lruEntry[K, V]{key: key, value: value, expires: c.now().Add(c.ttl)}
	if el, ok := c.index[key]; ok {
		el.Value = e
		c.order.MoveToFront(el)
		return
	}

	c.index[key] = c.order.PushFront(e)
	for c.order.Len() > c.capacity {
		c.drop(c.order.Back())
	}
}

func (c *LRU[K, V]) Delete(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.index[key]; ok {
		c.drop(el)
	}
}

// Purge empties the cache. Stats are kept.
func (c *LRU[K, V]) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.index)
	c.order.Init()
}

// CleanExpired walks from the oldest read item and drops everything past its TTL.
func (c *LRU[K, V]) CleanExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for el := c.order.Back(); el != nil; {
		prev := el.Prev()
		if c.expired(el) {
			c.drop(el)
			removed++
		}
		el = prev
	}
	return removed
}

func (c *LRU[K, V]) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.index)
}

func (c *LRU[K, V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

func (c *LRU[K, V]) expired(el *list.Element) bool {
	return c.now().After(el.Value.(*lruEntry[K, V]).expires)
}

func (c *LRU[K, V]) drop(el *list.Element) {
	delete(c.index, el.Value.(*lruEntry[K, V]).key)
	c.order.Remove(el)
}
