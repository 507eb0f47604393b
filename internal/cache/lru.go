// Package cache provides a small in-process LRU with TTL. The drive
// snapshot store uses it so scheduled runs don't re-download a snapshot
// that hasn't changed between ticks.
package cache

import (
	"container/list"
	"sync"
	"time"
)

// LRU evicts by recency and expires entries after a fixed TTL.
type LRU[T any] struct {
	mu      sync.Mutex
	maxSize int
	ttl     time.Duration
	items   map[string]*list.Element
	order   *list.List

	// now is swappable for expiry tests.
	now func() time.Time
}

type item[T any] struct {
	key       string
	data      T
	expiresAt time.Time
}

// NewLRU creates a cache holding at most maxSize entries for ttl each.
func NewLRU[T any](maxSize int, ttl time.Duration) *LRU[T] {
	return &LRU[T]{
		maxSize: maxSize,
		ttl:     ttl,
		items:   make(map[string]*list.Element),
		order:   list.New(),
		now:     time.Now,
	}
}

// Get retrieves a value, refreshing its recency. Expired entries are
// removed on access.
func (c *LRU[T]) Get(key string) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero T
	elem, ok := c.items[key]
	if !ok {
		return zero, false
	}
	it := elem.Value.(*item[T])
	if c.now().After(it.expiresAt) {
		c.remove(elem)
		return zero, false
	}
	c.order.MoveToFront(elem)
	return it.data, true
}

// Set stores a value, evicting the least recently used entry when the
// cache is full.
func (c *LRU[T]) Set(key string, data T) {
	c.mu.Lock()
	defer c.mu.Unlock()

	it := &item[T]{key: key, data: data, expiresAt: c.now().Add(c.ttl)}
	if elem, ok := c.items[key]; ok {
		elem.Value = it
		c.order.MoveToFront(elem)
		return
	}

	c.items[key] = c.order.PushFront(it)
	if c.order.Len() > c.maxSize {
		if oldest := c.order.Back(); oldest != nil {
			c.remove(oldest)
		}
	}
}

// Delete removes a key.
func (c *LRU[T]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if elem, ok := c.items[key]; ok {
		c.remove(elem)
	}
}

// Size returns the number of live entries.
func (c *LRU[T]) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

func (c *LRU[T]) remove(elem *list.Element) {
	it := elem.Value.(*item[T])
	delete(c.items, it.key)
	c.order.Remove(elem)
}
