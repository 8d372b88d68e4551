package service

import "sync"

// lru is a fixed-capacity least recently used cache
type lru[V any] struct {
	mu       sync.Mutex
	capacity int
	items    map[string]*lruNode[V]
	head     *lruNode[V] // sentinel before the most recently used node
	tail     *lruNode[V] // sentinel after the least recently used node
	hits     int64
	misses   int64
}

type lruNode[V any] struct {
	key        string
	value      V
	prev, next *lruNode[V]
}

// CacheStats reports result cache usage
type CacheStats struct {
	Hits     int64 `json:"hits"`
	Misses   int64 `json:"misses"`
	Size     int   `json:"size"`
	Capacity int   `json:"capacity"`
}

func newLRU[V any](capacity int) *lru[V] {
	c := &lru[V]{
		capacity: capacity,
		items:    make(map[string]*lruNode[V]),
		head:     &lruNode[V]{},
		tail:     &lruNode[V]{},
	}
	c.head.next = c.tail
	c.tail.prev = c.head
	return c
}

func (c *lru[V]) get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	node, ok := c.items[key]
	if !ok {
		c.misses++
		var zero V
		return zero, false
	}
	c.hits++
	c.unlink(node)
	c.pushFront(node)
	return node.value, true
}

func (c *lru[V]) put(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if node, ok := c.items[key]; ok {
		node.value = value
		c.unlink(node)
		c.pushFront(node)
		return
	}

	node := &lruNode[V]{key: key, value: value}
	c.items[key] = node
	c.pushFront(node)

	if len(c.items) > c.capacity {
		oldest := c.tail.prev
		c.unlink(oldest)
		delete(c.items, oldest.key)
	}
}

func (c *lru[V]) stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return CacheStats{Hits: c.hits, Misses: c.misses, Size: len(c.items), Capacity: c.capacity}
}

func (c *lru[V]) pushFront(node *lruNode[V]) {
	node.prev = c.head
	node.next = c.head.next
	c.head.next.prev = node
	c.head.next = node
}

func (c *lru[V]) unlink(node *lruNode[V]) {
	node.prev.next = node.next
	node.next.prev = node.prev
}
