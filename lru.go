package issuecache

import "container/list"

// lru is a bounded map ordered by recency of access.
//
// Both get and put move an entry to the front. put never evicts: callers
// inspect overflow after each put and remove victims explicitly, so a
// failing side effect between selection and removal leaves the structure
// intact. lru is not safe for concurrent use.
type lru[K comparable, V any] struct {
	capacity int
	order    *list.List // front is most recently used
	items    map[K]*list.Element
}

type lruEntry[K comparable, V any] struct {
	key   K
	value V
}

func newLRU[K comparable, V any](capacity int) *lru[K, V] {
	return &lru[K, V]{
		capacity: capacity,
		order:    list.New(),
		items:    make(map[K]*list.Element),
	}
}

func (c *lru[K, V]) get(key K) (V, bool) {
	elem, ok := c.items[key]
	if !ok {
		var zero V
		return zero, false
	}
	c.order.MoveToFront(elem)
	return elem.Value.(*lruEntry[K, V]).value, true
}

func (c *lru[K, V]) put(key K, value V) {
	if elem, ok := c.items[key]; ok {
		elem.Value.(*lruEntry[K, V]).value = value
		c.order.MoveToFront(elem)
		return
	}
	c.items[key] = c.order.PushFront(&lruEntry[K, V]{key: key, value: value})
}

// overflow returns the least recently used entry while the cache holds more
// entries than its capacity.
func (c *lru[K, V]) overflow() (K, V, bool) {
	if c.order.Len() <= c.capacity {
		var zeroK K
		var zeroV V
		return zeroK, zeroV, false
	}
	e := c.order.Back().Value.(*lruEntry[K, V])
	return e.key, e.value, true
}

func (c *lru[K, V]) remove(key K) bool {
	elem, ok := c.items[key]
	if !ok {
		return false
	}
	c.order.Remove(elem)
	delete(c.items, key)
	return true
}

func (c *lru[K, V]) len() int {
	return c.order.Len()
}

func (c *lru[K, V]) clear() {
	c.order.Init()
	c.items = make(map[K]*list.Element)
}

// keys returns the keys from least to most recently used.
func (c *lru[K, V]) keys() []K {
	keys := make([]K, 0, c.order.Len())
	for elem := c.order.Back(); elem != nil; elem = elem.Prev() {
		keys = append(keys, elem.Value.(*lruEntry[K, V]).key)
	}
	return keys
}

// each visits entries from least to most recently used without touching
// their recency. Iteration stops at the first error.
func (c *lru[K, V]) each(fn func(K, V) error) error {
	for elem := c.order.Back(); elem != nil; elem = elem.Prev() {
		e := elem.Value.(*lruEntry[K, V])
		if err := fn(e.key, e.value); err != nil {
			return err
		}
	}
	return nil
}
