package cache

import (
	"sync"
	"time"
)

type entry[V any] struct {
	value    V
	storedAt time.Time
}

// Memory is a process-local TTL cache. Its state is not shared between
// instances; pick the bolt backend when several processes share a host.
type Memory[V any] struct {
	mu    sync.RWMutex
	items map[string]entry[V]
	ttl   time.Duration
	now   func() time.Time
}

// NewMemory creates an empty Memory cache. A nil now uses time.Now.
func NewMemory[V any](ttl time.Duration, now func() time.Time) *Memory[V] {
	if now == nil {
		now = time.Now
	}
	return &Memory[V]{
		items: make(map[string]entry[V]),
		ttl:   ttl,
		now:   now,
	}
}

func (c *Memory[V]) Get(key string) (V, bool) {
	c.mu.RLock()
	e, ok := c.items[key]
	c.mu.RUnlock()
	if !ok || c.now().Sub(e.storedAt) >= c.ttl {
		var zero V
		return zero, false
	}
	return e.value, true
}

func (c *Memory[V]) Set(key string, value V) {
	c.mu.Lock()
	c.items[key] = entry[V]{value: value, storedAt: c.now()}
	c.mu.Unlock()
}

func (c *Memory[V]) Invalidate(keys ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(keys) == 0 {
		c.items = make(map[string]entry[V])
		return
	}
	for _, k := range keys {
		delete(c.items, k)
	}
}

// Len reports how many entries are held, expired ones included.
func (c *Memory[V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}
