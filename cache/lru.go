package cache

import (
	"time"

	"github.com/bluele/gcache"
)

// LRU is a size-bounded cache backed by gcache. Entries expire after ttl
// or when evicted as least recently used.
type LRU[V any] struct {
	gc    gcache.Cache
	ttl   time.Duration
	clock gcache.Clock
}

// NewLRU builds an LRU holding at most size entries. A nil clock uses the
// wall clock.
func NewLRU[V any](size int, ttl time.Duration, clock gcache.Clock) *LRU[V] {
	if clock == nil {
		clock = gcache.NewRealClock()
	}
	// gcache drops an entry only once it is past its deadline; Get applies
	// the ttl boundary itself.
	gc := gcache.New(size).LRU().Expiration(ttl).Clock(clock).Build()
	return &LRU[V]{gc: gc, ttl: ttl, clock: clock}
}

func (c *LRU[V]) Get(key string) (V, bool) {
	var zero V
	v, err := c.gc.Get(key)
	if err != nil {
		return zero, false
	}
	e, ok := v.(entry[V])
	if !ok || c.clock.Now().Sub(e.storedAt) >= c.ttl {
		return zero, false
	}
	return e.value, true
}

func (c *LRU[V]) Set(key string, value V) {
	_ = c.gc.Set(key, entry[V]{value: value, storedAt: c.clock.Now()})
}

func (c *LRU[V]) Invalidate(keys ...string) {
	if len(keys) == 0 {
		c.gc.Purge()
		return
	}
	for _, k := range keys {
		c.gc.Remove(k)
	}
}
