// Package cache provides the TTL cache used in front of the content stores.
//
// Every implementation satisfies Cache: a value is served while
// now - storedAt < ttl, after which Get reports a miss. Invalidate with no
// keys clears everything; there is no selective eviction beyond that.
package cache

import (
	"fmt"
	"time"

	"github.com/bluele/gcache"
	bolt "go.etcd.io/bbolt"
)

// Cache is the get/set/invalidate contract handed to request handlers.
// Implementations must be safe for concurrent use.
type Cache[V any] interface {
	Get(key string) (V, bool)
	Set(key string, value V)
	Invalidate(keys ...string)
}

// Logger is the subset of the gommon logger the backends report through.
type Logger interface {
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

// Backend names accepted by New.
const (
	BackendMemory = "memory"
	BackendLRU    = "lru"
	BackendBolt   = "bolt"
)

// Config selects and parameterises a backend.
type Config struct {
	Backend string
	Size    int      // LRU entry bound (default 256)
	DB      *bolt.DB // required for BackendBolt
	Now     func() time.Time
	Logger  Logger
}

// New builds a cache named name (used as the bolt bucket) with the given ttl.
func New[V any](name string, ttl time.Duration, cfg Config) (Cache[V], error) {
	switch cfg.Backend {
	case "", BackendMemory:
		return NewMemory[V](ttl, cfg.Now), nil
	case BackendLRU:
		size := cfg.Size
		if size <= 0 {
			size = 256
		}
		var clock gcache.Clock
		if cfg.Now != nil {
			clock = clockFunc(cfg.Now)
		}
		return NewLRU[V](size, ttl, clock), nil
	case BackendBolt:
		if cfg.DB == nil {
			return nil, fmt.Errorf("cache %s: bolt backend needs an open database", name)
		}
		return NewBolt[V](cfg.DB, name, ttl, cfg.Now, cfg.Logger)
	default:
		return nil, fmt.Errorf("cache %s: unknown backend %q", name, cfg.Backend)
	}
}

// clockFunc adapts an injected now function to gcache.Clock.
type clockFunc func() time.Time

func (f clockFunc) Now() time.Time { return f() }
