package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

// OpenBolt opens (or creates) the bolt file that backs persistent caches.
func OpenBolt(path string) (*bolt.DB, error) {
	if path == "" {
		return nil, errors.New("cache: missing bolt path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	return bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
}

type boltRecord[V any] struct {
	StoredAt time.Time `json:"storedAt"`
	Value    V         `json:"value"`
}

// Bolt keeps entries in a bbolt bucket so they survive restarts. Values are
// JSON encoded; read or decode failures are logged and count as misses.
type Bolt[V any] struct {
	db     *bolt.DB
	bucket []byte
	ttl    time.Duration
	now    func() time.Time
	log    Logger
}

// NewBolt creates the bucket if needed and returns a cache over it.
func NewBolt[V any](db *bolt.DB, bucket string, ttl time.Duration, now func() time.Time, logger Logger) (*Bolt[V], error) {
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = nopLogger{}
	}
	err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucket))
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("cache %s: create bucket: %w", bucket, err)
	}
	return &Bolt[V]{db: db, bucket: []byte(bucket), ttl: ttl, now: now, log: logger}, nil
}

func (c *Bolt[V]) Get(key string) (V, bool) {
	var zero V
	var raw []byte
	err := c.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(c.bucket)
		if b == nil {
			return nil
		}
		if v := b.Get([]byte(key)); v != nil {
			raw = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil {
		c.log.Warnf("cache %s: read %q: %v", c.bucket, key, err)
		return zero, false
	}
	if raw == nil {
		return zero, false
	}
	var rec boltRecord[V]
	if err := json.Unmarshal(raw, &rec); err != nil {
		c.log.Warnf("cache %s: decode %q: %v", c.bucket, key, err)
		return zero, false
	}
	if c.now().Sub(rec.StoredAt) >= c.ttl {
		return zero, false
	}
	return rec.Value, true
}

func (c *Bolt[V]) Set(key string, value V) {
	data, err := json.Marshal(boltRecord[V]{StoredAt: c.now(), Value: value})
	if err != nil {
		c.log.Errorf("cache %s: encode %q: %v", c.bucket, key, err)
		return
	}
	err = c.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(c.bucket)
		if err != nil {
			return err
		}
		return b.Put([]byte(key), data)
	})
	if err != nil {
		c.log.Errorf("cache %s: write %q: %v", c.bucket, key, err)
	}
}

func (c *Bolt[V]) Invalidate(keys ...string) {
	err := c.db.Update(func(tx *bolt.Tx) error {
		if len(keys) == 0 {
			if err := tx.DeleteBucket(c.bucket); err != nil && !errors.Is(err, bolt.ErrBucketNotFound) {
				return err
			}
			_, err := tx.CreateBucket(c.bucket)
			return err
		}
		b := tx.Bucket(c.bucket)
		if b == nil {
			return nil
		}
		for _, k := range keys {
			if err := b.Delete([]byte(k)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		c.log.Errorf("cache %s: invalidate: %v", c.bucket, err)
	}
}

type nopLogger struct{}

func (nopLogger) Warnf(string, ...interface{})  {}
func (nopLogger) Errorf(string, ...interface{}) {}
