package gallery

import (
	"io"
	"time"

	"github.com/eringen/studio/cache"
)

const (
	DefaultPortfolioTTL = 30 * time.Minute
	DefaultLogosTTL     = 30 * time.Minute
	DefaultHomepageTTL  = 15 * time.Minute
	DefaultPathTTL      = 5 * time.Minute
)

// Caches holds one cache per listing kind so each keeps its own TTL.
type Caches struct {
	Portfolio cache.Cache[[]Item]
	Logos     cache.Cache[[]Item]
	Homepage  cache.Cache[[]Item]
	Path      cache.Cache[[]Item]
}

// NewCaches builds the listing caches with cfg and the given TTLs; zero
// TTLs fall back to the defaults.
func NewCaches(cfg cache.Config, portfolio, logos, homepage, byPath time.Duration) (Caches, error) {
	var (
		c   Caches
		err error
	)
	if c.Portfolio, err = cache.New[[]Item]("gallery-portfolio", orDefault(portfolio, DefaultPortfolioTTL), cfg); err != nil {
		return Caches{}, err
	}
	if c.Logos, err = cache.New[[]Item]("gallery-logos", orDefault(logos, DefaultLogosTTL), cfg); err != nil {
		return Caches{}, err
	}
	if c.Homepage, err = cache.New[[]Item]("gallery-homepage", orDefault(homepage, DefaultHomepageTTL), cfg); err != nil {
		return Caches{}, err
	}
	if c.Path, err = cache.New[[]Item]("gallery-path", orDefault(byPath, DefaultPathTTL), cfg); err != nil {
		return Caches{}, err
	}
	return c, nil
}

func orDefault(d, def time.Duration) time.Duration {
	if d <= 0 {
		return def
	}
	return d
}

// Cached puts the listing caches in front of a Store. Any mutation clears
// every listing.
type Cached struct {
	store  *Store
	caches Caches
}

func NewCached(store *Store, caches Caches) *Cached {
	return &Cached{store: store, caches: caches}
}

func (c *Cached) Store() *Store { return c.store }

// Portfolio lists the portfolio, optionally narrowed to one category.
func (c *Cached) Portfolio(only Category, fresh bool) ([]Item, error) {
	key := "all"
	if only.Valid() {
		key = only.Name()
	}
	return c.cached(c.caches.Portfolio, key, fresh, func() ([]Item, error) {
		if only.Valid() {
			return c.store.Portfolio(only)
		}
		return c.store.Portfolio()
	})
}

func (c *Cached) Logos(fresh bool) ([]Item, error) {
	return c.cached(c.caches.Logos, "logos", fresh, func() ([]Item, error) {
		return c.store.List(Logos)
	})
}

func (c *Cached) Homepage(fresh bool) ([]Item, error) {
	return c.cached(c.caches.Homepage, "homepage", fresh, c.store.Homepage)
}

// ListPath lists a directory below the images root. The cache key is the
// resolved relative path so equivalent spellings share an entry.
func (c *Cached) ListPath(p string, fresh bool) ([]Item, error) {
	rel, err := c.store.relPath(p)
	if err != nil {
		return nil, err
	}
	return c.cached(c.caches.Path, rel, fresh, func() ([]Item, error) {
		return c.store.listDir(rel)
	})
}

func (c *Cached) Create(src io.Reader, filename string, cat Category) (string, error) {
	p, err := c.store.Create(src, filename, cat)
	if err == nil {
		c.Invalidate()
	}
	return p, err
}

func (c *Cached) Delete(p string) (DeleteResult, error) {
	res, err := c.store.Delete(p)
	if err == nil {
		c.Invalidate()
	}
	return res, err
}

// Invalidate clears every image listing.
func (c *Cached) Invalidate() {
	c.caches.Portfolio.Invalidate()
	c.caches.Logos.Invalidate()
	c.caches.Homepage.Invalidate()
	c.caches.Path.Invalidate()
}

func (c *Cached) cached(store cache.Cache[[]Item], key string, fresh bool, load func() ([]Item, error)) ([]Item, error) {
	if !fresh {
		if items, ok := store.Get(key); ok {
			return items, nil
		}
	}
	items, err := load()
	if err != nil {
		return nil, err
	}
	store.Set(key, items)
	return items, nil
}
