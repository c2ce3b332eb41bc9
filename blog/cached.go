package blog

import (
	"time"

	"github.com/eringen/studio/cache"
)

const (
	DefaultListTTL = 5 * time.Minute
	DefaultSlugTTL = 10 * time.Minute

	listKey = "all"
)

// Cached serves listings and single posts from a cache in front of a Store.
// The cached listing holds every post regardless of status; filters are
// applied per request.
type Cached struct {
	store  *Store
	list   cache.Cache[[]Post]
	bySlug cache.Cache[Post]
}

// NewCached wraps store with the given caches.
func NewCached(store *Store, list cache.Cache[[]Post], bySlug cache.Cache[Post]) *Cached {
	return &Cached{store: store, list: list, bySlug: bySlug}
}

// Store returns the underlying uncached store.
func (c *Cached) Store() *Store { return c.store }

// All returns every post, newest first. fresh bypasses the cache and
// repopulates it.
func (c *Cached) All(fresh bool) ([]Post, error) {
	if !fresh {
		if posts, ok := c.list.Get(listKey); ok {
			return posts, nil
		}
	}
	posts, err := c.store.List()
	if err != nil {
		return nil, err
	}
	c.list.Set(listKey, posts)
	return posts, nil
}

// List returns the posts matching f.
func (c *Cached) List(f Filter, fresh bool) ([]Post, error) {
	posts, err := c.All(fresh)
	if err != nil {
		return nil, err
	}
	return f.Apply(posts), nil
}

// Get returns the post with slug, whatever its status.
func (c *Cached) Get(slug string, fresh bool) (Post, error) {
	if !fresh {
		if p, ok := c.bySlug.Get(slug); ok {
			return p, nil
		}
	}
	p, err := c.store.Get(slug)
	if err != nil {
		return Post{}, err
	}
	c.bySlug.Set(slug, p)
	return p, nil
}

// Tags lists the tags of published posts.
func (c *Cached) Tags() ([]string, error) {
	posts, err := c.All(false)
	if err != nil {
		return nil, err
	}
	return Tags(posts), nil
}

// Related returns up to limit published posts sharing a tag or the category
// with the post at slug.
func (c *Cached) Related(slug string, limit int) ([]Post, error) {
	current, err := c.Get(slug, false)
	if err != nil {
		return nil, err
	}
	posts, err := c.All(false)
	if err != nil {
		return nil, err
	}
	return Related(current, posts, limit), nil
}

func (c *Cached) Create(f Fields, img Image) (Outcome, error) {
	out, err := c.store.Create(f, img)
	c.Invalidate()
	return out, err
}

func (c *Cached) Update(id, metadataFile string, patch Patch, img *Image) (Outcome, error) {
	out, err := c.store.Update(id, metadataFile, patch, img)
	c.Invalidate()
	return out, err
}

func (c *Cached) Delete(metadataFile, slug string) (Outcome, error) {
	out, err := c.store.Delete(metadataFile, slug)
	c.Invalidate()
	return out, err
}

// Invalidate drops every cached listing and post.
func (c *Cached) Invalidate() {
	c.list.Invalidate()
	c.bySlug.Invalidate()
}
