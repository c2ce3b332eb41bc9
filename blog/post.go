// Package blog stores blog posts as one JSON file per post, with featured
// images kept in a separate directory.
package blog

import (
	"sort"
	"strings"
	"time"

	"github.com/eringen/studio/errs"
)

// Status is the publication state of a post.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusPublished Status = "published"
)

// ParseStatus maps form input to a Status. Anything unrecognised is a draft.
func ParseStatus(s string) Status {
	if Status(strings.ToLower(strings.TrimSpace(s))) == StatusPublished {
		return StatusPublished
	}
	return StatusDraft
}

// Post is the persisted shape of a blog post.
type Post struct {
	ID             string    `json:"id"`
	Title          string    `json:"title"`
	Slug           string    `json:"slug"`
	Summary        string    `json:"summary"`
	Content        string    `json:"content"`
	Author         string    `json:"author"`
	Category       string    `json:"category"`
	Tags           []string  `json:"tags"`
	FeaturedImage  string    `json:"featuredImage"`
	FeaturedThumb  string    `json:"featuredThumb,omitempty"`
	Status         Status    `json:"status"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
	WordCount      int       `json:"wordCount"`
	ReadingMinutes int       `json:"readingMinutes"`

	// MetadataFile is the name of the file the post was read from. It is
	// filled on read and never persisted.
	MetadataFile string `json:"metadataFilename,omitempty"`
}

// Fields are the caller-supplied values for a new post.
type Fields struct {
	Title    string
	Summary  string
	Content  string
	Author   string
	Category string
	Tags     []string
	Status   Status
}

// Patch carries the fields an update replaces; nil means keep.
type Patch struct {
	Title    *string
	Summary  *string
	Content  *string
	Author   *string
	Category *string
	Tags     *[]string
	Status   *Status
}

func (p Patch) apply(post *Post) {
	if p.Title != nil {
		post.Title = strings.TrimSpace(*p.Title)
	}
	if p.Summary != nil {
		post.Summary = *p.Summary
	}
	if p.Content != nil {
		post.Content = *p.Content
	}
	if p.Author != nil {
		post.Author = strings.TrimSpace(*p.Author)
	}
	if p.Category != nil {
		post.Category = strings.TrimSpace(*p.Category)
	}
	if p.Tags != nil {
		post.Tags = append([]string(nil), (*p.Tags)...)
	}
	if p.Status != nil {
		post.Status = *p.Status
	}
}

// Image is a featured image already encoded for storage.
type Image struct {
	Data  []byte
	Thumb []byte // optional
	Ext   string // including the dot, e.g. ".jpg"
}

// Outcome is the result of a mutation whose primary write succeeded. Cleanup
// lists the secondary steps that did not. Removed holds the public paths of
// image files the mutation deleted.
type Outcome struct {
	Post    Post
	Removed []string
	Cleanup []errs.CleanupFailure
}

// StatusAll disables status filtering in Filter.
const StatusAll = "all"

// Filter narrows a listing. Zero value lists published posts only.
type Filter struct {
	Category string
	Tag      string
	Status   string // "" means published, StatusAll means any
	Limit    int
}

// Apply returns the posts matching f, in the input order, without touching
// the input slice. Steps run in order: category, tag, status, limit.
func (f Filter) Apply(posts []Post) []Post {
	out := make([]Post, 0, len(posts))
	for _, p := range posts {
		if f.Category != "" && !strings.EqualFold(p.Category, f.Category) {
			continue
		}
		if f.Tag != "" && !hasTag(p, f.Tag) {
			continue
		}
		switch f.Status {
		case StatusAll:
		case "":
			if p.Status != StatusPublished {
				continue
			}
		default:
			if string(p.Status) != f.Status {
				continue
			}
		}
		out = append(out, p)
	}
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out
}

func hasTag(p Post, tag string) bool {
	for _, t := range p.Tags {
		if strings.EqualFold(strings.TrimSpace(t), strings.TrimSpace(tag)) {
			return true
		}
	}
	return false
}

// sortNewestFirst orders posts by createdAt descending, slug ascending on ties.
func sortNewestFirst(posts []Post) {
	sort.SliceStable(posts, func(i, j int) bool {
		if !posts[i].CreatedAt.Equal(posts[j].CreatedAt) {
			return posts[i].CreatedAt.After(posts[j].CreatedAt)
		}
		return posts[i].Slug < posts[j].Slug
	})
}

// Tags returns the sorted, deduplicated, lowercase tags of published posts.
func Tags(posts []Post) []string {
	set := make(map[string]struct{})
	for _, p := range posts {
		if p.Status != StatusPublished {
			continue
		}
		for _, t := range p.Tags {
			if t = strings.ToLower(strings.TrimSpace(t)); t != "" {
				set[t] = struct{}{}
			}
		}
	}
	out := make([]string, 0, len(set))
	for t := range set {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Related finds published posts sharing a tag or the category with current.
func Related(current Post, posts []Post, limit int) []Post {
	tagSet := make(map[string]struct{})
	for _, t := range current.Tags {
		if tag := strings.ToLower(strings.TrimSpace(t)); tag != "" {
			tagSet[tag] = struct{}{}
		}
	}
	related := []Post{}
	for _, p := range posts {
		if p.Slug == current.Slug || p.Status != StatusPublished {
			continue
		}
		match := current.Category != "" && strings.EqualFold(p.Category, current.Category)
		for _, t := range p.Tags {
			if _, ok := tagSet[strings.ToLower(strings.TrimSpace(t))]; ok {
				match = true
				break
			}
		}
		if match {
			related = append(related, p)
			if limit > 0 && len(related) == limit {
				break
			}
		}
	}
	return related
}
