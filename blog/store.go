package blog

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/eringen/studio/atomicfile"
	"github.com/eringen/studio/errs"
)

// Logger is the subset of the gommon logger the store reports through.
type Logger interface {
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

// errCorrupt marks a metadata file that exists but does not parse.
var errCorrupt = errors.New("corrupt metadata")

// Config locates the store on disk.
type Config struct {
	MetaDir     string // e.g. public/data/blogs
	ImageDir    string // e.g. public/images/blog
	ImagePrefix string // public URL of ImageDir, e.g. /images/blog
	Now         func() time.Time
	NewID       func() string
	Logger      Logger
}

// Store is the file-backed blog store. It does no locking: concurrent
// writers to the same slug race and the last rename wins.
type Store struct {
	metaDir     string
	imageDir    string
	imagePrefix string
	now         func() time.Time
	newID       func() string
	log         Logger
}

// NewStore creates the metadata and image directories if missing.
func NewStore(cfg Config) (*Store, error) {
	if cfg.MetaDir == "" || cfg.ImageDir == "" {
		return nil, errors.New("blog: MetaDir and ImageDir are required")
	}
	for _, dir := range []string{cfg.MetaDir, cfg.ImageDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("blog: create %s: %w", dir, err)
		}
	}
	s := &Store{
		metaDir:     cfg.MetaDir,
		imageDir:    cfg.ImageDir,
		imagePrefix: strings.TrimSuffix(cfg.ImagePrefix, "/"),
		now:         cfg.Now,
		newID:       cfg.NewID,
		log:         cfg.Logger,
	}
	if s.imagePrefix == "" {
		s.imagePrefix = "/images/blog"
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.newID == nil {
		s.newID = uuid.NewString
	}
	if s.log == nil {
		s.log = nopLogger{}
	}
	return s, nil
}

// List reads every metadata file, newest first. A file that cannot be read
// or parsed is logged and skipped.
func (s *Store) List() ([]Post, error) {
	entries, err := os.ReadDir(s.metaDir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []Post{}, nil
		}
		return nil, fmt.Errorf("list posts: %w", err)
	}
	posts := make([]Post, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		p, err := s.read(e.Name())
		if err != nil {
			s.log.Warnf("blog: skipping %s: %v", e.Name(), err)
			continue
		}
		posts = append(posts, p)
	}
	sortNewestFirst(posts)
	return posts, nil
}

// Get finds a post by slug, whatever its status. The directory is scanned
// because file names can drift from the slug stored inside them.
func (s *Store) Get(slug string) (Post, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return Post{}, errs.ErrNotFound
	}
	posts, err := s.List()
	if err != nil {
		return Post{}, err
	}
	for _, p := range posts {
		if p.Slug == slug {
			return p, nil
		}
	}
	return Post{}, fmt.Errorf("post %q: %w", slug, errs.ErrNotFound)
}

// Create validates f, writes the featured image and then the metadata file.
func (s *Store) Create(f Fields, img Image) (Outcome, error) {
	var ve errs.ValidationError
	title := strings.TrimSpace(f.Title)
	requireText(&ve, "title", title)
	requireText(&ve, "summary", f.Summary)
	requireText(&ve, "content", f.Content)
	requireText(&ve, "category", f.Category)
	if len(img.Data) == 0 {
		ve.Add("image", "is required")
	}
	slug := Slugify(title)
	if title != "" && slug == "" {
		ve.Add("title", "must contain a letter or digit")
	}
	if ve.HasAny() {
		return Outcome{}, ve
	}

	slug, err := s.freeSlug(slug, "")
	if err != nil {
		return Outcome{}, err
	}
	now := s.now().UTC()
	status := f.Status
	if status != StatusPublished {
		status = StatusDraft
	}
	post := Post{
		ID:        s.newID(),
		Title:     title,
		Slug:      slug,
		Summary:   f.Summary,
		Content:   f.Content,
		Author:    strings.TrimSpace(f.Author),
		Category:  strings.TrimSpace(f.Category),
		Tags:      normalizeTags(f.Tags),
		Status:    status,
		CreatedAt: now,
		UpdatedAt: now,
	}
	post.WordCount, post.ReadingMinutes = ReadingStats(post.Content)

	written, err := s.writeImage(&post, img, now)
	if err != nil {
		return Outcome{}, err
	}
	if err := s.write(slug+".json", post); err != nil {
		var out Outcome
		for _, p := range written {
			if rmErr := os.Remove(p); rmErr != nil && !errors.Is(rmErr, fs.ErrNotExist) {
				out.Cleanup = append(out.Cleanup, errs.Cleanup("remove orphaned image", p, rmErr))
			}
		}
		return out, err
	}
	post.MetadataFile = slug + ".json"
	s.log.Infof("blog: created %s", post.MetadataFile)
	return Outcome{Post: post}, nil
}

// Update locates the post by its metadata file, applies patch and rewrites
// it. A changed slug moves the record to a new file; the old file and any
// replaced image are removed best-effort.
func (s *Store) Update(id, metadataFile string, patch Patch, img *Image) (Outcome, error) {
	if strings.TrimSpace(id) == "" {
		return Outcome{}, errs.Invalid("id", "is required")
	}
	name, err := cleanMetadataFile(metadataFile)
	if err != nil {
		return Outcome{}, err
	}
	post, err := s.read(name)
	if errors.Is(err, errCorrupt) {
		return Outcome{}, fmt.Errorf("%v: %w", err, errs.ErrNotFound)
	}
	if err != nil {
		return Outcome{}, err
	}
	if post.ID != id {
		return Outcome{}, fmt.Errorf("%s belongs to post %s, not %s: %w", name, post.ID, id, errs.ErrConflict)
	}

	oldImage, oldThumb := post.FeaturedImage, post.FeaturedThumb
	patch.apply(&post)
	post.Tags = normalizeTags(post.Tags)

	var ve errs.ValidationError
	requireText(&ve, "title", post.Title)
	requireText(&ve, "summary", post.Summary)
	requireText(&ve, "content", post.Content)
	requireText(&ve, "category", post.Category)
	slug := Slugify(post.Title)
	if post.Title != "" && slug == "" {
		ve.Add("title", "must contain a letter or digit")
	}
	if img != nil && len(img.Data) == 0 {
		ve.Add("image", "is empty")
	}
	if ve.HasAny() {
		return Outcome{}, ve
	}

	if slug, err = s.freeSlug(slug, post.ID); err != nil {
		return Outcome{}, err
	}
	now := s.now().UTC()
	post.Slug = slug
	post.UpdatedAt = now
	post.WordCount, post.ReadingMinutes = ReadingStats(post.Content)

	var out Outcome
	if img != nil {
		written, err := s.writeImage(&post, *img, now)
		if err != nil {
			return Outcome{}, err
		}
		defer func() {
			// the metadata write failed: the new image files are orphans
			if out.Post.ID == "" {
				for _, p := range written {
					_ = os.Remove(p)
				}
			}
		}()
	}

	newName := slug + ".json"
	if err := s.write(newName, post); err != nil {
		return Outcome{}, err
	}
	post.MetadataFile = newName
	out.Post = post

	if newName != name {
		if err := os.Remove(filepath.Join(s.metaDir, name)); err != nil && !errors.Is(err, fs.ErrNotExist) {
			out.Cleanup = append(out.Cleanup, errs.Cleanup("remove old metadata", name, err))
		}
	}
	if img != nil {
		var stale []string
		for _, u := range []string{oldImage, oldThumb} {
			// same millisecond and slug: the new file took the old name
			if u != post.FeaturedImage && u != post.FeaturedThumb {
				stale = append(stale, u)
			}
		}
		removed, failures := s.removeImages(stale...)
		out.Removed = removed
		out.Cleanup = append(out.Cleanup, failures...)
	}
	for _, f := range out.Cleanup {
		s.log.Warnf("blog: update %s: %v", newName, f)
	}
	s.log.Infof("blog: updated %s", newName)
	return out, nil
}

// Delete removes the post stored in metadataFile and, best-effort, its
// images. When metadataFile is empty the slug names the file. The returned
// Outcome carries the deleted post.
func (s *Store) Delete(metadataFile, slug string) (Outcome, error) {
	if strings.TrimSpace(metadataFile) == "" {
		if strings.TrimSpace(slug) == "" {
			return Outcome{}, errs.Invalid("metadataFilename", "is required")
		}
		metadataFile = strings.TrimSpace(slug) + ".json"
	}
	name, err := cleanMetadataFile(metadataFile)
	if err != nil {
		return Outcome{}, err
	}
	post, err := s.read(name)
	if errors.Is(err, errCorrupt) {
		// no image paths can be recovered; drop the file so it stops
		// haunting listings
		s.log.Warnf("blog: delete %s: %v; removing metadata only", name, err)
		if rmErr := os.Remove(filepath.Join(s.metaDir, name)); rmErr != nil {
			return Outcome{}, fmt.Errorf("delete %s: %w", name, rmErr)
		}
		return Outcome{}, nil
	}
	if err != nil {
		return Outcome{}, err
	}
	if slug != "" && post.Slug != slug {
		s.log.Warnf("blog: delete %s: stored slug %q differs from requested %q", name, post.Slug, slug)
	}
	out := Outcome{Post: post}
	out.Removed, out.Cleanup = s.removeImages(post.FeaturedImage, post.FeaturedThumb)
	for _, f := range out.Cleanup {
		s.log.Warnf("blog: delete %s: %v", name, f)
	}
	if err := os.Remove(filepath.Join(s.metaDir, name)); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return out, fmt.Errorf("%s: %w", name, errs.ErrNotFound)
		}
		return out, fmt.Errorf("delete %s: %w", name, err)
	}
	s.log.Infof("blog: deleted %s", name)
	return out, nil
}

func (s *Store) read(name string) (Post, error) {
	data, err := os.ReadFile(filepath.Join(s.metaDir, name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Post{}, fmt.Errorf("%s: %w", name, errs.ErrNotFound)
		}
		return Post{}, fmt.Errorf("read %s: %w", name, err)
	}
	var p Post
	if err := json.Unmarshal(data, &p); err != nil {
		return Post{}, fmt.Errorf("parse %s: %v: %w", name, err, errCorrupt)
	}
	p.MetadataFile = name
	return p, nil
}

func (s *Store) write(name string, p Post) error {
	p.MetadataFile = ""
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}
	return atomicfile.Write(filepath.Join(s.metaDir, name), data, 0o644)
}

// freeSlug returns slug, or slug-N for the smallest N >= 2 whose file is
// absent or already belongs to ownID.
func (s *Store) freeSlug(slug, ownID string) (string, error) {
	candidate := slug
	for n := 2; ; n++ {
		existing, err := s.read(candidate + ".json")
		switch {
		case errors.Is(err, errs.ErrNotFound):
			return candidate, nil
		case err == nil && ownID != "" && existing.ID == ownID:
			return candidate, nil
		case err != nil:
			// unreadable file still occupies the name
			s.log.Warnf("blog: slug %s is taken by an unreadable file: %v", candidate, err)
		}
		candidate = fmt.Sprintf("%s-%d", slug, n)
	}
}

// writeImage stores img as <unixMillis>-<slug><ext> (plus a -thumb variant)
// and records the public paths on p. It returns the files written.
func (s *Store) writeImage(p *Post, img Image, now time.Time) ([]string, error) {
	ext := img.Ext
	if ext == "" {
		ext = ".jpg"
	}
	base := fmt.Sprintf("%d-%s", now.UnixMilli(), p.Slug)
	full := filepath.Join(s.imageDir, base+ext)
	if err := atomicfile.Write(full, img.Data, 0o644); err != nil {
		return nil, fmt.Errorf("write featured image: %w", err)
	}
	written := []string{full}
	p.FeaturedImage = s.imagePrefix + "/" + base + ext
	p.FeaturedThumb = ""
	if len(img.Thumb) > 0 {
		thumb := filepath.Join(s.imageDir, base+"-thumb"+ext)
		if err := atomicfile.Write(thumb, img.Thumb, 0o644); err != nil {
			_ = os.Remove(full)
			return nil, fmt.Errorf("write thumbnail: %w", err)
		}
		written = append(written, thumb)
		p.FeaturedThumb = s.imagePrefix + "/" + base + "-thumb" + ext
	}
	return written, nil
}

// removeImages deletes the files behind the given public image paths and
// returns the paths it removed. Paths outside the blog image directory are
// left alone.
func (s *Store) removeImages(urls ...string) ([]string, []errs.CleanupFailure) {
	var (
		removed  []string
		failures []errs.CleanupFailure
	)
	for _, u := range urls {
		p, ok := s.imageFile(u)
		if !ok {
			continue
		}
		err := os.Remove(p)
		switch {
		case err == nil:
			removed = append(removed, u)
		case !errors.Is(err, fs.ErrNotExist):
			failures = append(failures, errs.Cleanup("remove image", u, err))
		}
	}
	return removed, failures
}

func (s *Store) imageFile(u string) (string, bool) {
	if u == "" || !strings.HasPrefix(u, s.imagePrefix+"/") {
		return "", false
	}
	name := path.Base(u)
	if name == "." || name == "/" || name == ".." {
		return "", false
	}
	return filepath.Join(s.imageDir, name), true
}

func cleanMetadataFile(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", errs.Invalid("metadataFilename", "is required")
	}
	if name != filepath.Base(name) || strings.ContainsAny(name, `/\`) || !strings.HasSuffix(name, ".json") || strings.HasPrefix(name, ".") {
		return "", errs.Invalid("metadataFilename", "must be a bare .json file name")
	}
	return name, nil
}

func requireText(ve *errs.ValidationError, field, v string) {
	if strings.TrimSpace(v) == "" {
		ve.Add(field, "is required")
	}
}

func normalizeTags(tags []string) []string {
	out := []string{}
	seen := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		key := strings.ToLower(t)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, t)
	}
	return out
}

type nopLogger struct{}

func (nopLogger) Infof(string, ...interface{})  {}
func (nopLogger) Warnf(string, ...interface{})  {}
func (nopLogger) Errorf(string, ...interface{}) {}
