package gallery

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/eringen/studio/atomicfile"
	"github.com/eringen/studio/errs"
	"github.com/eringen/studio/imaging"
	"github.com/eringen/studio/slug"
)

// Item is one image in a listing. ID is its position in that listing and
// changes when files are added or removed.
type Item struct {
	ID       int    `json:"id"`
	Src      string `json:"src"`
	Alt      string `json:"alt"`
	Category string `json:"category,omitempty"`
}

var imageExts = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true,
	".webp": true, ".svg": true, ".avif": true,
}

// IsImage reports whether name has an extension served as an image.
func IsImage(name string) bool {
	return imageExts[strings.ToLower(filepath.Ext(name))]
}

type Logger interface {
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
}

type Config struct {
	Root      string // e.g. public/images
	URLPrefix string // public URL of Root, e.g. /images
	Upload    imaging.Options
	Now       func() time.Time
	Logger    Logger
}

// Store reads and writes the category directories under Root.
type Store struct {
	root   string
	prefix string
	upload imaging.Options
	now    func() time.Time
	log    Logger
}

func NewStore(cfg Config) (*Store, error) {
	if cfg.Root == "" {
		return nil, errors.New("gallery: Root is required")
	}
	s := &Store{
		root:   cfg.Root,
		prefix: "/" + strings.Trim(cfg.URLPrefix, "/"),
		upload: cfg.Upload,
		now:    cfg.Now,
		log:    cfg.Logger,
	}
	if s.prefix == "/" {
		s.prefix = "/images"
	}
	if s.upload.MaxWidth == 0 {
		s.upload = imaging.Full
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.log == nil {
		s.log = nopLogger{}
	}
	return s, nil
}

// Root is the on-disk images root.
func (s *Store) Root() string { return s.root }

// Dir returns the on-disk directory of c.
func (s *Store) Dir(c Category) string {
	return filepath.Join(s.root, filepath.FromSlash(c.Dir()))
}

// List returns the images of c sorted by file name. Items carry no category.
func (s *Store) List(c Category) ([]Item, error) {
	if !c.Valid() {
		return nil, errs.Invalid("category", "unknown category")
	}
	return s.listDir(c.Dir())
}

// ListPath lists an arbitrary directory below the images root. Paths may
// carry the public prefix; anything resolving outside the root is rejected.
func (s *Store) ListPath(p string) ([]Item, error) {
	rel, err := s.relPath(p)
	if err != nil {
		return nil, err
	}
	return s.listDir(rel)
}

func (s *Store) listDir(rel string) ([]Item, error) {
	entries, err := os.ReadDir(filepath.Join(s.root, filepath.FromSlash(rel)))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []Item{}, nil
		}
		return nil, fmt.Errorf("list %s: %w", rel, err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") || !IsImage(e.Name()) {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	items := make([]Item, len(names))
	for i, name := range names {
		items[i] = Item{ID: i, Src: s.url(rel, name), Alt: Alt(name)}
	}
	return items, nil
}

// Portfolio lists the portfolio categories, or just only when given, with
// each item tagged by its category label. IDs run across the whole listing.
func (s *Store) Portfolio(only ...Category) ([]Item, error) {
	cats := Portfolio
	if len(only) > 0 {
		cats = only
	}
	var all []Item
	for _, c := range cats {
		items, err := s.List(c)
		if err != nil {
			return nil, err
		}
		for _, it := range items {
			it.Category = c.Label()
			all = append(all, it)
		}
	}
	return renumber(all), nil
}

// Homepage aggregates branding, packaging and the portfolio, guessing each
// item's category from its file name.
func (s *Store) Homepage() ([]Item, error) {
	cats := append([]Category{Branding, Packaging}, Portfolio...)
	var all []Item
	for _, c := range cats {
		items, err := s.List(c)
		if err != nil {
			return nil, err
		}
		for _, it := range items {
			it.Category = Classify(it.Src, c)
			all = append(all, it)
		}
	}
	return renumber(all), nil
}

// Create re-encodes the upload and stores it as <unixMillis>-<name>.jpg in
// the directory of c. It returns the public path of the new file.
func (s *Store) Create(src io.Reader, filename string, c Category) (string, error) {
	if !c.Valid() {
		return "", errs.Invalid("category", "unknown category")
	}
	res, err := imaging.Process(src, s.upload)
	if err != nil {
		if errors.Is(err, imaging.ErrUnsupported) {
			return "", errs.Invalid("file", err.Error())
		}
		return "", err
	}
	name := fmt.Sprintf("%d-%s%s", s.now().UnixMilli(), safeBase(filename), imaging.Ext)
	if err := atomicfile.Write(filepath.Join(s.Dir(c), name), res.Data, 0o644); err != nil {
		return "", fmt.Errorf("store image: %w", err)
	}
	s.log.Infof("gallery: stored %s/%s (%dx%d)", c.Dir(), name, res.Width, res.Height)
	return s.url(c.Dir(), name), nil
}

// ReadFile returns the stored bytes of the image at public path p.
func (s *Store) ReadFile(p string) ([]byte, error) {
	rel, err := s.relPath(p)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(s.root, filepath.FromSlash(rel)))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", rel, errs.ErrNotFound)
	}
	return data, err
}

// DeleteResult reports what Delete did. Path is the public path it resolved.
type DeleteResult struct {
	Path        string
	FileDeleted bool
}

// Delete removes the image at p. A file that is already gone is not an
// error: FileDeleted is false.
func (s *Store) Delete(p string) (DeleteResult, error) {
	rel, err := s.relPath(p)
	if err != nil {
		return DeleteResult{}, err
	}
	if rel == "." || !IsImage(rel) {
		return DeleteResult{}, errs.Invalid("path", "must name an image file")
	}
	res := DeleteResult{Path: s.url(path.Dir(rel), path.Base(rel))}
	err = os.Remove(filepath.Join(s.root, filepath.FromSlash(rel)))
	switch {
	case err == nil:
		res.FileDeleted = true
		s.log.Infof("gallery: deleted %s", rel)
	case errors.Is(err, fs.ErrNotExist):
		s.log.Warnf("gallery: delete %s: already absent", rel)
	default:
		return DeleteResult{}, fmt.Errorf("delete %s: %w", rel, err)
	}
	return res, nil
}

// relPath maps a public or on-disk style path to a clean slash path
// relative to the root. The old /images/logo/ directory maps to logos.
func (s *Store) relPath(p string) (string, error) {
	p = strings.ReplaceAll(strings.TrimSpace(p), `\`, "/")
	if p == "" {
		return "", errs.Invalid("path", "is required")
	}
	if p == s.prefix || p == strings.TrimPrefix(s.prefix, "/") {
		return ".", nil
	}
	for _, prefix := range []string{"public" + s.prefix + "/", s.prefix + "/", strings.TrimPrefix(s.prefix, "/") + "/"} {
		if strings.HasPrefix(p, prefix) {
			p = strings.TrimPrefix(p, prefix)
			break
		}
	}
	if strings.HasPrefix(p, "logo/") {
		p = "logos/" + strings.TrimPrefix(p, "logo/")
	}
	if strings.HasPrefix(p, "/") {
		return "", errs.Invalid("path", "must be below "+s.prefix)
	}
	clean := path.Clean(p)
	if clean == ".." || strings.HasPrefix(clean, "../") {
		return "", errs.Invalid("path", "must be below "+s.prefix)
	}
	return clean, nil
}

func (s *Store) url(dir, name string) string {
	if dir == "." || dir == "" {
		return s.prefix + "/" + name
	}
	return s.prefix + "/" + dir + "/" + name
}

func renumber(items []Item) []Item {
	if items == nil {
		return []Item{}
	}
	for i := range items {
		items[i].ID = i
	}
	return items
}

// safeBase reduces an upload's file name, extension dropped, to a slug.
func safeBase(filename string) string {
	base := filepath.Base(strings.ReplaceAll(filename, `\`, "/"))
	if out := slug.Make(strings.TrimSuffix(base, filepath.Ext(base))); out != "" {
		return out
	}
	return "image"
}

type nopLogger struct{}

func (nopLogger) Infof(string, ...interface{}) {}
func (nopLogger) Warnf(string, ...interface{}) {}
