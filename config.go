package studio

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/gommon/log"
	"gopkg.in/yaml.v3"

	"github.com/eringen/studio/cache"
	"github.com/eringen/studio/errs"
	"github.com/eringen/studio/mirror"
)

// SiteConfig holds all configuration for a studio site.
type SiteConfig struct {
	Name        string `yaml:"name"`        // Site name (default "Studio")
	URL         string `yaml:"url"`         // Canonical URL (default "http://localhost:3000")
	Description string `yaml:"description"` // Site description for RSS
	Author      string `yaml:"author"`      // Default post author

	Addr      string `yaml:"addr"`       // Listen address (default ":3000")
	PublicDir string `yaml:"public_dir"` // Served files root (default "public")
	DataDir   string `yaml:"data_dir"`   // Ledger and bolt cache (default "data")

	AdminPassword string `yaml:"admin_password"` // Required: admin login password
	SessionSecret string `yaml:"session_secret"` // Required: session encryption secret
	CookieSecure  bool   `yaml:"cookie_secure"`  // Set true for HTTPS

	CacheBackend string    `yaml:"cache_backend"` // memory (default), lru or bolt
	CacheSize    int       `yaml:"cache_size"`    // LRU bound per cache
	TTL          TTLConfig `yaml:"ttl"`

	S3Bucket string `yaml:"s3_bucket"` // Mirror uploads here when set
	S3Prefix string `yaml:"s3_prefix"`

	Watch bool `yaml:"watch"` // Invalidate caches on disk changes

	LedgerRetention time.Duration `yaml:"ledger_retention"` // Resolved entries kept this long (default 30 days)
}

// TTLConfig sets how long each listing is served from cache.
type TTLConfig struct {
	BlogList  time.Duration `yaml:"blog_list"`  // default 5m
	BlogPost  time.Duration `yaml:"blog_post"`  // default 10m
	Portfolio time.Duration `yaml:"portfolio"`  // default 30m
	Logos     time.Duration `yaml:"logos"`      // default 30m
	Homepage  time.Duration `yaml:"homepage"`   // default 15m
	ImagePath time.Duration `yaml:"image_path"` // default 5m
}

func (c *SiteConfig) setDefaults() {
	if c.Name == "" {
		c.Name = "Studio"
	}
	if c.URL == "" {
		c.URL = "http://localhost:3000"
	}
	if c.Addr == "" {
		c.Addr = ":3000"
	}
	if c.PublicDir == "" {
		c.PublicDir = "public"
	}
	if c.DataDir == "" {
		c.DataDir = "data"
	}
	if c.CacheBackend == "" {
		c.CacheBackend = cache.BackendMemory
	}
	if c.CacheSize == 0 {
		c.CacheSize = 256
	}
	if c.TTL.BlogList == 0 {
		c.TTL.BlogList = 5 * time.Minute
	}
	if c.TTL.BlogPost == 0 {
		c.TTL.BlogPost = 10 * time.Minute
	}
	if c.TTL.Portfolio == 0 {
		c.TTL.Portfolio = 30 * time.Minute
	}
	if c.TTL.Logos == 0 {
		c.TTL.Logos = 30 * time.Minute
	}
	if c.TTL.Homepage == 0 {
		c.TTL.Homepage = 15 * time.Minute
	}
	if c.TTL.ImagePath == 0 {
		c.TTL.ImagePath = 5 * time.Minute
	}
	if c.LedgerRetention == 0 {
		c.LedgerRetention = 30 * 24 * time.Hour
	}
}

// BlogMetaDir is where post metadata files live.
func (c SiteConfig) BlogMetaDir() string { return filepath.Join(c.PublicDir, "data", "blogs") }

// ImagesDir is the root of every served image directory.
func (c SiteConfig) ImagesDir() string { return filepath.Join(c.PublicDir, "images") }

// BlogImageDir holds blog featured images.
func (c SiteConfig) BlogImageDir() string { return filepath.Join(c.ImagesDir(), "blog") }

// Validate reports every invalid field at once.
func (c SiteConfig) Validate() error {
	var ve errs.ValidationError

	if strings.TrimSpace(c.AdminPassword) == "" {
		ve.Add("admin_password", "must not be empty")
	}
	if len(c.SessionSecret) < 16 {
		ve.Add("session_secret", "must be at least 16 characters")
	}
	if !isValidAbsURL(c.URL) {
		ve.Add("url", "must be a valid absolute URL")
	}
	switch c.CacheBackend {
	case "", cache.BackendMemory, cache.BackendLRU, cache.BackendBolt:
	default:
		ve.Add("cache_backend", "must be 'memory', 'lru' or 'bolt'")
	}
	if c.CacheSize < 0 {
		ve.Add("cache_size", "must not be negative")
	}
	for field, d := range map[string]time.Duration{
		"ttl.blog_list":  c.TTL.BlogList,
		"ttl.blog_post":  c.TTL.BlogPost,
		"ttl.portfolio":  c.TTL.Portfolio,
		"ttl.logos":      c.TTL.Logos,
		"ttl.homepage":   c.TTL.Homepage,
		"ttl.image_path": c.TTL.ImagePath,
	} {
		if d < 0 {
			ve.Add(field, "must not be negative")
		}
	}
	if c.S3Prefix != "" && c.S3Bucket == "" {
		ve.Add("s3_prefix", "needs s3_bucket")
	}

	if ve.HasAny() {
		return ve
	}
	return nil
}

func isValidAbsURL(s string) bool {
	u, err := url.Parse(strings.TrimSpace(s))
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	return u.Host != ""
}

// LoadConfig reads the YAML file at path, when it exists, then applies
// environment overrides and defaults. An empty path skips the file.
func LoadConfig(path string) (SiteConfig, error) {
	var cfg SiteConfig
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("parse %s: %w", path, err)
			}
		case errors.Is(err, fs.ErrNotExist):
		default:
			return cfg, fmt.Errorf("read %s: %w", path, err)
		}
	}
	if err := applyEnv(&cfg, os.LookupEnv); err != nil {
		return cfg, err
	}
	cfg.setDefaults()
	return cfg, nil
}

func applyEnv(cfg *SiteConfig, lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	var ve errs.ValidationError
	boolean := func(key string, dst *bool) {
		if v, ok := lookup(key); ok && v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				ve.Add(key, "must be a boolean")
				return
			}
			*dst = b
		}
	}

	str("SITE_NAME", &cfg.Name)
	str("SITE_URL", &cfg.URL)
	str("SITE_DESCRIPTION", &cfg.Description)
	str("SITE_AUTHOR", &cfg.Author)
	str("ADDR", &cfg.Addr)
	str("PUBLIC_DIR", &cfg.PublicDir)
	str("DATA_DIR", &cfg.DataDir)
	str("ADMIN_PASSWORD", &cfg.AdminPassword)
	str("ADMIN_SESSION_SECRET", &cfg.SessionSecret)
	str("CACHE_BACKEND", &cfg.CacheBackend)
	str("S3_BUCKET", &cfg.S3Bucket)
	str("S3_PREFIX", &cfg.S3Prefix)
	boolean("COOKIE_SECURE", &cfg.CookieSecure)
	boolean("WATCH", &cfg.Watch)

	if ve.HasAny() {
		return ve
	}
	return nil
}

// Option configures additional App behavior.
type Option func(*App)

// WithCustomRoutes registers additional routes on the Echo instance.
// The callback receives the App before the server starts.
func WithCustomRoutes(fn func(*App)) Option {
	return func(a *App) {
		a.customRoutes = append(a.customRoutes, fn)
	}
}

// WithLogger replaces the application logger. Component loggers copy its
// level and output.
func WithLogger(l *log.Logger) Option {
	return func(a *App) {
		a.Logger = l
	}
}

// WithLogOutput sends every log line to w.
func WithLogOutput(w io.Writer) Option {
	return func(a *App) {
		a.Logger.SetOutput(w)
	}
}

// WithClock replaces time.Now for stores, caches and the ledger.
func WithClock(now func() time.Time) Option {
	return func(a *App) {
		a.now = now
	}
}

// WithMirror overrides the mirror built from S3Bucket.
func WithMirror(m mirror.Mirror) Option {
	return func(a *App) {
		a.Mirror = m
	}
}
