// Package studio is the content core of a design-agency website: a blog
// kept as JSON files, category image directories, and the JSON API and
// admin surface over both.
package studio

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"
	bolt "go.etcd.io/bbolt"

	"github.com/eringen/studio/blog"
	"github.com/eringen/studio/cache"
	"github.com/eringen/studio/gallery"
	"github.com/eringen/studio/imaging"
	"github.com/eringen/studio/ledger"
	"github.com/eringen/studio/mirror"
)

// App wires the stores, caches, ledger and mirror to the HTTP layer.
type App struct {
	Config  SiteConfig
	Echo    *echo.Echo
	Logger  *log.Logger
	Blog    *blog.Cached
	Gallery *gallery.Cached
	Ledger  *ledger.Store
	Mirror  mirror.Mirror

	loginLimiter *LoginLimiter
	boltDB       *bolt.DB
	watcher      *fsnotify.Watcher
	stopPrune    func()
	customRoutes []func(*App)
	now          func() time.Time
	ready        bool
}

// New creates an App with the given configuration. Nothing touches the disk
// until Init or Start.
func New(cfg SiteConfig, opts ...Option) *App {
	cfg.setDefaults()

	logger := log.New("studio")
	logger.SetLevel(log.INFO)
	a := &App{
		Config: cfg,
		Echo:   echo.New(),
		Logger: logger,
		now:    time.Now,
	}

	for _, opt := range opts {
		opt(a)
	}

	a.Echo.HideBanner = true
	a.Echo.Logger = a.Logger
	return a
}

// componentLogger returns a logger sharing the App logger's level and output.
func (a *App) componentLogger(prefix string) *log.Logger {
	l := log.New(prefix)
	l.SetOutput(a.Logger.Output())
	l.SetLevel(a.Logger.Level())
	return l
}

// Init opens the stores, caches and ledger and registers middleware and
// routes. Start calls it; tests call it directly and drive a.Echo.
func (a *App) Init() error {
	if a.ready {
		return nil
	}
	if err := a.Config.Validate(); err != nil {
		return fmt.Errorf("studio: %w", err)
	}
	if err := os.MkdirAll(a.Config.DataDir, 0o755); err != nil {
		return fmt.Errorf("studio: create data dir: %w", err)
	}

	cacheCfg := cache.Config{
		Backend: a.Config.CacheBackend,
		Size:    a.Config.CacheSize,
		Now:     a.now,
		Logger:  a.componentLogger("cache"),
	}
	if a.Config.CacheBackend == cache.BackendBolt {
		db, err := cache.OpenBolt(filepath.Join(a.Config.DataDir, "cache.db"))
		if err != nil {
			return fmt.Errorf("studio: %w", err)
		}
		a.boltDB = db
		cacheCfg.DB = db
	}

	blogStore, err := blog.NewStore(blog.Config{
		MetaDir:     a.Config.BlogMetaDir(),
		ImageDir:    a.Config.BlogImageDir(),
		ImagePrefix: "/images/blog",
		Now:         a.now,
		Logger:      a.componentLogger("blog"),
	})
	if err != nil {
		return fmt.Errorf("studio: init blog: %w", err)
	}
	listCache, err := cache.New[[]blog.Post]("blog-list", a.Config.TTL.BlogList, cacheCfg)
	if err != nil {
		return fmt.Errorf("studio: %w", err)
	}
	slugCache, err := cache.New[blog.Post]("blog-slug", a.Config.TTL.BlogPost, cacheCfg)
	if err != nil {
		return fmt.Errorf("studio: %w", err)
	}
	a.Blog = blog.NewCached(blogStore, listCache, slugCache)

	galleryStore, err := gallery.NewStore(gallery.Config{
		Root:      a.Config.ImagesDir(),
		URLPrefix: "/images",
		Upload:    imaging.Full,
		Now:       a.now,
		Logger:    a.componentLogger("gallery"),
	})
	if err != nil {
		return fmt.Errorf("studio: init gallery: %w", err)
	}
	caches, err := gallery.NewCaches(cacheCfg,
		a.Config.TTL.Portfolio, a.Config.TTL.Logos, a.Config.TTL.Homepage, a.Config.TTL.ImagePath)
	if err != nil {
		return fmt.Errorf("studio: %w", err)
	}
	a.Gallery = gallery.NewCached(galleryStore, caches)

	a.Ledger, err = ledger.Open(filepath.Join(a.Config.DataDir, "ledger.db"))
	if err != nil {
		return fmt.Errorf("studio: init ledger: %w", err)
	}
	a.Ledger.SetClock(a.now)

	if a.Mirror == nil {
		a.Mirror = mirror.Nop{}
		if a.Config.S3Bucket != "" {
			m, err := mirror.NewS3FromEnv(context.Background(), a.Config.S3Bucket, a.Config.S3Prefix)
			if err != nil {
				return fmt.Errorf("studio: init mirror: %w", err)
			}
			a.Mirror = m
		}
	}

	a.loginLimiter = NewLoginLimiter(5, time.Minute)

	a.setupMiddleware()
	a.setupRoutes()
	for _, fn := range a.customRoutes {
		fn(a)
	}
	a.ready = true
	return nil
}

// Start initializes the app and serves until ctx is done, then shuts the
// server down gracefully.
func (a *App) Start(ctx context.Context) error {
	if err := a.Init(); err != nil {
		return err
	}
	a.stopPrune = a.Ledger.StartPruneScheduler(a.Config.LedgerRetention, 24*time.Hour, a.componentLogger("ledger"))

	if a.Config.Watch {
		if err := a.watchContent(ctx); err != nil {
			return fmt.Errorf("studio: watch: %w", err)
		}
	}

	errCh := make(chan error, 1)
	go func() {
		if err := a.Echo.Start(a.Config.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return a.Echo.Shutdown(shutdownCtx)
}

func (a *App) setupRoutes() {
	e := a.Echo

	e.Static("/images", a.Config.ImagesDir())
	e.GET("/healthz", handleHealth)
	e.GET("/sitemap.xml", a.handleSitemap)
	e.GET("/feed.xml", a.handleFeed)

	// Blog
	e.GET("/api/blogs", a.handleListBlogs)
	e.DELETE("/api/blogs", a.handleInvalidateBlogs)
	e.GET("/api/blogs/tags", a.handleBlogTags)
	e.GET("/api/blogs/:slug", a.handleGetBlog)
	e.GET("/api/blogs/:slug/related", a.handleRelatedBlogs)

	// Images
	e.GET("/api/portfolio", a.handlePortfolio)
	e.GET("/api/logos", a.handleLogos)
	e.GET("/api/images/homepage", a.handleHomepageImages)
	e.GET("/api/images", a.handleImagesByPath)

	// Admin API
	e.POST("/api/admin/login", a.handleAPILogin)
	admin := e.Group("/api/admin", a.requireAdmin)
	admin.POST("/logout", handleAPILogout)
	admin.GET("/blogs", a.handleAdminBlogs)
	admin.POST("/uploadBlog", a.handleUploadBlog)
	admin.POST("/updateBlog", a.handleUpdateBlog)
	admin.DELETE("/deleteBlog", a.handleDeleteBlog)
	admin.POST("/uploadImage", a.handleUploadImage)
	admin.DELETE("/deleteImage", a.handleDeleteImage)
	admin.GET("/cleanup", a.handleListCleanup)
	admin.POST("/cleanup/:id/resolve", a.handleResolveCleanup)

	// Admin pages
	e.GET("/admin/", a.handleAdmin)
	e.POST("/admin/login/", a.handleAdminLogin)
	e.POST("/admin/logout/", handleAdminLogout)
	e.POST("/admin/cleanup/:id/resolve/", a.handleAdminResolve)
}

// Close releases the ledger, the bolt cache and the watcher.
func (a *App) Close() error {
	if a.stopPrune != nil {
		a.stopPrune()
	}
	if a.watcher != nil {
		_ = a.watcher.Close()
	}
	if a.loginLimiter != nil {
		a.loginLimiter.Stop()
	}
	var errList []error
	if a.Ledger != nil {
		errList = append(errList, a.Ledger.Close())
	}
	if a.boltDB != nil {
		errList = append(errList, a.boltDB.Close())
	}
	return errors.Join(errList...)
}

// EnvOr returns the value of the environment variable key, or fallback if empty.
func EnvOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
