package studio

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/labstack/gommon/log"

	"github.com/eringen/studio/gallery"
)

const watchDebounce = 200 * time.Millisecond

// watchContent invalidates the caches when files under the blog metadata
// directory or the images root change outside the API, e.g. by rsync.
func (a *App) watchContent(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	a.watcher = w

	dirs := []string{a.Config.BlogMetaDir(), a.Config.ImagesDir()}
	for _, c := range gallery.All {
		dirs = append(dirs, a.Gallery.Store().Dir(c))
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	for _, root := range []string{a.Config.BlogMetaDir(), a.Config.ImagesDir()} {
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return w.Add(path)
			}
			return nil
		})
		if err != nil {
			return err
		}
	}

	go a.watchLoop(ctx, a.componentLogger("watch"))
	return nil
}

func (a *App) watchLoop(ctx context.Context, logger *log.Logger) {
	logger.Infof("watching %s and %s", a.Config.BlogMetaDir(), a.Config.ImagesDir())
	debounce := time.NewTicker(time.Hour)
	debounce.Stop()

	trigger := func() {
		select {
		case <-debounce.C:
		default:
		}
		debounce.Reset(watchDebounce)
	}

	var blogDirty, imagesDirty bool
	for {
		select {
		case <-ctx.Done():
			debounce.Stop()
			return
		case ev, ok := <-a.watcher.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if ev.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					if err := a.watcher.Add(ev.Name); err != nil {
						logger.Warnf("watch %s: %v", ev.Name, err)
					}
				}
			}
			if a.isBlogPath(ev.Name) {
				blogDirty = true
			} else {
				imagesDirty = true
			}
			trigger()
		case err, ok := <-a.watcher.Errors:
			if !ok {
				return
			}
			logger.Warnf("watcher error: %v", err)
		case <-debounce.C:
			debounce.Stop()
			if blogDirty {
				a.Blog.Invalidate()
				logger.Infof("blog changed on disk, caches cleared")
			}
			if imagesDirty {
				a.Gallery.Invalidate()
				logger.Infof("images changed on disk, caches cleared")
			}
			blogDirty, imagesDirty = false, false
		}
	}
}

func (a *App) isBlogPath(name string) bool {
	rel, err := filepath.Rel(a.Config.BlogMetaDir(), name)
	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
