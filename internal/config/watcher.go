package config

import (
	"context"
	"path/filepath"
	"time"

	"paybridge/internal/logger"

	"github.com/fsnotify/fsnotify"
)

// Watch reloads the config whenever the file changes and hands the new
// config to onReload. The parent directory is watched rather than the file
// itself because editors and orchestrators replace files atomically.
// A reload that fails validation is logged and skipped; the running config
// stays in effect.
func Watch(ctx context.Context, path string, onReload func(*Config)) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		watcher.Close()
		return err
	}

	go func() {
		defer watcher.Close()
		// Debounce: editors emit several events per save.
		var pending <-chan time.Time
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != abs {
					continue
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
					continue
				}
				pending = time.After(300 * time.Millisecond)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warnf("[config] watcher error: %v", err)
			case <-pending:
				pending = nil
				cfg, err := Load(abs)
				if err != nil {
					logger.Errorf("[config] reload rejected: %v", err)
					continue
				}
				logger.Infof("[config] reloaded %s", abs)
				onReload(cfg)
			}
		}
	}()
	return nil
}
