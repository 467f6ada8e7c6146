package config

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher reloads the config file on change and hands validated configs
// to a callback. Only the hot-reloadable knobs (polling interval, retry
// ceiling) are meant to be applied live; everything else needs a
// restart.
type Watcher struct {
	Path     string
	Cooldown time.Duration // 冷却时间，编辑器连环写入只触发一次
}

// Start blocks until ctx is done, invoking onUpdate for every valid
// rewrite of the file. Invalid rewrites are skipped silently; the
// running config stays in force.
func (w Watcher) Start(ctx context.Context, onUpdate func(AppConfig)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	// Watch the directory: editors replace files on save, which would
	// drop a watch on the file itself.
	if err := watcher.Add(filepath.Dir(w.Path)); err != nil {
		return err
	}

	cooldown := w.Cooldown
	if cooldown <= 0 {
		cooldown = 2 * time.Second
	}
	var lastReload time.Time

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != filepath.Clean(w.Path) {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if time.Since(lastReload) < cooldown {
				continue
			}
			lastReload = time.Now()
			if cfg, err := LoadWithEnvOverrides(w.Path); err == nil && onUpdate != nil {
				onUpdate(cfg)
			}
		case _, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
		}
	}
}
