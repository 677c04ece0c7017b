// Copyright 2024-2026 Aiku AI

package engine

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long the config file must stay unchanged before a
// change is reloaded.
const DefaultDebounce = 250 * time.Millisecond

// WatchConfig reloads the engine's config file whenever it changes, until
// ctx is done. The parent directory is watched so editors that replace the
// file by renaming are noticed too.
func (e *Engine) WatchConfig(ctx context.Context, debounce time.Duration) error {
	if e.ConfigPath == "" {
		return fmt.Errorf("no config path to watch")
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	path, err := filepath.Abs(e.ConfigPath)
	if err != nil {
		return fmt.Errorf("failed to resolve config path: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(path), err)
	}
	e.Log.Info().Str("path", path).Msg("Watching config file")

	timer := time.NewTimer(debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			timer.Reset(debounce)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			e.Log.Warn().Err(err).Msg("Config watcher error")
		case <-timer.C:
			if _, err := e.ReloadFile(path); err != nil {
				e.Log.Warn().Err(err).Str("path", path).Msg("Config reload from file change had errors")
			}
		}
	}
}
