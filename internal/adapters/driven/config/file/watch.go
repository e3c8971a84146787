package file

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/resumatch/internal/logger"
)

// reloadDebounce coalesces bursts of events from editors that write in several steps.
const reloadDebounce = 100 * time.Millisecond

// Watch reloads the configuration whenever the file changes and then calls
// onReload. The parent directory is watched so atomic rename-on-save is seen.
// Watch returns once the watcher is running; it stops when ctx is done.
func (s *ConfigStore) Watch(ctx context.Context, onReload func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(s.filePath)); err != nil {
		watcher.Close()
		return fmt.Errorf("watching %s: %w", filepath.Dir(s.filePath), err)
	}

	go s.watchLoop(ctx, watcher, onReload)
	return nil
}

func (s *ConfigStore) watchLoop(ctx context.Context, watcher *fsnotify.Watcher, onReload func()) {
	defer watcher.Close()

	var pending <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(s.filePath) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			pending = time.After(reloadDebounce)

		case <-pending:
			pending = nil
			if err := s.Load(); err != nil {
				logger.Warn("config reload failed, keeping previous values: %v", err)
				continue
			}
			logger.Info("configuration reloaded from %s", s.filePath)
			if onReload != nil {
				onReload()
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			logger.Warn("config watcher: %v", err)
		}
	}
}
