package jmx

import (
	"context"
	"path/filepath"
	"time"

	"github.com/mon-tools/jmx-supervisor/pkg/errors"
	"github.com/mon-tools/jmx-supervisor/pkg/logging"

	"github.com/fsnotify/fsnotify"
)

// WatchConfigDir watches confDir for yaml changes and invokes onChange after
// a quiet period of debounce, coalescing bursts of events into one call. The
// watch runs until ctx is cancelled. The supervisor never watches on its
// own: every Init is a fresh scan, and this exists for callers that want to
// re-run Init when checks change.
func WatchConfigDir(ctx context.Context, confDir string, debounce time.Duration, onChange func(), logger logging.Logger) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.NewIOError("failed to create config watcher", err)
	}
	if err := watcher.Add(confDir); err != nil {
		watcher.Close()
		return errors.NewIOError("failed to watch config directory", err).WithContext("directory", confDir)
	}

	if debounce <= 0 {
		debounce = time.Second
	}

	go watch(ctx, watcher, debounce, onChange, logger)
	return nil
}

func watch(ctx context.Context, watcher *fsnotify.Watcher, debounce time.Duration, onChange func(), logger logging.Logger) {
	defer watcher.Close()

	timer := time.NewTimer(debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			logger.Warnf("Config watcher error: %v", err)

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Ext(event.Name) != ".yaml" {
				continue
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			logger.Debugf("Config change detected: %s %s", event.Op, event.Name)
			timer.Reset(debounce)

		case <-timer.C:
			onChange()
		}
	}
}
