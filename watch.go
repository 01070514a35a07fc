package inlay

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// reloadDelay debounces bursts of writes editors make when saving.
const reloadDelay = 100 * time.Millisecond

// WatchConfig reloads the config file at path whenever it changes and passes the result
// to onChange. It blocks until ctx is cancelled. Files that fail to load are logged and
// skipped, leaving the previous configuration in effect.
//
// The parent directory is watched rather than the file so that atomic saves (write to a
// temp file, then rename) are observed.
func WatchConfig(ctx context.Context, path string, logger *zap.Logger, onChange func(*Config)) error {
	if logger == nil {
		logger = zap.NewNop()
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	err = w.Add(filepath.Dir(absPath))
	if err != nil {
		return err
	}

	logger.Debug("Watching config", zap.String("path", absPath))

	var (
		timer  *time.Timer
		reload <-chan time.Time
	)

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}

			return nil

		case <-reload:
			reload = nil

			cfg, err := LoadConfigFile(absPath)
			if err != nil {
				logger.Warn("Config reload failed", zap.String("path", absPath), zap.Error(err))

				continue
			}

			logger.Info("Config reloaded", zap.String("path", absPath))
			onChange(cfg)

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}

			if filepath.Clean(ev.Name) != absPath {
				continue
			}

			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
				continue
			}

			if timer == nil {
				timer = time.NewTimer(reloadDelay)
			} else {
				timer.Reset(reloadDelay)
			}

			reload = timer.C

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}

			logger.Warn("Config watcher error", zap.Error(err))
		}
	}
}
