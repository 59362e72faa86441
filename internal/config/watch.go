package config

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// reloadDelay batches the bursts of events editors produce on save.
const reloadDelay = 200 * time.Millisecond

// Watch reloads the file at path whenever it changes and passes each valid
// configuration to onChange. Invalid files are logged and skipped. The
// directory is watched rather than the file so that atomic saves (write to
// a temporary file, then rename) are seen. Watch blocks until ctx is done.
func Watch(ctx context.Context, path string, logger *zap.Logger, onChange func(Config)) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve config path: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create config watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}
	logger.Info("watching config", zap.String("path", abs))

	timer := time.NewTimer(reloadDelay)
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
			if filepath.Clean(event.Name) != abs {
				continue
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
				continue
			}
			timer.Reset(reloadDelay)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("config watcher error", zap.Error(err))

		case <-timer.C:
			cfg, err := Load(abs)
			if err != nil {
				logger.Warn("config reload failed, keeping previous", zap.Error(err))
				continue
			}
			logger.Info("config reloaded", zap.String("path", abs))
			onChange(cfg)
		}
	}
}
