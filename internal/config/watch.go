package config

import (
	"context"
	"log/slog"
	"time"

	"github.com/fsnotify/fsnotify"
)

// debounceWindow is how long Watch waits after the last write event before
// reloading. Editors and atomic saves emit bursts of events per save; one
// reload per burst is enough.
const debounceWindow = 200 * time.Millisecond

// Watch monitors path for changes and calls onChange with the newly loaded
// Config once per save. It runs until ctx is cancelled.
//
// If a reload fails (e.g., invalid YAML or a failed validation), the error is
// logged and the previous config remains active; Watch does not call onChange.
func Watch(ctx context.Context, path string, onChange func(*Config)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(path); err != nil {
		return err
	}

	slog.Info("config: watching for changes", "path", path)

	debounce := time.NewTimer(debounceWindow)
	if !debounce.Stop() {
		<-debounce.C
	}

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			// Only write and create events matter. Editors often save via
			// rename (atomic save), which arrives as fsnotify.Create.
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if !debounce.Stop() {
				select {
				case <-debounce.C:
				default:
				}
			}
			debounce.Reset(debounceWindow)

		case <-debounce.C:
			cfg, err := Load(path)
			if err != nil {
				slog.Error("config: reload failed, keeping previous config",
					"path", path, "err", err)
			} else {
				slog.Info("config: reloaded",
					"path", path,
					"tables", len(cfg.Data.Tables),
					"ttl", cfg.Data.TTL,
					"min_request_interval", cfg.Data.MinRequestInterval,
				)
				onChange(cfg)
			}
			// Re-add the file in case an atomic save replaced the inode.
			_ = watcher.Add(path)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Error("config: watcher error", "err", err)
		}
	}
}
