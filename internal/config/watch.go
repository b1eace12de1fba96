package config

import (
	"context"
	"log/slog"

	"github.com/fsnotify/fsnotify"
)

// Watch reloads the config at path whenever the file is rewritten and hands
// each new Config to onChange. Invalid edits are logged and skipped, so the
// last good config stays active. Watch blocks until ctx is cancelled; loop
// mode runs it beside the gather ticker so threshold or subnet-set edits
// apply on the next cycle without a restart.
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

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			// Writes in place and creates both count as edits; editors that
			// save atomically replace the file rather than writing to it.
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				reload(watcher, path, onChange)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Error("config: watcher error", "err", err)
		}
	}
}

// reload re-arms the watch (an atomic save replaces the inode, dropping the
// old watch) and parses the updated file.
func reload(watcher *fsnotify.Watcher, path string, onChange func(*Config)) {
	_ = watcher.Add(path)

	cfg, err := Load(path)
	if err != nil {
		slog.Error("config: ignoring invalid edit", "path", path, "err", err)
		return
	}
	slog.Info("config: reloaded", "path", path)
	onChange(cfg)
}
