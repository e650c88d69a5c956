package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Carmen-Shannon/oxy-mesh/engine/logger"
	"github.com/fsnotify/fsnotify"
)

// LoadFile reads and loads the TOML document at path.
//
// Parameters:
//   - path: the configuration file
//
// Returns:
//   - Config: the merged configuration
//   - error: a read error, or any error returned by Load
func LoadFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config: %w", err)
	}
	cfg, err := Load(data)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Watch reloads the file at path each time it is written or replaced and passes every
// configuration that loads cleanly to onChange. Documents that fail to load are logged and skipped.
// The parent directory is watched so that editors which save by rename are followed. Watch blocks
// until ctx is done.
//
// Parameters:
//   - ctx: cancels the watch
//   - path: the configuration file
//   - onChange: called from the watching goroutine with each reloaded configuration
//
// Returns:
//   - error: an error if the watcher cannot be created, otherwise nil once ctx is done
func Watch(ctx context.Context, path string, onChange func(Config)) error {
	path = filepath.Clean(path)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create config watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", path, err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != path || !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			cfg, err := LoadFile(path)
			if err != nil {
				logger.Logger().Warn("ignoring config change", "path", path, "error", err)
				continue
			}
			logger.Logger().Info("config reloaded", "path", path)
			onChange(cfg)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Logger().Warn("config watcher error", "path", path, "error", err)
		}
	}
}
