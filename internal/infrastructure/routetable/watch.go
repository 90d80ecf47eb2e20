package routetable

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// Watch reloads the route table into live whenever the file at path
// changes, until ctx is done. A table that fails to load is logged and the
// previous guard stays in effect.
//
// The parent directory is watched so that editors replacing the file by
// rename are picked up.
func Watch(ctx context.Context, path string, live *Live, log zerolog.Logger) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("route table path: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}

	go func() {
		defer watcher.Close()
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
				if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				g, err := Load(abs)
				if err != nil {
					log.Warn().Err(err).Str("file", abs).Msg("route table reload failed, keeping previous")
					continue
				}
				live.Store(g)
				log.Info().Str("file", abs).Msg("route table reloaded")
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Warn().Err(err).Msg("route table watcher error")
			}
		}
	}()
	return nil
}
