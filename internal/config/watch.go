package config

import (
	"context"
	"path/filepath"

	"github.com/davecgh/go-spew/spew"
	"github.com/fsnotify/fsnotify"
	"github.com/tauraamui/nvtracker/pkg/configdef"
	"github.com/tauraamui/nvtracker/pkg/log"
	"github.com/tauraamui/xerror"
)

func DefaultWatcher() configdef.Watcher {
	return defaultWatcher{}
}

type defaultWatcher struct{}

func (d defaultWatcher) Watch(ctx context.Context, onChange func(configdef.Values)) (<-chan interface{}, error) {
	return watch(ctx, onChange)
}

// watch reloads the config file whenever it changes and hands every valid
// reload to onChange until ctx is done. The returned channel closes once
// watching has stopped.
func watch(ctx context.Context, onChange func(configdef.Values)) (<-chan interface{}, error) {
	path, err := resolveConfigPath()
	if err != nil {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, xerror.Errorf("unable to start config watcher: %w", err)
	}

	// editors often replace the file rather than write to it, so watch
	// the directory and filter on name
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return nil, xerror.Errorf("unable to watch config directory: %w", err)
	}

	log.Info("Watching config file: %s", path)
	stopped := make(chan interface{})
	go func() {
		defer close(stopped)
		defer watcher.Close()
		watchEvents(ctx, path, watcher.Events, watcher.Errors, onChange)
	}()
	return stopped, nil
}

func watchEvents(
	ctx context.Context, path string,
	events <-chan fsnotify.Event, errs <-chan error,
	onChange func(configdef.Values),
) {
	path = filepath.Clean(path)
	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-events:
			if !ok {
				return
			}
			if filepath.Clean(evt.Name) != path || evt.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			values, err := loadFrom(path)
			if err != nil {
				log.Error("Unable to reload config: %v", err)
				continue
			}
			log.Debug("Reloaded config: %s", spew.Sdump(values))
			onChange(values)
		case err, ok := <-errs:
			if !ok {
				return
			}
			log.Error("Config watcher error: %v", err)
		}
	}
}
