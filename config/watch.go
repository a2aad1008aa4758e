package config

import (
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"

	"github.com/memvis/collector/util"
)

// Watch - Calls onChange whenever the config file gets written or replaced,
// until stop is closed
//
// The directory is watched rather than the file, since editors and config
// management tools commonly replace the file by renaming a new one over it.
func Watch(filename string, logger *util.Logger, onChange func(), stop <-chan struct{}) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "fsnotify new")
	}

	absFilename, err := filepath.Abs(filename)
	if err != nil {
		watcher.Close()
		return err
	}

	if err = watcher.Add(filepath.Dir(absFilename)); err != nil {
		watcher.Close()
		return errors.Wrapf(err, "watch %s", filepath.Dir(absFilename))
	}

	go func() {
		defer watcher.Close()
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != absFilename {
					continue
				}
				if event.Op&fsnotify.Create == fsnotify.Create || event.Op&fsnotify.Write == fsnotify.Write || event.Op&fsnotify.Rename == fsnotify.Rename {
					logger.PrintVerbose("Config file %s changed (%s)", filename, event.Op)
					onChange()
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.PrintError("ERROR - fsnotify watcher failure: %s", err)
			case <-stop:
				logger.PrintVerbose("Config file watcher received stop signal")
				return
			}
		}
	}()

	return nil
}
