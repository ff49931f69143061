package cli

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"

	"github.com/matzehuels/metacheck/pkg/errors"
	mcio "github.com/matzehuels/metacheck/pkg/io"
)

// watchPaths calls run whenever a record file under paths is written,
// created, renamed or removed, until ctx is cancelled. Bursts of events
// within debounce trigger a single run. Files listed in ignore (such as the
// summary the run itself writes) never trigger.
//
// Runs happen one at a time on the calling goroutine. A failing run is
// logged and watching continues.
func watchPaths(ctx context.Context, logger *log.Logger, paths []string, debounce time.Duration, ignore []string, run func(context.Context) error) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "watch init")
	}
	defer watcher.Close()

	dirs := watchDirs(paths)
	for _, d := range dirs {
		if err := watcher.Add(d); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidInput, err, "watch %s", d)
		}
		logger.Debug("watching", "dir", d)
	}

	skip := make(map[string]bool, len(ignore))
	for _, p := range ignore {
		if abs, err := filepath.Abs(p); err == nil {
			skip[abs] = true
		}
	}

	var timer *time.Timer
	trigger := make(chan struct{}, 1)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !relevantEvent(ev, skip) {
				continue
			}
			logger.Debug("change detected", "file", ev.Name, "op", ev.Op.String())
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(debounce, func() {
				select {
				case trigger <- struct{}{}:
				default:
				}
			})
		case <-trigger:
			logger.Info("inputs changed, re-running analysis")
			if err := run(ctx); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				logger.Error("analysis failed", "err", err)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch error", "err", err)
		}
	}
}

// watchDirs returns the directories to watch for paths: directories
// themselves, and the parent directory of files. Duplicates are removed.
func watchDirs(paths []string) []string {
	var dirs []string
	seen := map[string]bool{}
	for _, p := range paths {
		dir := p
		if info, err := os.Stat(p); err != nil || !info.IsDir() {
			dir = filepath.Dir(p)
		}
		if abs, err := filepath.Abs(dir); err == nil {
			dir = abs
		}
		if !seen[dir] {
			seen[dir] = true
			dirs = append(dirs, dir)
		}
	}
	return dirs
}

// relevantEvent reports whether ev concerns a record file.
func relevantEvent(ev fsnotify.Event, skip map[string]bool) bool {
	if ev.Op == fsnotify.Chmod {
		return false
	}
	if !strings.EqualFold(filepath.Ext(ev.Name), mcio.RecordExt) {
		return false
	}
	if abs, err := filepath.Abs(ev.Name); err == nil && skip[abs] {
		return false
	}
	return true
}
