package server

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce coalesces editor save bursts (write + rename + chmod
// storms) into one rebuild.
const DefaultDebounce = 300 * time.Millisecond

// Watcher watches source trees recursively and reports changes after a
// debounce window. One callback fires per burst, carrying the path of
// the last event seen.
type Watcher struct {
	fsw      *fsnotify.Watcher
	debounce time.Duration
	onChange func(name string)
	log      *slog.Logger
}

func NewWatcher(debounce time.Duration, logger *slog.Logger, onChange func(name string)) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &Watcher{fsw: fsw, debounce: debounce, onChange: onChange, log: logger}
	if w.debounce <= 0 {
		w.debounce = DefaultDebounce
	}
	return w, nil
}

// Add registers directory trees. Missing directories are skipped, as
// are hidden ones (.git and friends generate endless churn).
func (w *Watcher) Add(dirs ...string) error {
	for _, dir := range dirs {
		if _, err := os.Stat(dir); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() {
				return nil
			}
			if name := filepath.Base(path); strings.HasPrefix(name, ".") && path != dir {
				return filepath.SkipDir
			}
			return w.fsw.Add(path)
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// Run processes events until ctx is cancelled. It closes the watcher on
// the way out.
func (w *Watcher) Run(ctx context.Context) {
	defer func() {
		if err := w.fsw.Close(); err != nil {
			w.log.Warn("Failed to close file watcher", "error", err)
		}
	}()

	var pending *time.Timer

	for {
		select {
		case <-ctx.Done():
			if pending != nil {
				pending.Stop()
			}
			return

		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			// Chmod fires on every mtime touch; it never changes content.
			if event.Has(fsnotify.Chmod) {
				continue
			}

			// Newly created directories need their own watch.
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := w.fsw.Add(event.Name); err != nil {
						w.log.Warn("Failed to watch new directory", "dir", event.Name, "error", err)
					}
				}
			}

			if pending != nil {
				pending.Stop()
			}
			changed := event.Name
			pending = time.AfterFunc(w.debounce, func() {
				w.onChange(changed)
			})

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.log.Warn("Watcher error", "error", err)
		}
	}
}
