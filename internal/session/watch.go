package session

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/fakeyudi/careerchat/internal/debug"
	"github.com/fakeyudi/careerchat/internal/slot"
)

// ErrNotWatchable is returned by Watch when the slot is not file-backed.
var ErrNotWatchable = errors.New("history slot cannot be watched")

// Watch reloads the store whenever another process rewrites the history file,
// calling onChange (if non-nil) after each reload that changed state. It
// returns once the watcher is running; the watcher stops when ctx is done or
// the store is closed.
func (s *Store) Watch(ctx context.Context, onChange func()) error {
	w, ok := s.slot.(slot.Watchable)
	if !ok {
		return ErrNotWatchable
	}
	path := filepath.Clean(w.Path())

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	// Watch the directory: atomic renames replace the file's inode.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return fmt.Errorf("watching %s: %w", filepath.Dir(path), err)
	}

	ctx, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	prev := s.stopWatch
	s.stopWatch = cancel
	s.mu.Unlock()
	if prev != nil {
		prev()
	}

	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != path {
					continue
				}
				if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Remove) && !ev.Has(fsnotify.Rename) {
					continue
				}
				if s.reload() {
					debug.Event("session", "reload", path)
					if onChange != nil {
						onChange()
					}
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				debug.Error("session", err, "history watcher")
			}
		}
	}()
	return nil
}
