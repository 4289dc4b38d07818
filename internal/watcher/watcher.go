// Package watcher monitors the local source directories so an interactive
// session can tell the user when the persisted index has gone stale. It never
// triggers a rebuild itself; build and query are not allowed to run
// concurrently against the same save directory.
package watcher

import (
	"context"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Event reports a change under a watched source directory.
type Event struct {
	Path string
	Op   string
}

// Watcher watches a set of directories recursively for source-file changes.
type Watcher struct {
	fsw *fsnotify.Watcher
	log *zap.Logger
}

// New creates a watcher covering each directory and its subdirectories.
func New(dirs []string, log *zap.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &Watcher{fsw: fsw, log: log}
	for _, dir := range dirs {
		if err := w.addRecursive(dir); err != nil {
			fsw.Close()
			return nil, err
		}
	}
	return w, nil
}

// Events starts delivering change events for .txt and .pdf files until ctx is
// done or the watcher is closed. Directories created while watching are added
// to the watch set.
func (w *Watcher) Events(ctx context.Context) <-chan Event {
	events := make(chan Event, 16)
	go func() {
		defer close(events)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-w.fsw.Events:
				if !ok {
					return
				}
				if ev.Op.Has(fsnotify.Create) {
					// A new subdirectory must be watched too.
					_ = w.addRecursive(ev.Name)
				}
				if !isSourceFile(ev.Name) {
					continue
				}
				if !ev.Op.Has(fsnotify.Create) && !ev.Op.Has(fsnotify.Write) &&
					!ev.Op.Has(fsnotify.Remove) && !ev.Op.Has(fsnotify.Rename) {
					continue
				}
				select {
				case events <- Event{Path: ev.Name, Op: ev.Op.String()}:
				case <-ctx.Done():
					return
				}
			case err, ok := <-w.fsw.Errors:
				if !ok {
					return
				}
				w.log.Warn("watch error", zap.Error(err))
			}
		}
	}()
	return events
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}

func (w *Watcher) addRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// The root must exist; anything below may race with deletion.
			if path == root {
				return err
			}
			return nil
		}
		if d.IsDir() {
			return w.fsw.Add(path)
		}
		return nil
	})
}

func isSourceFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt", ".pdf":
		return true
	}
	return false
}
