// Package watcher reports changes to build inputs using fsnotify.
package watcher

import (
	"context"
	"io/fs"
	"iter"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.Watcher = (*Watcher)(nil)

// skippedDirs are never watched.
var skippedDirs = map[string]bool{
	".git":             true,
	".jj":              true,
	"node_modules":     true,
	domain.KilnDirName: true,
}

const eventBuffer = 100

// Factory creates watchers.
type Factory struct {
	logger ports.Logger
}

// NewFactory creates a new Factory.
func NewFactory(logger ports.Logger) *Factory {
	return &Factory{logger: logger}
}

// NewWatcher creates a watcher backed by a fresh fsnotify instance.
func (f *Factory) NewWatcher() (ports.Watcher, error) {
	return New(f.logger)
}

// Watcher implements ports.Watcher. Files are watched through their parent
// directory, so a deleted and recreated input is still seen.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	logger    ports.Logger
	events    chan ports.WatchEvent

	mu    sync.RWMutex
	files map[string]struct{}
	roots []string
	added map[string]struct{}
}

// New creates a Watcher.
func New(logger ports.Logger) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, zerr.Wrap(err, "failed to create file watcher")
	}
	return &Watcher{
		fsWatcher: fw,
		logger:    logger,
		events:    make(chan ports.WatchEvent, eventBuffer),
		files:     make(map[string]struct{}),
		added:     make(map[string]struct{}),
	}, nil
}

// Start watches paths and begins delivering events until ctx is done or
// Stop is called.
func (w *Watcher) Start(ctx context.Context, paths []string) error {
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return zerr.With(zerr.Wrap(err, "failed to resolve watch path"), "path", p)
		}
		if info, err := os.Stat(abs); err == nil && info.IsDir() {
			w.mu.Lock()
			w.roots = append(w.roots, abs)
			w.mu.Unlock()
			for dir := range walkDirs(abs) {
				if err := w.add(dir); err != nil {
					return err
				}
			}
			continue
		}

		w.mu.Lock()
		w.files[abs] = struct{}{}
		w.mu.Unlock()
		if err := w.add(filepath.Dir(abs)); err != nil {
			w.logger.Warn("cannot watch input directory", "path", abs, "error", err.Error())
		}
	}

	go w.processEvents(ctx)
	return nil
}

// Stop releases the fsnotify instance. Events ends once pending events drain.
func (w *Watcher) Stop() error {
	return w.fsWatcher.Close()
}

// Events yields changes to watched inputs.
func (w *Watcher) Events() iter.Seq[ports.WatchEvent] {
	return func(yield func(ports.WatchEvent) bool) {
		for event := range w.events {
			if !yield(event) {
				return
			}
		}
	}
}

func (w *Watcher) add(dir string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.added[dir]; ok {
		return nil
	}
	if err := w.fsWatcher.Add(dir); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to watch directory"), "path", dir)
	}
	w.added[dir] = struct{}{}
	return nil
}

// relevant reports whether path is a watched file or lies below a watched root.
func (w *Watcher) relevant(path string) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if _, ok := w.files[path]; ok {
		return true
	}
	for _, root := range w.roots {
		if path == root || strings.HasPrefix(path, root+string(filepath.Separator)) {
			return !inSkippedDir(root, path)
		}
	}
	return false
}

func (w *Watcher) processEvents(ctx context.Context) {
	defer close(w.events)

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			op, ok := convertOp(event.Op)
			if !ok || !w.relevant(event.Name) {
				continue
			}

			select {
			case w.events <- ports.WatchEvent{Path: event.Name, Operation: op}:
			case <-ctx.Done():
				return
			}

			if op == ports.OpCreate {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() && !skippedDirs[info.Name()] {
					for dir := range walkDirs(event.Name) {
						_ = w.add(dir)
					}
				}
			}
		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("file system watch error", "error", err.Error())
		}
	}
}

// convertOp maps fsnotify ops. Writes win over creates when both are set.
func convertOp(op fsnotify.Op) (ports.WatchOp, bool) {
	switch {
	case op.Has(fsnotify.Write):
		return ports.OpWrite, true
	case op.Has(fsnotify.Create):
		return ports.OpCreate, true
	case op.Has(fsnotify.Remove):
		return ports.OpRemove, true
	case op.Has(fsnotify.Rename):
		return ports.OpRename, true
	default:
		return 0, false
	}
}

// walkDirs yields root and every directory below it that is not skipped.
func walkDirs(root string) iter.Seq[string] {
	return func(yield func(string) bool) {
		_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return nil //nolint:nilerr // unreadable directories are not watched
			}
			if !d.IsDir() {
				return nil
			}
			if path != root && skippedDirs[d.Name()] {
				return fs.SkipDir
			}
			if !yield(path) {
				return filepath.SkipAll
			}
			return nil
		})
	}
}

func inSkippedDir(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	for part := range strings.SplitSeq(rel, string(filepath.Separator)) {
		if skippedDirs[part] {
			return true
		}
	}
	return false
}
