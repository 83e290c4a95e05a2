package app

import (
	"context"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"go.trai.ch/kiln/internal/adapters/watcher"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
)

// Watch builds a target, then rebuilds it whenever one of its source files
// or the manifest changes. It returns when ctx is done.
func (a *App) Watch(ctx context.Context, opts BuildOptions) error {
	m, err := a.loadManifest()
	if err != nil {
		return err
	}
	store, err := a.openStore(ctx, m)
	if err != nil {
		return err
	}
	defer func() { a.closeStore(store) }()

	w, err := a.watchers.NewWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = w.Stop() }()
	if err := w.Start(ctx, watchPaths(m, a.settings.Manifest)); err != nil {
		return err
	}

	changes := make(chan []string, 1)
	debouncer := watcher.NewDebouncer(a.debounceWindow(), func(paths []string) {
		select {
		case changes <- paths:
		default:
			// A rebuild is already queued and will see the change.
		}
	})
	defer debouncer.Stop()

	go func() {
		for ev := range w.Events() {
			debouncer.Add(ev.Path)
		}
	}()

	a.rebuild(ctx, m, store, opts)
	for {
		select {
		case <-ctx.Done():
			return nil
		case paths := <-changes:
			a.logger.Info("change detected, rebuilding", "paths", strings.Join(paths, ", "))
			if a.manifestChanged(paths) {
				m, store = a.reload(ctx, m, store)
			}
			a.rebuild(ctx, m, store, opts)
		}
	}
}

func (a *App) rebuild(ctx context.Context, m *domain.Manifest, store ports.ResultStore, opts BuildOptions) {
	if err := a.build(ctx, m, store, opts); err != nil && ctx.Err() == nil {
		a.logger.Error(err)
	}
}

func (a *App) manifestChanged(paths []string) bool {
	manifest, err := filepath.Abs(a.settings.Manifest)
	if err != nil {
		return false
	}
	return slices.Contains(paths, manifest)
}

// reload loads the changed manifest. The store is reopened when the client
// version changed. On failure the previous manifest stays in effect.
func (a *App) reload(ctx context.Context, m *domain.Manifest, store ports.ResultStore) (*domain.Manifest, ports.ResultStore) {
	next, err := a.loadManifest()
	if err != nil {
		a.logger.Error(err)
		return m, store
	}
	if next.ClientVersion() == m.ClientVersion() {
		return next, store
	}
	a.closeStore(store)
	reopened, err := a.openStore(ctx, next)
	if err != nil {
		a.logger.Error(err)
		reopened, err = a.openStore(ctx, m)
		if err != nil {
			a.logger.Error(err)
			return m, store
		}
		return m, reopened
	}
	return next, reopened
}

func (a *App) debounceWindow() time.Duration {
	if a.debounce > 0 {
		return a.debounce
	}
	return watcher.DefaultDebounceWindow
}

// WithDebounce sets the watch mode debounce window. This is primarily used for testing.
func (a *App) WithDebounce(window time.Duration) *App {
	a.debounce = window
	return a
}

// watchPaths returns the manifest and every source node: nodes that are not
// virtual and that no command produces.
func watchPaths(m *domain.Manifest, manifest string) []string {
	paths := []string{manifest}
	for _, p := range m.NodePaths() {
		if m.IsVirtual(p) || len(m.Producers(p)) > 0 {
			continue
		}
		paths = append(paths, p)
	}
	return paths
}
