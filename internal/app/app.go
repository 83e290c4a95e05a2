// Package app implements the application layer for kiln.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.trai.ch/kiln/internal/adapters/linear"
	"go.trai.ch/kiln/internal/adapters/settings"
	"go.trai.ch/kiln/internal/adapters/status"
	"go.trai.ch/kiln/internal/adapters/telemetry"
	"go.trai.ch/kiln/internal/adapters/tui"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/kiln/internal/engine/scheduler"
	"go.trai.ch/kiln/internal/ui/output"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

// WatcherFactory creates file watchers for watch mode.
type WatcherFactory interface {
	NewWatcher() (ports.Watcher, error)
}

// logConfigurer is implemented by loggers whose format can change at runtime.
type logConfigurer interface {
	SetJSON(enable bool)
	SetVerbose(enable bool)
}

// App represents the main application logic.
type App struct {
	loader    ports.ManifestLoader
	logger    ports.Logger
	fs        ports.FileSystem
	openers   map[string]ports.StoreOpener
	delegates *status.Factory
	telemetry *telemetry.Provider
	watchers  WatcherFactory
	metrics   *scheduler.Metrics
	terminals ports.TerminalSizer

	settings   settings.Settings
	stdout     io.Writer
	stderr     io.Writer
	debounce   time.Duration
	teaOptions []tea.ProgramOption
}

// New creates a new App instance. openers maps backend names to store openers.
func New(
	loader ports.ManifestLoader,
	log ports.Logger,
	fs ports.FileSystem,
	openers map[string]ports.StoreOpener,
	delegates *status.Factory,
	provider *telemetry.Provider,
	watchers WatcherFactory,
	metrics *scheduler.Metrics,
) *App {
	return &App{
		loader:    loader,
		logger:    log,
		fs:        fs,
		openers:   openers,
		delegates: delegates,
		telemetry: provider,
		watchers:  watchers,
		metrics:   metrics,
		settings: settings.Settings{
			Manifest: domain.ManifestFileName,
			Database: domain.DefaultDatabasePath(),
			Backend:  settings.BackendSQLite,
			Jobs:     runtime.NumCPU(),
			Output:   output.ModeAuto,
		},
		stdout: os.Stdout,
		stderr: os.Stderr,
	}
}

// WithOutput redirects build progress. This is primarily used for testing.
func (a *App) WithOutput(stdout, stderr io.Writer) *App {
	a.stdout = stdout
	a.stderr = stderr
	return a
}

// WithTerminalSizer hands the TUI's output pane size to s, which sizes the
// ptys commands run in.
func (a *App) WithTerminalSizer(s ports.TerminalSizer) *App {
	a.terminals = s
	return a
}

// WithTeaOptions adds options to the TUI program. This is primarily used for testing.
func (a *App) WithTeaOptions(opts ...tea.ProgramOption) *App {
	a.teaOptions = append(a.teaOptions, opts...)
	return a
}

// Configure applies resolved settings, including the logger format.
func (a *App) Configure(s *settings.Settings) {
	a.settings = *s
	if lc, ok := a.logger.(logConfigurer); ok {
		lc.SetJSON(s.Log.JSON)
		lc.SetVerbose(s.Log.Verbose)
	}
}

// Settings returns the settings in effect.
func (a *App) Settings() settings.Settings {
	return a.settings
}

// BuildOptions configuration for the Build and Watch methods.
type BuildOptions struct {
	// Target is the target to build. Empty selects the manifest default.
	Target string
	// Force re-executes every command regardless of its record.
	Force bool
	// Jobs overrides the configured parallelism when positive.
	Jobs int
	// Skip names commands that must not start.
	Skip []string
	// ResolveCycles approves breaking detected cycles.
	ResolveCycles bool
}

// Build brings a target up to date. Command failures are reported as
// domain.ErrBuildFailed once the build has finished.
func (a *App) Build(ctx context.Context, opts BuildOptions) error {
	m, err := a.loadManifest()
	if err != nil {
		return err
	}
	store, err := a.openStore(ctx, m)
	if err != nil {
		return err
	}
	defer a.closeStore(store)

	return a.build(ctx, m, store, opts)
}

func (a *App) build(ctx context.Context, m *domain.Manifest, store ports.ResultStore, opts BuildOptions) error {
	renderer := a.newRenderer(ctx)

	traceOut, closeTrace, err := a.openTrace()
	if err != nil {
		return err
	}
	defer closeTrace()

	session, err := a.telemetry.NewSession(renderer, traceOut)
	if err != nil {
		return err
	}

	delegate := a.delegates.New(m, ".",
		status.WithSkip(opts.Skip...),
		status.WithCycleResolution(opts.ResolveCycles),
	)

	jobs := a.settings.Jobs
	if opts.Jobs > 0 {
		jobs = opts.Jobs
	}
	engine := scheduler.New(m, store, delegate, a.fs, session.Tracer(), a.logger,
		scheduler.WithParallelism(jobs),
		scheduler.WithForce(opts.Force),
		scheduler.WithChecksums(a.settings.Checksums),
		scheduler.WithMetrics(a.metrics),
	)

	var ok bool
	g, gctx := errgroup.WithContext(ctx)

	// Renderer Routine
	g.Go(func() error {
		if err := renderer.Start(gctx); err != nil {
			return err
		}
		return renderer.Wait()
	})

	// Engine Routine
	g.Go(func() error {
		defer func() {
			_ = renderer.Stop()
		}()
		var err error
		ok, err = engine.Build(gctx, opts.Target)
		return err
	})

	buildErr := g.Wait()
	closeErr := session.Close(context.WithoutCancel(ctx))
	if a.settings.Metrics.Output != "" {
		closeErr = errors.Join(closeErr, a.metrics.WriteFile(a.settings.Metrics.Output))
	}

	if buildErr != nil {
		return errors.Join(buildErr, closeErr)
	}
	if !ok {
		summary := delegate.Summary()
		failed := zerr.With(domain.ErrBuildFailed, "failures", summary.Failures)
		return errors.Join(failed, closeErr)
	}
	return closeErr
}

// newRenderer picks the TUI or the linear renderer for the configured output mode.
func (a *App) newRenderer(ctx context.Context) ports.Renderer {
	if output.ResolveMode(a.settings.Output, a.stderr) != output.ModeTUI {
		return linear.NewRenderer(a.stdout, a.stderr)
	}
	model := tui.NewModel(a.stderr)
	if a.terminals != nil {
		model = model.WithTerminalSizer(a.terminals)
	}
	opts := append([]tea.ProgramOption{tea.WithContext(ctx), tea.WithOutput(a.stderr)}, a.teaOptions...)
	return tui.NewRenderer(model, opts...)
}

// Plan is the static command plan of a target.
type Plan struct {
	Target string
	// Commands are in execution order.
	Commands []string
	// Deps maps each command to the commands producing its declared inputs.
	Deps map[string][]string
}

// Plan returns the static plan of a target. It fails on static cycles.
func (a *App) Plan(_ context.Context, target string) (*Plan, error) {
	m, err := a.loadManifest()
	if err != nil {
		return nil, err
	}
	if target == "" {
		target = m.DefaultTarget
	}
	if target == "" {
		return nil, domain.ErrNoTargetSpecified
	}
	if _, ok := m.TargetKeys(target); !ok {
		return nil, zerr.With(domain.ErrUnknownTarget, "target", target)
	}

	g, err := m.Graph()
	if err != nil {
		return nil, err
	}
	plan := &Plan{Target: target, Deps: make(map[string][]string)}
	for cmd := range g.WalkFrom(m.RootCommands(target)) {
		name := cmd.Name.String()
		plan.Commands = append(plan.Commands, name)
		for _, dep := range g.Dependencies(cmd.Name) {
			plan.Deps[name] = append(plan.Deps[name], dep.String())
		}
	}
	return plan, nil
}

// Lookup returns the record stored for a key in its textual form, or nil
// if there is none.
func (a *App) Lookup(ctx context.Context, key string) (*domain.Record, error) {
	k, err := domain.ParseKey(key)
	if err != nil {
		return nil, err
	}
	m, err := a.loadManifest()
	if err != nil {
		return nil, err
	}
	store, err := a.openStore(ctx, m)
	if err != nil {
		return nil, err
	}
	defer a.closeStore(store)

	rec, err := store.Lookup(ctx, k)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrStoreReadFailed.Error()), "key", key)
	}
	return rec, nil
}

// Keys lists every recorded key.
func (a *App) Keys(ctx context.Context) ([]domain.BuildKey, error) {
	m, err := a.loadManifest()
	if err != nil {
		return nil, err
	}
	store, err := a.openStore(ctx, m)
	if err != nil {
		return nil, err
	}
	defer a.closeStore(store)

	keys, err := store.Keys(ctx)
	if err != nil {
		return nil, zerr.Wrap(err, domain.ErrStoreReadFailed.Error())
	}
	return keys, nil
}

// Clean removes the build database of the configured backend.
func (a *App) Clean(_ context.Context) error {
	var errs error
	path := a.settings.Database
	for _, p := range []string{path, path + "-wal", path + "-shm"} {
		if _, err := os.Stat(p); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := os.RemoveAll(p); err != nil {
			errs = errors.Join(errs, zerr.With(zerr.Wrap(err, "failed to remove build database"), "path", p))
			continue
		}
		a.logger.Info(fmt.Sprintf("removed %s", p))
	}
	return errs
}

func (a *App) loadManifest() (*domain.Manifest, error) {
	m, err := a.loader.Load(a.settings.Manifest)
	if err != nil {
		return nil, zerr.Wrap(err, "failed to load manifest")
	}
	return m, nil
}

func (a *App) openStore(ctx context.Context, m *domain.Manifest) (ports.ResultStore, error) {
	opener, ok := a.openers[a.settings.Backend]
	if !ok {
		return nil, zerr.With(domain.ErrUnknownBackend, "backend", a.settings.Backend)
	}
	store, err := opener.Open(ctx, a.settings.Database, domain.MergedSchemaVersion(m.ClientVersion()))
	if err != nil {
		return nil, err
	}
	return store, nil
}

func (a *App) closeStore(store ports.ResultStore) {
	if err := store.Close(); err != nil {
		a.logger.Warn("failed to close build database", "error", err.Error())
	}
}

// openTrace opens the configured trace file. Without one it returns a nil writer.
func (a *App) openTrace() (io.Writer, func(), error) {
	if a.settings.Trace == "" {
		return nil, func() {}, nil
	}
	f, err := os.Create(a.settings.Trace) //nolint:gosec // path is provided by user
	if err != nil {
		return nil, nil, zerr.With(zerr.Wrap(err, "failed to create trace file"), "path", a.settings.Trace)
	}
	return f, func() { _ = f.Close() }, nil
}
