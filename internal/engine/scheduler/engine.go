// Package scheduler implements the incremental build engine.
//
// Each key is evaluated at most once per build by its own goroutine. Keys
// pull their inputs on demand, and requesters of a key that is still being
// evaluated share its result. Only command execution takes a worker slot.
package scheduler

import (
	"context"
	"errors"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/kiln/internal/engine/cycle"
	"go.trai.ch/zerr"
	"golang.org/x/sync/semaphore"
)

// Engine builds keys of a manifest against a persistent result store.
type Engine struct {
	manifest *domain.Manifest
	store    ports.ResultStore
	delegate ports.Delegate
	fs       ports.FileSystem
	tracer   ports.Tracer
	logger   ports.Logger

	parallelism int
	force       bool
	checksums   bool
	metrics     *Metrics

	// builds are serialized; a build owns the store generation.
	mu sync.Mutex
}

// Option configures an Engine.
type Option func(*Engine)

// WithParallelism bounds the number of commands executing at once.
// Values below one select the number of CPUs.
func WithParallelism(n int) Option {
	return func(e *Engine) {
		e.parallelism = n
	}
}

// WithForce makes every command stale regardless of its record.
func WithForce(force bool) Option {
	return func(e *Engine) {
		e.force = force
	}
}

// WithMetrics records build metrics.
func WithMetrics(m *Metrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

// WithChecksums makes source file values depend on content instead of stat data.
func WithChecksums(enabled bool) Option {
	return func(e *Engine) {
		e.checksums = enabled
	}
}

// New creates an Engine.
func New(
	manifest *domain.Manifest,
	store ports.ResultStore,
	delegate ports.Delegate,
	fs ports.FileSystem,
	tracer ports.Tracer,
	logger ports.Logger,
	opts ...Option,
) *Engine {
	e := &Engine{
		manifest: manifest,
		store:    store,
		delegate: delegate,
		fs:       fs,
		tracer:   tracer,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.parallelism < 1 {
		e.parallelism = runtime.NumCPU()
	}
	return e
}

// Build brings a target up to date. An empty name selects the manifest's
// default target. It reports whether every command succeeded; the error is
// reserved for conditions that abort the build, such as an unknown tool,
// an unresolved cycle, a store failure or cancellation.
func (e *Engine) Build(ctx context.Context, target string) (bool, error) {
	if target == "" {
		target = e.manifest.DefaultTarget
	}
	if target == "" {
		return false, domain.ErrNoTargetSpecified
	}
	if _, ok := e.manifest.TargetKeys(target); !ok {
		return false, zerr.With(domain.ErrUnknownTarget, "target", target)
	}

	_, ok, err := e.run(ctx, domain.TargetKey(target))
	return ok, err
}

// BuildKey brings a single key up to date and returns its value.
func (e *Engine) BuildKey(ctx context.Context, key domain.BuildKey) (domain.BuildValue, error) {
	value, _, err := e.run(ctx, key)
	return value, err
}

func (e *Engine) run(ctx context.Context, key domain.BuildKey) (domain.BuildValue, bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	b, err := e.newBuild(ctx)
	if err != nil {
		return domain.BuildValue{}, false, err
	}
	defer b.cancel(nil)

	if key.Kind == domain.KindTarget {
		e.emitPlan(ctx, key.Name)
	}

	spanCtx, span := e.tracer.Start(b.ctx, "build "+key.String(),
		ports.WithAttribute("kiln.build_id", b.id),
		ports.WithAttribute("kiln.generation", int64(b.generation)))
	defer span.End()
	b.spanCtx = spanCtx

	out := b.need(domain.BuildKey{}, key)
	b.background.Wait()

	if err := b.fatalError(); err != nil {
		span.RecordError(err)
		return out.value, false, err
	}
	if err := ctx.Err(); err != nil {
		err = zerr.Wrap(err, domain.ErrBuildCancelled.Error())
		span.RecordError(err)
		return domain.CancelledCommand(), false, err
	}
	if out.err != nil {
		span.RecordError(out.err)
		return out.value, false, out.err
	}

	ok := b.failures.Load() == 0 && !out.value.IsFailure()
	span.SetAttribute("kiln.success", ok)
	e.logger.Debug("build finished", "key", key.String(), "generation", b.generation, "success", ok)
	return out.value, ok, nil
}

func (e *Engine) newBuild(ctx context.Context) (*build, error) {
	iteration, err := e.store.Iteration(ctx)
	if err != nil {
		return nil, zerr.Wrap(err, domain.ErrStoreReadFailed.Error())
	}
	generation := iteration + 1
	if err := e.store.SetIteration(ctx, generation); err != nil {
		return nil, zerr.Wrap(err, domain.ErrStoreWriteFailed.Error())
	}

	buildCtx, cancel := context.WithCancelCause(ctx)
	return &build{
		e:          e,
		ctx:        buildCtx,
		spanCtx:    buildCtx,
		cancel:     cancel,
		id:         uuid.NewString(),
		generation: generation,
		sem:        semaphore.NewWeighted(int64(e.parallelism)),
		entries:    make(map[domain.BuildKey]*entry),
		waits:      cycle.NewGraph(),
		waiters:    make(map[edgeID]map[*waiter]struct{}),
	}, nil
}

// emitPlan reports the static command plan of a target. Dynamic inputs are
// not part of it, so the plan is advisory.
func (e *Engine) emitPlan(ctx context.Context, target string) {
	g, err := e.manifest.Graph()
	if err != nil {
		e.logger.Debug("skipping build plan", "target", target, "reason", err.Error())
		return
	}

	var commands []string
	deps := make(map[string][]string)
	for cmd := range g.WalkFrom(e.manifest.RootCommands(target)) {
		name := cmd.Name.String()
		commands = append(commands, name)
		for _, dep := range g.Dependencies(cmd.Name) {
			deps[name] = append(deps[name], dep.String())
		}
	}
	e.tracer.EmitPlan(ctx, commands, deps, []string{target})
}

// build is the state of a single Build call.
type build struct {
	e          *Engine
	ctx        context.Context
	spanCtx    context.Context
	cancel     context.CancelCauseFunc
	id         string
	generation uint64
	sem        *semaphore.Weighted

	background sync.WaitGroup
	failures   atomic.Int64

	mu      sync.Mutex
	entries map[domain.BuildKey]*entry
	waits   *cycle.Graph
	waiters map[edgeID]map[*waiter]struct{}
	fatal   error
}

// fail aborts the build. The first fatal error wins.
func (b *build) fail(err error) {
	b.mu.Lock()
	if b.fatal == nil {
		b.fatal = err
	}
	b.mu.Unlock()
	b.cancel(err)
}

func (b *build) fatalError() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.fatal
}

// abortError is the error handed to requesters when the build context ends.
func (b *build) abortError() error {
	if err := b.fatalError(); err != nil {
		return err
	}
	cause := context.Cause(b.ctx)
	if cause == nil || errors.Is(cause, context.Canceled) || errors.Is(cause, context.DeadlineExceeded) {
		return zerr.Wrap(b.ctx.Err(), domain.ErrBuildCancelled.Error())
	}
	return cause
}

// noteFailure counts a failed command value towards the build outcome.
func (b *build) noteFailure(value domain.BuildValue) {
	switch value.Kind {
	case domain.ValueFailedCommand:
		b.failures.Add(1)
		b.e.metrics.commandFailed()
		b.e.delegate.HadCommandFailure()
	case domain.ValuePropagatedFailureCommand:
		b.failures.Add(1)
		b.e.metrics.commandFailed()
	}
}
