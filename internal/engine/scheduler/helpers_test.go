package scheduler_test

import (
	"context"
	"slices"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/kiln/internal/core/ports/mocks"
	"go.trai.ch/kiln/internal/engine/scheduler"
	"go.uber.org/mock/gomock"
)

const testTool = "testtool"

// memStore is an in-memory ports.ResultStore.
type memStore struct {
	mu        sync.Mutex
	records   map[domain.BuildKey]domain.Record
	iteration uint64
	writes    []domain.BuildKey
	recordErr error
}

func newMemStore() *memStore {
	return &memStore{records: make(map[domain.BuildKey]domain.Record)}
}

func (s *memStore) Lookup(_ context.Context, key domain.BuildKey) (*domain.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[key]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

func (s *memStore) Record(_ context.Context, rec domain.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.recordErr != nil {
		return s.recordErr
	}
	s.records[rec.Key] = rec
	s.writes = append(s.writes, rec.Key)
	return nil
}

func (s *memStore) Iteration(context.Context) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.iteration, nil
}

func (s *memStore) SetIteration(_ context.Context, n uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.iteration = n
	return nil
}

func (s *memStore) Keys(context.Context) ([]domain.BuildKey, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]domain.BuildKey, 0, len(s.records))
	for k := range s.records {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, domain.Compare)
	return keys, nil
}

func (s *memStore) Close() error { return nil }

func (s *memStore) get(key domain.BuildKey) (domain.Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[key]
	return rec, ok
}

// fakeFS serves stat data and checksums from maps.
type fakeFS struct {
	mu    sync.Mutex
	infos map[string]domain.FileInfo
	sums  map[string]domain.FileChecksum
}

func newFakeFS() *fakeFS {
	return &fakeFS{
		infos: make(map[string]domain.FileInfo),
		sums:  make(map[string]domain.FileChecksum),
	}
}

func (f *fakeFS) set(path string, info domain.FileInfo) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.infos[path] = info
}

func (f *fakeFS) setSum(path string, sum byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sums[path] = domain.FileChecksum{sum}
}

func (f *fakeFS) Stat(path string) domain.FileInfo {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.infos[path]
}

func (f *fakeFS) Checksum(path string) domain.FileChecksum {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sums[path]
}

// testCommand is a ports.Command assembled from optional hooks.
type testCommand struct {
	signature []byte
	start     func(ci ports.CommandInterface)
	provide   func(ci ports.CommandInterface, value domain.BuildValue, inputID uint)
	execute   func(ctx context.Context, ci ports.CommandInterface) bool
}

func (c *testCommand) Signature() []byte { return c.signature }

func (c *testCommand) Start(ci ports.CommandInterface) {
	if c.start != nil {
		c.start(ci)
	}
}

func (c *testCommand) ProvideValue(ci ports.CommandInterface, value domain.BuildValue, inputID uint) {
	if c.provide != nil {
		c.provide(ci, value, inputID)
	}
}

func (c *testCommand) Execute(ctx context.Context, ci ports.CommandInterface) bool {
	if c.execute != nil {
		return c.execute(ctx, ci)
	}
	return true
}

// valueCommand computes its own result value.
type valueCommand struct {
	ports.BaseCommand
	value domain.BuildValue
}

func (c *valueCommand) Execute(context.Context, ports.CommandInterface) bool { return false }

func (c *valueCommand) ExecuteValue(context.Context, ports.CommandInterface) domain.BuildValue {
	return c.value
}

// fakeTool creates commands from per-name factories.
type fakeTool struct {
	mu       sync.Mutex
	commands map[string]func() ports.Command
	custom   func(key domain.BuildKey) ports.Command
}

func newFakeTool() *fakeTool {
	return &fakeTool{commands: make(map[string]func() ports.Command)}
}

func (t *fakeTool) handle(name string, factory func() ports.Command) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.commands[name] = factory
}

func (t *fakeTool) CreateCommand(name string) ports.Command {
	t.mu.Lock()
	factory, ok := t.commands[name]
	t.mu.Unlock()
	if !ok {
		return nil
	}
	return factory()
}

func (t *fakeTool) CreateCustomCommand(key domain.BuildKey) ports.Command {
	if t.custom == nil {
		return nil
	}
	return t.custom(key)
}

// recordingDelegate records every notification it receives.
type recordingDelegate struct {
	tools map[string]ports.Tool

	shouldStart  func(cmd ports.CommandRef) bool
	resolveCycle func(keys []domain.BuildKey, candidate domain.BuildKey, action domain.CycleAction) bool

	mu                sync.Mutex
	started           []string
	finished          map[string]domain.CommandResult
	statuses          map[string]domain.CommandStatus
	failures          int
	missingInputs     map[string][]domain.BuildKey
	multipleProducers []domain.BuildKey
	cycles            [][]domain.BuildKey
	messages          []string
	output            []byte
}

func newRecordingDelegate(tool ports.Tool) *recordingDelegate {
	return &recordingDelegate{
		tools:         map[string]ports.Tool{testTool: tool},
		finished:      make(map[string]domain.CommandResult),
		statuses:      make(map[string]domain.CommandStatus),
		missingInputs: make(map[string][]domain.BuildKey),
	}
}

func (d *recordingDelegate) LookupTool(name string) ports.Tool {
	tool, ok := d.tools[name]
	if !ok {
		return nil
	}
	return tool
}

func (d *recordingDelegate) HadCommandFailure() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.failures++
}

func (d *recordingDelegate) HandleDiagnostic(diag domain.Diagnostic) {
	d.note(diag.Kind.String() + ": " + diag.Message)
}

func (d *recordingDelegate) CommandStatusChanged(cmd ports.CommandRef, status domain.CommandStatus) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.statuses[cmd.Name] = status
}

func (d *recordingDelegate) CommandPreparing(ports.CommandRef) {}

func (d *recordingDelegate) CommandStarted(cmd ports.CommandRef) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.started = append(d.started, cmd.Name)
}

func (d *recordingDelegate) ShouldCommandStart(cmd ports.CommandRef) bool {
	if d.shouldStart == nil {
		return true
	}
	return d.shouldStart(cmd)
}

func (d *recordingDelegate) CommandFinished(cmd ports.CommandRef, result domain.CommandResult) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.finished[cmd.Name] = result
}

func (d *recordingDelegate) CommandHadError(cmd ports.CommandRef, message string) {
	d.note("error " + cmd.Name + ": " + message)
}

func (d *recordingDelegate) CommandHadNote(cmd ports.CommandRef, message string) {
	d.note("note " + cmd.Name + ": " + message)
}

func (d *recordingDelegate) CommandHadWarning(cmd ports.CommandRef, message string) {
	d.note("warning " + cmd.Name + ": " + message)
}

func (d *recordingDelegate) CommandCannotBuildOutputDueToMissingInputs(
	cmd ports.CommandRef, output domain.BuildKey, inputs []domain.BuildKey,
) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.missingInputs[cmd.Name+" "+output.String()] = inputs
}

func (d *recordingDelegate) CannotBuildNodeDueToMultipleProducers(output domain.BuildKey, _ []ports.CommandRef) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.multipleProducers = append(d.multipleProducers, output)
}

func (d *recordingDelegate) CommandProcessStarted(cmd ports.CommandRef, _ domain.ProcessHandle) {
	d.note("process started " + cmd.Name)
}

func (d *recordingDelegate) CommandProcessHadError(cmd ports.CommandRef, _ domain.ProcessHandle, message string) {
	d.note("process error " + cmd.Name + ": " + message)
}

func (d *recordingDelegate) CommandProcessHadOutput(_ ports.CommandRef, _ domain.ProcessHandle, data []byte) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.output = append(d.output, data...)
}

func (d *recordingDelegate) CommandProcessFinished(cmd ports.CommandRef, _ domain.ProcessHandle, _ domain.ProcessResult) {
	d.note("process finished " + cmd.Name)
}

func (d *recordingDelegate) CycleDetected(keys []domain.BuildKey) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cycles = append(d.cycles, keys)
}

func (d *recordingDelegate) ShouldResolveCycle(keys []domain.BuildKey, candidate domain.BuildKey, action domain.CycleAction) bool {
	if d.resolveCycle == nil {
		return false
	}
	return d.resolveCycle(keys, candidate, action)
}

func (d *recordingDelegate) note(msg string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.messages = append(d.messages, msg)
}

// executions returns the commands started since the last call.
func (d *recordingDelegate) executions() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	started := d.started
	d.started = nil
	return started
}

// stubTracer hands out spans that only collect their output.
type stubTracer struct {
	mu    sync.Mutex
	plans [][]string
}

func (t *stubTracer) Start(ctx context.Context, _ string, _ ...ports.SpanOption) (context.Context, ports.Span) {
	return ctx, &stubSpan{}
}

func (t *stubTracer) EmitPlan(_ context.Context, commands []string, _ map[string][]string, _ []string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.plans = append(t.plans, commands)
}

type stubSpan struct {
	mu  sync.Mutex
	out []byte
}

func (s *stubSpan) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.out = append(s.out, p...)
	return len(p), nil
}

func (s *stubSpan) End()                     {}
func (s *stubSpan) RecordError(error)        {}
func (s *stubSpan) SetAttribute(string, any) {}

// fixture bundles the collaborators of an Engine under test.
type fixture struct {
	manifest *domain.Manifest
	store    *memStore
	fs       *fakeFS
	tool     *fakeTool
	delegate *recordingDelegate
	tracer   *stubTracer
	logger   *mocks.MockLogger
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctrl := gomock.NewController(t)

	log := mocks.NewMockLogger(ctrl)
	log.EXPECT().Debug(gomock.Any(), gomock.Any()).AnyTimes()
	log.EXPECT().Info(gomock.Any(), gomock.Any()).AnyTimes()
	log.EXPECT().Warn(gomock.Any(), gomock.Any()).AnyTimes()
	log.EXPECT().Error(gomock.Any()).AnyTimes()

	m := domain.NewManifest(domain.Client{Name: "basic"})
	m.AddTool(domain.ToolDecl{Name: domain.Intern(testTool)})

	tool := newFakeTool()
	return &fixture{
		manifest: m,
		store:    newMemStore(),
		fs:       newFakeFS(),
		tool:     tool,
		delegate: newRecordingDelegate(tool),
		tracer:   &stubTracer{},
		logger:   log,
	}
}

// command declares a manifest command handled by the fake tool.
func (f *fixture) command(t *testing.T, name string, inputs, outputs []domain.BuildKey, factory func() ports.Command) {
	t.Helper()
	require.NoError(t, f.manifest.AddCommand(&domain.CommandDecl{
		Name:    domain.Intern(name),
		Tool:    domain.Intern(testTool),
		Inputs:  inputs,
		Outputs: outputs,
	}))
	f.tool.handle(name, factory)
}

func (f *fixture) target(t *testing.T, name string, keys ...domain.BuildKey) {
	t.Helper()
	require.NoError(t, f.manifest.AddTarget(name, keys))
}

func (f *fixture) engine(opts ...scheduler.Option) *scheduler.Engine {
	return scheduler.New(f.manifest, f.store, f.delegate, f.fs, f.tracer, f.logger, opts...)
}

// succeed returns a factory for a command that always succeeds.
func succeed() func() ports.Command {
	return func() ports.Command { return &testCommand{} }
}

func node(path string) domain.BuildKey { return domain.NodeKey(path) }

func cmdKey(name string) domain.BuildKey { return domain.CommandKey(name) }
