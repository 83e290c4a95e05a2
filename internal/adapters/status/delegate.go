// Package status provides the delegate that a build reports to. It resolves
// the manifest's tools, logs diagnostics and keeps the build's tally.
package status

import (
	"strings"
	"sync"

	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/zerr"
)

// ToolSource creates the tools available to a manifest.
type ToolSource interface {
	Tools(manifest *domain.Manifest, dir string) map[string]ports.Tool
}

// Factory creates delegates for loaded manifests.
type Factory struct {
	tools  ToolSource
	logger ports.Logger
}

// NewFactory creates a new Factory.
func NewFactory(tools ToolSource, logger ports.Logger) *Factory {
	return &Factory{tools: tools, logger: logger}
}

// New creates a delegate whose tools run commands in dir.
func (f *Factory) New(manifest *domain.Manifest, dir string, opts ...Option) *Delegate {
	return NewDelegate(f.tools.Tools(manifest, dir), f.logger, opts...)
}

// Option configures a Delegate.
type Option func(*Delegate)

// WithCycleResolution makes the delegate approve the first candidate offered
// for every detected cycle.
func WithCycleResolution(enabled bool) Option {
	return func(d *Delegate) {
		d.resolveCycles = enabled
	}
}

// WithSkip names commands that must not start. They finish as skipped.
func WithSkip(names ...string) Option {
	return func(d *Delegate) {
		for _, name := range names {
			d.skip[name] = struct{}{}
		}
	}
}

// Summary is the tally of a build.
type Summary struct {
	Started  int
	UpToDate int
	Failures int
	Results  map[domain.CommandResult]int
	Cycles   int
}

// Delegate implements ports.Delegate. It is safe for concurrent use.
type Delegate struct {
	tools         map[string]ports.Tool
	logger        ports.Logger
	resolveCycles bool
	skip          map[string]struct{}

	mu      sync.Mutex
	summary Summary
}

// NewDelegate creates a Delegate serving tools.
func NewDelegate(tools map[string]ports.Tool, logger ports.Logger, opts ...Option) *Delegate {
	d := &Delegate{
		tools:  tools,
		logger: logger,
		skip:   make(map[string]struct{}),
		summary: Summary{
			Results: make(map[domain.CommandResult]int),
		},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Summary returns a copy of the tally so far.
func (d *Delegate) Summary() Summary {
	d.mu.Lock()
	defer d.mu.Unlock()
	s := d.summary
	s.Results = make(map[domain.CommandResult]int, len(d.summary.Results))
	for k, v := range d.summary.Results {
		s.Results[k] = v
	}
	return s
}

// LookupTool returns the named tool, or nil.
func (d *Delegate) LookupTool(name string) ports.Tool {
	tool, ok := d.tools[name]
	if !ok {
		return nil
	}
	return tool
}

// HadCommandFailure counts a failed command.
func (d *Delegate) HadCommandFailure() {
	d.mu.Lock()
	d.summary.Failures++
	d.mu.Unlock()
}

// HandleDiagnostic logs diag at its severity.
func (d *Delegate) HandleDiagnostic(diag domain.Diagnostic) {
	args := []any{}
	if !diag.Key.IsZero() {
		args = append(args, "key", diag.Key.String())
	}
	switch diag.Kind {
	case domain.DiagnosticError:
		err := zerr.New(diag.Message)
		if !diag.Key.IsZero() {
			err = zerr.With(err, "key", diag.Key.String())
		}
		d.logger.Error(err)
	case domain.DiagnosticWarning:
		d.logger.Warn(diag.Message, args...)
	default:
		d.logger.Info(diag.Message, args...)
	}
}

// CommandStatusChanged counts commands found up to date.
func (d *Delegate) CommandStatusChanged(cmd ports.CommandRef, status domain.CommandStatus) {
	if status == domain.CommandStatusUpToDate {
		d.mu.Lock()
		d.summary.UpToDate++
		d.mu.Unlock()
	}
	d.logger.Debug("command status changed", "command", cmd.Name, "status", string(status))
}

// CommandPreparing logs that cmd is being prepared.
func (d *Delegate) CommandPreparing(cmd ports.CommandRef) {
	d.logger.Debug("preparing command", "command", cmd.Name)
}

// CommandStarted counts a started command.
func (d *Delegate) CommandStarted(cmd ports.CommandRef) {
	d.mu.Lock()
	d.summary.Started++
	d.mu.Unlock()
	d.logger.Debug("command started", "command", cmd.Name, "description", cmd.Description)
}

// ShouldCommandStart rejects the commands configured with WithSkip.
func (d *Delegate) ShouldCommandStart(cmd ports.CommandRef) bool {
	if _, skip := d.skip[cmd.Name]; skip {
		d.logger.Info("skipping command", "command", cmd.Name)
		return false
	}
	return true
}

// CommandFinished counts the result of cmd.
func (d *Delegate) CommandFinished(cmd ports.CommandRef, result domain.CommandResult) {
	d.mu.Lock()
	d.summary.Results[result]++
	d.mu.Unlock()
	d.logger.Debug("command finished", "command", cmd.Name, "result", result.String())
}

// CommandHadError logs an error reported by cmd.
func (d *Delegate) CommandHadError(cmd ports.CommandRef, message string) {
	d.logger.Error(zerr.With(zerr.New(message), "command", cmd.Name))
}

// CommandHadNote logs a note reported by cmd.
func (d *Delegate) CommandHadNote(cmd ports.CommandRef, message string) {
	d.logger.Info(message, "command", cmd.Name)
}

// CommandHadWarning logs a warning reported by cmd.
func (d *Delegate) CommandHadWarning(cmd ports.CommandRef, message string) {
	d.logger.Warn(message, "command", cmd.Name)
}

// CommandCannotBuildOutputDueToMissingInputs logs the failed inputs that
// kept cmd from running.
func (d *Delegate) CommandCannotBuildOutputDueToMissingInputs(cmd ports.CommandRef, output domain.BuildKey, inputs []domain.BuildKey) {
	d.logger.Warn("cannot build output due to missing inputs",
		"command", cmd.Name, "output", output.String(), "inputs", joinKeys(inputs, ", "))
}

// CannotBuildNodeDueToMultipleProducers logs a node with conflicting producers.
func (d *Delegate) CannotBuildNodeDueToMultipleProducers(output domain.BuildKey, cmds []ports.CommandRef) {
	names := make([]string, len(cmds))
	for i, cmd := range cmds {
		names[i] = cmd.Name
	}
	d.logger.Error(zerr.With(zerr.With(
		zerr.New("node has multiple producers"),
		"node", output.Name), "commands", strings.Join(names, ", ")))
}

// CommandProcessStarted logs a spawned process.
func (d *Delegate) CommandProcessStarted(cmd ports.CommandRef, proc domain.ProcessHandle) {
	d.logger.Debug("process started", "command", cmd.Name, "pid", proc.PID)
}

// CommandProcessHadError logs a process that could not be run.
func (d *Delegate) CommandProcessHadError(cmd ports.CommandRef, proc domain.ProcessHandle, message string) {
	d.logger.Warn(message, "command", cmd.Name, "pid", proc.PID)
}

// CommandProcessHadOutput does nothing. Output reaches the renderer through
// the command's span.
func (d *Delegate) CommandProcessHadOutput(ports.CommandRef, domain.ProcessHandle, []byte) {}

// CommandProcessFinished logs how a process ended.
func (d *Delegate) CommandProcessFinished(cmd ports.CommandRef, proc domain.ProcessHandle, result domain.ProcessResult) {
	d.logger.Debug("process finished", "command", cmd.Name, "pid", proc.PID, "exit_code", result.ExitCode)
}

// CycleDetected counts and logs a dependency loop.
func (d *Delegate) CycleDetected(keys []domain.BuildKey) {
	d.mu.Lock()
	d.summary.Cycles++
	d.mu.Unlock()
	d.logger.Warn("cycle detected", "cycle", joinKeys(keys, " -> "))
}

// ShouldResolveCycle approves candidate when cycle resolution is enabled.
func (d *Delegate) ShouldResolveCycle(keys []domain.BuildKey, candidate domain.BuildKey, action domain.CycleAction) bool {
	if !d.resolveCycles {
		return false
	}
	d.logger.Info("breaking cycle",
		"cycle", joinKeys(keys, " -> "), "candidate", candidate.String(), "action", action.String())
	return true
}

func joinKeys(keys []domain.BuildKey, sep string) string {
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k.String()
	}
	return strings.Join(parts, sep)
}

var _ ports.Delegate = (*Delegate)(nil)
