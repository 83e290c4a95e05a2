// Package shell provides the built-in tools: shell runs a command line in a
// pty, phony does nothing.
package shell

import (
	"context"
	"errors"
	"os/exec"
	"slices"
	"sync"

	"github.com/cespare/xxhash/v2"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
)

const (
	// ShellToolName is the manifest name of the shell tool.
	ShellToolName = "shell"
	// PhonyToolName is the manifest name of the phony tool.
	PhonyToolName = "phony"
)

// Factory creates the built-in tools for a manifest.
type Factory struct {
	logger ports.Logger
	terms  *terminals
}

// NewFactory creates a new Factory.
func NewFactory(logger ports.Logger) *Factory {
	return &Factory{logger: logger, terms: newTerminals()}
}

// Tools returns the built-in tools keyed by manifest name. Commands run in dir.
func (f *Factory) Tools(manifest *domain.Manifest, dir string) map[string]ports.Tool {
	return map[string]ports.Tool{
		ShellToolName: &Tool{manifest: manifest, dir: dir, logger: f.logger, terms: f.terms},
		PhonyToolName: PhonyTool{},
	}
}

// SetTerminalSize sets the pty size of commands started from now on and
// resizes the ptys of running ones.
func (f *Factory) SetTerminalSize(rows, cols int) {
	f.terms.setSize(rows, cols)
}

// Tool runs the args of manifest commands as processes.
type Tool struct {
	manifest *domain.Manifest
	dir      string
	logger   ports.Logger
	terms    *terminals
}

// CreateCommand returns the command for the named manifest command,
// or nil if the manifest does not declare it.
func (t *Tool) CreateCommand(name string) ports.Command {
	decl, ok := t.manifest.Command(name)
	if !ok {
		return nil
	}
	return &Command{decl: decl, dir: t.dir, logger: t.logger, terms: t.terms}
}

// CreateCustomCommand returns nil; the shell tool handles no custom tasks.
func (t *Tool) CreateCustomCommand(domain.BuildKey) ports.Command {
	return nil
}

// Command runs one declared command line.
type Command struct {
	ports.BaseCommand

	decl   *domain.CommandDecl
	dir    string
	logger ports.Logger
	terms  *terminals
}

// Signature hashes the args and the sorted environment.
func (c *Command) Signature() []byte {
	h := xxhash.New()
	for _, arg := range c.decl.Args {
		_, _ = h.WriteString(arg)
		_, _ = h.Write([]byte{0})
	}
	_, _ = h.Write([]byte{0})

	keys := make([]string, 0, len(c.decl.Env))
	for k := range c.decl.Env {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		_, _ = h.WriteString(k)
		_, _ = h.Write([]byte{'='})
		_, _ = h.WriteString(c.decl.Env[k])
		_, _ = h.Write([]byte{0})
	}
	return h.Sum(nil)
}

// Execute runs the command line and reports whether it exited with status zero.
// An empty command line succeeds without spawning anything.
func (c *Command) Execute(ctx context.Context, ci ports.CommandInterface) bool {
	if len(c.decl.Args) == 0 {
		return true
	}

	out := &outputWriter{ci: ci}
	proc, err := start(ctx, c.decl.Args, c.decl.Env, c.dir, c.terms.winsize(), out)
	if err != nil {
		ci.ProcessHadError(domain.ProcessHandle{}, err.Error())
		ci.HadDiagnostic(domain.DiagnosticError, err.Error())
		return false
	}
	untrack := c.terms.track(proc)
	out.setHandle(ci.ProcessStarted(proc.PID()))
	c.logger.Debug("process started", "command", c.decl.Name.String(), "pid", proc.PID())

	err = proc.Wait()
	untrack()
	result := domain.ProcessResult{Status: domain.ProcessSucceeded, PID: proc.PID()}
	switch {
	case ctx.Err() != nil:
		result.Status = domain.ProcessCancelled
		result.ExitCode = -1
	case err != nil:
		result.Status = domain.ProcessFailed
		result.ExitCode = -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
		}
	}
	ci.ProcessFinished(out.handle(), result)
	return result.Status == domain.ProcessSucceeded
}

// outputWriter forwards process output to the engine. Writes that arrive
// before the process handle is known are held back.
type outputWriter struct {
	ci ports.CommandInterface

	mu      sync.Mutex
	proc    domain.ProcessHandle
	started bool
	pending []byte
}

func (w *outputWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.started {
		w.pending = append(w.pending, p...)
		return len(p), nil
	}
	w.ci.ProcessHadOutput(w.proc, slices.Clone(p))
	return len(p), nil
}

func (w *outputWriter) setHandle(proc domain.ProcessHandle) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.proc = proc
	w.started = true
	if len(w.pending) > 0 {
		w.ci.ProcessHadOutput(proc, w.pending)
		w.pending = nil
	}
}

func (w *outputWriter) handle() domain.ProcessHandle {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.proc
}

// PhonyTool creates commands that do nothing and succeed.
type PhonyTool struct{}

// CreateCommand returns a command that succeeds without doing anything.
func (PhonyTool) CreateCommand(string) ports.Command {
	return phonyCommand{}
}

// CreateCustomCommand returns nil; the phony tool handles no custom tasks.
func (PhonyTool) CreateCustomCommand(domain.BuildKey) ports.Command {
	return nil
}

type phonyCommand struct {
	ports.BaseCommand
}

func (phonyCommand) Execute(context.Context, ports.CommandInterface) bool {
	return true
}
