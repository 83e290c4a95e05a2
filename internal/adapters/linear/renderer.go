// Package linear provides a line-oriented build renderer. Command output is
// printed line by line behind the command name, which suits CI logs and
// pipes as well as terminals.
package linear

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/kiln/internal/ui/output"
	"go.trai.ch/kiln/internal/ui/style"
)

// Renderer implements ports.Renderer. Command output goes to stdout, status
// lines to stderr.
type Renderer struct {
	stdout io.Writer
	stderr io.Writer
	out    *termenv.Output

	mu       sync.Mutex
	commands map[string]*commandState
	executed int
	failed   int
}

type commandState struct {
	name      string
	startTime time.Time
	partial   bytes.Buffer
}

// NewRenderer creates a Renderer. Nil writers select os.Stdout and os.Stderr.
func NewRenderer(stdout, stderr io.Writer) *Renderer {
	if stdout == nil {
		stdout = os.Stdout
	}
	if stderr == nil {
		stderr = os.Stderr
	}
	return &Renderer{
		stdout:   stdout,
		stderr:   stderr,
		out:      output.New(stderr),
		commands: make(map[string]*commandState),
	}
}

// Start does nothing; the renderer writes synchronously.
func (r *Renderer) Start(context.Context) error {
	return nil
}

// Stop prints what is left of unfinished commands and a summary line.
func (r *Renderer) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id := range r.commands {
		r.flushPartialLocked(id)
	}
	if r.executed == 0 {
		return nil
	}
	summary := fmt.Sprintf("%d command(s) executed", r.executed)
	if r.failed > 0 {
		summary += fmt.Sprintf(", %d failed", r.failed)
		_, _ = fmt.Fprintln(r.stderr, r.colored(summary, style.Red))
		return nil
	}
	_, _ = fmt.Fprintln(r.stderr, r.colored(summary, style.Slate))
	return nil
}

// Wait returns immediately.
func (r *Renderer) Wait() error {
	return nil
}

// OnPlanEmit prints the number of planned commands.
func (r *Renderer) OnPlanEmit(commands []string, _ map[string][]string, targets []string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	line := fmt.Sprintf("Planning %d command(s) for target(s): %v", len(commands), targets)
	_, _ = fmt.Fprintln(r.stderr, r.colored(line, style.Slate))
}

// OnCommandStart prints a start line.
func (r *Renderer) OnCommandStart(spanID, _, name string, startTime time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.commands[spanID] = &commandState{name: name, startTime: startTime}
	_, _ = fmt.Fprintf(r.stderr, "%s %s\n", r.prefix(name), r.colored("Starting...", style.Ash))
}

// OnCommandLog prints each complete line of data. An unterminated tail is
// held back until more output arrives or the command ends.
func (r *Renderer) OnCommandLog(spanID string, data []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cmd, ok := r.commands[spanID]
	if !ok {
		return
	}
	cmd.partial.Write(data)
	for {
		i := bytes.IndexByte(cmd.partial.Bytes(), '\n')
		if i < 0 {
			return
		}
		line := cmd.partial.Next(i + 1)
		r.printLineLocked(cmd.name, line)
	}
}

// OnCommandComplete flushes the command's output and prints its result.
func (r *Renderer) OnCommandComplete(spanID string, endTime time.Time, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cmd, ok := r.commands[spanID]
	if !ok {
		return
	}
	r.flushPartialLocked(spanID)

	r.executed++
	elapsed := endTime.Sub(cmd.startTime).Round(time.Millisecond)
	if err != nil {
		r.failed++
		_, _ = fmt.Fprintf(r.stderr, "%s %s Failed after %v: %v\n",
			r.prefix(cmd.name), r.colored(style.Cross, style.Red), elapsed, err)
	} else {
		_, _ = fmt.Fprintf(r.stderr, "%s %s Completed in %v\n",
			r.prefix(cmd.name), r.colored(style.Check, style.Green), elapsed)
	}
	delete(r.commands, spanID)
}

func (r *Renderer) flushPartialLocked(spanID string) {
	cmd := r.commands[spanID]
	if cmd.partial.Len() > 0 {
		r.printLineLocked(cmd.name, cmd.partial.Bytes())
		cmd.partial.Reset()
	}
}

func (r *Renderer) printLineLocked(name string, line []byte) {
	line = bytes.TrimSuffix(line, []byte("\n"))
	line = bytes.TrimSuffix(line, []byte("\r"))
	if len(line) == 0 {
		return
	}
	_, _ = fmt.Fprintf(r.stdout, "[%s] %s\n", name, line)
}

func (r *Renderer) prefix(name string) string {
	return r.out.String("[" + name + "]").Faint().String()
}

func (r *Renderer) colored(s string, c lipgloss.Color) string {
	return r.out.String(s).Foreground(r.out.Color(string(c))).String()
}

var _ ports.Renderer = (*Renderer)(nil)
