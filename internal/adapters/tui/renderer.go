package tui

import (
	"context"
	"errors"
	"slices"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/zerr"
)

// Renderer runs a Model as a bubbletea program and implements ports.Renderer.
type Renderer struct {
	program *tea.Program
	model   *Model
	errCh   chan error
}

// NewRenderer creates a Renderer for model.
func NewRenderer(model *Model, opts ...tea.ProgramOption) *Renderer {
	return &Renderer{
		program: tea.NewProgram(model, opts...),
		model:   model,
		errCh:   make(chan error, 1),
	}
}

// Start runs the program in the background.
func (r *Renderer) Start(context.Context) error {
	go func() {
		_, err := r.program.Run()
		r.errCh <- err
	}()
	return nil
}

// Stop tells the program that the build is over. The final view stays on screen.
func (r *Renderer) Stop() error {
	r.program.Send(msgFinished{})
	return nil
}

// Wait blocks until the program exits. A user quitting before the build
// finished yields domain.ErrBuildCancelled.
func (r *Renderer) Wait() error {
	err := <-r.errCh
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return zerr.Wrap(err, "terminal UI failed")
	}
	if r.model.Interrupted {
		return domain.ErrBuildCancelled
	}
	return nil
}

// OnPlanEmit implements ports.Renderer.
func (r *Renderer) OnPlanEmit(commands []string, deps map[string][]string, targets []string) {
	r.program.Send(MsgPlan{Commands: commands, Deps: deps, Targets: targets})
}

// OnCommandStart implements ports.Renderer.
func (r *Renderer) OnCommandStart(spanID, parentID, name string, startTime time.Time) {
	r.program.Send(MsgCommandStart{SpanID: spanID, ParentID: parentID, Name: name, StartTime: startTime})
}

// OnCommandLog implements ports.Renderer. data is copied since the model
// consumes it after the call returns.
func (r *Renderer) OnCommandLog(spanID string, data []byte) {
	r.program.Send(MsgCommandLog{SpanID: spanID, Data: slices.Clone(data)})
}

// OnCommandComplete implements ports.Renderer.
func (r *Renderer) OnCommandComplete(spanID string, endTime time.Time, err error) {
	r.program.Send(MsgCommandComplete{SpanID: spanID, EndTime: endTime, Err: err})
}

var _ ports.Renderer = (*Renderer)(nil)
