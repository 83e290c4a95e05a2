package ports

import (
	"context"
	"time"
)

// Renderer presents the progress of a build.
// It is fed by the telemetry bridge, so the engine never writes to the terminal itself.
//
//go:generate go run go.uber.org/mock/mockgen -source=renderer.go -destination=mocks/mock_renderer.go -package=mocks
type Renderer interface {
	// Start begins the renderer lifecycle.
	Start(ctx context.Context) error

	// Stop flushes buffered output and stops accepting events.
	Stop() error

	// Wait blocks until the renderer has terminated.
	Wait() error

	// OnPlanEmit is called once per build with the static command plan.
	OnPlanEmit(commands []string, deps map[string][]string, targets []string)

	// OnCommandStart is called when a command span begins.
	// parentID is empty for spans started directly by the build.
	OnCommandStart(spanID, parentID, name string, startTime time.Time)

	// OnCommandLog is called with raw output bytes of a command.
	// data may hold partial lines.
	OnCommandLog(spanID string, data []byte)

	// OnCommandComplete is called when a command span ends.
	// err is nil if the command succeeded.
	OnCommandComplete(spanID string, endTime time.Time, err error)
}

// TerminalSizer receives the size of the pane that displays command output,
// so commands running in a pty lay out their output for it.
type TerminalSizer interface {
	SetTerminalSize(rows, cols int)
}
