package domain

import "strings"

// CommandStatus is the lifecycle state reported for a command while a build runs.
type CommandStatus string

const (
	// CommandStatusScanning indicates the command's record is being checked for staleness.
	CommandStatusScanning CommandStatus = "scanning"
	// CommandStatusUpToDate indicates the recorded value was reused without executing.
	CommandStatusUpToDate CommandStatus = "up-to-date"
	// CommandStatusWaiting indicates the command is parked until its inputs are delivered.
	CommandStatusWaiting CommandStatus = "waiting"
	// CommandStatusRunning indicates the command is executing.
	CommandStatusRunning CommandStatus = "running"
	// CommandStatusComplete indicates the command finished and its result was handled.
	CommandStatusComplete CommandStatus = "complete"
)

// IsTerminal checks if a status is a terminal state (UpToDate, Complete).
func (s CommandStatus) IsTerminal() bool {
	switch s {
	case CommandStatusUpToDate, CommandStatusComplete:
		return true
	default:
		return false
	}
}

// NormalizeCommandStatus converts a string to a CommandStatus, defaulting to scanning if unknown.
func NormalizeCommandStatus(s string) CommandStatus {
	switch CommandStatus(strings.ToLower(s)) {
	case CommandStatusUpToDate:
		return CommandStatusUpToDate
	case CommandStatusWaiting:
		return CommandStatusWaiting
	case CommandStatusRunning:
		return CommandStatusRunning
	case CommandStatusComplete:
		return CommandStatusComplete
	default:
		return CommandStatusScanning
	}
}

// CommandResult summarizes how a command execution ended.
type CommandResult uint8

const (
	// CommandResultSucceeded means the command produced a successful value.
	CommandResultSucceeded CommandResult = iota
	// CommandResultFailed means the command produced a failure value.
	CommandResultFailed
	// CommandResultCancelled means the command was abandoned.
	CommandResultCancelled
	// CommandResultSkipped means the command never ran.
	CommandResultSkipped
)

func (r CommandResult) String() string {
	switch r {
	case CommandResultSucceeded:
		return "succeeded"
	case CommandResultFailed:
		return "failed"
	case CommandResultCancelled:
		return "cancelled"
	case CommandResultSkipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// ResultForValue maps a command value to the result reported to the delegate.
func ResultForValue(v BuildValue) CommandResult {
	switch v.Kind {
	case ValueCancelledCommand:
		return CommandResultCancelled
	case ValueSkippedCommand, ValuePropagatedFailureCommand:
		return CommandResultSkipped
	default:
		if v.IsFailure() {
			return CommandResultFailed
		}
		return CommandResultSucceeded
	}
}

// ProcessHandle identifies a process spawned by a command.
type ProcessHandle struct {
	ID  uint64
	PID int
}

// ProcessStatus summarizes how a spawned process ended.
type ProcessStatus uint8

const (
	// ProcessSucceeded means the process exited with status zero.
	ProcessSucceeded ProcessStatus = iota
	// ProcessFailed means the process exited with a non-zero status.
	ProcessFailed
	// ProcessCancelled means the process was killed by cancellation.
	ProcessCancelled
)

// ProcessResult is the extended result of a spawned process.
type ProcessResult struct {
	Status   ProcessStatus
	ExitCode int
	PID      int
}

// DiagnosticKind is the severity of a Diagnostic.
type DiagnosticKind uint8

const (
	// DiagnosticNote is informational.
	DiagnosticNote DiagnosticKind = iota
	// DiagnosticWarning reports a recoverable problem.
	DiagnosticWarning
	// DiagnosticError reports a problem that affects the build outcome.
	DiagnosticError
)

func (k DiagnosticKind) String() string {
	switch k {
	case DiagnosticWarning:
		return "warning"
	case DiagnosticError:
		return "error"
	default:
		return "note"
	}
}

// Diagnostic is a message emitted by the engine outside any single command.
type Diagnostic struct {
	Kind    DiagnosticKind
	Message string
	Key     BuildKey
}
