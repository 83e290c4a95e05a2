package ports

import (
	"go.trai.ch/kiln/internal/core/domain"
)

// CommandRef identifies a command to the delegate.
type CommandRef struct {
	Key         domain.BuildKey
	Name        string
	Description string
}

// Tool creates commands for the keys it is responsible for.
//
//go:generate go run go.uber.org/mock/mockgen -source=delegate.go -destination=mocks/mock_delegate.go -package=mocks
type Tool interface {
	// CreateCommand returns the command implementing the named manifest command.
	CreateCommand(name string) Command

	// CreateCustomCommand returns the command for a custom task key, or nil
	// if the tool does not handle it.
	CreateCustomCommand(key domain.BuildKey) Command
}

// Delegate receives every status notification of a build and answers the
// engine's questions. Methods may be called from several goroutines.
type Delegate interface {
	// LookupTool resolves a tool declared by the manifest.
	// Returns nil if the tool is unknown.
	LookupTool(name string) Tool

	// HadCommandFailure is called once for every command whose value is a failure.
	HadCommandFailure()

	// HandleDiagnostic reports a message not attached to a single command.
	HandleDiagnostic(diag domain.Diagnostic)

	CommandStatusChanged(cmd CommandRef, status domain.CommandStatus)
	CommandPreparing(cmd CommandRef)
	CommandStarted(cmd CommandRef)

	// ShouldCommandStart is asked right before execution.
	// Returning false yields SkippedCommand.
	ShouldCommandStart(cmd CommandRef) bool

	CommandFinished(cmd CommandRef, result domain.CommandResult)
	CommandHadError(cmd CommandRef, message string)
	CommandHadNote(cmd CommandRef, message string)
	CommandHadWarning(cmd CommandRef, message string)

	// CommandCannotBuildOutputDueToMissingInputs reports a command skipped
	// because some of its inputs failed.
	CommandCannotBuildOutputDueToMissingInputs(cmd CommandRef, output domain.BuildKey, inputs []domain.BuildKey)

	// CannotBuildNodeDueToMultipleProducers reports a node declared as output
	// by more than one command.
	CannotBuildNodeDueToMultipleProducers(output domain.BuildKey, cmds []CommandRef)

	CommandProcessStarted(cmd CommandRef, proc domain.ProcessHandle)
	CommandProcessHadError(cmd CommandRef, proc domain.ProcessHandle, message string)
	CommandProcessHadOutput(cmd CommandRef, proc domain.ProcessHandle, data []byte)
	CommandProcessFinished(cmd CommandRef, proc domain.ProcessHandle, result domain.ProcessResult)

	// CycleDetected reports a dependency loop. keys starts and ends with the same key.
	CycleDetected(keys []domain.BuildKey)

	// ShouldResolveCycle asks whether the cycle may be broken at candidate.
	ShouldResolveCycle(keys []domain.BuildKey, candidate domain.BuildKey, action domain.CycleAction) bool
}
