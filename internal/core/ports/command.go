// Package ports defines the core interfaces for the application.
package ports

import (
	"context"

	"go.trai.ch/kiln/internal/core/domain"
)

// Command is the caller-supplied implementation of a Command or CustomTask key.
//
// The engine drives a command through Start, any number of ProvideValue
// calls and a single Execute. NeedsInput may only be called from Start and
// ProvideValue.
//
//go:generate go run go.uber.org/mock/mockgen -source=command.go -destination=mocks/mock_command.go -package=mocks
type Command interface {
	// Signature returns opaque bytes that change whenever the command's
	// definition changes. A differing signature forces re-execution.
	Signature() []byte

	// Start is called once before inputs are delivered.
	Start(ci CommandInterface)

	// ProvideValue delivers the value of an input requested with NeedsInput.
	ProvideValue(ci CommandInterface, value domain.BuildValue, inputID uint)

	// Execute runs the command after every requested input was delivered.
	// It reports whether the command succeeded.
	Execute(ctx context.Context, ci CommandInterface) bool
}

// ValueExecutor is implemented by commands that compute their own result value.
// The engine prefers ExecuteValue over Execute when it is available.
type ValueExecutor interface {
	ExecuteValue(ctx context.Context, ci CommandInterface) domain.BuildValue
}

// CommandInterface is the engine side of a running command.
type CommandInterface interface {
	// NeedsInput requests the value of key, delivered later through
	// ProvideValue with the same inputID.
	NeedsInput(key domain.BuildKey, inputID uint)

	// DiscoveredDependency reports a dependency learned while executing.
	DiscoveredDependency(key domain.BuildKey)

	// HadDiagnostic reports a note, warning or error about the command.
	HadDiagnostic(kind domain.DiagnosticKind, message string)

	// ProcessStarted reports a spawned process and returns its handle.
	ProcessStarted(pid int) domain.ProcessHandle

	// ProcessHadOutput forwards output produced by a process.
	ProcessHadOutput(proc domain.ProcessHandle, data []byte)

	// ProcessHadError reports a process-level failure such as a spawn error.
	ProcessHadError(proc domain.ProcessHandle, message string)

	// ProcessFinished reports how a process ended.
	ProcessFinished(proc domain.ProcessHandle, result domain.ProcessResult)
}

// BaseCommand provides no-op implementations of the optional Command hooks.
// Embed it and implement Execute.
type BaseCommand struct{}

// Signature returns no signature.
func (BaseCommand) Signature() []byte { return nil }

// Start does nothing.
func (BaseCommand) Start(CommandInterface) {}

// ProvideValue ignores the value.
func (BaseCommand) ProvideValue(CommandInterface, domain.BuildValue, uint) {}
