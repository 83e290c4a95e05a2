package domain

import (
	"errors"

	"go.trai.ch/zerr"
)

var (
	// ErrCycleDetected is returned when a dependency loop cannot be resolved.
	ErrCycleDetected = zerr.New("cycle detected")

	// ErrUnknownTool is returned when the delegate cannot resolve a tool name.
	ErrUnknownTool = zerr.New("unknown tool")

	// ErrUnknownCommand is returned when a Command key names no manifest command.
	ErrUnknownCommand = zerr.New("unknown command")

	// ErrUnknownTarget is returned when the requested target is not declared in the manifest.
	ErrUnknownTarget = zerr.New("unknown target")

	// ErrNoCustomTaskHandler is returned when no tool creates a command for a custom task key.
	ErrNoCustomTaskHandler = zerr.New("no tool handles custom task")

	// ErrNoCommandCreated is returned when a tool declines to create a declared command.
	ErrNoCommandCreated = zerr.New("tool did not create command")

	// ErrTaskMisuse is recorded when a command calls back into the engine outside the allowed lifecycle state.
	ErrTaskMisuse = zerr.New("command interface used outside its lifecycle")

	// ErrInvalidTaskState is returned when a task operation is invoked in the wrong state.
	ErrInvalidTaskState = zerr.New("invalid task state")

	// ErrCorruptRecord is returned when a persisted key, value or dependency list cannot be decoded.
	ErrCorruptRecord = zerr.New("corrupt record")

	// ErrInvalidKey is returned when a textual build key cannot be parsed.
	ErrInvalidKey = zerr.New("invalid build key")

	// ErrStoreOpenFailed is returned when the result store cannot be opened.
	ErrStoreOpenFailed = zerr.New("failed to open build database")

	// ErrStoreMigrationFailed is returned when the result store schema cannot be migrated.
	ErrStoreMigrationFailed = zerr.New("failed to migrate build database")

	// ErrStoreReadFailed is returned when a record cannot be read from the result store.
	ErrStoreReadFailed = zerr.New("failed to read build database")

	// ErrStoreWriteFailed is returned when a record cannot be written to the result store.
	ErrStoreWriteFailed = zerr.New("failed to write build database")

	// ErrUnknownBackend is returned when the configured store backend is not supported.
	ErrUnknownBackend = zerr.New("unknown store backend")

	// ErrManifestReadFailed is returned when the manifest file cannot be read.
	ErrManifestReadFailed = zerr.New("failed to read manifest")

	// ErrManifestParseFailed is returned when the manifest file is not valid YAML.
	ErrManifestParseFailed = zerr.New("failed to parse manifest")

	// ErrInvalidManifest is returned when the manifest is well-formed but inconsistent.
	ErrInvalidManifest = zerr.New("invalid manifest")

	// ErrInvalidSettings is returned when the resolved settings fail validation.
	ErrInvalidSettings = zerr.New("invalid settings")

	// ErrNoTargetSpecified is returned when no target is given and the manifest has no default.
	ErrNoTargetSpecified = zerr.New("no target specified")

	// ErrBuildFailed is returned when a build finished with unrecovered command failures.
	ErrBuildFailed = zerr.New("build failed")

	// ErrBuildCancelled is returned when a build is aborted before completion.
	ErrBuildCancelled = zerr.New("build cancelled")

	// ErrProcessStartFailed is returned when a shell command cannot be spawned.
	ErrProcessStartFailed = zerr.New("failed to start process")

	// ErrInvalidTerminalSize is returned when a pty size does not fit a window size.
	ErrInvalidTerminalSize = zerr.New("terminal size out of bounds")
)

// IsBuildFailed reports whether err carries ErrBuildFailed, with or without metadata attached.
func IsBuildFailed(err error) bool {
	var zErr *zerr.Error
	return errors.As(err, &zErr) && zErr.Message() == ErrBuildFailed.Error() && zErr.Unwrap() == nil
}
