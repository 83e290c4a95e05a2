package ports

import (
	"context"
	"iter"
)

// WatchOp is the kind of file system change.
type WatchOp uint8

const (
	// OpCreate indicates a path was created.
	OpCreate WatchOp = iota
	// OpWrite indicates a file was modified.
	OpWrite
	// OpRemove indicates a path was removed.
	OpRemove
	// OpRename indicates a path was renamed.
	OpRename
)

func (o WatchOp) String() string {
	switch o {
	case OpCreate:
		return "create"
	case OpWrite:
		return "write"
	case OpRemove:
		return "remove"
	case OpRename:
		return "rename"
	default:
		return "unknown"
	}
}

// WatchEvent is a change to one watched path.
type WatchEvent struct {
	Path      string
	Operation WatchOp
}

// Watcher reports changes to the inputs of a build.
//
//go:generate go run go.uber.org/mock/mockgen -source=watcher.go -destination=mocks/mock_watcher.go -package=mocks
type Watcher interface {
	// Start watches the given paths. Directories are watched recursively,
	// files through their parent directory.
	Start(ctx context.Context, paths []string) error
	// Stop releases the underlying watches and ends Events.
	Stop() error
	// Events yields changes until the watcher stops.
	Events() iter.Seq[WatchEvent]
}
