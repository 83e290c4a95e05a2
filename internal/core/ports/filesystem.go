package ports

import "go.trai.ch/kiln/internal/core/domain"

// FileSystem provides the file metadata the engine records for nodes.
//
//go:generate go run go.uber.org/mock/mockgen -source=filesystem.go -destination=mocks/mock_filesystem.go -package=mocks
type FileSystem interface {
	// Stat returns the metadata of path, or the missing FileInfo if it cannot be read.
	Stat(path string) domain.FileInfo

	// Checksum returns the content digest of path.
	// Missing files yield the zero checksum and directories DirectoryChecksum.
	Checksum(path string) domain.FileChecksum
}
