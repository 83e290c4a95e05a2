// Package fs provides the file system adapter that stats and checksums build nodes.
package fs

import (
	"encoding/binary"
	"io"
	"os"

	"github.com/cespare/xxhash/v2"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
)

var _ ports.FileSystem = (*FileSystem)(nil)

// checksumSeeds fill the four 64-bit lanes of a FileChecksum.
var checksumSeeds = [4]uint64{0, 0x9e3779b97f4a7c15, 0xc2b2ae3d27d4eb4f, 0x165667b19e3779f9}

// FileSystem implements ports.FileSystem on the local disk.
type FileSystem struct{}

// NewFileSystem creates a new FileSystem.
func NewFileSystem() *FileSystem {
	return &FileSystem{}
}

// Stat follows symbolic links and returns the missing FileInfo when path
// cannot be read.
func (f *FileSystem) Stat(path string) domain.FileInfo {
	info, err := os.Stat(path)
	if err != nil {
		return domain.FileInfo{}
	}
	return fileInfoFrom(info).MarkPresent()
}

// LinkStat is Stat without following a final symbolic link.
func (f *FileSystem) LinkStat(path string) domain.FileInfo {
	info, err := os.Lstat(path)
	if err != nil {
		return domain.FileInfo{}
	}
	return fileInfoFrom(info).MarkPresent()
}

// Checksum returns the content digest of path. Missing or unreadable files
// yield the zero checksum and directories DirectoryChecksum.
func (f *FileSystem) Checksum(path string) domain.FileChecksum {
	info := f.Stat(path)
	switch {
	case info.IsMissing():
		return domain.FileChecksum{}
	case info.IsDirectory():
		return domain.DirectoryChecksum()
	}

	file, err := os.Open(path) //nolint:gosec // Path is controlled by caller
	if err != nil {
		return domain.FileChecksum{}
	}
	defer file.Close() //nolint:errcheck // Best effort close in defer

	var digests [4]*xxhash.Digest
	writers := make([]io.Writer, len(digests))
	for i, seed := range checksumSeeds {
		digests[i] = xxhash.NewWithSeed(seed)
		writers[i] = digests[i]
	}
	if _, err := io.Copy(io.MultiWriter(writers...), file); err != nil {
		return domain.FileChecksum{}
	}

	var sum domain.FileChecksum
	for i, d := range digests {
		binary.BigEndian.PutUint64(sum[i*8:], d.Sum64())
	}
	// A content digest must never read as missing or as a directory.
	if sum.IsMissing() || sum == domain.DirectoryChecksum() {
		sum[len(sum)-1] = 1
	}
	return sum
}
