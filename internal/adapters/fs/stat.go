package fs

import (
	iofs "io/fs"

	"go.trai.ch/kiln/internal/core/domain"
)

// Mode type bits as found in st_mode.
const (
	modeRegular   = 0o100000
	modeDirectory = 0o040000
	modeSymlink   = 0o120000
)

// portableFileInfo derives a FileInfo from the portable fs.FileInfo fields.
// Device and inode stay zero.
func portableFileInfo(info iofs.FileInfo) domain.FileInfo {
	mode := uint64(info.Mode().Perm())
	switch {
	case info.IsDir():
		mode |= modeDirectory
	case info.Mode()&iofs.ModeSymlink != 0:
		mode |= modeSymlink
	default:
		mode |= modeRegular
	}
	mtime := info.ModTime()
	return domain.FileInfo{
		Mode: mode,
		Size: uint64(info.Size()), //nolint:gosec // Size is never negative
		ModTime: domain.FileTimestamp{
			Seconds:     uint64(mtime.Unix()), //nolint:gosec // Times before 1970 are not expected
			Nanoseconds: uint64(mtime.Nanosecond()),
		},
	}
}
