//go:build unix

package fs

import (
	iofs "io/fs"
	"syscall"

	"go.trai.ch/kiln/internal/core/domain"
)

func fileInfoFrom(info iofs.FileInfo) domain.FileInfo {
	st, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return portableFileInfo(info)
	}
	mtime := info.ModTime()
	return domain.FileInfo{
		Device: uint64(st.Dev), //nolint:gosec,unconvert // Dev is signed on some platforms
		Inode:  st.Ino,
		Mode:   uint64(st.Mode),
		Size:   uint64(st.Size), //nolint:gosec // Size is never negative
		ModTime: domain.FileTimestamp{
			Seconds:     uint64(mtime.Unix()), //nolint:gosec // Times before 1970 are not expected
			Nanoseconds: uint64(mtime.Nanosecond()),
		},
	}
}
