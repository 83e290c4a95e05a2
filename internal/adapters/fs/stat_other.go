//go:build !unix

package fs

import (
	iofs "io/fs"

	"go.trai.ch/kiln/internal/core/domain"
)

func fileInfoFrom(info iofs.FileInfo) domain.FileInfo {
	return portableFileInfo(info)
}
