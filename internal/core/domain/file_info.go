package domain

// modeTypeMask and modeDirectory mirror the S_IFMT and S_IFDIR bits of st_mode.
const (
	modeTypeMask  = 0o170000
	modeDirectory = 0o040000
)

// FileTimestamp is a modification time split into seconds and nanoseconds.
type FileTimestamp struct {
	Seconds     uint64
	Nanoseconds uint64
}

// FileInfo is the stat metadata recorded for a file system artifact.
// The zero value denotes a missing file.
type FileInfo struct {
	Device  uint64
	Inode   uint64
	Mode    uint64
	Size    uint64
	ModTime FileTimestamp
}

// IsMissing reports whether the info describes a path that does not exist.
func (fi FileInfo) IsMissing() bool {
	return fi == FileInfo{}
}

// IsDirectory reports whether the mode bits describe a directory.
func (fi FileInfo) IsDirectory() bool {
	return fi.Mode&modeTypeMask == modeDirectory
}

// MarkPresent adjusts an info obtained from a successful stat so that it can
// never be mistaken for the missing value.
func (fi FileInfo) MarkPresent() FileInfo {
	if fi.IsMissing() {
		fi.ModTime.Nanoseconds = 1
	}
	return fi
}

// FileChecksum is a fixed-size content digest.
// A missing file has the zero checksum and a directory has a leading 1 byte.
type FileChecksum [32]byte

// DirectoryChecksum returns the checksum recorded for directories.
func DirectoryChecksum() FileChecksum {
	var c FileChecksum
	c[0] = 1
	return c
}

// IsMissing reports whether the checksum denotes a missing file.
func (c FileChecksum) IsMissing() bool {
	return c == FileChecksum{}
}
