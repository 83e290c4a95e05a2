package domain

import "path/filepath"

const (
	// KilnDirName is the name of the internal workspace directory.
	KilnDirName = ".kiln"

	// DatabaseFileName is the name of the SQLite build database.
	DatabaseFileName = "build.db"

	// BadgerDirName is the name of the Badger build database directory.
	BadgerDirName = "build.badger"

	// ManifestFileName is the name of the default build manifest.
	ManifestFileName = "kiln.yaml"

	// SettingsFileName is the base name of the optional settings file inside KilnDirName.
	SettingsFileName = "config"

	// DirPerm is the default permission for directories (rwxr-x---).
	DirPerm = 0o750

	// FilePerm is the default permission for files (rw-r--r--).
	FilePerm = 0o644
)

// DefaultKilnPath returns the default root directory for kiln metadata.
func DefaultKilnPath() string {
	return KilnDirName
}

// DefaultDatabasePath returns the default path for the SQLite build database.
// It joins .kiln and build.db.
func DefaultDatabasePath() string {
	return filepath.Join(KilnDirName, DatabaseFileName)
}

// DefaultBadgerPath returns the default directory for the Badger build database.
// It joins .kiln and build.badger.
func DefaultBadgerPath() string {
	return filepath.Join(KilnDirName, BadgerDirName)
}
