package builddb

import "database/sql"

// DB exposes the underlying database for corrupting rows in tests.
func (s *Store) DB() *sql.DB {
	return s.db
}
