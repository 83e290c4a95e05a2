// Package builddb implements the result store on an SQLite database.
package builddb

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.trai.ch/kiln/internal/core/codec"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/zerr"

	// Registers the "sqlite" database/sql driver.
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const dsnOptions = "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_txlock=immediate"

// Opener opens SQLite result stores.
type Opener struct {
	logger ports.Logger
}

// NewOpener creates an Opener. Undecodable records are reported to logger.
func NewOpener(logger ports.Logger) *Opener {
	return &Opener{logger: logger}
}

// Open opens or creates the database at path and migrates its schema.
// A stamped schema version other than schemaVersion discards every record.
func (o *Opener) Open(ctx context.Context, path string, schemaVersion uint32) (ports.ResultStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), domain.DirPerm); err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrStoreOpenFailed.Error()), "path", path)
	}

	db, err := sql.Open("sqlite", path+dsnOptions)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrStoreOpenFailed.Error()), "path", path)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, zerr.With(zerr.Wrap(err, domain.ErrStoreOpenFailed.Error()), "path", path)
	}

	if err := migrateSchema(db); err != nil {
		_ = db.Close()
		return nil, zerr.With(err, "path", path)
	}

	s := &Store{db: db, logger: o.logger}
	if err := s.stamp(ctx, schemaVersion); err != nil {
		_ = db.Close()
		return nil, zerr.With(err, "path", path)
	}
	return s, nil
}

func migrateSchema(db *sql.DB) error {
	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return zerr.Wrap(err, domain.ErrStoreMigrationFailed.Error())
	}
	driver, err := sqlite.WithInstance(db, &sqlite.Config{})
	if err != nil {
		return zerr.Wrap(err, domain.ErrStoreMigrationFailed.Error())
	}
	m, err := migrate.NewWithInstance("iofs", source, "sqlite", driver)
	if err != nil {
		return zerr.Wrap(err, domain.ErrStoreMigrationFailed.Error())
	}
	// m.Close would close db through the driver.
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return zerr.Wrap(err, domain.ErrStoreMigrationFailed.Error())
	}
	return nil
}

// Store implements ports.ResultStore on SQLite.
// Reads run concurrently; writes are serialized.
type Store struct {
	db     *sql.DB
	logger ports.Logger

	writeMu sync.Mutex
}

func (s *Store) stamp(ctx context.Context, schemaVersion uint32) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return zerr.Wrap(err, domain.ErrStoreOpenFailed.Error())
	}
	defer func() { _ = tx.Rollback() }()

	var stamped int64
	err = tx.QueryRowContext(ctx, `SELECT schema_version FROM info WHERE id = 1`).Scan(&stamped)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO info (id, schema_version, iteration) VALUES (1, ?, 0)`, int64(schemaVersion)); err != nil {
			return zerr.Wrap(err, domain.ErrStoreWriteFailed.Error())
		}
	case err != nil:
		return zerr.Wrap(err, domain.ErrStoreReadFailed.Error())
	case uint32(stamped) != schemaVersion:
		s.logger.Info("build database schema changed, discarding records",
			"stamped", stamped, "schema_version", schemaVersion)
		if _, err := tx.ExecContext(ctx, `DELETE FROM rule_results`); err != nil {
			return zerr.Wrap(err, domain.ErrStoreWriteFailed.Error())
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE info SET schema_version = ?, iteration = 0 WHERE id = 1`, int64(schemaVersion)); err != nil {
			return zerr.Wrap(err, domain.ErrStoreWriteFailed.Error())
		}
	}

	if err := tx.Commit(); err != nil {
		return zerr.Wrap(err, domain.ErrStoreWriteFailed.Error())
	}
	return nil
}

// Lookup returns the record stored for key, or nil if there is none or it
// cannot be decoded.
func (s *Store) Lookup(ctx context.Context, key domain.BuildKey) (*domain.Record, error) {
	var (
		value, signature, deps []byte
		builtAt, computedAt    int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT value, signature, dependencies, built_at, computed_at FROM rule_results WHERE key = ?`,
		codec.EncodeKey(key),
	).Scan(&value, &signature, &deps, &builtAt, &computedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrStoreReadFailed.Error()), "key", key.String())
	}

	rec, err := decodeRow(key, value, signature, deps, builtAt, computedAt)
	if err != nil {
		s.logger.Warn("ignoring undecodable record", "key", key.String(), "error", err.Error())
		return nil, nil
	}
	return rec, nil
}

func decodeRow(key domain.BuildKey, value, signature, deps []byte, builtAt, computedAt int64) (*domain.Record, error) {
	v, err := codec.DecodeValue(value)
	if err != nil {
		return nil, err
	}
	keys, err := codec.DecodeKeys(deps)
	if err != nil {
		return nil, err
	}
	return &domain.Record{
		Key:          key,
		Value:        v,
		Signature:    signature,
		Dependencies: keys,
		BuiltAt:      uint64(builtAt),
		ComputedAt:   uint64(computedAt),
	}, nil
}

// Record replaces the record of rec.Key in a single transaction.
func (s *Store) Record(ctx context.Context, rec domain.Record) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO rule_results (key, value, signature, dependencies, built_at, computed_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET
		   value = excluded.value,
		   signature = excluded.signature,
		   dependencies = excluded.dependencies,
		   built_at = excluded.built_at,
		   computed_at = excluded.computed_at`,
		codec.EncodeKey(rec.Key),
		codec.EncodeValue(rec.Value),
		rec.Signature,
		codec.EncodeKeys(rec.Dependencies),
		int64(rec.BuiltAt),
		int64(rec.ComputedAt),
	)
	if err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrStoreWriteFailed.Error()), "key", rec.Key.String())
	}
	return nil
}

// Iteration returns the generation of the last build.
func (s *Store) Iteration(ctx context.Context) (uint64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, `SELECT iteration FROM info WHERE id = 1`).Scan(&n); err != nil {
		return 0, zerr.Wrap(err, domain.ErrStoreReadFailed.Error())
	}
	return uint64(n), nil
}

// SetIteration stamps the generation of the current build.
func (s *Store) SetIteration(ctx context.Context, iteration uint64) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if _, err := s.db.ExecContext(ctx, `UPDATE info SET iteration = ? WHERE id = 1`, int64(iteration)); err != nil {
		return zerr.Wrap(err, domain.ErrStoreWriteFailed.Error())
	}
	return nil
}

// Keys lists every decodable recorded key in key order.
func (s *Store) Keys(ctx context.Context) ([]domain.BuildKey, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key FROM rule_results`)
	if err != nil {
		return nil, zerr.Wrap(err, domain.ErrStoreReadFailed.Error())
	}
	defer func() { _ = rows.Close() }()

	var keys []domain.BuildKey
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, zerr.Wrap(err, domain.ErrStoreReadFailed.Error())
		}
		key, err := codec.DecodeKey(raw)
		if err != nil {
			s.logger.Warn("ignoring undecodable key", "error", err.Error())
			continue
		}
		keys = append(keys, key)
	}
	if err := rows.Err(); err != nil {
		return nil, zerr.Wrap(err, domain.ErrStoreReadFailed.Error())
	}
	slices.SortFunc(keys, domain.Compare)
	return keys, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
