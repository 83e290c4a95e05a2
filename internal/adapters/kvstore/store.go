// Package kvstore implements the result store on a Badger key-value database.
package kvstore

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"slices"

	"github.com/dgraph-io/badger/v4"
	"go.trai.ch/kiln/internal/core/codec"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/zerr"
)

var (
	recordPrefix = []byte("r/")
	schemaKey    = []byte("m/schema")
	iterationKey = []byte("m/iteration")
)

// Opener opens Badger result stores.
type Opener struct {
	logger   ports.Logger
	inMemory bool
}

// NewOpener creates an Opener that keeps its databases on disk.
func NewOpener(logger ports.Logger) *Opener {
	return &Opener{logger: logger}
}

// NewInMemoryOpener creates an Opener whose databases live in memory and
// ignore the path they are opened with.
func NewInMemoryOpener(logger ports.Logger) *Opener {
	return &Opener{logger: logger, inMemory: true}
}

// Open opens or creates the database directory at path.
// A stamped schema version other than schemaVersion discards every record.
func (o *Opener) Open(_ context.Context, path string, schemaVersion uint32) (ports.ResultStore, error) {
	var opts badger.Options
	if o.inMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(path, domain.DirPerm); err != nil {
			return nil, zerr.With(zerr.Wrap(err, domain.ErrStoreOpenFailed.Error()), "path", path)
		}
		opts = badger.DefaultOptions(path).WithSyncWrites(true)
	}
	opts = opts.WithNumVersionsToKeep(1).WithLogger(&badgerLogger{logger: o.logger})

	db, err := badger.Open(opts)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrStoreOpenFailed.Error()), "path", path)
	}

	s := &Store{db: db, logger: o.logger}
	if err := s.stamp(schemaVersion); err != nil {
		_ = db.Close()
		return nil, zerr.With(err, "path", path)
	}
	return s, nil
}

// Store implements ports.ResultStore on Badger.
type Store struct {
	db     *badger.DB
	logger ports.Logger
}

func (s *Store) stamp(schemaVersion uint32) error {
	var (
		stamped uint32
		found   bool
	)
	err := s.db.View(func(txn *badger.Txn) error {
		raw, err := get(txn, schemaKey)
		if err != nil || raw == nil {
			return err
		}
		if len(raw) != 4 {
			return zerr.Wrap(domain.ErrCorruptRecord, "schema stamp")
		}
		stamped, found = binary.BigEndian.Uint32(raw), true
		return nil
	})
	if err != nil {
		return zerr.Wrap(err, domain.ErrStoreReadFailed.Error())
	}
	if found && stamped == schemaVersion {
		return nil
	}

	if found {
		s.logger.Info("build database schema changed, discarding records",
			"stamped", stamped, "schema_version", schemaVersion)
		if err := s.db.DropPrefix(recordPrefix); err != nil {
			return zerr.Wrap(err, domain.ErrStoreWriteFailed.Error())
		}
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(schemaKey, binary.BigEndian.AppendUint32(nil, schemaVersion)); err != nil {
			return err
		}
		return txn.Set(iterationKey, binary.BigEndian.AppendUint64(nil, 0))
	})
	if err != nil {
		return zerr.Wrap(err, domain.ErrStoreWriteFailed.Error())
	}
	return nil
}

func get(txn *badger.Txn, key []byte) ([]byte, error) {
	item, err := txn.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return item.ValueCopy(nil)
}

func recordKey(key domain.BuildKey) []byte {
	return append(slices.Clone(recordPrefix), codec.EncodeKey(key)...)
}

// Lookup returns the record stored for key, or nil if there is none or it
// cannot be decoded.
func (s *Store) Lookup(_ context.Context, key domain.BuildKey) (*domain.Record, error) {
	var raw []byte
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		raw, err = get(txn, recordKey(key))
		return err
	})
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrStoreReadFailed.Error()), "key", key.String())
	}
	if raw == nil {
		return nil, nil
	}

	rec, err := codec.DecodeRecord(key, raw)
	if err != nil {
		s.logger.Warn("ignoring undecodable record", "key", key.String(), "error", err.Error())
		return nil, nil
	}
	return &rec, nil
}

// Record replaces the record of rec.Key in a single transaction.
func (s *Store) Record(_ context.Context, rec domain.Record) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(recordKey(rec.Key), codec.EncodeRecord(rec))
	})
	if err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrStoreWriteFailed.Error()), "key", rec.Key.String())
	}
	return nil
}

// Iteration returns the generation of the last build.
func (s *Store) Iteration(_ context.Context) (uint64, error) {
	var n uint64
	err := s.db.View(func(txn *badger.Txn) error {
		raw, err := get(txn, iterationKey)
		if err != nil || raw == nil {
			return err
		}
		if len(raw) != 8 {
			return zerr.Wrap(domain.ErrCorruptRecord, "iteration stamp")
		}
		n = binary.BigEndian.Uint64(raw)
		return nil
	})
	if err != nil {
		return 0, zerr.Wrap(err, domain.ErrStoreReadFailed.Error())
	}
	return n, nil
}

// SetIteration stamps the generation of the current build.
func (s *Store) SetIteration(_ context.Context, iteration uint64) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(iterationKey, binary.BigEndian.AppendUint64(nil, iteration))
	})
	if err != nil {
		return zerr.Wrap(err, domain.ErrStoreWriteFailed.Error())
	}
	return nil
}

// Keys lists every decodable recorded key in key order.
func (s *Store) Keys(_ context.Context) ([]domain.BuildKey, error) {
	var keys []domain.BuildKey
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.IteratorOptions{Prefix: recordPrefix})
		defer it.Close()

		for it.Rewind(); it.ValidForPrefix(recordPrefix); it.Next() {
			raw := it.Item().KeyCopy(nil)
			key, err := codec.DecodeKey(raw[len(recordPrefix):])
			if err != nil {
				s.logger.Warn("ignoring undecodable key", "error", err.Error())
				continue
			}
			keys = append(keys, key)
		}
		return nil
	})
	if err != nil {
		return nil, zerr.Wrap(err, domain.ErrStoreReadFailed.Error())
	}
	slices.SortFunc(keys, domain.Compare)
	return keys, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// badgerLogger routes Badger's internal logging to ports.Logger.
type badgerLogger struct {
	logger ports.Logger
}

func (l *badgerLogger) Errorf(format string, args ...any) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...any) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...any) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...any) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}
