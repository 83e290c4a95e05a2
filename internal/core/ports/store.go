package ports

import (
	"context"

	"go.trai.ch/kiln/internal/core/domain"
)

// ResultStore persists build records and the build generation.
//
//go:generate go run go.uber.org/mock/mockgen -source=store.go -destination=mocks/mock_store.go -package=mocks
type ResultStore interface {
	// Lookup returns the record stored for key.
	// Returns nil, nil if the record is absent or cannot be decoded.
	Lookup(ctx context.Context, key domain.BuildKey) (*domain.Record, error)

	// Record stores the full record atomically, replacing any previous one.
	Record(ctx context.Context, rec domain.Record) error

	// Iteration returns the persisted build generation.
	Iteration(ctx context.Context) (uint64, error)

	// SetIteration persists the build generation.
	SetIteration(ctx context.Context, iteration uint64) error

	// Keys lists every recorded key in key order.
	Keys(ctx context.Context) ([]domain.BuildKey, error)

	// Close releases the store.
	Close() error
}

// StoreOpener opens a ResultStore at a path.
//
// If the stamped schema version differs from schemaVersion, all records are
// discarded and the new version is stamped. A mismatch is not an error.
type StoreOpener interface {
	Open(ctx context.Context, path string, schemaVersion uint32) (ResultStore, error)
}
