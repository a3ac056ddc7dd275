// Package badger implements the object persistence backend on BadgerDB, an
// embedded key-value store with ACID transactions. One badger transaction
// backs one store transaction, which gives the object store its
// all-or-nothing boundary: either every descriptor and instance written by
// a save becomes visible together, or none do.
package badger

import (
	"context"
	"fmt"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/docfold/docstore/internal/logger"
	"github.com/docfold/docstore/pkg/objects"
)

// Backend is the badger-backed persistence backend.
//
// Thread safety: badger transactions provide MVCC; concurrent Update calls
// on disjoint keys proceed in parallel, conflicting ones retry inside
// badger. The Backend itself carries no additional locking.
type Backend struct {
	db    *badger.DB
	types *objects.TypeRegistry
}

// Options configures the backend.
type Options struct {
	// Path is the database directory. Created if missing.
	Path string

	// InMemory runs badger without disk persistence. Used by tests.
	InMemory bool
}

// Open opens (or creates) the database and returns the backend.
func Open(opts Options, types *objects.TypeRegistry) (*Backend, error) {
	if types == nil {
		return nil, fmt.Errorf("type registry is required")
	}
	if opts.Path == "" && !opts.InMemory {
		return nil, fmt.Errorf("database path is required")
	}

	badgerOpts := badger.DefaultOptions(opts.Path).
		WithInMemory(opts.InMemory).
		WithLogger(nil)

	db, err := badger.Open(badgerOpts)
	if err != nil {
		return nil, fmt.Errorf("opening badger database: %w", err)
	}

	logger.Info("object backend ready: path=%q in_memory=%v", opts.Path, opts.InMemory)
	return &Backend{db: db, types: types}, nil
}

// Update runs fn inside one badger read-write transaction.
func (b *Backend) Update(ctx context.Context, fn func(txn objects.Txn) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return b.db.Update(func(txn *badger.Txn) error {
		return fn(&badgerTxn{txn: txn, types: b.types})
	})
}

// View runs fn inside one badger read-only transaction.
func (b *Backend) View(ctx context.Context, fn func(txn objects.Txn) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return b.db.View(func(txn *badger.Txn) error {
		return fn(&badgerTxn{txn: txn, types: b.types, readOnly: true})
	})
}

// Close closes the underlying database.
func (b *Backend) Close() error {
	return b.db.Close()
}
