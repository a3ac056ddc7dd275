package objects

import (
	"context"
	"errors"
)

var (
	// ErrNotFound indicates no instance is stored under a key. Load
	// treats it as absence, not failure.
	ErrNotFound = errors.New("object not found")

	// ErrUnknownType indicates a schema name with no registered factory.
	ErrUnknownType = errors.New("unknown persistable type")
)

// Txn is the set of operations available inside one backend transaction.
// Everything issued through a Txn commits or rolls back as a unit.
type Txn interface {
	// Persist stores an instance under its assigned key, replacing any
	// previous value.
	Persist(key string, value Persistable) error

	// PersistSchema stores a schema descriptor. Implementations skip
	// the write when an identical descriptor is already stored, so
	// immutable schema blobs are not rewritten on every save.
	PersistSchema(schema *Schema) error

	// HasSchema reports whether a schema with the given name is stored.
	HasSchema(name string) (bool, error)

	// Fetch materializes the instance stored under key as the named
	// type. Returns ErrNotFound when nothing is stored there.
	Fetch(typeName, key string) (Persistable, error)

	// Delete removes the instance stored under the value's assigned
	// key. Deleting an absent key is a no-op.
	Delete(value Persistable) error
}

// Backend is a key-addressed persistence backend with a caller-visible
// transaction boundary. Update runs the function inside a read-write
// transaction committed iff the function returns nil; View runs it
// read-only. Implementations guarantee that a failed Update leaves no
// partial state visible to later transactions.
type Backend interface {
	Update(ctx context.Context, fn func(txn Txn) error) error
	View(ctx context.Context, fn func(txn Txn) error) error
	Close() error
}
