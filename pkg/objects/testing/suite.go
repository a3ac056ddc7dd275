// Package testing provides a reusable contract test suite for
// objects.Backend implementations. It tests the transaction and
// materialization contract, not implementation details, so the same suite
// runs against the memory and badger backends.
package testing

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docfold/docstore/pkg/objects"
)

// Record is the persistable fixture type the suite stores.
type Record struct {
	Key   string `json:"-"`
	Title string `json:"title"`
	Count int    `json:"count"`
}

// RecordSchema is the shared schema descriptor for Record.
var RecordSchema = &objects.Schema{
	Name: "test.Record",
	Fields: []objects.SchemaField{
		{Name: "title", Kind: objects.KindString},
		{Name: "count", Kind: objects.KindInt},
	},
	Descriptor: []byte("record-descriptor-v1"),
}

func (r *Record) ID() string                         { return r.Key }
func (r *Record) SetID(id string)                    { r.Key = id }
func (r *Record) Schema() *objects.Schema            { return RecordSchema }
func (r *Record) PersistableFields() []objects.Field { return nil }

// NewTypes returns a registry with the suite's fixture type registered.
func NewTypes() *objects.TypeRegistry {
	types := objects.NewTypeRegistry()
	types.Register(RecordSchema.Name, func() objects.Persistable { return &Record{} })
	return types
}

// BackendSuite is the contract suite. NewBackend must return a fresh, empty
// backend per call, decoding through the supplied registry; the suite
// closes it.
type BackendSuite struct {
	NewBackend func(t *testing.T, types *objects.TypeRegistry) objects.Backend
}

// Run executes all contract tests.
func (s *BackendSuite) Run(t *testing.T) {
	t.Run("PersistAndFetch", s.testPersistAndFetch)
	t.Run("FetchMissing", s.testFetchMissing)
	t.Run("Delete", s.testDelete)
	t.Run("SchemaStoredOnce", s.testSchemaStoredOnce)
	t.Run("FailedUpdateLeavesNothing", s.testFailedUpdateLeavesNothing)
	t.Run("ReadOnlyViewRejectsWrites", s.testReadOnlyViewRejectsWrites)
}

func (s *BackendSuite) open(t *testing.T) objects.Backend {
	t.Helper()
	backend := s.NewBackend(t, NewTypes())
	t.Cleanup(func() { _ = backend.Close() })
	return backend
}

func (s *BackendSuite) testPersistAndFetch(t *testing.T) {
	backend := s.open(t)
	ctx := context.Background()

	err := backend.Update(ctx, func(txn objects.Txn) error {
		return txn.Persist("doc1", &Record{Title: "hello", Count: 7})
	})
	require.NoError(t, err)

	err = backend.View(ctx, func(txn objects.Txn) error {
		value, err := txn.Fetch(RecordSchema.Name, "doc1")
		require.NoError(t, err)
		record := value.(*Record)
		assert.Equal(t, "doc1", record.ID())
		assert.Equal(t, "hello", record.Title)
		assert.Equal(t, 7, record.Count)
		return nil
	})
	require.NoError(t, err)
}

func (s *BackendSuite) testFetchMissing(t *testing.T) {
	backend := s.open(t)

	err := backend.View(context.Background(), func(txn objects.Txn) error {
		_, err := txn.Fetch(RecordSchema.Name, "nope")
		assert.ErrorIs(t, err, objects.ErrNotFound)
		return nil
	})
	require.NoError(t, err)
}

func (s *BackendSuite) testDelete(t *testing.T) {
	backend := s.open(t)
	ctx := context.Background()

	record := &Record{Title: "gone"}
	record.SetID("doc2")

	require.NoError(t, backend.Update(ctx, func(txn objects.Txn) error {
		return txn.Persist("doc2", record)
	}))
	require.NoError(t, backend.Update(ctx, func(txn objects.Txn) error {
		return txn.Delete(record)
	}))

	err := backend.View(ctx, func(txn objects.Txn) error {
		_, err := txn.Fetch(RecordSchema.Name, "doc2")
		assert.ErrorIs(t, err, objects.ErrNotFound)
		return nil
	})
	require.NoError(t, err)
}

func (s *BackendSuite) testSchemaStoredOnce(t *testing.T) {
	backend := s.open(t)
	ctx := context.Background()

	require.NoError(t, backend.Update(ctx, func(txn objects.Txn) error {
		return txn.PersistSchema(RecordSchema)
	}))

	// Re-persisting an identical schema must succeed and leave it stored.
	require.NoError(t, backend.Update(ctx, func(txn objects.Txn) error {
		return txn.PersistSchema(RecordSchema)
	}))

	err := backend.View(ctx, func(txn objects.Txn) error {
		ok, err := txn.HasSchema(RecordSchema.Name)
		require.NoError(t, err)
		assert.True(t, ok)
		return nil
	})
	require.NoError(t, err)
}

func (s *BackendSuite) testFailedUpdateLeavesNothing(t *testing.T) {
	backend := s.open(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := backend.Update(ctx, func(txn objects.Txn) error {
		if err := txn.PersistSchema(RecordSchema); err != nil {
			return err
		}
		if err := txn.Persist("doc3", &Record{Title: "half"}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	err = backend.View(ctx, func(txn objects.Txn) error {
		ok, err := txn.HasSchema(RecordSchema.Name)
		require.NoError(t, err)
		assert.False(t, ok, "schema from failed transaction must not be visible")

		_, err = txn.Fetch(RecordSchema.Name, "doc3")
		assert.ErrorIs(t, err, objects.ErrNotFound,
			"instance from failed transaction must not be visible")
		return nil
	})
	require.NoError(t, err)
}

func (s *BackendSuite) testReadOnlyViewRejectsWrites(t *testing.T) {
	backend := s.open(t)

	err := backend.View(context.Background(), func(txn objects.Txn) error {
		return txn.Persist("doc4", &Record{})
	})
	assert.Error(t, err)
}
