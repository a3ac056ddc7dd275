package badger

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/docfold/docstore/pkg/objects"
)

// badgerTxn adapts one *badger.Txn to the objects.Txn contract.
//
// Values are stored as JSON: instances marshal the persistable itself,
// schemas marshal the objects.Schema record (field list plus the opaque
// descriptor bytes).
type badgerTxn struct {
	txn      *badger.Txn
	types    *objects.TypeRegistry
	readOnly bool
}

func (t *badgerTxn) Persist(key string, value objects.Persistable) error {
	if t.readOnly {
		return fmt.Errorf("persist inside read-only transaction")
	}
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encoding %q: %w", key, err)
	}
	return t.txn.Set(keyInstance(key), data)
}

func (t *badgerTxn) PersistSchema(schema *objects.Schema) error {
	if t.readOnly {
		return fmt.Errorf("persist inside read-only transaction")
	}
	data, err := json.Marshal(schema)
	if err != nil {
		return fmt.Errorf("encoding schema %q: %w", schema.Name, err)
	}

	// Skip the write when an identical descriptor is already stored;
	// schema blobs are immutable and large relative to instances.
	item, err := t.txn.Get(keySchema(schema.Name))
	if err == nil {
		same := false
		if err := item.Value(func(existing []byte) error {
			same = bytes.Equal(existing, data)
			return nil
		}); err != nil {
			return fmt.Errorf("reading stored schema %q: %w", schema.Name, err)
		}
		if same {
			return nil
		}
	} else if !errors.Is(err, badger.ErrKeyNotFound) {
		return fmt.Errorf("checking stored schema %q: %w", schema.Name, err)
	}

	return t.txn.Set(keySchema(schema.Name), data)
}

func (t *badgerTxn) HasSchema(name string) (bool, error) {
	_, err := t.txn.Get(keySchema(name))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking schema %q: %w", name, err)
	}
	return true, nil
}

func (t *badgerTxn) Fetch(typeName, key string) (objects.Persistable, error) {
	item, err := t.txn.Get(keyInstance(key))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, fmt.Errorf("%q: %w", key, objects.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting %q: %w", key, err)
	}

	value, err := t.types.New(typeName)
	if err != nil {
		return nil, err
	}
	if err := item.Value(func(data []byte) error {
		return json.Unmarshal(data, value)
	}); err != nil {
		return nil, fmt.Errorf("decoding %q: %w", key, err)
	}
	value.SetID(key)
	return value, nil
}

func (t *badgerTxn) Delete(value objects.Persistable) error {
	if t.readOnly {
		return fmt.Errorf("delete inside read-only transaction")
	}
	err := t.txn.Delete(keyInstance(value.ID()))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil
	}
	return err
}
