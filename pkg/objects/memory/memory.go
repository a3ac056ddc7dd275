// Package memory implements the object persistence backend in process
// memory. It is used by tests and by ephemeral deployments; the semantics
// mirror the badger backend, including the all-or-nothing transaction
// boundary.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/docfold/docstore/pkg/objects"
)

// Backend stores serialized instances and schemas in maps. A read-write
// transaction collects its writes in an overlay applied only when the
// transaction function returns nil, so a failed Update leaves nothing
// behind.
type Backend struct {
	mu        sync.RWMutex
	instances map[string][]byte
	schemas   map[string][]byte
	types     *objects.TypeRegistry
	closed    bool
}

// New creates an empty in-memory backend decoding through the given type
// registry.
func New(types *objects.TypeRegistry) *Backend {
	return &Backend{
		instances: make(map[string][]byte),
		schemas:   make(map[string][]byte),
		types:     types,
	}
}

// Update runs fn inside a read-write transaction.
func (b *Backend) Update(ctx context.Context, fn func(txn objects.Txn) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return fmt.Errorf("backend is closed")
	}

	txn := &memTxn{backend: b, writes: make(map[string]write)}
	if err := fn(txn); err != nil {
		return err
	}
	txn.apply()
	return nil
}

// View runs fn inside a read-only transaction. Writes issued through the
// Txn are rejected.
func (b *Backend) View(ctx context.Context, fn func(txn objects.Txn) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return fmt.Errorf("backend is closed")
	}

	return fn(&memTxn{backend: b, readOnly: true})
}

// Close marks the backend closed; further transactions fail.
func (b *Backend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	return nil
}

type write struct {
	schema bool
	value  []byte // nil means delete
}

// memTxn overlays pending writes on the backend maps. Reads observe the
// overlay first, so a transaction sees its own writes.
type memTxn struct {
	backend  *Backend
	writes   map[string]write
	readOnly bool
}

func instanceKey(key string) string { return "o:" + key }
func schemaKey(name string) string  { return "s:" + name }

func (t *memTxn) Persist(key string, value objects.Persistable) error {
	if t.readOnly {
		return fmt.Errorf("persist inside read-only transaction")
	}
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encoding %q: %w", key, err)
	}
	t.writes[instanceKey(key)] = write{value: data}
	return nil
}

func (t *memTxn) PersistSchema(schema *objects.Schema) error {
	if t.readOnly {
		return fmt.Errorf("persist inside read-only transaction")
	}
	data, err := json.Marshal(schema)
	if err != nil {
		return fmt.Errorf("encoding schema %q: %w", schema.Name, err)
	}
	if existing, ok := t.get(schemaKey(schema.Name)); ok && string(existing) == string(data) {
		return nil
	}
	t.writes[schemaKey(schema.Name)] = write{schema: true, value: data}
	return nil
}

func (t *memTxn) HasSchema(name string) (bool, error) {
	_, ok := t.get(schemaKey(name))
	return ok, nil
}

func (t *memTxn) Fetch(typeName, key string) (objects.Persistable, error) {
	data, ok := t.get(instanceKey(key))
	if !ok {
		return nil, fmt.Errorf("%q: %w", key, objects.ErrNotFound)
	}
	value, err := t.backend.types.New(typeName)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(data, value); err != nil {
		return nil, fmt.Errorf("decoding %q: %w", key, err)
	}
	value.SetID(key)
	return value, nil
}

func (t *memTxn) Delete(value objects.Persistable) error {
	if t.readOnly {
		return fmt.Errorf("delete inside read-only transaction")
	}
	t.writes[instanceKey(value.ID())] = write{value: nil}
	return nil
}

// get reads through the overlay into the committed maps.
func (t *memTxn) get(storageKey string) ([]byte, bool) {
	if w, ok := t.writes[storageKey]; ok {
		return w.value, w.value != nil
	}
	var src map[string][]byte
	if len(storageKey) > 2 && storageKey[:2] == "s:" {
		src = t.backend.schemas
	} else {
		src = t.backend.instances
	}
	data, ok := src[storageKey]
	return data, ok
}

func (t *memTxn) apply() {
	for storageKey, w := range t.writes {
		dst := t.backend.instances
		if w.schema {
			dst = t.backend.schemas
		}
		if w.value == nil {
			delete(dst, storageKey)
			continue
		}
		dst[storageKey] = w.value
	}
}
