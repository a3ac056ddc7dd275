// Package objects implements generic persistence for object graphs: a
// walker that discovers the persistable instances reachable from a root and
// assigns them stable hierarchical keys, the schema descriptors persisted
// alongside instance data, and the key-addressed backend contract the store
// writes through.
package objects

import (
	"fmt"
	"sync"
)

// Persistable is the capability a type needs to participate in object graph
// persistence. Implementations are expected to be pointer types: the walker
// detects cycles by identity, and identity only makes sense for pointers.
//
// PersistableFields declares which children the walker follows; it replaces
// runtime field reflection with an explicit statement of the persistable
// parts of the type, which also pins the traversal order (fields are walked
// in the order returned).
type Persistable interface {
	// ID returns the persistence key assigned by the last save, or ""
	// before the first one.
	ID() string

	// SetID assigns the persistence key. Called by the store during
	// save, before the instance is persisted.
	SetID(id string)

	// Schema returns the descriptor for this type's stored shape. All
	// instances of one type must return the same *Schema value; the
	// walker deduplicates descriptors by pointer identity.
	Schema() *Schema

	// PersistableFields returns the child references to follow. A
	// Field's Value must be a Persistable, a []Persistable, or a
	// map[string]Persistable; nil values are skipped.
	PersistableFields() []Field
}

// Field is one named child reference of a persistable instance.
type Field struct {
	Name  string
	Value any
}

// FieldKind classifies a stored field in a schema descriptor.
type FieldKind int

const (
	KindString FieldKind = iota
	KindInt
	KindFloat
	KindBool
	KindTime
	KindBytes
	KindObject
	KindList
	KindMap
)

func (k FieldKind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	case KindTime:
		return "time"
	case KindBytes:
		return "bytes"
	case KindObject:
		return "object"
	case KindList:
		return "list"
	case KindMap:
		return "map"
	}
	return "unknown"
}

// SchemaField describes one stored field of a persistable type.
type SchemaField struct {
	Name string    `json:"name"`
	Kind FieldKind `json:"kind"`
}

// Schema describes the stored shape of a persistable type. One Schema value
// exists per type; instances share it, and the store persists it at most
// once per save. Descriptor carries opaque bytes produced by an external
// type provider (this package never interprets them); a schema with an
// empty descriptor is considered internal and is never persisted.
type Schema struct {
	Name       string        `json:"name"`
	Fields     []SchemaField `json:"fields"`
	Descriptor []byte        `json:"descriptor,omitempty"`
}

// TypeRegistry maps schema names to factories producing empty instances,
// used by backends to materialize fetched data. Registration happens at
// program start; lookups are concurrent.
type TypeRegistry struct {
	mu        sync.RWMutex
	factories map[string]func() Persistable
}

// NewTypeRegistry creates an empty registry.
func NewTypeRegistry() *TypeRegistry {
	return &TypeRegistry{factories: make(map[string]func() Persistable)}
}

// Register binds a schema name to an instance factory. Registering the same
// name twice replaces the factory.
func (r *TypeRegistry) Register(name string, factory func() Persistable) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = factory
}

// New creates an empty instance of the named type.
func (r *TypeRegistry) New(name string) (Persistable, error) {
	r.mu.RLock()
	factory, ok := r.factories[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, name)
	}
	return factory(), nil
}
