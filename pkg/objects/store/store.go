// Package store implements the generic object store: save walks the object
// graph and persists descriptors and instances in one backend transaction,
// load fetches instances by key, delete removes a single instance.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/docfold/docstore/internal/logger"
	"github.com/docfold/docstore/pkg/objects"
)

// Store orchestrates graph walks against a key-addressed backend. The
// backend provides the transaction boundary; the store never implements its
// own two-phase commit on top.
type Store struct {
	backend objects.Backend
}

// New creates a store over the given backend.
func New(backend objects.Backend) *Store {
	return &Store{backend: backend}
}

// Save persists the object graph rooted at root under rootKey. It walks the
// graph, assigns every discovered instance its computed key, persists each
// distinct schema descriptor at most once (and not at all when the backend
// already holds an identical copy), then persists every instance — all
// inside one backend transaction, so a failure leaves no partial
// descriptor/instance state behind.
//
// Keys are assigned before the transaction opens and are not rolled back:
// after a failed Save the in-memory graph carries the keys a retry will
// persist under, while the backend holds nothing.
func (s *Store) Save(ctx context.Context, rootKey string, root objects.Persistable) error {
	if rootKey == "" {
		return fmt.Errorf("root key is required")
	}
	if root == nil {
		return fmt.Errorf("root object is required")
	}

	discoveries := objects.Walk(rootKey, root)
	logger.Debug("saving %s: %d objects discovered", rootKey, len(discoveries))

	for _, d := range discoveries {
		d.Object.SetID(d.Key)
	}

	return s.backend.Update(ctx, func(txn objects.Txn) error {
		seen := make(map[*objects.Schema]struct{})
		for _, d := range discoveries {
			schema := d.Schema
			if schema == nil {
				continue
			}
			if _, done := seen[schema]; done {
				continue
			}
			seen[schema] = struct{}{}

			// Schemas without descriptor bytes are internal types
			// the backend can always materialize; never stored.
			if len(schema.Descriptor) == 0 {
				continue
			}
			if err := txn.PersistSchema(schema); err != nil {
				return fmt.Errorf("persisting schema %q: %w", schema.Name, err)
			}
		}

		for _, d := range discoveries {
			if err := txn.Persist(d.Key, d.Object); err != nil {
				return fmt.Errorf("persisting %q: %w", d.Key, err)
			}
		}
		return nil
	})
}

// Load fetches the instances stored under the given keys as the named type.
// Keys with nothing stored are skipped silently, so the result may hold
// fewer instances than keys were requested; callers must not assume
// positional correspondence.
func (s *Store) Load(ctx context.Context, keys []string, typeName string) ([]objects.Persistable, error) {
	out := make([]objects.Persistable, 0, len(keys))

	err := s.backend.View(ctx, func(txn objects.Txn) error {
		for _, key := range keys {
			value, err := txn.Fetch(typeName, key)
			if err != nil {
				if errors.Is(err, objects.ErrNotFound) {
					logger.Debug("load: %q not found", key)
					continue
				}
				return fmt.Errorf("fetching %q: %w", key, err)
			}
			out = append(out, value)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Delete removes a single stored instance. Reachability is the caller's
// concern: deletion never cascades through the graph.
func (s *Store) Delete(ctx context.Context, value objects.Persistable) error {
	if value == nil || value.ID() == "" {
		return fmt.Errorf("cannot delete an instance with no assigned key")
	}
	return s.backend.Update(ctx, func(txn objects.Txn) error {
		return txn.Delete(value)
	})
}
