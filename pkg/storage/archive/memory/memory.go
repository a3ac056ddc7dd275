// Package memory implements the deleted-attachment archive in process
// memory. It exists for tests and for deployments that want the archive
// hook exercised without an object bucket.
package memory

import (
	"context"
	"fmt"
	"io"
	"sync"
)

// Archive keeps archived payloads in a map keyed by storage key.
// Safe for concurrent use.
type Archive struct {
	mu       sync.RWMutex
	payloads map[string][]byte
}

// New creates an empty in-memory archive.
func New() *Archive {
	return &Archive{payloads: make(map[string][]byte)}
}

// Archive stores the payload bytes under the key, replacing any previous
// payload for the same key.
func (a *Archive) Archive(ctx context.Context, key string, payload io.Reader) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := io.ReadAll(payload)
	if err != nil {
		return fmt.Errorf("reading payload for %s: %w", key, err)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.payloads[key] = data
	return nil
}

// Get returns the archived payload for a key, if present.
func (a *Archive) Get(key string) ([]byte, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	data, ok := a.payloads[key]
	if !ok {
		return nil, false
	}
	return append([]byte(nil), data...), true
}

// Len reports the number of archived payloads.
func (a *Archive) Len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.payloads)
}
