// Package locks maps canonical filesystem paths to read/write locks.
//
// Every save and delete in the transactional file store runs under the write
// lock for its target path, so two operations on the same file can never
// interleave their temp/backup steps. Correctness therefore depends on one
// property: the same canonical path must always yield the same lock
// instance, no matter which component asks or when.
package locks

import (
	"path/filepath"
	"sync"
)

// Registry hands out one *sync.RWMutex per canonical path for the life of
// the process. Entries are never evicted: the number of distinct paths is
// bounded by stored content, not by request volume, and reclaiming an entry
// while any caller still holds a reference would allow two locks to guard
// the same file.
type Registry struct {
	mu    sync.Mutex
	locks map[string]*sync.RWMutex
}

// NewRegistry creates an empty lock registry.
func NewRegistry() *Registry {
	return &Registry{locks: make(map[string]*sync.RWMutex)}
}

// ForPath returns the lock guarding the given path. The path is
// canonicalized first so that equivalent spellings share one lock.
// Concurrent first calls for the same new path all observe the same
// instance: the first inserter wins.
func (r *Registry) ForPath(path string) *sync.RWMutex {
	canonical := Canonicalize(path)

	r.mu.Lock()
	defer r.mu.Unlock()

	if lock, ok := r.locks[canonical]; ok {
		return lock
	}
	lock := &sync.RWMutex{}
	r.locks[canonical] = lock
	return lock
}

// Len reports how many distinct paths currently have locks. Used by tests
// and operational logging.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.locks)
}

// Canonicalize normalizes a path for use as a registry key. Cleaning is
// purely lexical; the registry never touches the filesystem.
func Canonicalize(path string) string {
	return filepath.Clean(path)
}
