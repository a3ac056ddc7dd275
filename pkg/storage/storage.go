// Package storage ties the path resolver, the lock registry and the file
// transaction protocol together into the tools the attachment store works
// with: resolve a reference to a concrete file, obtain a save or delete
// operation bound to that file and its lock, and enumerate the deleted
// versions kept beside a document.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/docfold/docstore/internal/logger"
	"github.com/docfold/docstore/pkg/refs"
	"github.com/docfold/docstore/pkg/storage/archive"
	"github.com/docfold/docstore/pkg/storage/locks"
	"github.com/docfold/docstore/pkg/storage/paths"
	"github.com/docfold/docstore/pkg/storage/txfile"
)

// ErrAttachmentNotFound indicates the attachment has no stored content.
var ErrAttachmentNotFound = errors.New("attachment content not found")

// StoreTools is the facade over the filesystem attachment store.
//
// All mutation goes through operations obtained from SaveOperation and
// DeleteOperation, which serialize per target path via the shared lock
// registry. StoreTools itself is safe for concurrent use.
type StoreTools struct {
	root     string
	locks    *locks.Registry
	archiver archive.Archiver // optional; nil disables archiving
}

// NewStoreTools creates the facade rooted at the given directory, creating
// it if needed and sweeping out empty directories left behind by earlier
// deletes.
func NewStoreTools(root string, registry *locks.Registry, archiver archive.Archiver) (*StoreTools, error) {
	if root == "" {
		return nil, fmt.Errorf("storage root is required")
	}
	if registry == nil {
		return nil, fmt.Errorf("lock registry is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("creating storage root: %w", err)
	}

	t := &StoreTools{root: root, locks: registry, archiver: archiver}
	t.sweepEmptyDirs()
	return t, nil
}

// Root returns the storage root directory.
func (t *StoreTools) Root() string { return t.root }

// FilePath resolves a storage location to an absolute file path.
func (t *StoreTools) FilePath(loc paths.Location) string {
	return loc.FilePath(t.root)
}

// SaveOperation returns a save operation for the file at the given
// location, bound to the registry lock for that path.
func (t *StoreTools) SaveOperation(provider txfile.StreamProvider, loc paths.Location) *txfile.SaveOperation {
	target := t.FilePath(loc)
	return txfile.NewSave(target, provider, t.locks.ForPath(target))
}

// DeleteOperation returns a delete operation for the file at the given
// location, bound to the registry lock for that path.
func (t *StoreTools) DeleteOperation(loc paths.Location) *txfile.DeleteOperation {
	target := t.FilePath(loc)
	return txfile.NewDelete(target, t.locks.ForPath(target))
}

// AttachmentContentLocation resolves the file holding an attachment's
// current content: the attachment directory plus a file named after the
// encoded attachment filename.
func (t *StoreTools) AttachmentContentLocation(ref refs.AttachmentRef) paths.Location {
	return paths.AttachmentLocation(ref).Append(paths.EncodeSegment(ref.Name))
}

// DeletedAttachmentContentLocation resolves the file holding the content of
// one deleted attachment version.
func (t *StoreTools) DeletedAttachmentContentLocation(ref refs.AttachmentRef, deletedAt time.Time) paths.Location {
	return paths.DeletedAttachmentLocation(ref, deletedAt).Append(paths.EncodeSegment(ref.Name))
}

// ReadAttachment opens the current content of an attachment under the
// path's read lock. Absence is reported as ErrAttachmentNotFound.
func (t *StoreTools) ReadAttachment(ref refs.AttachmentRef) (io.ReadCloser, error) {
	target := t.FilePath(t.AttachmentContentLocation(ref))
	lock := t.locks.ForPath(target)
	lock.RLock()
	defer lock.RUnlock()

	file, err := os.Open(target)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s: %w", ref, ErrAttachmentNotFound)
		}
		return nil, fmt.Errorf("opening attachment %s: %w", ref, err)
	}
	return file, nil
}

// SaveAttachment atomically replaces the attachment's content with the
// payload from the provider.
func (t *StoreTools) SaveAttachment(ref refs.AttachmentRef, provider txfile.StreamProvider) error {
	return t.SaveOperation(provider, t.AttachmentContentLocation(ref)).Execute()
}

// DeleteAttachment moves the attachment's current content into a new
// deleted-attachments version directory stamped with deletedAt, pushes the
// payload to the archive when one is configured, then removes the live
// file. Deleting an attachment with no stored content is a no-op success.
//
// Archive failures are logged and do not fail the delete: the local
// deleted version is already durable by the time the archiver runs.
func (t *StoreTools) DeleteAttachment(ctx context.Context, ref refs.AttachmentRef, deletedAt time.Time) error {
	live := t.AttachmentContentLocation(ref)
	livePath := t.FilePath(live)

	if _, err := os.Stat(livePath); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("checking attachment %s: %w", ref, err)
	}

	// Preserve the payload as a deleted version first; only then remove
	// the live file. A crash in between leaves both copies, never none.
	deleted := t.DeletedAttachmentContentLocation(ref, deletedAt)
	provider := func() (io.ReadCloser, error) { return os.Open(livePath) }
	if err := t.SaveOperation(provider, deleted).Execute(); err != nil {
		return fmt.Errorf("preserving deleted version of %s: %w", ref, err)
	}

	if t.archiver != nil {
		if err := t.archiveDeleted(ctx, deleted); err != nil {
			logger.Warn("archive of %s failed: %v", ref, err)
		}
	}

	if err := t.DeleteOperation(live).Execute(); err != nil {
		return fmt.Errorf("removing live content of %s: %w", ref, err)
	}
	return nil
}

func (t *StoreTools) archiveDeleted(ctx context.Context, loc paths.Location) error {
	file, err := os.Open(t.FilePath(loc))
	if err != nil {
		return fmt.Errorf("opening deleted version: %w", err)
	}
	defer func() { _ = file.Close() }()
	return t.archiver.Archive(ctx, loc.String(), file)
}

// sweepEmptyDirs removes directories under the root that contain nothing
// but other empty directories. Deletes leave empty parents behind; the
// sweep runs at startup so the hierarchy does not accumulate them.
func (t *StoreTools) sweepEmptyDirs() {
	removed := 0
	var sweep func(dir string) bool
	sweep = func(dir string) bool {
		entries, err := os.ReadDir(dir)
		if err != nil {
			return false
		}
		empty := true
		for _, entry := range entries {
			if !entry.IsDir() {
				empty = false
				continue
			}
			if !sweep(filepath.Join(dir, entry.Name())) {
				empty = false
			}
		}
		if !empty || dir == t.root {
			return false
		}
		if err := os.Remove(dir); err != nil {
			return false
		}
		removed++
		return true
	}
	sweep(t.root)
	if removed > 0 {
		logger.Debug("swept %d empty directories under %s", removed, t.root)
	}
}
