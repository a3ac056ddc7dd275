// Package txfile implements the crash-safe save and delete protocol for
// files in the attachment store.
//
// Both operations stage their work through sibling files derived from the
// target path: <target>~tmp holds content in flight and <target>~bak holds
// the previous content during a save. At every instant the target is either
// entirely the old content or entirely the new content, and a process crash
// at any step leaves a state the next operation on the same path can heal.
//
// Operations are single-use values. Each one borrows the write lock for its
// target path for its whole execution, not just the final rename, so
// concurrent savers and deleters on one path are strictly serialized.
package txfile

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/google/uuid"

	"github.com/docfold/docstore/internal/logger"
)

const (
	// tempSuffix marks the staging file for content being written or a
	// file in the middle of being deleted.
	tempSuffix = "~tmp"

	// backupSuffix marks the previous content of a file being replaced.
	// If the replacing save fails, the backup is moved back.
	backupSuffix = "~bak"
)

// StreamProvider opens the payload for a save operation. It is invoked once
// per execution, after the write lock is held.
type StreamProvider func() (io.ReadCloser, error)

// TempPath returns the staging path for a target.
func TempPath(target string) string { return target + tempSuffix }

// BackupPath returns the backup path for a target.
func BackupPath(target string) string { return target + backupSuffix }

// Recover heals the crash leftovers of a previous operation on target. It
// must be called with the target's write lock held. The rules follow from
// the protocol's commit points:
//
//   - target absent, backup present: a save crashed between backing up the
//     old content and committing the new. The backup is the only full copy;
//     move it back.
//   - target present, temp present: either a save crashed before its commit
//     rename or after it (the temp rename is atomic, so a present temp with
//     a present target means the temp was never committed). The temp is
//     garbage; remove it.
//   - target absent, temp present, backup absent: a delete committed but
//     its cleanup did not finish. Removing the temp completes the delete.
//     Save leaves this case to the delete operation: a save about to write
//     the path truncates the temp anyway.
func Recover(target string) error {
	if !exists(target) && exists(BackupPath(target)) {
		if err := os.Rename(BackupPath(target), target); err != nil {
			return fmt.Errorf("restoring backup: %w", err)
		}
		logger.Warn("restored %s from interrupted save", target)
	}
	if exists(target) && exists(TempPath(target)) {
		if err := os.Remove(TempPath(target)); err != nil {
			return fmt.Errorf("removing stale temp file: %w", err)
		}
		logger.Debug("removed stale temp file for %s", target)
	}
	return nil
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// opID tags one operation's log lines so interleaved executions on
// different paths can be told apart.
func opID() string {
	return uuid.NewString()[:8]
}

// lockHandle is the slice of the RWMutex API the protocol needs; it lets
// tests instrument lock acquisition ordering.
type lockHandle interface {
	Lock()
	Unlock()
}

var _ lockHandle = (*sync.RWMutex)(nil)
