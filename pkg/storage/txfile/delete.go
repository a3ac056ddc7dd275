package txfile

import (
	"fmt"
	"os"
	"sync"

	"github.com/docfold/docstore/internal/logger"
)

// DeleteOperation removes the file at a target path.
//
// The protocol, executed under the target's write lock:
//
//  1. Rename target to <target>~tmp. This is the commit point: the
//     operation now intends to delete. If the target does not exist the
//     delete is a no-op success.
//  2. Remove the temp. If this fails the temp remains as an
//     incomplete-delete marker: the content is gone from its path but not
//     yet from disk. The next operation on the path retries the removal.
//
// Content is never lost before step 2 actually removes it, and delete is
// idempotent: repeating it on an absent target succeeds.
type DeleteOperation struct {
	target   string
	lock     lockHandle
	executed bool
}

// NewDelete builds a single-use delete operation. The lock must be the
// write side of the registry lock for the target path.
func NewDelete(target string, lock *sync.RWMutex) *DeleteOperation {
	return &DeleteOperation{target: target, lock: lock}
}

// Execute runs the protocol to a terminal state. It may be called once.
func (op *DeleteOperation) Execute() error {
	if op.executed {
		return &OpError{Code: CodeInvalidInput, Path: op.target,
			Err: fmt.Errorf("delete operation already executed")}
	}
	op.executed = true

	if op.target == "" || op.lock == nil {
		return &OpError{Code: CodeInvalidInput, Path: op.target,
			Err: fmt.Errorf("delete operation is missing target or lock")}
	}

	id := opID()
	op.lock.Lock()
	defer op.lock.Unlock()

	temp := TempPath(op.target)

	if !exists(op.target) {
		// A save crash may have left the only copy in the backup; heal
		// before deciding the target is really gone.
		if err := Recover(op.target); err != nil {
			return &OpError{Code: CodeTransientIO, Path: op.target, Err: err}
		}
	}

	if !exists(op.target) {
		// Idempotent no-op, but finish an interrupted prior delete if
		// its marker is still around.
		if exists(temp) {
			if err := os.Remove(temp); err != nil {
				logger.Warn("delete[%s]: incomplete-delete marker remains for %s: %v",
					id, op.target, err)
			} else {
				logger.Debug("delete[%s]: finished interrupted delete of %s", id, op.target)
			}
		}
		return nil
	}

	// A stale temp from an interrupted save would collide with the rename.
	if exists(temp) {
		if err := os.Remove(temp); err != nil {
			return &OpError{Code: CodeTransientIO, Path: op.target,
				Err: fmt.Errorf("clearing stale temp file: %w", err)}
		}
	}

	// A stray backup from a save whose cleanup failed must go before the
	// commit: once the target is gone, "target absent + backup present"
	// reads as an interrupted save and recovery would bring the deleted
	// content back.
	if backup := BackupPath(op.target); exists(backup) {
		if err := os.Remove(backup); err != nil {
			return &OpError{Code: CodeTransientIO, Path: op.target,
				Err: fmt.Errorf("clearing stray backup file: %w", err)}
		}
	}

	// Step 1: commit the intent to delete.
	if err := os.Rename(op.target, temp); err != nil {
		return &OpError{Code: CodeTransientIO, Path: op.target,
			Err: fmt.Errorf("renaming target to temp: %w", err)}
	}

	// Step 2: true removal. Failure leaves the marker; reported but the
	// delete is already committed, so the operation still succeeds.
	if err := os.Remove(temp); err != nil {
		logger.Warn("delete[%s]: committed but marker remains for %s: %v", id, op.target, err)
		return nil
	}

	logger.Debug("delete[%s]: removed %s", id, op.target)
	return nil
}
