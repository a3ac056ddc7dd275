package txfile

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/docfold/docstore/internal/logger"
)

// SaveOperation atomically replaces (or creates) the file at a target path
// with the content supplied by a StreamProvider.
//
// The protocol, executed under the target's write lock:
//
//  1. Write the full payload to <target>~tmp. A failure here leaves the
//     target untouched (transient, retryable).
//  2. If the target exists, rename it to <target>~bak. A failure here
//     aborts before any destructive change (transient, retryable).
//  3. Rename temp onto the target. This is the commit point. If it fails
//     after step 2 succeeded, the backup is moved back on a best-effort
//     basis and a commit error is reported.
//  4. Remove the backup. A failure here is logged and tolerated: the next
//     operation on the path overwrites or heals the stray file.
type SaveOperation struct {
	target   string
	provider StreamProvider
	lock     lockHandle
	executed bool
}

// NewSave builds a single-use save operation. The lock must be the write
// side of the registry lock for the target path.
func NewSave(target string, provider StreamProvider, lock *sync.RWMutex) *SaveOperation {
	return &SaveOperation{target: target, provider: provider, lock: lock}
}

// Execute runs the protocol to a terminal state. It may be called once.
func (op *SaveOperation) Execute() error {
	if op.executed {
		return &OpError{Code: CodeInvalidInput, Path: op.target,
			Err: fmt.Errorf("save operation already executed")}
	}
	op.executed = true

	if op.target == "" || op.provider == nil || op.lock == nil {
		return &OpError{Code: CodeInvalidInput, Path: op.target,
			Err: fmt.Errorf("save operation is missing target, provider or lock")}
	}

	id := opID()
	op.lock.Lock()
	defer op.lock.Unlock()

	logger.Debug("save[%s]: begin %s", id, op.target)

	if err := Recover(op.target); err != nil {
		return &OpError{Code: CodeTransientIO, Path: op.target, Err: err}
	}

	temp := TempPath(op.target)
	backup := BackupPath(op.target)

	// Step 1: stage the payload.
	if err := op.writeTemp(temp); err != nil {
		// Leave nothing behind; the target was never touched.
		_ = os.Remove(temp)
		return &OpError{Code: CodeTransientIO, Path: op.target, Err: err}
	}

	// Step 2: move the old content out of the way.
	hadTarget := exists(op.target)
	if hadTarget {
		if err := os.Rename(op.target, backup); err != nil {
			_ = os.Remove(temp)
			return &OpError{Code: CodeTransientIO, Path: op.target,
				Err: fmt.Errorf("renaming target to backup: %w", err)}
		}
	}

	// Step 3: commit.
	if err := os.Rename(temp, op.target); err != nil {
		if hadTarget {
			if restoreErr := os.Rename(backup, op.target); restoreErr != nil {
				logger.Error("save[%s]: could not restore backup for %s: %v",
					id, op.target, restoreErr)
			}
		}
		_ = os.Remove(temp)
		return &OpError{Code: CodeCommitFailed, Path: op.target,
			Err: fmt.Errorf("committing temp file: %w", err)}
	}

	// Step 4: drop the backup. Non-fatal; a stray backup is healed by the
	// next operation on this path.
	if hadTarget {
		if err := os.Remove(backup); err != nil {
			logger.Warn("save[%s]: leaving stray backup for %s: %v", id, op.target, err)
		}
	}

	logger.Debug("save[%s]: committed %s", id, op.target)
	return nil
}

// writeTemp streams the full payload into the temp path, creating parent
// directories as needed.
func (op *SaveOperation) writeTemp(temp string) error {
	if err := os.MkdirAll(filepath.Dir(temp), 0o755); err != nil {
		return fmt.Errorf("creating parent directory: %w", err)
	}

	source, err := op.provider()
	if err != nil {
		return fmt.Errorf("opening payload stream: %w", err)
	}
	defer func() { _ = source.Close() }()

	file, err := os.OpenFile(temp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}

	if _, err := io.Copy(file, source); err != nil {
		_ = file.Close()
		return fmt.Errorf("writing payload: %w", err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	return nil
}
