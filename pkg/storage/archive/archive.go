// Package archive defines the optional mirror for deleted attachment
// payloads. When a deleted attachment version is written to its
// deleted-attachments directory, the payload can additionally be pushed to
// an archive (typically an object bucket) for off-box retention.
//
// Archiving is best-effort by contract: the local delete protocol has
// already committed by the time the archiver runs, so implementations
// report failures but callers never roll back a delete because of one.
package archive

import (
	"context"
	"errors"
	"io"
)

// ErrArchiveUnavailable indicates the archive backend could not be reached.
// Transient; the payload is still available in the local deleted-attachments
// directory.
var ErrArchiveUnavailable = errors.New("archive unavailable")

// Archiver stores one deleted attachment payload under a storage key. The
// key is the slash-joined storage location of the deleted version, which is
// unique per (attachment, deletion time).
type Archiver interface {
	Archive(ctx context.Context, key string, payload io.Reader) error
}
