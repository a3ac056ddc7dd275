// Package paths resolves logical document and attachment references into
// filesystem storage locations.
//
// The layout mirrors the reference hierarchy. A document xwiki:Main.WebHome
// lives under:
//
//	<root>/xwiki/Main/WebHome/~this/
//
// with attachments under ~this/attachments/<encoded-name>/ and deleted
// attachment versions under ~this/deleted-attachments/<encoded-name>-<epoch
// millis>/. The "~this" segment marks the document directory itself; it
// contains '~', which the segment encoding always escapes, so no space or
// document name can ever produce it. Resolution is pure: no I/O, no
// validation beyond what the reference types already guarantee.
package paths

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/docfold/docstore/pkg/refs"
)

const (
	// documentDirName is the reserved segment holding a document's data.
	// It must contain a character the segment encoding escapes.
	documentDirName = "~this"

	// attachmentsDirName holds the document's live attachments.
	attachmentsDirName = "attachments"

	// deletedAttachmentsDirName holds deleted attachment versions.
	deletedAttachmentsDirName = "deleted-attachments"

	// deletedNameSeparator separates the encoded filename from the
	// deletion date in a deleted-attachment directory name. The segment
	// encoding escapes '-', so the separator never occurs in the encoded
	// filename and the last occurrence always splits correctly.
	deletedNameSeparator = "-"
)

// ErrMalformedSegment reports a path segment that cannot be decoded back
// into a logical name.
var ErrMalformedSegment = errors.New("malformed path segment")

// Location is a hierarchical storage location: an ordered list of
// already-encoded path segments relative to the storage root.
type Location struct {
	segments []string
}

// NewLocation builds a location from already-encoded segments.
func NewLocation(segments ...string) Location {
	return Location{segments: append([]string(nil), segments...)}
}

// Append returns a new location with extra encoded segments appended.
// The receiver is never mutated.
func (l Location) Append(segments ...string) Location {
	combined := make([]string, 0, len(l.segments)+len(segments))
	combined = append(combined, l.segments...)
	combined = append(combined, segments...)
	return Location{segments: combined}
}

// Segments returns a copy of the encoded segments.
func (l Location) Segments() []string {
	return append([]string(nil), l.segments...)
}

// FilePath resolves the location against a storage root directory.
func (l Location) FilePath(root string) string {
	return filepath.Join(append([]string{root}, l.segments...)...)
}

func (l Location) String() string {
	return strings.Join(l.segments, "/")
}

// DocumentLocation resolves the directory holding a document's data:
// one encoded segment per reference level, then the reserved "~this".
func DocumentLocation(ref refs.DocumentRef) Location {
	logical := ref.PathSegments()
	segments := make([]string, 0, len(logical)+1)
	for _, name := range logical {
		segments = append(segments, EncodeSegment(name))
	}
	segments = append(segments, documentDirName)
	return Location{segments: segments}
}

// AttachmentLocation resolves the directory holding a live attachment's
// files: the document location plus "attachments" plus the encoded filename.
func AttachmentLocation(ref refs.AttachmentRef) Location {
	return DocumentLocation(ref.Document).
		Append(attachmentsDirName, EncodeSegment(ref.Name))
}

// DeletedAttachmentsLocation resolves the directory holding all deleted
// versions of a document's attachments.
func DeletedAttachmentsLocation(ref refs.DocumentRef) Location {
	return DocumentLocation(ref).Append(deletedAttachmentsDirName)
}

// DeletedAttachmentLocation resolves the directory for one deleted version
// of an attachment. The final segment is the encoded filename, the
// separator, and the deletion time in epoch milliseconds, so repeated
// deletions of the same filename produce distinct directories ordered by
// timestamp.
func DeletedAttachmentLocation(ref refs.AttachmentRef, deletedAt time.Time) Location {
	segment := EncodeSegment(ref.Name) +
		deletedNameSeparator +
		strconv.FormatInt(deletedAt.UnixMilli(), 10)
	return DeletedAttachmentsLocation(ref.Document).Append(segment)
}

// FilenameFromDeletedDir recovers the original attachment filename from a
// deleted-attachment directory name. The split is on the last separator;
// the date part is digits only, and the encoded filename cannot contain the
// raw separator, so the split is unambiguous.
func FilenameFromDeletedDir(dirName string) (string, error) {
	idx := strings.LastIndex(dirName, deletedNameSeparator)
	if idx < 0 {
		return "", fmt.Errorf("%w: no separator in deleted-attachment directory %q",
			ErrMalformedSegment, dirName)
	}
	return DecodeSegment(dirName[:idx])
}

// DeleteDateFromDeletedDir recovers the deletion time from a
// deleted-attachment directory name.
func DeleteDateFromDeletedDir(dirName string) (time.Time, error) {
	idx := strings.LastIndex(dirName, deletedNameSeparator)
	if idx < 0 || idx+1 >= len(dirName) {
		return time.Time{}, fmt.Errorf("%w: no deletion date in directory %q",
			ErrMalformedSegment, dirName)
	}
	millis, err := strconv.ParseInt(dirName[idx+1:], 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: bad deletion date in directory %q",
			ErrMalformedSegment, dirName)
	}
	return time.UnixMilli(millis).UTC(), nil
}
