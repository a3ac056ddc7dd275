package storage

import (
	"fmt"
	"os"
	"time"

	"github.com/docfold/docstore/internal/logger"
	"github.com/docfold/docstore/pkg/refs"
	"github.com/docfold/docstore/pkg/storage/paths"
)

// DeletedVersion is a handle on one deleted attachment version directory.
type DeletedVersion struct {
	// Filename is the original attachment filename, decoded from the
	// directory name.
	Filename string

	// DeletedAt is the deletion time recovered from the directory name.
	DeletedAt time.Time

	// Location is the version directory relative to the storage root.
	Location paths.Location
}

// ContentLocation resolves the file holding this version's payload.
func (v DeletedVersion) ContentLocation() paths.Location {
	return v.Location.Append(paths.EncodeSegment(v.Filename))
}

// DeletedAttachments enumerates the deleted attachment versions kept beside
// a document, grouped by original filename and keyed by deletion time in
// epoch milliseconds. A document with no deleted-attachments directory
// yields an empty map.
//
// Directory names that do not parse are skipped with a warning rather than
// failing the whole listing; one corrupt entry should not hide the rest.
func (t *StoreTools) DeletedAttachments(docRef refs.DocumentRef) (map[string]map[int64]DeletedVersion, error) {
	base := paths.DeletedAttachmentsLocation(docRef)
	dir := t.FilePath(base)

	out := make(map[string]map[int64]DeletedVersion)

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return out, nil
		}
		return nil, fmt.Errorf("listing deleted attachments of %s: %w", docRef, err)
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		name := entry.Name()

		filename, err := paths.FilenameFromDeletedDir(name)
		if err != nil {
			logger.Warn("skipping unparseable deleted-attachment directory %q: %v", name, err)
			continue
		}
		deletedAt, err := paths.DeleteDateFromDeletedDir(name)
		if err != nil {
			logger.Warn("skipping unparseable deleted-attachment directory %q: %v", name, err)
			continue
		}

		byDate, ok := out[filename]
		if !ok {
			byDate = make(map[int64]DeletedVersion)
			out[filename] = byDate
		}
		byDate[deletedAt.UnixMilli()] = DeletedVersion{
			Filename:  filename,
			DeletedAt: deletedAt,
			Location:  base.Append(name),
		}
	}
	return out, nil
}
