package storage

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docfold/docstore/pkg/refs"
	archiveMemory "github.com/docfold/docstore/pkg/storage/archive/memory"
	"github.com/docfold/docstore/pkg/storage/locks"
	"github.com/docfold/docstore/pkg/storage/txfile"
)

func newTools(t *testing.T) *StoreTools {
	t.Helper()
	tools, err := NewStoreTools(t.TempDir(), locks.NewRegistry(), nil)
	require.NoError(t, err)
	return tools
}

func testAttachment(t *testing.T, name string) refs.AttachmentRef {
	t.Helper()
	doc, err := refs.NewDocumentRef("wiki", []string{"Space"}, "Page")
	require.NoError(t, err)
	att, err := refs.NewAttachmentRef(doc, name)
	require.NoError(t, err)
	return att
}

func provider(content string) txfile.StreamProvider {
	return func() (io.ReadCloser, error) {
		return io.NopCloser(strings.NewReader(content)), nil
	}
}

func TestSaveAndReadAttachment(t *testing.T) {
	tools := newTools(t)
	att := testAttachment(t, "photo.png")

	require.NoError(t, tools.SaveAttachment(att, provider("image bytes")))

	reader, err := tools.ReadAttachment(att)
	require.NoError(t, err)
	defer func() { _ = reader.Close() }()

	data, err := io.ReadAll(reader)
	require.NoError(t, err)
	assert.Equal(t, "image bytes", string(data))
}

func TestReadAbsentAttachment(t *testing.T) {
	tools := newTools(t)
	att := testAttachment(t, "missing.png")

	_, err := tools.ReadAttachment(att)
	assert.ErrorIs(t, err, ErrAttachmentNotFound)
}

func TestDeleteAttachmentPreservesVersionAndArchives(t *testing.T) {
	arch := archiveMemory.New()
	tools, err := NewStoreTools(t.TempDir(), locks.NewRegistry(), arch)
	require.NoError(t, err)

	att := testAttachment(t, "photo.png")
	require.NoError(t, tools.SaveAttachment(att, provider("image bytes")))

	deletedAt := time.UnixMilli(1700000000000)
	require.NoError(t, tools.DeleteAttachment(context.Background(), att, deletedAt))

	// Live content is gone.
	_, err = tools.ReadAttachment(att)
	assert.ErrorIs(t, err, ErrAttachmentNotFound)

	// The deleted version holds the payload.
	versionPath := tools.FilePath(tools.DeletedAttachmentContentLocation(att, deletedAt))
	data, err := os.ReadFile(versionPath)
	require.NoError(t, err)
	assert.Equal(t, "image bytes", string(data))

	// And the archive received a copy.
	assert.Equal(t, 1, arch.Len())
	key := tools.DeletedAttachmentContentLocation(att, deletedAt).String()
	archived, ok := arch.Get(key)
	require.True(t, ok, "archive key %q", key)
	assert.Equal(t, "image bytes", string(archived))
}

func TestDeleteAttachmentWithoutContentIsNoOp(t *testing.T) {
	tools := newTools(t)
	att := testAttachment(t, "never-saved.png")

	err := tools.DeleteAttachment(context.Background(), att, time.Now())
	assert.NoError(t, err)
}

func TestDeletedAttachmentsListing(t *testing.T) {
	tools := newTools(t)
	att := testAttachment(t, "photo.png")
	ctx := context.Background()

	first := time.UnixMilli(1700000000000)
	second := time.UnixMilli(1700000001000)

	require.NoError(t, tools.SaveAttachment(att, provider("v1")))
	require.NoError(t, tools.DeleteAttachment(ctx, att, first))
	require.NoError(t, tools.SaveAttachment(att, provider("v2")))
	require.NoError(t, tools.DeleteAttachment(ctx, att, second))

	versions, err := tools.DeletedAttachments(att.Document)
	require.NoError(t, err)

	require.Contains(t, versions, "photo.png")
	byDate := versions["photo.png"]
	require.Len(t, byDate, 2)

	v1 := byDate[first.UnixMilli()]
	assert.Equal(t, "photo.png", v1.Filename)
	assert.Equal(t, first.UnixMilli(), v1.DeletedAt.UnixMilli())

	data, err := os.ReadFile(tools.FilePath(v1.ContentLocation()))
	require.NoError(t, err)
	assert.Equal(t, "v1", string(data))

	data, err = os.ReadFile(tools.FilePath(byDate[second.UnixMilli()].ContentLocation()))
	require.NoError(t, err)
	assert.Equal(t, "v2", string(data))
}

func TestDeletedAttachmentsOfUntouchedDocument(t *testing.T) {
	tools := newTools(t)
	doc, err := refs.NewDocumentRef("wiki", []string{"Empty"}, "Doc")
	require.NoError(t, err)

	versions, err := tools.DeletedAttachments(doc)
	require.NoError(t, err)
	assert.Empty(t, versions)
}

func TestStartupSweepRemovesEmptyDirectories(t *testing.T) {
	root := t.TempDir()

	empty := filepath.Join(root, "wiki", "Gone", "Page", "~this", "attachments")
	require.NoError(t, os.MkdirAll(empty, 0o755))

	kept := filepath.Join(root, "wiki", "Kept", "Page", "~this", "attachments", "a.png")
	require.NoError(t, os.MkdirAll(kept, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(kept, "a.png"), []byte("x"), 0o644))

	_, err := NewStoreTools(root, locks.NewRegistry(), nil)
	require.NoError(t, err)

	assert.NoDirExists(t, filepath.Join(root, "wiki", "Gone"))
	assert.FileExists(t, filepath.Join(kept, "a.png"))

	// The root itself survives even when completely empty.
	assert.DirExists(t, root)
}
