package paths

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docfold/docstore/pkg/refs"
)

func mustDocRef(t *testing.T, wiki string, spaces []string, name string) refs.DocumentRef {
	t.Helper()
	ref, err := refs.NewDocumentRef(wiki, spaces, name)
	require.NoError(t, err)
	return ref
}

func mustAttachRef(t *testing.T, doc refs.DocumentRef, name string) refs.AttachmentRef {
	t.Helper()
	ref, err := refs.NewAttachmentRef(doc, name)
	require.NoError(t, err)
	return ref
}

func TestEncodeSegmentRoundTrip(t *testing.T) {
	names := []string{
		"simple.png",
		"with space.txt",
		"dash-in-name.pdf",
		"tilde~name",
		"percent%name",
		"unicode-é-日本語.doc",
		"slash/in/name",
		"..",
		"photo.png-1700000000000", // looks like a composite segment
		"~this",                   // looks like the reserved segment
	}
	for _, name := range names {
		encoded := EncodeSegment(name)
		decoded, err := DecodeSegment(encoded)
		require.NoError(t, err, "decoding %q", encoded)
		assert.Equal(t, name, decoded, "round trip of %q", name)
	}
}

func TestEncodeSegmentEscapesStructuralCharacters(t *testing.T) {
	// '-' separates filename from deletion date and '~' marks reserved
	// segments and operation suffixes; neither may survive encoding.
	assert.NotContains(t, EncodeSegment("a-b"), "-")
	assert.NotContains(t, EncodeSegment("a~b"), "~")
	assert.NotContains(t, EncodeSegment("a/b"), "/")
	assert.NotEqual(t, "~this", EncodeSegment("~this"))
}

func TestDecodeSegmentRejectsMalformedEscapes(t *testing.T) {
	for _, segment := range []string{"%", "%2", "%zz", "abc%"} {
		_, err := DecodeSegment(segment)
		assert.ErrorIs(t, err, ErrMalformedSegment, "segment %q", segment)
	}
}

func TestDocumentLocation(t *testing.T) {
	doc := mustDocRef(t, "xwiki", []string{"Main"}, "WebHome")
	assert.Equal(t,
		[]string{"xwiki", "Main", "WebHome", "~this"},
		DocumentLocation(doc).Segments())
}

func TestDocumentLocationNestedSpaces(t *testing.T) {
	doc := mustDocRef(t, "wiki", []string{"Outer", "Inner"}, "Page")
	assert.Equal(t,
		[]string{"wiki", "Outer", "Inner", "Page", "~this"},
		DocumentLocation(doc).Segments())
}

func TestAttachmentLocation(t *testing.T) {
	doc := mustDocRef(t, "wiki", []string{"Space"}, "Page")
	att := mustAttachRef(t, doc, "photo.png")
	assert.Equal(t,
		[]string{"wiki", "Space", "Page", "~this", "attachments", "photo.png"},
		AttachmentLocation(att).Segments())
}

func TestDeletedAttachmentScenario(t *testing.T) {
	// Attachment "photo.png" on wiki:Space.Page deleted at epoch millis
	// 1700000000000.
	doc := mustDocRef(t, "wiki", []string{"Space"}, "Page")
	att := mustAttachRef(t, doc, "photo.png")
	deletedAt := time.UnixMilli(1700000000000)

	loc := DeletedAttachmentLocation(att, deletedAt)
	assert.Equal(t,
		[]string{"wiki", "Space", "Page", "~this", "deleted-attachments",
			"photo.png-1700000000000"},
		loc.Segments())

	segments := loc.Segments()
	dirName := segments[len(segments)-1]

	filename, err := FilenameFromDeletedDir(dirName)
	require.NoError(t, err)
	assert.Equal(t, "photo.png", filename)

	recovered, err := DeleteDateFromDeletedDir(dirName)
	require.NoError(t, err)
	assert.Equal(t, int64(1700000000000), recovered.UnixMilli())
}

func TestDeletedAttachmentLocationsAreDistinct(t *testing.T) {
	doc := mustDocRef(t, "wiki", []string{"Space"}, "Page")
	att := mustAttachRef(t, doc, "file.txt")
	other := mustAttachRef(t, doc, "file2.txt")

	t1 := time.UnixMilli(1000)
	t2 := time.UnixMilli(2000)

	a := DeletedAttachmentLocation(att, t1).String()
	b := DeletedAttachmentLocation(att, t2).String()
	c := DeletedAttachmentLocation(other, t1).String()

	assert.NotEqual(t, a, b, "same filename, different dates")
	assert.NotEqual(t, a, c, "different filenames, same date")
}

func TestDeletedDirRoundTripWithSeparatorInFilename(t *testing.T) {
	// A raw '-' in the filename is escaped by the encoding, so the
	// last-separator split still recovers the name exactly.
	doc := mustDocRef(t, "wiki", []string{"Space"}, "Page")
	att := mustAttachRef(t, doc, "report-2023-final.pdf")
	deletedAt := time.UnixMilli(1700000000000)

	segments := DeletedAttachmentLocation(att, deletedAt).Segments()
	dirName := segments[len(segments)-1]

	filename, err := FilenameFromDeletedDir(dirName)
	require.NoError(t, err)
	assert.Equal(t, "report-2023-final.pdf", filename)

	recovered, err := DeleteDateFromDeletedDir(dirName)
	require.NoError(t, err)
	assert.Equal(t, int64(1700000000000), recovered.UnixMilli())
}

func TestLocationAppendDoesNotMutate(t *testing.T) {
	base := NewLocation("a", "b")
	_ = base.Append("c")
	assert.Equal(t, []string{"a", "b"}, base.Segments())
}

func TestLocationFilePath(t *testing.T) {
	loc := NewLocation("wiki", "Space", "Page")
	assert.Equal(t, "/root/wiki/Space/Page", loc.FilePath("/root"))
}
