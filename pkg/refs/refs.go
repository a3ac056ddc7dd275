// Package refs defines the reference value types that identify documents and
// attachments in the content store, together with the serializer that turns a
// reference into logical path segments.
//
// References are plain values validated once at construction. The storage
// layer treats them as opaque and well-formed; it never re-validates them.
package refs

import (
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// DocumentRef identifies a document inside a wiki. Documents live in one or
// more nested spaces, e.g. wiki:Space.Nested.Page.
type DocumentRef struct {
	// Wiki is the wiki the document belongs to.
	Wiki string `validate:"required"`

	// Spaces is the space hierarchy from outermost to innermost.
	// At least one space is required.
	Spaces []string `validate:"required,min=1,dive,required"`

	// Name is the document name within its innermost space.
	Name string `validate:"required"`
}

// AttachmentRef identifies a named attachment on a document.
type AttachmentRef struct {
	Document DocumentRef `validate:"required"`

	// Name is the attachment filename as supplied by the user. It may
	// contain any character; the storage layer encodes it before use.
	Name string `validate:"required"`
}

// NewDocumentRef builds a validated document reference.
func NewDocumentRef(wiki string, spaces []string, name string) (DocumentRef, error) {
	ref := DocumentRef{Wiki: wiki, Spaces: spaces, Name: name}
	if err := validate.Struct(ref); err != nil {
		return DocumentRef{}, &InvalidReferenceError{Ref: ref.String(), Cause: err}
	}
	return ref, nil
}

// NewAttachmentRef builds a validated attachment reference.
func NewAttachmentRef(doc DocumentRef, name string) (AttachmentRef, error) {
	ref := AttachmentRef{Document: doc, Name: name}
	if err := validate.Struct(ref); err != nil {
		return AttachmentRef{}, &InvalidReferenceError{Ref: ref.String(), Cause: err}
	}
	return ref, nil
}

// String renders the reference in wiki:Space.Name notation for log lines and
// error messages. It is not reversible and never used for storage paths.
func (r DocumentRef) String() string {
	parts := append([]string{}, r.Spaces...)
	parts = append(parts, r.Name)
	return r.Wiki + ":" + strings.Join(parts, ".")
}

func (r AttachmentRef) String() string {
	return r.Document.String() + "@" + r.Name
}

// PathSegments serializes the reference into one logical segment per
// hierarchy level: wiki, each space, then the document name. Segments are
// raw logical names; the path resolver applies its own encoding on top.
func (r DocumentRef) PathSegments() []string {
	segments := make([]string, 0, len(r.Spaces)+2)
	segments = append(segments, r.Wiki)
	segments = append(segments, r.Spaces...)
	segments = append(segments, r.Name)
	return segments
}

// InvalidReferenceError reports a malformed reference. It is an input error
// in the storage taxonomy: signaled immediately, never retried.
type InvalidReferenceError struct {
	Ref   string
	Cause error
}

func (e *InvalidReferenceError) Error() string {
	return "invalid reference " + e.Ref + ": " + e.Cause.Error()
}

func (e *InvalidReferenceError) Unwrap() error { return e.Cause }
