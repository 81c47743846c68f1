package media

import "errors"

var (
	// ErrTitleRequired signals a missing or blank media title.
	ErrTitleRequired = errors.New("media title is required")
	// ErrNotFound signals that no live record matches the identifier.
	ErrNotFound = errors.New("media not found")
	// ErrNotOwner signals the caller does not own the record.
	ErrNotOwner = errors.New("not the media owner")
	// ErrBlobWrite indicates the byte stream could not be committed to the
	// blob store; nothing was persisted.
	ErrBlobWrite = errors.New("blob write failure")
	// ErrBlobDelete indicates a blob could not be removed; the metadata
	// record is left untouched.
	ErrBlobDelete = errors.New("blob delete failure")
	// ErrMetadataWrite indicates the metadata store rejected a write.
	ErrMetadataWrite = errors.New("metadata write failure")
	// ErrPartialDelete indicates some blob deletions failed during a bulk
	// delete; no records were tombstoned.
	ErrPartialDelete = errors.New("partial delete failure")
)
