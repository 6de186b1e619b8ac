package errors

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound           = errors.New("media not found")
	ErrAlreadyExists      = errors.New("media already exists")
	ErrCancelled          = errors.New("transfer cancelled by client")
	ErrStorageUnavailable = errors.New("storage unavailable")
	ErrCatalogUnavailable = errors.New("catalog unavailable")
	ErrInvalidName        = errors.New("invalid media name")
	ErrEmptyUpload        = errors.New("empty upload")
	ErrSessionClosed      = errors.New("upload session already closed")
)

// AlreadyExistsError reports a duplicate name. Hash is the content hash of
// the object already stored under Name. When no stored object can be read
// back, as when another upload still holds the name, Hash is the hash the
// caller tried to store.
type AlreadyExistsError struct {
	Name   string
	Hash   string
	Reason string
}

func (e *AlreadyExistsError) Error() string {
	if e.Reason != "" {
		return e.Reason
	}
	return fmt.Sprintf("Media already exists: fileName: [%s], hash: [%s]", e.Name, e.Hash)
}

func (e *AlreadyExistsError) Is(target error) bool {
	return target == ErrAlreadyExists
}
