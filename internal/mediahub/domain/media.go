package domain

import (
	"fmt"
	"strings"

	mediaerrors "mediahub/pkg/errors"
)

// MaxNameLength is the longest accepted media name in bytes.
const MaxNameLength = 255

// MediaDescriptor is the catalog view of a stored object. Name is its identity.
type MediaDescriptor struct {
	Name        string
	ContentHash string
	SizeBytes   uint64
}

// Chunk is one unit of a streamed transfer. Only the first upload chunk's
// Name and ContentHash are meaningful; TotalSize is set on download chunks.
type Chunk struct {
	Name        string
	ContentHash string
	Payload     []byte
	TotalSize   uint64
}

// ValidateName rejects names that could escape a flat namespace.
func ValidateName(name string) error {
	switch {
	case name == "":
		return fmt.Errorf("%w: empty name", mediaerrors.ErrInvalidName)
	case name == "." || name == "..":
		return fmt.Errorf("%w: %q is reserved", mediaerrors.ErrInvalidName, name)
	case len(name) > MaxNameLength:
		return fmt.Errorf("%w: name is %d bytes, limit is %d", mediaerrors.ErrInvalidName, len(name), MaxNameLength)
	case strings.ContainsAny(name, `/\`):
		return fmt.Errorf("%w: %q contains a path separator", mediaerrors.ErrInvalidName, name)
	case strings.ContainsRune(name, 0):
		return fmt.Errorf("%w: name contains a NUL byte", mediaerrors.ErrInvalidName)
	}
	return nil
}
