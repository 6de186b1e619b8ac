// Package container implements blob containers: named byte objects tagged
// with a content hash. Objects become visible only once their write handle
// is closed.
package container

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"sync"

	"mediahub/internal/mediahub/domain"
	mediaerrors "mediahub/pkg/errors"
)

// Container stores media payloads.
type Container interface {
	// OpenForWrite starts a new object. It does not check for name
	// collisions; backends that publish atomically report them from Close.
	OpenForWrite(ctx context.Context, name, contentHash string) (WriteHandle, error)
	// OpenForRead returns the object's payload and its total length.
	OpenForRead(ctx context.Context, name string) (ReadHandle, uint64, error)
	Stat(ctx context.Context, name string) (domain.MediaDescriptor, error)
	List(ctx context.Context) ([]domain.MediaDescriptor, error)
	Remove(ctx context.Context, name string) error
	io.Closer
}

// WriteHandle receives an object's payload. Close publishes it, Abort
// discards it. Whichever runs first wins; later calls are no-ops.
type WriteHandle interface {
	io.Writer
	io.Closer
	Abort() error
	BytesWritten() uint64
}

// ExclusivePublisher is implemented by containers whose Close fails with
// ErrAlreadyExists instead of replacing an object of the same name.
type ExclusivePublisher interface {
	PublishesExclusively() bool
}

// PublishesExclusively reports whether objects closed into c are
// create-if-absent. Only then does a successful Close prove that the object
// under that name holds the caller's payload.
func PublishesExclusively(c Container) bool {
	ep, ok := c.(ExclusivePublisher)
	return ok && ep.PublishesExclusively()
}

// ReadHandle streams an object's payload. Close is idempotent.
type ReadHandle interface {
	io.Reader
	io.Closer
}

// objectKey maps a media name to a file system and key safe token.
func objectKey(name string) string {
	return hex.EncodeToString([]byte(name))
}

func notFound(name string) error {
	return fmt.Errorf("%w: %s", mediaerrors.ErrNotFound, name)
}

// alreadyExists reports a lost publish race; hash is the winner's.
func alreadyExists(name, hash string) error {
	return &mediaerrors.AlreadyExistsError{
		Name:   name,
		Hash:   hash,
		Reason: fmt.Sprintf("media %s was published by another upload", name),
	}
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", mediaerrors.ErrStorageUnavailable, op, err)
}

// handleState guards the Close/Abort "first one wins" rule shared by all
// write handles.
type handleState struct {
	mu   sync.Mutex
	done bool
}

// finish returns true exactly once.
func (h *handleState) finish() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.done {
		return false
	}
	h.done = true
	return true
}

// onceCloser makes a ReadHandle's Close idempotent.
type onceCloser struct {
	io.Reader
	once  sync.Once
	close func() error
	err   error
}

func newOnceCloser(r io.Reader, close func() error) *onceCloser {
	return &onceCloser{Reader: r, close: close}
}

func (o *onceCloser) Close() error {
	o.once.Do(func() {
		if o.close != nil {
			o.err = o.close()
		}
	})
	return o.err
}
