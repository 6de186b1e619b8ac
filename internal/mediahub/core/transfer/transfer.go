// Package transfer moves media between a chunked transport and a blob
// container: uploads run through an UploadSession state machine, downloads
// through a bounded-chunk DownloadSession.
package transfer

import (
	"context"
	"errors"
	"fmt"
	"io"

	"mediahub/internal/mediahub/core/catalog"
	"mediahub/internal/mediahub/core/container"
	"mediahub/internal/mediahub/core/reservation"
	"mediahub/internal/mediahub/domain"
	"mediahub/pkg/logger"
)

// ChunkSource yields upload chunks in order and io.EOF once the client
// has sent everything.
type ChunkSource interface {
	Recv() (domain.Chunk, error)
}

// ChunkSink receives download chunks. The payload buffer is reused after
// Send returns.
type ChunkSink interface {
	Send(chunk domain.Chunk) error
}

// Service is what the transports call into.
type Service interface {
	Upload(ctx context.Context, src ChunkSource) (domain.MediaDescriptor, error)
	Download(ctx context.Context, name string, sink ChunkSink) error
}

var _ Service = &Transfers{}

// Transfers creates one session per request. Sessions share nothing but
// the catalog, the container and the optional reserver.
type Transfers struct {
	catalog      catalog.Catalog
	container    container.Container
	reserver     reservation.Reserver
	maxChunkSize int
	logger       *logger.Logger
}

// NewTransfers wires the sessions' dependencies. reserver may be nil.
func NewTransfers(cat catalog.Catalog, c container.Container, reserver reservation.Reserver, maxChunkSize int) *Transfers {
	return &Transfers{
		catalog:      cat,
		container:    c,
		reserver:     reserver,
		maxChunkSize: maxChunkSize,
		logger:       logger.WithField("component", "transfer"),
	}
}

// Upload drains src into a new UploadSession.
func (t *Transfers) Upload(ctx context.Context, src ChunkSource) (domain.MediaDescriptor, error) {
	session := NewUploadSession(t.catalog, t.container, t.reserver)

	for {
		chunk, err := src.Recv()
		if errors.Is(err, io.EOF) {
			return session.Finish(ctx)
		}
		if err != nil {
			return domain.MediaDescriptor{}, session.Fail(err)
		}
		if err := session.Write(ctx, chunk); err != nil {
			return domain.MediaDescriptor{}, err
		}
	}
}

// Download streams name into sink.
func (t *Transfers) Download(ctx context.Context, name string, sink ChunkSink) error {
	if err := domain.ValidateName(name); err != nil {
		return err
	}
	return NewDownloadSession(t.container, t.maxChunkSize).Run(ctx, name, sink)
}

// transportError marks failures of the transport itself. They carry no
// sentinel and end up as Unknown at the service boundary.
func transportError(err error) error {
	return fmt.Errorf("transport error: %v", err)
}
