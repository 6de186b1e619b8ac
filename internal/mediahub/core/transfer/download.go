package transfer

import (
	"context"
	"errors"
	"fmt"
	"io"

	"mediahub/internal/mediahub/core/container"
	"mediahub/internal/mediahub/domain"
	mediaerrors "mediahub/pkg/errors"
	"mediahub/pkg/logger"
)

// DownloadSession streams one object in chunks of at most maxChunkSize
// bytes through a single reused buffer.
type DownloadSession struct {
	container    container.Container
	maxChunkSize int
	logger       *logger.Logger
}

func NewDownloadSession(c container.Container, maxChunkSize int) *DownloadSession {
	return &DownloadSession{
		container:    c,
		maxChunkSize: maxChunkSize,
		logger:       logger.WithField("component", "download-session"),
	}
}

// Run emits name's payload into sink. Every chunk carries the declared
// total length. Cancellation of ctx is checked before each read and
// reported as ErrCancelled.
func (d *DownloadSession) Run(ctx context.Context, name string, sink ChunkSink) error {
	log := d.logger.WithField("name", name)

	r, length, err := d.container.OpenForRead(ctx, name)
	if err != nil {
		return err
	}
	defer func() {
		if err := r.Close(); err != nil {
			log.Warn("failed to close read handle", "error", err)
		}
	}()

	if length == 0 {
		log.Debug("empty media, nothing to send")
		return nil
	}

	bufSize := uint64(d.maxChunkSize)
	if length < bufSize {
		bufSize = length
	}
	buf := make([]byte, bufSize)

	var emitted uint64
	for emitted < length {
		if ctx.Err() != nil {
			log.Debug("download was cancelled by the client", "emitted", emitted, "total", length)
			return fmt.Errorf("%w: after %d of %d bytes", mediaerrors.ErrCancelled, emitted, length)
		}

		want := length - emitted
		if want > bufSize {
			want = bufSize
		}

		n, err := io.ReadFull(r, buf[:want])
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return fmt.Errorf("%w: truncated object, got %d of %d bytes",
					mediaerrors.ErrStorageUnavailable, emitted+uint64(n), length)
			}
			if errors.Is(err, mediaerrors.ErrStorageUnavailable) {
				return err
			}
			return fmt.Errorf("%w: read: %v", mediaerrors.ErrStorageUnavailable, err)
		}

		if err := sink.Send(domain.Chunk{Payload: buf[:n], TotalSize: length}); err != nil {
			if ctx.Err() != nil {
				return fmt.Errorf("%w: %v", mediaerrors.ErrCancelled, err)
			}
			return fmt.Errorf("send chunk: %v", err)
		}
		emitted += uint64(n)
	}

	log.Debug("download complete", "bytes", emitted)
	return nil
}
