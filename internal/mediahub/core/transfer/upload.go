package transfer

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"mediahub/internal/mediahub/core/catalog"
	"mediahub/internal/mediahub/core/container"
	"mediahub/internal/mediahub/core/reservation"
	"mediahub/internal/mediahub/domain"
	mediaerrors "mediahub/pkg/errors"
	"mediahub/pkg/logger"
)

// UploadSession is one client-streamed upload. It is driven by a single
// goroutine and is not safe for concurrent use.
type UploadSession struct {
	id        string
	catalog   catalog.Catalog
	container container.Container
	reserver  reservation.Reserver

	state   domain.UploadState
	name    string
	hash    string
	handle  container.WriteHandle
	release func()

	logger *logger.Logger
}

// NewUploadSession starts in UploadIdle. reserver may be nil.
func NewUploadSession(cat catalog.Catalog, c container.Container, reserver reservation.Reserver) *UploadSession {
	id := uuid.NewString()
	return &UploadSession{
		id:        id,
		catalog:   cat,
		container: c,
		reserver:  reserver,
		state:     domain.UploadIdle,
		logger:    logger.WithFields("component", "upload-session", "sessionId", id),
	}
}

func (s *UploadSession) State() domain.UploadState {
	return s.state
}

// Write handles one chunk. The first chunk names the media and opens the
// write handle; later chunks only append.
func (s *UploadSession) Write(ctx context.Context, chunk domain.Chunk) error {
	switch s.state {
	case domain.UploadIdle:
		return s.begin(ctx, chunk)
	case domain.UploadWriting:
		return s.append(chunk.Payload)
	default:
		return fmt.Errorf("%w: chunk received in state %s", mediaerrors.ErrSessionClosed, s.state)
	}
}

func (s *UploadSession) begin(ctx context.Context, chunk domain.Chunk) error {
	log := s.logger.WithFields("name", chunk.Name, "hash", chunk.ContentHash)

	if err := domain.ValidateName(chunk.Name); err != nil {
		s.state = domain.UploadAborted
		return err
	}

	existing, err := s.catalog.Find(ctx, chunk.Name)
	if err == nil {
		s.state = domain.UploadAborted
		log.Info("media already exists", "existingHash", existing.ContentHash)
		return &mediaerrors.AlreadyExistsError{Name: existing.Name, Hash: existing.ContentHash}
	}
	if !errors.Is(err, mediaerrors.ErrNotFound) {
		s.state = domain.UploadAborted
		return fmt.Errorf("existence check failed: %w", err)
	}

	if s.reserver != nil {
		release, granted, err := s.reserver.Reserve(ctx, chunk.Name)
		if err != nil {
			s.state = domain.UploadAborted
			return fmt.Errorf("reservation failed: %w", err)
		}
		if !granted {
			s.state = domain.UploadAborted
			log.Info("another upload holds the name")
			return &mediaerrors.AlreadyExistsError{
				Name:   chunk.Name,
				Hash:   chunk.ContentHash,
				Reason: fmt.Sprintf("upload in progress: fileName: [%s]", chunk.Name),
			}
		}
		s.release = release
	}

	handle, err := s.container.OpenForWrite(ctx, chunk.Name, chunk.ContentHash)
	if err != nil {
		s.abort()
		return err
	}

	s.name = chunk.Name
	s.hash = chunk.ContentHash
	s.handle = handle
	s.state = domain.UploadWriting
	log.Debug("upload started")

	return s.append(chunk.Payload)
}

func (s *UploadSession) append(payload []byte) error {
	if _, err := s.handle.Write(payload); err != nil {
		s.abort()
		return err
	}
	return nil
}

// Fail records a transport failure and discards everything written.
func (s *UploadSession) Fail(cause error) error {
	if s.state.IsTerminal() {
		return fmt.Errorf("%w: transport failed after state %s", mediaerrors.ErrSessionClosed, s.state)
	}
	s.logger.Warn("upload stream failed", "name", s.name, "error", cause)
	s.abort()
	return transportError(cause)
}

// Finish handles the end of input. A media recorded by a concurrent upload
// while this one was writing wins and this upload is discarded.
func (s *UploadSession) Finish(ctx context.Context) (domain.MediaDescriptor, error) {
	switch s.state {
	case domain.UploadIdle:
		s.state = domain.UploadAborted
		return domain.MediaDescriptor{}, mediaerrors.ErrEmptyUpload
	case domain.UploadWriting:
	default:
		return domain.MediaDescriptor{}, fmt.Errorf("%w: finish in state %s", mediaerrors.ErrSessionClosed, s.state)
	}

	s.state = domain.UploadFinalizing
	log := s.logger.WithFields("name", s.name, "hash", s.hash)
	log.Info("file received", "bytes", s.handle.BytesWritten())

	existing, err := s.catalog.Find(ctx, s.name)
	if err == nil {
		s.abort()
		log.Info("media saved by another upload while writing, discarding", "existingHash", existing.ContentHash)
		return domain.MediaDescriptor{}, &mediaerrors.AlreadyExistsError{
			Name: s.name,
			Hash: existing.ContentHash,
			Reason: fmt.Sprintf("a media with same name was saved in the middle of upload process: hash [%s]",
				existing.ContentHash),
		}
	}
	if !errors.Is(err, mediaerrors.ErrNotFound) {
		s.abort()
		return domain.MediaDescriptor{}, fmt.Errorf("existence check failed: %w", err)
	}

	descriptor := domain.MediaDescriptor{
		Name:        s.name,
		ContentHash: s.hash,
		SizeBytes:   s.handle.BytesWritten(),
	}

	if err := s.handle.Close(); err != nil {
		s.abort()
		return domain.MediaDescriptor{}, err
	}

	if recorder, ok := s.catalog.(catalog.Recorder); ok {
		if err := recorder.Record(ctx, descriptor); err != nil {
			// Without create-if-absent the blob under this name may already
			// be another upload's, so it is only removed when Close proved
			// it is ours.
			if container.PublishesExclusively(s.container) {
				if rmErr := s.container.Remove(ctx, s.name); rmErr != nil {
					log.Warn("failed to remove blob of unrecorded upload", "error", rmErr)
				}
			} else {
				log.Warn("upload not recorded, blob left in place", "error", err)
			}
			s.abort()
			return domain.MediaDescriptor{}, err
		}
	}

	s.state = domain.UploadFinalized
	s.releaseReservation()
	log.Debug("upload finalized", "size", descriptor.SizeBytes)
	return descriptor, nil
}

// abort moves to UploadAborted, discarding the write handle if one is
// open. Abort failures are logged, the caller's error wins.
func (s *UploadSession) abort() {
	s.state = domain.UploadAborted
	if s.handle != nil {
		if err := s.handle.Abort(); err != nil {
			s.logger.Warn("failed to discard upload", "name", s.name, "error", err)
		}
	}
	s.releaseReservation()
}

func (s *UploadSession) releaseReservation() {
	if s.release != nil {
		s.release()
		s.release = nil
	}
}
