package transfer

import (
	"context"
	"time"

	"mediahub/internal/mediahub/domain"
	"mediahub/pkg/logger"
)

var _ Service = &Instrumented{}

// Instrumented logs how long each transfer took.
type Instrumented struct {
	next   Service
	logger *logger.Logger
}

func NewInstrumented(next Service) *Instrumented {
	return &Instrumented{
		next:   next,
		logger: logger.WithField("component", "transfer-timing"),
	}
}

func (i *Instrumented) Upload(ctx context.Context, src ChunkSource) (domain.MediaDescriptor, error) {
	start := time.Now()
	d, err := i.next.Upload(ctx, src)
	i.logger.Debug("execution time", "operation", "Upload", "name", d.Name, "duration", time.Since(start), "error", err)
	return d, err
}

func (i *Instrumented) Download(ctx context.Context, name string, sink ChunkSink) error {
	start := time.Now()
	err := i.next.Download(ctx, name, sink)
	i.logger.Debug("execution time", "operation", "Download", "name", name, "duration", time.Since(start), "error", err)
	return err
}
