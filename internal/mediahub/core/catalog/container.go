package catalog

import (
	"context"
	"errors"
	"fmt"

	"mediahub/internal/mediahub/core/container"
	"mediahub/internal/mediahub/domain"
	mediaerrors "mediahub/pkg/errors"
)

var _ Catalog = &ContainerCatalog{}

// ContainerCatalog derives everything from the blob container's own
// metadata, so there is nothing to record after an upload.
type ContainerCatalog struct {
	container container.Container
}

func NewContainerCatalog(c container.Container) *ContainerCatalog {
	return &ContainerCatalog{container: c}
}

func (cc *ContainerCatalog) List(ctx context.Context) ([]domain.MediaDescriptor, error) {
	descriptors, err := cc.container.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", mediaerrors.ErrCatalogUnavailable, err)
	}
	if descriptors == nil {
		descriptors = []domain.MediaDescriptor{}
	}
	return descriptors, nil
}

func (cc *ContainerCatalog) Find(ctx context.Context, name string) (domain.MediaDescriptor, error) {
	d, err := cc.container.Stat(ctx, name)
	if err != nil {
		if errors.Is(err, mediaerrors.ErrNotFound) {
			return domain.MediaDescriptor{}, err
		}
		return domain.MediaDescriptor{}, fmt.Errorf("%w: %v", mediaerrors.ErrCatalogUnavailable, err)
	}
	return d, nil
}

// Delete removes the object itself.
func (cc *ContainerCatalog) Delete(ctx context.Context, name string) error {
	return cc.container.Remove(ctx, name)
}
