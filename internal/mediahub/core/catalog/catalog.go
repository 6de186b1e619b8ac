// Package catalog answers "does a media with this name exist" for the
// transfer core, and lists and deletes media for the service.
package catalog

import (
	"context"

	"mediahub/internal/mediahub/domain"
)

//go:generate go run github.com/maxbrunsfeld/counterfeiter/v6 -generate

// Catalog is the lookup side of the media store. A successful Find is
// authoritative "already exists".
//
//counterfeiter:generate . Catalog
type Catalog interface {
	// List returns every known media, an empty slice when there are none.
	// ErrCatalogUnavailable means the backend could not answer.
	List(ctx context.Context) ([]domain.MediaDescriptor, error)
	// Find returns ErrNotFound when name is unknown.
	Find(ctx context.Context, name string) (domain.MediaDescriptor, error)
	// Delete returns ErrNotFound when name is unknown.
	Delete(ctx context.Context, name string) error
}

// Recorder is implemented by catalogs that keep their own index and need to
// be told about finished uploads. Record fails with ErrAlreadyExists when
// the name is already indexed.
//
//counterfeiter:generate . Recorder
type Recorder interface {
	Record(ctx context.Context, descriptor domain.MediaDescriptor) error
}
