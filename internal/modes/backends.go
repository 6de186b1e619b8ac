package modes

import (
	"context"
	"fmt"

	"mediahub/internal/mediahub/core/catalog"
	"mediahub/internal/mediahub/core/container"
	"mediahub/internal/mediahub/core/reservation"
	"mediahub/internal/modes/validation"
	"mediahub/pkg/config"
	"mediahub/pkg/platform"
)

// newContainer builds the blob container selected by cfg.Backend.
func newContainer(ctx context.Context, cfg config.StorageConfig, p platform.Platform) (container.Container, error) {
	switch cfg.Backend {
	case config.StorageMemory:
		return container.NewMemoryContainer(), nil

	case config.StorageFilesystem:
		if err := validation.NewStorageValidator(p).ValidateRoot(cfg.Root); err != nil {
			return nil, err
		}
		return container.NewFilesystemContainer(cfg.Root, p)

	case config.StorageCasync:
		if err := validation.NewStorageValidator(p).ValidateRoot(cfg.Root); err != nil {
			return nil, err
		}
		return container.NewCasyncContainer(cfg.Root, p)

	case config.StorageS3:
		return container.NewS3Container(ctx, container.S3Config{
			Endpoint:  cfg.S3.Endpoint,
			Region:    cfg.S3.Region,
			Bucket:    cfg.S3.Bucket,
			AccessKey: cfg.S3.AccessKey,
			SecretKey: cfg.S3.SecretKey,
			UseSSL:    cfg.S3.UseSSL,
			Prefix:    cfg.S3.Prefix,
		})

	default:
		return nil, fmt.Errorf("unknown storage backend: %s", cfg.Backend)
	}
}

// newCatalog returns the catalog unwrapped so optional interfaces such as
// catalog.Recorder stay visible to the upload path.
func newCatalog(ctx context.Context, cfg config.CatalogConfig, c container.Container) (catalog.Catalog, func() error, error) {
	noop := func() error { return nil }

	switch cfg.Backend {
	case config.CatalogContainer:
		return catalog.NewContainerCatalog(c), noop, nil

	case config.CatalogDatabase:
		dc, err := catalog.NewDatabaseCatalog(ctx, cfg.DSN, c)
		if err != nil {
			return nil, noop, err
		}
		return dc, dc.Close, nil

	default:
		return nil, noop, fmt.Errorf("unknown catalog backend: %s", cfg.Backend)
	}
}

// newReserver returns a nil Reserver and a no-op close when reservations
// are disabled.
func newReserver(ctx context.Context, cfg config.ReservationConfig) (reservation.Reserver, func() error, error) {
	noop := func() error { return nil }

	switch cfg.Backend {
	case config.ReservationNone, "":
		return nil, noop, nil

	case config.ReservationMemory:
		return reservation.NewMemory(), noop, nil

	case config.ReservationRedis:
		r := reservation.NewRedis(reservation.RedisConfig{
			Addr:     cfg.Redis.Addr,
			DB:       cfg.Redis.DB,
			Password: cfg.Redis.Password,
			TTL:      cfg.Redis.TTL,
		})
		if err := r.Ping(ctx); err != nil {
			_ = r.Close()
			return nil, noop, fmt.Errorf("redis %s unreachable: %w", cfg.Redis.Addr, err)
		}
		return r, r.Close, nil

	default:
		return nil, noop, fmt.Errorf("unknown reservation backend: %s", cfg.Backend)
	}
}
