package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
	"github.com/uptrace/bun/extra/bundebug"

	"mediahub/internal/mediahub/core/container"
	"mediahub/internal/mediahub/domain"
	mediaerrors "mediahub/pkg/errors"
	"mediahub/pkg/logger"
)

var (
	_ Catalog  = &DatabaseCatalog{}
	_ Recorder = &DatabaseCatalog{}
)

// DatabaseCatalog keeps its own index of finished uploads in sqlite. The
// primary key on name turns Record into a conditional insert.
type DatabaseCatalog struct {
	db        *bun.DB
	container container.Container
	logger    *logger.Logger
}

type DatabaseCatalogMedia struct {
	bun.BaseModel `bun:"table:media,alias:m"`

	Name        string    `bun:"name,pk"`
	ContentHash string    `bun:"content_hash,notnull"`
	SizeBytes   uint64    `bun:"size_bytes,notnull"`
	CreatedAt   time.Time `bun:"created_at,notnull"`
}

func (m *DatabaseCatalogMedia) descriptor() domain.MediaDescriptor {
	return domain.MediaDescriptor{
		Name:        m.Name,
		ContentHash: m.ContentHash,
		SizeBytes:   m.SizeBytes,
	}
}

// NewDatabaseCatalog opens dsn with the sqlite shim and creates the media
// table if needed. When c is non-nil, Delete also removes the blob.
func NewDatabaseCatalog(ctx context.Context, dsn string, c container.Container) (*DatabaseCatalog, error) {
	sqldb, err := sql.Open(sqliteshim.ShimName, dsn)
	if err != nil {
		return nil, fmt.Errorf("unable to use data source name: %v", err)
	}

	sqldb.SetConnMaxLifetime(0)
	sqldb.SetMaxIdleConns(3)
	sqldb.SetMaxOpenConns(3)

	db := bun.NewDB(sqldb, sqlitedialect.New())

	db.AddQueryHook(bundebug.NewQueryHook(
		bundebug.WithVerbose(true),
		bundebug.FromEnv("BUNDEBUG"),
	))

	_, err = db.NewCreateTable().
		Model((*DatabaseCatalogMedia)(nil)).
		IfNotExists().
		Exec(ctx)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("unable to create media table: %w", err)
	}

	return &DatabaseCatalog{
		db:        db,
		container: c,
		logger:    logger.WithField("component", "database-catalog"),
	}, nil
}

func (dc *DatabaseCatalog) List(ctx context.Context) ([]domain.MediaDescriptor, error) {
	var rows []DatabaseCatalogMedia

	err := dc.db.NewSelect().
		Model(&rows).
		Order("name ASC").
		Scan(ctx)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: unable to list media: %v", mediaerrors.ErrCatalogUnavailable, err)
	}

	descriptors := make([]domain.MediaDescriptor, 0, len(rows))
	for i := range rows {
		descriptors = append(descriptors, rows[i].descriptor())
	}
	return descriptors, nil
}

func (dc *DatabaseCatalog) Find(ctx context.Context, name string) (domain.MediaDescriptor, error) {
	row := new(DatabaseCatalogMedia)

	err := dc.db.NewSelect().
		Model(row).
		Where("name = ?", name).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.MediaDescriptor{}, fmt.Errorf("%w: %s", mediaerrors.ErrNotFound, name)
		}
		return domain.MediaDescriptor{}, fmt.Errorf("%w: unable to get media: %v", mediaerrors.ErrCatalogUnavailable, err)
	}
	return row.descriptor(), nil
}

func (dc *DatabaseCatalog) Record(ctx context.Context, descriptor domain.MediaDescriptor) error {
	row := &DatabaseCatalogMedia{
		Name:        descriptor.Name,
		ContentHash: descriptor.ContentHash,
		SizeBytes:   descriptor.SizeBytes,
		CreatedAt:   time.Now().UTC(),
	}

	_, err := dc.db.NewInsert().
		Model(row).
		Exec(ctx)
	if err != nil {
		if isUniqueViolation(err) {
			hash := descriptor.ContentHash
			if existing, findErr := dc.Find(ctx, descriptor.Name); findErr == nil {
				hash = existing.ContentHash
			}
			return &mediaerrors.AlreadyExistsError{
				Name:   descriptor.Name,
				Hash:   hash,
				Reason: fmt.Sprintf("media %s was recorded by another upload", descriptor.Name),
			}
		}
		return fmt.Errorf("%w: unable to record media: %v", mediaerrors.ErrCatalogUnavailable, err)
	}
	return nil
}

func (dc *DatabaseCatalog) Delete(ctx context.Context, name string) error {
	res, err := dc.db.NewDelete().
		Model((*DatabaseCatalogMedia)(nil)).
		Where("name = ?", name).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("%w: unable to delete media: %v", mediaerrors.ErrCatalogUnavailable, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", mediaerrors.ErrNotFound, name)
	}

	if dc.container != nil {
		if err := dc.container.Remove(ctx, name); err != nil && !errors.Is(err, mediaerrors.ErrNotFound) {
			dc.logger.Warn("catalog entry deleted but blob cleanup failed", "name", name, "error", err)
		}
	}
	return nil
}

func (dc *DatabaseCatalog) Close() error {
	return dc.db.Close()
}

// isUniqueViolation matches the primary key error text shared by the cgo and
// pure-Go sqlite drivers the shim may pick.
func isUniqueViolation(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "PRIMARY KEY must be unique")
}
