package catalog

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mediahub/internal/mediahub/core/container"
	"mediahub/internal/mediahub/domain"
	mediaerrors "mediahub/pkg/errors"
)

var (
	mediaA = domain.MediaDescriptor{Name: "a.txt", ContentHash: "h1", SizeBytes: 5}
	mediaB = domain.MediaDescriptor{Name: "b.txt", ContentHash: "h2", SizeBytes: 0}
)

func putBlob(t *testing.T, c container.Container, d domain.MediaDescriptor) {
	t.Helper()
	w, err := c.OpenForWrite(context.Background(), d.Name, d.ContentHash)
	require.NoError(t, err)
	_, err = w.Write(make([]byte, d.SizeBytes))
	require.NoError(t, err)
	require.NoError(t, w.Close())
}

func TestContainerCatalog(t *testing.T) {
	c := container.NewMemoryContainer()
	t.Cleanup(func() { c.Close() })

	testCatalog(t, NewContainerCatalog(c), func(d domain.MediaDescriptor) {
		putBlob(t, c, d)
	})
}

func TestDatabaseCatalog(t *testing.T) {
	ctx := context.Background()
	dsn := "file:" + filepath.Join(t.TempDir(), "catalog.db")

	dc, err := NewDatabaseCatalog(ctx, dsn, nil)
	require.NoError(t, err)
	t.Cleanup(func() { dc.Close() })

	testCatalog(t, dc, func(d domain.MediaDescriptor) {
		require.NoError(t, dc.Record(ctx, d))
	})
}

// testCatalog runs the shared catalog checks. add makes d known to cat.
func testCatalog(t *testing.T, cat Catalog, add func(d domain.MediaDescriptor)) {
	ctx := context.Background()

	t.Run("ListEmpty", func(t *testing.T) {
		list, err := cat.List(ctx)
		require.NoError(t, err)
		assert.NotNil(t, list)
		assert.Empty(t, list)
	})

	t.Run("FindNotFound", func(t *testing.T) {
		_, err := cat.Find(ctx, "a.txt")
		assert.ErrorIs(t, err, mediaerrors.ErrNotFound)
	})

	t.Run("DeleteNotFound", func(t *testing.T) {
		err := cat.Delete(ctx, "a.txt")
		assert.ErrorIs(t, err, mediaerrors.ErrNotFound)
	})

	t.Run("FindAndList", func(t *testing.T) {
		add(mediaB)
		add(mediaA)

		d, err := cat.Find(ctx, "a.txt")
		require.NoError(t, err)
		assert.Equal(t, mediaA, d)

		list, err := cat.List(ctx)
		require.NoError(t, err)
		assert.Equal(t, []domain.MediaDescriptor{mediaA, mediaB}, list)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, cat.Delete(ctx, "a.txt"))

		_, err := cat.Find(ctx, "a.txt")
		assert.ErrorIs(t, err, mediaerrors.ErrNotFound)

		list, err := cat.List(ctx)
		require.NoError(t, err)
		assert.Equal(t, []domain.MediaDescriptor{mediaB}, list)
	})
}

func TestDatabaseCatalog_RecordDuplicate(t *testing.T) {
	ctx := context.Background()
	dc, err := NewDatabaseCatalog(ctx, "file:"+filepath.Join(t.TempDir(), "catalog.db"), nil)
	require.NoError(t, err)
	defer dc.Close()

	require.NoError(t, dc.Record(ctx, mediaA))

	err = dc.Record(ctx, domain.MediaDescriptor{Name: "a.txt", ContentHash: "other", SizeBytes: 1})
	assert.ErrorIs(t, err, mediaerrors.ErrAlreadyExists)

	var existsErr *mediaerrors.AlreadyExistsError
	require.True(t, errors.As(err, &existsErr))
	assert.Equal(t, "a.txt", existsErr.Name)
	assert.Equal(t, mediaA.ContentHash, existsErr.Hash, "the error carries the recorded hash")

	// the first record wins
	d, err := dc.Find(ctx, "a.txt")
	require.NoError(t, err)
	assert.Equal(t, mediaA, d)
}

func TestDatabaseCatalog_DeleteRemovesBlob(t *testing.T) {
	ctx := context.Background()
	c := container.NewMemoryContainer()
	defer c.Close()

	dc, err := NewDatabaseCatalog(ctx, "file:"+filepath.Join(t.TempDir(), "catalog.db"), c)
	require.NoError(t, err)
	defer dc.Close()

	putBlob(t, c, mediaA)
	require.NoError(t, dc.Record(ctx, mediaA))

	require.NoError(t, dc.Delete(ctx, "a.txt"))

	_, err = c.Stat(ctx, "a.txt")
	assert.ErrorIs(t, err, mediaerrors.ErrNotFound)
}

func TestDatabaseCatalog_DeleteWithoutBlob(t *testing.T) {
	ctx := context.Background()
	c := container.NewMemoryContainer()
	defer c.Close()

	dc, err := NewDatabaseCatalog(ctx, "file:"+filepath.Join(t.TempDir(), "catalog.db"), c)
	require.NoError(t, err)
	defer dc.Close()

	require.NoError(t, dc.Record(ctx, mediaA))
	assert.NoError(t, dc.Delete(ctx, "a.txt"), "a missing blob does not fail the delete")
}

func TestDatabaseCatalog_Unavailable(t *testing.T) {
	ctx := context.Background()
	dc, err := NewDatabaseCatalog(ctx, "file:"+filepath.Join(t.TempDir(), "catalog.db"), nil)
	require.NoError(t, err)
	require.NoError(t, dc.Close())

	_, err = dc.List(ctx)
	assert.ErrorIs(t, err, mediaerrors.ErrCatalogUnavailable)

	_, err = dc.Find(ctx, "a.txt")
	assert.ErrorIs(t, err, mediaerrors.ErrCatalogUnavailable)

	err = dc.Record(ctx, mediaA)
	assert.ErrorIs(t, err, mediaerrors.ErrCatalogUnavailable)
}

type failingContainer struct {
	container.Container
}

func (failingContainer) List(context.Context) ([]domain.MediaDescriptor, error) {
	return nil, mediaerrors.ErrStorageUnavailable
}

func (failingContainer) Stat(context.Context, string) (domain.MediaDescriptor, error) {
	return domain.MediaDescriptor{}, mediaerrors.ErrStorageUnavailable
}

func TestContainerCatalog_Unavailable(t *testing.T) {
	cat := NewContainerCatalog(failingContainer{})

	list, err := cat.List(context.Background())
	assert.ErrorIs(t, err, mediaerrors.ErrCatalogUnavailable)
	assert.Nil(t, list)

	_, err = cat.Find(context.Background(), "a.txt")
	assert.ErrorIs(t, err, mediaerrors.ErrCatalogUnavailable)
	assert.False(t, errors.Is(err, mediaerrors.ErrNotFound))
}
