package container

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mediahub/internal/mediahub/domain"
	mediaerrors "mediahub/pkg/errors"
	"mediahub/pkg/platform"
)

func TestMemoryContainer(t *testing.T) {
	c := NewMemoryContainer()
	t.Cleanup(func() {
		c.Close()
	})
	testContainer(t, c)
}

func TestFilesystemContainer(t *testing.T) {
	c, err := NewFilesystemContainer(t.TempDir(), platform.NewPlatform())
	require.NoError(t, err)
	t.Cleanup(func() {
		c.Close()
	})
	testContainer(t, c)
}

func TestCasyncContainer(t *testing.T) {
	c, err := NewCasyncContainer(t.TempDir(), platform.NewPlatform())
	require.NoError(t, err)
	t.Cleanup(func() {
		c.Close()
	})
	testContainer(t, c)
}

func TestS3Container(t *testing.T) {
	endpoint := os.Getenv("MEDIAHUB_TEST_S3_ENDPOINT")
	if endpoint == "" {
		t.Skip("MEDIAHUB_TEST_S3_ENDPOINT not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	c, err := NewS3Container(ctx, S3Config{
		Endpoint:  endpoint,
		Region:    "us-east-1",
		Bucket:    "mediahub-test",
		AccessKey: os.Getenv("MEDIAHUB_TEST_S3_ACCESS_KEY"),
		SecretKey: os.Getenv("MEDIAHUB_TEST_S3_SECRET_KEY"),
		Prefix:    "test-" + time.Now().Format("20060102150405") + "/",
	})
	require.NoError(t, err)
	testContainerBasics(t, c)
}

func put(t *testing.T, c Container, name, hash string, payload []byte) {
	t.Helper()
	w, err := c.OpenForWrite(context.Background(), name, hash)
	require.NoError(t, err)
	_, err = w.Write(payload)
	require.NoError(t, err)
	require.NoError(t, w.Close())
}

func get(t *testing.T, c Container, name string) ([]byte, uint64) {
	t.Helper()
	r, size, err := c.OpenForRead(context.Background(), name)
	require.NoError(t, err)
	defer r.Close()
	data, err := io.ReadAll(r)
	require.NoError(t, err)
	return data, size
}

// testContainer runs all container tests against the passed container.
func testContainer(t *testing.T, c Container) {
	testContainerBasics(t, c)

	t.Run("conditional create", func(t *testing.T) {
		w1, err := c.OpenForWrite(context.Background(), "race.bin", "h1")
		require.NoError(t, err)
		w2, err := c.OpenForWrite(context.Background(), "race.bin", "h2")
		require.NoError(t, err)

		_, err = w1.Write([]byte("first"))
		require.NoError(t, err)
		_, err = w2.Write([]byte("second"))
		require.NoError(t, err)

		require.NoError(t, w1.Close())
		err = w2.Close()
		assert.ErrorIs(t, err, mediaerrors.ErrAlreadyExists)

		var existsErr *mediaerrors.AlreadyExistsError
		require.True(t, errors.As(err, &existsErr))
		assert.Equal(t, "h1", existsErr.Hash, "the error carries the published object's hash")
		assert.True(t, PublishesExclusively(c))

		data, _ := get(t, c, "race.bin")
		assert.Equal(t, []byte("first"), data)

		d, err := c.Stat(context.Background(), "race.bin")
		require.NoError(t, err)
		assert.Equal(t, "h1", d.ContentHash)
	})
}

// testContainerBasics covers the behavior every backend shares, including
// the ones without create-if-absent.
func testContainerBasics(t *testing.T, c Container) {
	ctx := context.Background()

	t.Run("OpenForReadNotFound", func(t *testing.T) {
		_, _, err := c.OpenForRead(ctx, "missing.txt")
		assert.ErrorIs(t, err, mediaerrors.ErrNotFound)
	})

	t.Run("StatNotFound", func(t *testing.T) {
		_, err := c.Stat(ctx, "missing.txt")
		assert.ErrorIs(t, err, mediaerrors.ErrNotFound)
	})

	t.Run("RemoveNotFound", func(t *testing.T) {
		err := c.Remove(ctx, "missing.txt")
		assert.ErrorIs(t, err, mediaerrors.ErrNotFound)
	})

	t.Run("ListEmpty", func(t *testing.T) {
		list, err := c.List(ctx)
		require.NoError(t, err)
		assert.NotNil(t, list)
		assert.Empty(t, list)
	})

	t.Run("invisible until closed", func(t *testing.T) {
		w, err := c.OpenForWrite(ctx, "pending.txt", "h")
		require.NoError(t, err)
		_, err = w.Write([]byte("abc"))
		require.NoError(t, err)

		_, err = c.Stat(ctx, "pending.txt")
		assert.ErrorIs(t, err, mediaerrors.ErrNotFound)

		require.NoError(t, w.Abort())
		assert.NoError(t, w.Close(), "close after abort is a no-op")

		_, err = c.Stat(ctx, "pending.txt")
		assert.ErrorIs(t, err, mediaerrors.ErrNotFound)
	})

	t.Run("round trip", func(t *testing.T) {
		payload := bytes.Repeat([]byte("0123456789abcdef"), 20000)

		w, err := c.OpenForWrite(ctx, "a.txt", "h1")
		require.NoError(t, err)
		for off := 0; off < len(payload); off += 7000 {
			end := off + 7000
			if end > len(payload) {
				end = len(payload)
			}
			_, err := w.Write(payload[off:end])
			require.NoError(t, err)
		}
		assert.Equal(t, uint64(len(payload)), w.BytesWritten())
		require.NoError(t, w.Close())
		assert.NoError(t, w.Abort(), "abort after close is a no-op")

		data, size := get(t, c, "a.txt")
		assert.Equal(t, uint64(len(payload)), size)
		assert.Equal(t, payload, data)

		d, err := c.Stat(ctx, "a.txt")
		require.NoError(t, err)
		assert.Equal(t, domain.MediaDescriptor{Name: "a.txt", ContentHash: "h1", SizeBytes: uint64(len(payload))}, d)
	})

	t.Run("zero length", func(t *testing.T) {
		put(t, c, "empty.bin", "e", nil)
		data, size := get(t, c, "empty.bin")
		assert.Equal(t, uint64(0), size)
		assert.Empty(t, data)
	})

	t.Run("read handle close is idempotent", func(t *testing.T) {
		r, _, err := c.OpenForRead(ctx, "a.txt")
		require.NoError(t, err)
		assert.NoError(t, r.Close())
		assert.NoError(t, r.Close())
	})

	t.Run("List", func(t *testing.T) {
		list, err := c.List(ctx)
		require.NoError(t, err)
		names := make([]string, 0, len(list))
		for _, d := range list {
			names = append(names, d.Name)
		}
		assert.Equal(t, []string{"a.txt", "empty.bin"}, names)
	})

	t.Run("Remove", func(t *testing.T) {
		require.NoError(t, c.Remove(ctx, "a.txt"))
		_, err := c.Stat(ctx, "a.txt")
		assert.ErrorIs(t, err, mediaerrors.ErrNotFound)
		require.NoError(t, c.Remove(ctx, "empty.bin"))

		// the name is free again
		put(t, c, "a.txt", "h2", []byte("again"))
		data, _ := get(t, c, "a.txt")
		assert.Equal(t, []byte("again"), data)
		require.NoError(t, c.Remove(ctx, "a.txt"))
	})
}

func TestFilesystemContainer_WriteFailure(t *testing.T) {
	mp := platform.NewMockPlatform()
	c, err := NewFilesystemContainer(t.TempDir(), mp)
	require.NoError(t, err)

	w, err := c.OpenForWrite(context.Background(), "a.txt", "h")
	require.NoError(t, err)

	mp.Set(func(mp *platform.MockPlatform) { mp.ShouldFailWrite = true })
	_, err = w.Write([]byte("data"))
	assert.ErrorIs(t, err, mediaerrors.ErrStorageUnavailable)
	require.NoError(t, w.Abort())

	_, err = c.Stat(context.Background(), "a.txt")
	assert.ErrorIs(t, err, mediaerrors.ErrNotFound)
}

func TestFilesystemContainer_CreateFailure(t *testing.T) {
	mp := platform.NewMockPlatform()
	c, err := NewFilesystemContainer(t.TempDir(), mp)
	require.NoError(t, err)

	mp.Set(func(mp *platform.MockPlatform) { mp.ShouldFailCreate = true })
	_, err = c.OpenForWrite(context.Background(), "a.txt", "h")
	assert.ErrorIs(t, err, mediaerrors.ErrStorageUnavailable)
}

func TestFilesystemContainer_LinkFailureLeavesNothingVisible(t *testing.T) {
	mp := platform.NewMockPlatform()
	c, err := NewFilesystemContainer(t.TempDir(), mp)
	require.NoError(t, err)

	w, err := c.OpenForWrite(context.Background(), "a.txt", "h")
	require.NoError(t, err)
	_, err = w.Write([]byte("data"))
	require.NoError(t, err)

	mp.Set(func(mp *platform.MockPlatform) { mp.ShouldFailLink = true })
	err = w.Close()
	assert.ErrorIs(t, err, mediaerrors.ErrStorageUnavailable)
	assert.Len(t, mp.LinkCalls, 1)

	list, err := c.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestFilesystemContainer_ReadFailure(t *testing.T) {
	mp := platform.NewMockPlatform()
	c, err := NewFilesystemContainer(t.TempDir(), mp)
	require.NoError(t, err)
	put(t, c, "a.txt", "h", []byte("data"))

	r, size, err := c.OpenForRead(context.Background(), "a.txt")
	require.NoError(t, err)
	defer r.Close()
	assert.Equal(t, uint64(4), size)

	mp.Set(func(mp *platform.MockPlatform) { mp.ShouldFailRead = true })
	_, err = r.Read(make([]byte, 4))
	assert.Error(t, err)
}

func TestFilesystemContainer_OrphanedPayloadIsReplaced(t *testing.T) {
	root := t.TempDir()
	c, err := NewFilesystemContainer(root, platform.NewPlatform())
	require.NoError(t, err)

	// a payload without sidecar, as left by a crash between link and sidecar
	require.NoError(t, os.WriteFile(c.objectPath("a.txt"), []byte("stale"), 0o644))

	put(t, c, "a.txt", "h", []byte("fresh"))
	data, _ := get(t, c, "a.txt")
	assert.Equal(t, []byte("fresh"), data)
}

func openWith(t *testing.T, c Container, name, hash string, payload []byte) WriteHandle {
	t.Helper()
	w, err := c.OpenForWrite(context.Background(), name, hash)
	require.NoError(t, err)
	_, err = w.Write(payload)
	require.NoError(t, err)
	return w
}

func TestFilesystemContainer_PublishBeforeSidecarIsNotOrphaned(t *testing.T) {
	mp := platform.NewMockPlatform()
	c, err := NewFilesystemContainer(t.TempDir(), mp)
	require.NoError(t, err)

	first := openWith(t, c, "a.txt", "hA", []byte("first"))
	second := openWith(t, c, "a.txt", "hB", []byte("second"))

	secondDone := make(chan error, 1)
	var once sync.Once
	mp.Set(func(mp *platform.MockPlatform) {
		// the first publisher has linked its payload and is about to
		// rename its sidecar when the second one closes
		mp.OnRename = func(oldpath, newpath string) {
			once.Do(func() {
				go func() { secondDone <- second.Close() }()
				select {
				case err := <-secondDone:
					secondDone <- err
				case <-time.After(100 * time.Millisecond):
				}
			})
		}
	})

	require.NoError(t, first.Close())

	var secondErr error
	select {
	case secondErr = <-secondDone:
	case <-time.After(5 * time.Second):
		t.Fatal("second publish did not finish")
	}
	require.ErrorIs(t, secondErr, mediaerrors.ErrAlreadyExists)

	var existsErr *mediaerrors.AlreadyExistsError
	require.True(t, errors.As(secondErr, &existsErr))
	assert.Equal(t, "hA", existsErr.Hash)

	data, size := get(t, c, "a.txt")
	assert.Equal(t, []byte("first"), data)
	assert.Equal(t, uint64(5), size)

	d, err := c.Stat(context.Background(), "a.txt")
	require.NoError(t, err)
	assert.Equal(t, "hA", d.ContentHash)
}

func TestFilesystemContainer_ConcurrentPublishHasOneWinner(t *testing.T) {
	c, err := NewFilesystemContainer(t.TempDir(), platform.NewPlatform())
	require.NoError(t, err)

	const writers = 8
	handles := make([]WriteHandle, writers)
	for i := range handles {
		handles[i] = openWith(t, c, "clip.mp4", fmt.Sprintf("h%d", i), []byte(fmt.Sprintf("payload-%d", i)))
	}

	var (
		wg      sync.WaitGroup
		winners atomic.Int32
		winner  atomic.Int32
	)
	start := make(chan struct{})
	for i, h := range handles {
		wg.Add(1)
		go func(i int, h WriteHandle) {
			defer wg.Done()
			<-start
			err := h.Close()
			if err == nil {
				winners.Add(1)
				winner.Store(int32(i))
				return
			}
			assert.ErrorIs(t, err, mediaerrors.ErrAlreadyExists)
		}(i, h)
	}
	close(start)
	wg.Wait()

	require.Equal(t, int32(1), winners.Load())

	data, _ := get(t, c, "clip.mp4")
	assert.Equal(t, []byte(fmt.Sprintf("payload-%d", winner.Load())), data)
	d, err := c.Stat(context.Background(), "clip.mp4")
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("h%d", winner.Load()), d.ContentHash)
}

func TestCasyncContainer_ChunkingDoesNotBlockOtherNames(t *testing.T) {
	ctx := context.Background()
	mp := platform.NewMockPlatform()
	c, err := NewCasyncContainer(t.TempDir(), mp)
	require.NoError(t, err)
	t.Cleanup(func() {
		c.Close()
	})
	put(t, c, "old.txt", "h0", []byte("old"))

	slow := openWith(t, c, "slow.bin", "h1", bytes.Repeat([]byte("media"), 4096))

	entered := make(chan struct{})
	unblock := make(chan struct{})
	var enterOnce, unblockOnce sync.Once
	release := func() { unblockOnce.Do(func() { close(unblock) }) }
	t.Cleanup(release)

	mp.Set(func(mp *platform.MockPlatform) {
		mp.OnRead = func(string) {
			enterOnce.Do(func() {
				close(entered)
				<-unblock
			})
		}
	})

	slowDone := make(chan error, 1)
	go func() { slowDone <- slow.Close() }()

	select {
	case <-entered:
	case <-time.After(5 * time.Second):
		t.Fatal("chunking never started")
	}

	others := make(chan error, 1)
	go func() {
		if err := c.Remove(ctx, "old.txt"); err != nil {
			others <- err
			return
		}
		w, err := c.OpenForWrite(ctx, "b.txt", "h2")
		if err != nil {
			others <- err
			return
		}
		if _, err := w.Write([]byte("other")); err != nil {
			others <- err
			return
		}
		others <- w.Close()
	}()

	select {
	case err := <-others:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("remove and publish of other names waited for chunking")
	}

	release()
	require.NoError(t, <-slowDone)

	data, _ := get(t, c, "slow.bin")
	assert.Equal(t, bytes.Repeat([]byte("media"), 4096), data)
	data, _ = get(t, c, "b.txt")
	assert.Equal(t, []byte("other"), data)
}

func TestPublishesExclusively(t *testing.T) {
	assert.True(t, PublishesExclusively(NewMemoryContainer()))
	assert.False(t, PublishesExclusively(&S3Container{}))
}
