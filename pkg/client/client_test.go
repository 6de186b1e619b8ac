package client

import (
	"bytes"
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"mediahub/internal/mediahub/core/catalog"
	"mediahub/internal/mediahub/core/container"
	"mediahub/internal/mediahub/core/transfer"
	"mediahub/internal/mediahub/server"
	"mediahub/pkg/config"
)

func newTestClient(t *testing.T) *MediaClient {
	t.Helper()

	c := container.NewMemoryContainer()
	cat := catalog.NewContainerCatalog(c)
	cfg := config.DefaultConfig
	srv := server.NewGRPCServer(cat, transfer.NewTransfers(cat, c, nil, 4), &cfg)

	lis := bufconn.Listen(1 << 20)
	go srv.Serve(lis)

	mc, err := NewMediaClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}))
	require.NoError(t, err)

	t.Cleanup(func() {
		mc.Close()
		srv.Stop()
		c.Close()
	})
	return mc
}

func TestMediaClient_RoundTrip(t *testing.T) {
	mc := newTestClient(t)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	payload := bytes.Repeat([]byte("media"), 1000)

	sent, err := mc.UploadMedia(ctx, "clip.mp4", "abc sha256", bytes.NewReader(payload), 1500)
	require.NoError(t, err)
	assert.Equal(t, uint64(len(payload)), sent)

	medias, err := mc.ListMedia(ctx)
	require.NoError(t, err)
	require.Len(t, medias, 1)
	assert.Equal(t, "clip.mp4", medias[0].GetOriginalName())
	assert.Equal(t, "abc sha256", medias[0].GetHash())
	assert.Equal(t, int64(len(payload)), medias[0].GetSize())

	var out bytes.Buffer
	var lastTotal int64
	calls := 0
	n, err := mc.DownloadMedia(ctx, "clip.mp4", &out, func(received, total int64) {
		calls++
		lastTotal = total
	})
	require.NoError(t, err)
	assert.Equal(t, int64(len(payload)), n)
	assert.Equal(t, payload, out.Bytes())
	assert.Equal(t, int64(len(payload)), lastTotal)
	assert.Equal(t, len(payload)/4, calls)

	require.NoError(t, mc.DeleteMedia(ctx, "clip.mp4"))
	err = mc.DeleteMedia(ctx, "clip.mp4")
	assert.Equal(t, codes.NotFound, status.Code(err))
}

func TestMediaClient_UploadEmpty(t *testing.T) {
	mc := newTestClient(t)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	sent, err := mc.UploadMedia(ctx, "empty.txt", "e3b0 sha256", bytes.NewReader(nil), 1024)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), sent)

	var out bytes.Buffer
	n, err := mc.DownloadMedia(ctx, "empty.txt", &out, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestMediaClient_UploadDuplicate(t *testing.T) {
	mc := newTestClient(t)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := mc.UploadMedia(ctx, "a.txt", "h1", bytes.NewReader([]byte("one")), 1024)
	require.NoError(t, err)

	_, err = mc.UploadMedia(ctx, "a.txt", "h2", bytes.NewReader([]byte("two")), 1024)
	assert.Equal(t, codes.AlreadyExists, status.Code(err))
}

func TestMediaClient_DownloadMissing(t *testing.T) {
	mc := newTestClient(t)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := mc.DownloadMedia(ctx, "missing", &bytes.Buffer{}, nil)
	assert.Equal(t, codes.NotFound, status.Code(err))
}

func TestMediaClient_InvalidChunkSize(t *testing.T) {
	mc := newTestClient(t)

	_, err := mc.UploadMedia(context.Background(), "a.txt", "h", bytes.NewReader(nil), 0)
	assert.Error(t, err)
}
