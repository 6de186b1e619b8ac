package gateway

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mediahub/internal/mediahub/core/catalog"
	"mediahub/internal/mediahub/core/container"
	"mediahub/internal/mediahub/core/transfer"
)

var testPayload = bytes.Repeat([]byte("mediahub gateway "), 4096)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	c := container.NewMemoryContainer()
	cat := catalog.NewContainerCatalog(c)

	w, err := c.OpenForWrite(context.Background(), "clip.mp4", "h1")
	require.NoError(t, err)
	_, err = w.Write(testPayload)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	ts := httptest.NewServer(NewServer(cat, transfer.NewTransfers(cat, c, nil, 1000)).Handler)
	t.Cleanup(func() {
		ts.Close()
		c.Close()
	})
	return ts
}

func TestHealthz(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestList(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/media")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var list []mediaJSON
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&list))
	assert.Equal(t, []mediaJSON{{OriginalName: "clip.mp4", Hash: "h1", Size: uint64(len(testPayload))}}, list)
}

func TestDownload(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/media/clip.mp4")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int64(len(testPayload)), resp.ContentLength)
	assert.Equal(t, "h1", resp.Header.Get("X-Content-Hash"))

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, testPayload, body)
}

func TestDownloadCompressed(t *testing.T) {
	ts := newTestServer(t)

	decompressors := map[string]func(r io.Reader) (io.Reader, error){
		"gzip": func(r io.Reader) (io.Reader, error) { return gzip.NewReader(r) },
		"br":   func(r io.Reader) (io.Reader, error) { return brotli.NewReader(r), nil },
		"zstd": func(r io.Reader) (io.Reader, error) { return zstd.NewReader(r) },
	}

	for compression, decompress := range decompressors {
		t.Run(compression, func(t *testing.T) {
			req, err := http.NewRequest(http.MethodGet, ts.URL+"/media/clip.mp4?compression="+compression, nil)
			require.NoError(t, err)
			// keep the transport from negotiating and undoing gzip itself
			req.Header.Set("Accept-Encoding", "identity")

			resp, err := http.DefaultClient.Do(req)
			require.NoError(t, err)
			defer resp.Body.Close()

			require.Equal(t, http.StatusOK, resp.StatusCode)
			assert.Equal(t, compression, resp.Header.Get("Content-Encoding"))

			r, err := decompress(resp.Body)
			require.NoError(t, err)
			body, err := io.ReadAll(r)
			require.NoError(t, err)
			assert.Equal(t, testPayload, body)
		})
	}
}

func TestDownloadUnsupportedCompression(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/media/clip.mp4?compression=lz4")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestDownloadNotFound(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/media/missing.txt")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestDelete(t *testing.T) {
	ts := newTestServer(t)

	del := func() int {
		req, err := http.NewRequest(http.MethodDelete, ts.URL+"/media/clip.mp4", nil)
		require.NoError(t, err)
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		resp.Body.Close()
		return resp.StatusCode
	}

	assert.Equal(t, http.StatusNoContent, del())
	assert.Equal(t, http.StatusNotFound, del())
}

// deletingTransfers removes the media between the catalog lookup and the
// download, as a concurrent delete would.
type deletingTransfers struct {
	transfer.Service
	c container.Container
}

func (dt *deletingTransfers) Download(ctx context.Context, name string, sink transfer.ChunkSink) error {
	if err := dt.c.Remove(ctx, name); err != nil {
		return err
	}
	return dt.Service.Download(ctx, name, sink)
}

func TestDownloadDeletedAfterLookup(t *testing.T) {
	for _, compression := range []string{"", "gzip", "br", "zstd"} {
		t.Run("compression="+compression, func(t *testing.T) {
			c := container.NewMemoryContainer()
			defer c.Close()
			cat := catalog.NewContainerCatalog(c)

			w, err := c.OpenForWrite(context.Background(), "clip.mp4", "h1")
			require.NoError(t, err)
			_, err = w.Write(testPayload)
			require.NoError(t, err)
			require.NoError(t, w.Close())

			transfers := &deletingTransfers{Service: transfer.NewTransfers(cat, c, nil, 1000), c: c}
			ts := httptest.NewServer(NewServer(cat, transfers).Handler)
			defer ts.Close()

			url := ts.URL + "/media/clip.mp4"
			if compression != "" {
				url += "?compression=" + compression
			}
			req, err := http.NewRequest(http.MethodGet, url, nil)
			require.NoError(t, err)
			req.Header.Set("Accept-Encoding", "identity")

			resp, err := http.DefaultClient.Do(req)
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, http.StatusNotFound, resp.StatusCode)
			assert.Empty(t, resp.Header.Get("X-Content-Hash"))
			assert.Empty(t, resp.Header.Get("Content-Encoding"))
		})
	}
}

func TestDownloadEmptyMedia(t *testing.T) {
	c := container.NewMemoryContainer()
	defer c.Close()
	cat := catalog.NewContainerCatalog(c)

	w, err := c.OpenForWrite(context.Background(), "empty.bin", "h0")
	require.NoError(t, err)
	require.NoError(t, w.Close())

	ts := httptest.NewServer(NewServer(cat, transfer.NewTransfers(cat, c, nil, 1000)).Handler)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/media/empty.bin")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int64(0), resp.ContentLength)
	assert.Equal(t, "h0", resp.Header.Get("X-Content-Hash"))
}
