package mediactl

import (
	"bytes"
	"encoding/json"
	"net"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mediahub/internal/mediahub/core/catalog"
	"mediahub/internal/mediahub/core/container"
	"mediahub/internal/mediahub/core/transfer"
	"mediahub/internal/mediahub/server"
	"mediahub/pkg/config"
)

func startServer(t *testing.T) string {
	t.Helper()

	c := container.NewMemoryContainer()
	cat := catalog.NewContainerCatalog(c)
	cfg := config.DefaultConfig
	srv := server.NewGRPCServer(cat, transfer.NewTransfers(cat, c, nil, cfg.Transfer.MaxChunkSize), &cfg)

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go srv.Serve(lis)

	t.Cleanup(func() {
		srv.Stop()
		c.Close()
	})
	return lis.Addr().String()
}

func run(t *testing.T, addr string, args ...string) (string, error) {
	t.Helper()

	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{
		"--server", addr,
		"--config", filepath.Join(t.TempDir(), "cli.yaml"),
	}, args...))

	err := cmd.Execute()
	return out.String(), err
}

func TestUploadListDownloadDelete(t *testing.T) {
	addr := startServer(t)

	srcDir := t.TempDir()
	src := filepath.Join(srcDir, "clip.mp4")
	payload := bytes.Repeat([]byte("frame"), 3000)
	require.NoError(t, os.WriteFile(src, payload, 0o644))

	out, err := run(t, addr, "upload", "--chunk-size", "4096", src)
	require.NoError(t, err)
	assert.Contains(t, out, "Upload finished: clip.mp4")

	out, err = run(t, addr, "list")
	require.NoError(t, err)

	var listed struct {
		Medias []listedMedia `json:"medias"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &listed))
	require.Len(t, listed.Medias, 1)
	assert.Equal(t, "clip.mp4", listed.Medias[0].OriginalName)
	assert.Equal(t, int64(len(payload)), listed.Medias[0].Size)

	wantHash, err := fileHash(src)
	require.NoError(t, err)
	assert.Equal(t, wantHash, listed.Medias[0].Hash)
	assert.Regexp(t, `^[0-9a-f]{64} sha256$`, wantHash)

	dstDir := t.TempDir()
	_, err = run(t, addr, "download", "--dir", dstDir, "clip.mp4")
	require.NoError(t, err)

	got, err := os.ReadFile(filepath.Join(dstDir, "clip.mp4"))
	require.NoError(t, err)
	assert.Equal(t, payload, got)
	_, err = os.Stat(filepath.Join(dstDir, "clip.mp4.downloading"))
	assert.True(t, os.IsNotExist(err))

	_, err = run(t, addr, "upload", src)
	assert.Error(t, err, "duplicate upload")

	out, err = run(t, addr, "delete", "clip.mp4")
	require.NoError(t, err)
	assert.Contains(t, out, "deleted")

	_, err = run(t, addr, "delete", "clip.mp4")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found to be deleted")
}

func TestDownloadMissingLeavesNoFile(t *testing.T) {
	addr := startServer(t)
	dstDir := t.TempDir()

	_, err := run(t, addr, "download", "--dir", dstDir, "missing.bin")
	require.Error(t, err)

	entries, err := os.ReadDir(dstDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestUploadInvalidChunkSize(t *testing.T) {
	src := filepath.Join(t.TempDir(), "a.txt")
	require.NoError(t, os.WriteFile(src, []byte("x"), 0o644))

	_, err := run(t, "localhost:1", "upload", "--chunk-size", "10", src)
	assert.Error(t, err)
}
