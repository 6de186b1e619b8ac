package container

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/folbricht/desync"

	"mediahub/internal/mediahub/domain"
	"mediahub/pkg/logger"
	"mediahub/pkg/platform"
)

var _ Container = &CasyncContainer{}

// CasyncContainer splits payloads into content-defined chunks kept in a
// desync chunk store, so identical content uploaded under different names
// is stored once. Each name gets a .caibx index and a JSON sidecar.
//
//	<root>/chunks/   chunk store
//	<root>/indexes/  <hex(name)>.caibx
//	<root>/meta/     <hex(name)>.json
//	<root>/tmp/      uploads and downloads in progress
type CasyncContainer struct {
	platform platform.Platform
	logger   *logger.Logger

	localStore      desync.WriteStore
	localIndexStore desync.IndexWriteStore
	indexDir        string
	metaDir         string
	tmpDir          string
	concurrency     int

	chunkSizeAvg uint64
	chunkSizeMin uint64
	chunkSizeMax uint64

	// serializes the exists-check and the index + sidecar writes
	muPublish sync.Mutex
}

func NewCasyncContainer(root string, p platform.Platform) (*CasyncContainer, error) {
	storeDir := filepath.Join(root, "chunks")
	indexDir := filepath.Join(root, "indexes")
	metaDir := filepath.Join(root, "meta")
	tmpDir := filepath.Join(root, "tmp")

	for _, dir := range []string{storeDir, indexDir, metaDir, tmpDir} {
		if err := p.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}

	localStore, err := desync.NewLocalStore(storeDir, desync.StoreOptions{})
	if err != nil {
		return nil, err
	}

	localIndexStore, err := desync.NewLocalIndexStore(indexDir)
	if err != nil {
		return nil, err
	}

	return &CasyncContainer{
		platform:        p,
		logger:          logger.WithFields("component", "casync-container", "root", root),
		localStore:      localStore,
		localIndexStore: localIndexStore,
		indexDir:        indexDir,
		metaDir:         metaDir,
		tmpDir:          tmpDir,
		concurrency:     1,

		chunkSizeAvg: 64 * 1024,
		chunkSizeMin: 64 * 1024 / 4,
		chunkSizeMax: 64 * 1024 * 4,
	}, nil
}

func (c *CasyncContainer) Close() error {
	if err := c.localStore.Close(); err != nil {
		return err
	}
	return c.localIndexStore.Close()
}

func (c *CasyncContainer) PublishesExclusively() bool {
	return true
}

func (c *CasyncContainer) indexName(name string) string {
	return objectKey(name) + ".caibx"
}

func (c *CasyncContainer) sidecarPath(name string) string {
	return filepath.Join(c.metaDir, objectKey(name)+".json")
}

func (c *CasyncContainer) readSidecar(path string) (sidecar, error) {
	var sc sidecar
	data, err := c.platform.ReadFile(path)
	if err != nil {
		return sc, err
	}
	if err := json.Unmarshal(data, &sc); err != nil {
		return sc, fmt.Errorf("corrupt sidecar %s: %w", path, err)
	}
	return sc, nil
}

func (c *CasyncContainer) OpenForWrite(ctx context.Context, name, contentHash string) (WriteHandle, error) {
	f, err := c.platform.CreateTemp(c.tmpDir, "upload-*")
	if err != nil {
		return nil, unavailable("create temp file", err)
	}
	return &casyncWriter{
		ctx:         ctx,
		container:   c,
		f:           f,
		name:        name,
		contentHash: contentHash,
	}, nil
}

func (c *CasyncContainer) OpenForRead(ctx context.Context, name string) (ReadHandle, uint64, error) {
	if _, err := c.readSidecar(c.sidecarPath(name)); err != nil {
		if c.platform.IsNotExist(err) {
			return nil, 0, notFound(name)
		}
		return nil, 0, unavailable("read sidecar", err)
	}

	caidx, err := c.localIndexStore.GetIndex(c.indexName(name))
	if err != nil {
		return nil, 0, unavailable("read index", err)
	}

	r := &casyncReader{
		ctx:       ctx,
		container: c,
		caidx:     caidx,
	}
	return newOnceCloser(r, r.close), uint64(caidx.Length()), nil
}

func (c *CasyncContainer) Stat(ctx context.Context, name string) (domain.MediaDescriptor, error) {
	sc, err := c.readSidecar(c.sidecarPath(name))
	if err != nil {
		if c.platform.IsNotExist(err) {
			return domain.MediaDescriptor{}, notFound(name)
		}
		return domain.MediaDescriptor{}, unavailable("read sidecar", err)
	}
	return sc.descriptor(), nil
}

func (c *CasyncContainer) List(ctx context.Context) ([]domain.MediaDescriptor, error) {
	entries, err := c.platform.ReadDir(c.metaDir)
	if err != nil {
		return nil, unavailable("list sidecars", err)
	}

	descriptors := make([]domain.MediaDescriptor, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		sc, err := c.readSidecar(filepath.Join(c.metaDir, entry.Name()))
		if err != nil {
			if c.platform.IsNotExist(err) {
				continue
			}
			return nil, unavailable("read sidecar", err)
		}
		descriptors = append(descriptors, sc.descriptor())
	}

	sort.Slice(descriptors, func(i, j int) bool { return descriptors[i].Name < descriptors[j].Name })
	return descriptors, nil
}

// Remove drops the sidecar and the index. Chunks stay in the store since
// other indexes may reference them.
func (c *CasyncContainer) Remove(ctx context.Context, name string) error {
	c.muPublish.Lock()
	defer c.muPublish.Unlock()

	if err := c.platform.Remove(c.sidecarPath(name)); err != nil {
		if c.platform.IsNotExist(err) {
			return notFound(name)
		}
		return unavailable("remove sidecar", err)
	}
	if err := c.platform.Remove(filepath.Join(c.indexDir, c.indexName(name))); err != nil && !c.platform.IsNotExist(err) {
		c.logger.Warn("sidecar removed but index left behind", "name", name, "error", err)
	}
	return nil
}

// publish chunks the spooled payload into the store without holding
// muPublish; the lock only covers the existence check and the index and
// sidecar writes. Chunks of a publish that loses the race stay in the store.
func (c *CasyncContainer) publish(ctx context.Context, f platform.File, sc sidecar) error {
	if existing, err := c.readSidecar(c.sidecarPath(sc.Name)); err == nil {
		return alreadyExists(sc.Name, existing.ContentHash)
	}

	chunker, err := desync.NewChunker(f, c.chunkSizeMin, c.chunkSizeAvg, c.chunkSizeMax)
	if err != nil {
		return unavailable("chunker", err)
	}

	caidx, err := desync.ChunkStream(ctx, chunker, c.localStore, c.concurrency)
	if err != nil {
		return unavailable("chunk stream", err)
	}

	c.muPublish.Lock()
	defer c.muPublish.Unlock()

	existing, err := c.readSidecar(c.sidecarPath(sc.Name))
	if err == nil {
		return alreadyExists(sc.Name, existing.ContentHash)
	}
	if !c.platform.IsNotExist(err) {
		return unavailable("read sidecar", err)
	}

	if err := c.localIndexStore.StoreIndex(c.indexName(sc.Name), caidx); err != nil {
		return unavailable("store index", err)
	}

	data, err := json.Marshal(sc)
	if err != nil {
		return err
	}
	if err := c.platform.WriteFile(c.sidecarPath(sc.Name), data, 0o644); err != nil {
		_ = c.platform.Remove(filepath.Join(c.indexDir, c.indexName(sc.Name)))
		return unavailable("write sidecar", err)
	}
	return nil
}

var _ WriteHandle = &casyncWriter{}

// casyncWriter spools the payload to a temp file; Close chunks it into the
// store.
type casyncWriter struct {
	handleState

	ctx          context.Context
	container    *CasyncContainer
	f            platform.File
	name         string
	contentHash  string
	bytesWritten uint64
}

func (cw *casyncWriter) Write(p []byte) (int, error) {
	n, err := cw.f.Write(p)
	cw.bytesWritten += uint64(n)
	if err != nil {
		return n, unavailable("write", err)
	}
	return n, nil
}

func (cw *casyncWriter) Close() error {
	if !cw.finish() {
		return nil
	}
	defer cw.container.platform.Remove(cw.f.Name())
	defer cw.f.Close()

	if err := cw.f.Sync(); err != nil {
		return unavailable("sync", err)
	}

	// the chunker needs to read from the start
	rf, err := cw.container.platform.Open(cw.f.Name())
	if err != nil {
		return unavailable("reopen spool file", err)
	}
	defer rf.Close()

	return cw.container.publish(cw.ctx, rf, sidecar{
		Name:        cw.name,
		ContentHash: cw.contentHash,
		Size:        cw.bytesWritten,
	})
}

func (cw *casyncWriter) Abort() error {
	if !cw.finish() {
		return nil
	}
	closeErr := cw.f.Close()
	if err := cw.container.platform.Remove(cw.f.Name()); err != nil && !cw.container.platform.IsNotExist(err) {
		return unavailable("remove temp file", err)
	}
	if closeErr != nil {
		return unavailable("close", closeErr)
	}
	return nil
}

func (cw *casyncWriter) BytesWritten() uint64 {
	return cw.bytesWritten
}

// casyncReader assembles the object into a temp file on the first Read and
// then reads from it.
type casyncReader struct {
	ctx       context.Context
	container *CasyncContainer
	caidx     desync.Index

	f         platform.File
	assembled bool
}

func (cr *casyncReader) Read(p []byte) (int, error) {
	if !cr.assembled {
		if err := cr.assemble(); err != nil {
			return 0, err
		}
		cr.assembled = true
	}
	return cr.f.Read(p)
}

func (cr *casyncReader) assemble() error {
	tmp, err := cr.container.platform.CreateTemp(cr.container.tmpDir, "download-*")
	if err != nil {
		return err
	}
	name := tmp.Name()
	if err := tmp.Close(); err != nil {
		return err
	}

	if _, err := desync.AssembleFile(cr.ctx, name, cr.caidx, cr.container.localStore, []desync.Seed{}, cr.container.concurrency, nil); err != nil {
		_ = cr.container.platform.Remove(name)
		return err
	}

	f, err := cr.container.platform.Open(name)
	if err != nil {
		_ = cr.container.platform.Remove(name)
		return err
	}
	cr.f = f
	return nil
}

func (cr *casyncReader) close() error {
	if cr.f == nil {
		return nil
	}
	defer cr.container.platform.Remove(cr.f.Name())
	return cr.f.Close()
}

var _ io.Reader = &casyncReader{}
