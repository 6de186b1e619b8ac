package container

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"mediahub/internal/mediahub/domain"
	"mediahub/pkg/logger"
	"mediahub/pkg/platform"
)

var _ Container = &FilesystemContainer{}

// sidecar is the on-disk descriptor. An object is visible once its sidecar
// exists.
type sidecar struct {
	Name        string `json:"name"`
	ContentHash string `json:"contentHash"`
	Size        uint64 `json:"size"`
}

func (s sidecar) descriptor() domain.MediaDescriptor {
	return domain.MediaDescriptor{Name: s.Name, ContentHash: s.ContentHash, SizeBytes: s.Size}
}

// FilesystemContainer lays objects out as
//
//	<root>/objects/<hex(name)>       payload
//	<root>/meta/<hex(name)>.json     sidecar
//	<root>/tmp/                      uploads in progress
type FilesystemContainer struct {
	platform platform.Platform
	logger   *logger.Logger

	objectsDir string
	metaDir    string
	tmpDir     string

	// held from link to sidecar rename so a payload still waiting for its
	// sidecar is never mistaken for crash residue
	muPublish sync.Mutex
}

func NewFilesystemContainer(root string, p platform.Platform) (*FilesystemContainer, error) {
	fc := &FilesystemContainer{
		platform:   p,
		logger:     logger.WithFields("component", "filesystem-container", "root", root),
		objectsDir: filepath.Join(root, "objects"),
		metaDir:    filepath.Join(root, "meta"),
		tmpDir:     filepath.Join(root, "tmp"),
	}

	for _, dir := range []string{fc.objectsDir, fc.metaDir, fc.tmpDir} {
		if err := p.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}

	return fc, nil
}

func (fc *FilesystemContainer) Close() error {
	return nil
}

func (fc *FilesystemContainer) PublishesExclusively() bool {
	return true
}

func (fc *FilesystemContainer) objectPath(name string) string {
	return filepath.Join(fc.objectsDir, objectKey(name))
}

func (fc *FilesystemContainer) sidecarPath(name string) string {
	return filepath.Join(fc.metaDir, objectKey(name)+".json")
}

func (fc *FilesystemContainer) readSidecar(path string) (sidecar, error) {
	var sc sidecar
	data, err := fc.platform.ReadFile(path)
	if err != nil {
		return sc, err
	}
	if err := json.Unmarshal(data, &sc); err != nil {
		return sc, fmt.Errorf("corrupt sidecar %s: %w", path, err)
	}
	return sc, nil
}

func (fc *FilesystemContainer) OpenForWrite(ctx context.Context, name, contentHash string) (WriteHandle, error) {
	f, err := fc.platform.CreateTemp(fc.tmpDir, "upload-*")
	if err != nil {
		return nil, unavailable("create temp file", err)
	}
	return &filesystemWriter{
		container:   fc,
		f:           f,
		name:        name,
		contentHash: contentHash,
	}, nil
}

func (fc *FilesystemContainer) OpenForRead(ctx context.Context, name string) (ReadHandle, uint64, error) {
	sc, err := fc.readSidecar(fc.sidecarPath(name))
	if err != nil {
		if fc.platform.IsNotExist(err) {
			return nil, 0, notFound(name)
		}
		return nil, 0, unavailable("read sidecar", err)
	}

	f, err := fc.platform.Open(fc.objectPath(name))
	if err != nil {
		if fc.platform.IsNotExist(err) {
			return nil, 0, notFound(name)
		}
		return nil, 0, unavailable("open object", err)
	}

	return newOnceCloser(f, f.Close), sc.Size, nil
}

func (fc *FilesystemContainer) Stat(ctx context.Context, name string) (domain.MediaDescriptor, error) {
	sc, err := fc.readSidecar(fc.sidecarPath(name))
	if err != nil {
		if fc.platform.IsNotExist(err) {
			return domain.MediaDescriptor{}, notFound(name)
		}
		return domain.MediaDescriptor{}, unavailable("read sidecar", err)
	}
	return sc.descriptor(), nil
}

func (fc *FilesystemContainer) List(ctx context.Context) ([]domain.MediaDescriptor, error) {
	entries, err := fc.platform.ReadDir(fc.metaDir)
	if err != nil {
		return nil, unavailable("list sidecars", err)
	}

	descriptors := make([]domain.MediaDescriptor, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		sc, err := fc.readSidecar(filepath.Join(fc.metaDir, entry.Name()))
		if err != nil {
			if fc.platform.IsNotExist(err) {
				// removed while listing
				continue
			}
			return nil, unavailable("read sidecar", err)
		}
		descriptors = append(descriptors, sc.descriptor())
	}

	sort.Slice(descriptors, func(i, j int) bool { return descriptors[i].Name < descriptors[j].Name })
	return descriptors, nil
}

func (fc *FilesystemContainer) Remove(ctx context.Context, name string) error {
	fc.muPublish.Lock()
	defer fc.muPublish.Unlock()

	if err := fc.platform.Remove(fc.sidecarPath(name)); err != nil {
		if fc.platform.IsNotExist(err) {
			return notFound(name)
		}
		return unavailable("remove sidecar", err)
	}
	if err := fc.platform.Remove(fc.objectPath(name)); err != nil && !fc.platform.IsNotExist(err) {
		fc.logger.Warn("sidecar removed but payload left behind", "name", name, "error", err)
	}
	return nil
}

// publish links the finished temp file into objects/ and then writes the
// sidecar. The link fails if the name is taken, which makes publishing
// create-if-absent.
func (fc *FilesystemContainer) publish(tmpPath string, sc sidecar) error {
	fc.muPublish.Lock()
	defer fc.muPublish.Unlock()

	objectPath := fc.objectPath(sc.Name)

	err := fc.platform.Link(tmpPath, objectPath)
	if err != nil && fc.platform.IsExist(err) {
		existing, statErr := fc.readSidecar(fc.sidecarPath(sc.Name))
		switch {
		case statErr == nil:
			return alreadyExists(sc.Name, existing.ContentHash)
		case !fc.platform.IsNotExist(statErr):
			return unavailable("read sidecar", statErr)
		}

		// A payload without a sidecar is left over from a crashed publish.
		fc.logger.Warn("replacing orphaned payload", "name", sc.Name)
		if rmErr := fc.platform.Remove(objectPath); rmErr != nil && !fc.platform.IsNotExist(rmErr) {
			return unavailable("remove orphaned payload", rmErr)
		}
		err = fc.platform.Link(tmpPath, objectPath)
	}
	if err != nil {
		return unavailable("link object", err)
	}

	data, err := json.Marshal(sc)
	if err != nil {
		return err
	}
	metaTmp, err := fc.platform.CreateTemp(fc.tmpDir, "meta-*")
	if err != nil {
		fc.unpublish(objectPath)
		return unavailable("create sidecar", err)
	}
	_, werr := metaTmp.Write(data)
	if werr == nil {
		werr = metaTmp.Sync()
	}
	if cerr := metaTmp.Close(); werr == nil {
		werr = cerr
	}
	if werr == nil {
		werr = fc.platform.Rename(metaTmp.Name(), fc.sidecarPath(sc.Name))
	}
	if werr != nil {
		_ = fc.platform.Remove(metaTmp.Name())
		fc.unpublish(objectPath)
		return unavailable("write sidecar", werr)
	}
	return nil
}

func (fc *FilesystemContainer) unpublish(objectPath string) {
	if err := fc.platform.Remove(objectPath); err != nil && !fc.platform.IsNotExist(err) {
		fc.logger.Warn("failed to roll back payload", "path", objectPath, "error", err)
	}
}

var _ WriteHandle = &filesystemWriter{}

type filesystemWriter struct {
	handleState

	container    *FilesystemContainer
	f            platform.File
	name         string
	contentHash  string
	bytesWritten uint64
}

func (fw *filesystemWriter) Write(p []byte) (int, error) {
	n, err := fw.f.Write(p)
	fw.bytesWritten += uint64(n)
	if err != nil {
		return n, unavailable("write", err)
	}
	return n, nil
}

func (fw *filesystemWriter) Close() error {
	if !fw.finish() {
		return nil
	}

	tmpPath := fw.f.Name()
	defer fw.container.platform.Remove(tmpPath)

	if err := fw.f.Sync(); err != nil {
		_ = fw.f.Close()
		return unavailable("sync", err)
	}
	if err := fw.f.Close(); err != nil {
		return unavailable("close", err)
	}

	return fw.container.publish(tmpPath, sidecar{
		Name:        fw.name,
		ContentHash: fw.contentHash,
		Size:        fw.bytesWritten,
	})
}

func (fw *filesystemWriter) Abort() error {
	if !fw.finish() {
		return nil
	}
	closeErr := fw.f.Close()
	if err := fw.container.platform.Remove(fw.f.Name()); err != nil && !fw.container.platform.IsNotExist(err) {
		return unavailable("remove temp file", err)
	}
	if closeErr != nil {
		return unavailable("close", closeErr)
	}
	return nil
}

func (fw *filesystemWriter) BytesWritten() uint64 {
	return fw.bytesWritten
}
