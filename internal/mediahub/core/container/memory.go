package container

import (
	"bytes"
	"context"
	"sort"
	"sync"

	"mediahub/internal/mediahub/domain"
)

var _ Container = &MemoryContainer{}

type memoryObject struct {
	descriptor domain.MediaDescriptor
	payload    []byte
}

// MemoryContainer keeps objects in a map. Published payloads are never
// mutated, so readers share them without copying.
type MemoryContainer struct {
	objects   map[string]memoryObject
	muObjects sync.Mutex
}

func NewMemoryContainer() *MemoryContainer {
	return &MemoryContainer{
		objects: make(map[string]memoryObject),
	}
}

func (m *MemoryContainer) Close() error {
	return nil
}

func (m *MemoryContainer) PublishesExclusively() bool {
	return true
}

func (m *MemoryContainer) OpenForWrite(ctx context.Context, name, contentHash string) (WriteHandle, error) {
	if err := ctx.Err(); err != nil {
		return nil, unavailable("open for write", err)
	}
	return &memoryWriter{
		container:   m,
		name:        name,
		contentHash: contentHash,
	}, nil
}

func (m *MemoryContainer) OpenForRead(ctx context.Context, name string) (ReadHandle, uint64, error) {
	m.muObjects.Lock()
	obj, ok := m.objects[name]
	m.muObjects.Unlock()
	if !ok {
		return nil, 0, notFound(name)
	}
	return newOnceCloser(bytes.NewReader(obj.payload), nil), obj.descriptor.SizeBytes, nil
}

func (m *MemoryContainer) Stat(ctx context.Context, name string) (domain.MediaDescriptor, error) {
	m.muObjects.Lock()
	defer m.muObjects.Unlock()
	obj, ok := m.objects[name]
	if !ok {
		return domain.MediaDescriptor{}, notFound(name)
	}
	return obj.descriptor, nil
}

func (m *MemoryContainer) List(ctx context.Context) ([]domain.MediaDescriptor, error) {
	m.muObjects.Lock()
	descriptors := make([]domain.MediaDescriptor, 0, len(m.objects))
	for _, obj := range m.objects {
		descriptors = append(descriptors, obj.descriptor)
	}
	m.muObjects.Unlock()

	sort.Slice(descriptors, func(i, j int) bool { return descriptors[i].Name < descriptors[j].Name })
	return descriptors, nil
}

func (m *MemoryContainer) Remove(ctx context.Context, name string) error {
	m.muObjects.Lock()
	defer m.muObjects.Unlock()
	if _, ok := m.objects[name]; !ok {
		return notFound(name)
	}
	delete(m.objects, name)
	return nil
}

var _ WriteHandle = &memoryWriter{}

type memoryWriter struct {
	handleState

	container    *MemoryContainer
	name         string
	contentHash  string
	contents     []byte
	bytesWritten uint64
}

func (mw *memoryWriter) Write(p []byte) (int, error) {
	mw.contents = append(mw.contents, p...)
	mw.bytesWritten += uint64(len(p))
	return len(p), nil
}

func (mw *memoryWriter) Close() error {
	if !mw.finish() {
		return nil
	}

	mw.container.muObjects.Lock()
	defer mw.container.muObjects.Unlock()

	if existing, exists := mw.container.objects[mw.name]; exists {
		return alreadyExists(mw.name, existing.descriptor.ContentHash)
	}
	mw.container.objects[mw.name] = memoryObject{
		descriptor: domain.MediaDescriptor{
			Name:        mw.name,
			ContentHash: mw.contentHash,
			SizeBytes:   mw.bytesWritten,
		},
		payload: mw.contents,
	}
	return nil
}

func (mw *memoryWriter) Abort() error {
	if mw.finish() {
		mw.contents = nil
	}
	return nil
}

func (mw *memoryWriter) BytesWritten() uint64 {
	return mw.bytesWritten
}
