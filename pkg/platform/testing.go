package platform

import (
	"os"
	"sync"
	"syscall"
)

// MockPlatform delegates to the real file system but can be told to fail
// individual operations. It records the calls that publish or delete data.
type MockPlatform struct {
	*BasePlatform

	mu sync.Mutex

	// Mock behavior flags
	ShouldFailCreate bool
	ShouldFailWrite  bool
	ShouldFailSync   bool
	ShouldFailRead   bool
	ShouldFailLink   bool
	ShouldFailRemove bool

	// Hooks run before the operation is delegated
	OnRename func(oldpath, newpath string)
	OnRead   func(name string)

	// Call tracking
	LinkCalls   []LinkCall
	RemoveCalls []string
}

type LinkCall struct {
	OldName string
	NewName string
}

// NewMockPlatform creates a new mock platform for testing
func NewMockPlatform() *MockPlatform {
	return &MockPlatform{
		BasePlatform: NewBasePlatform(),
		LinkCalls:    make([]LinkCall, 0),
		RemoveCalls:  make([]string, 0),
	}
}

func (mp *MockPlatform) flag(f *bool) bool {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	return *f
}

// Set toggles a behavior flag under the mock's lock.
func (mp *MockPlatform) Set(apply func(mp *MockPlatform)) {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	apply(mp)
}

func (mp *MockPlatform) CreateTemp(dir, pattern string) (File, error) {
	if mp.flag(&mp.ShouldFailCreate) {
		return nil, NewPlatformError("mock", "create", syscall.ENOSPC)
	}
	f, err := mp.BasePlatform.CreateTemp(dir, pattern)
	if err != nil {
		return nil, err
	}
	return &mockFile{File: f, mp: mp}, nil
}

func (mp *MockPlatform) Open(name string) (File, error) {
	f, err := mp.BasePlatform.Open(name)
	if err != nil {
		return nil, err
	}
	return &mockFile{File: f, mp: mp}, nil
}

func (mp *MockPlatform) Link(oldname, newname string) error {
	mp.mu.Lock()
	mp.LinkCalls = append(mp.LinkCalls, LinkCall{OldName: oldname, NewName: newname})
	fail := mp.ShouldFailLink
	mp.mu.Unlock()

	if fail {
		return NewPlatformError("mock", "link", os.ErrPermission)
	}
	return mp.BasePlatform.Link(oldname, newname)
}

func (mp *MockPlatform) Rename(oldpath, newpath string) error {
	mp.mu.Lock()
	hook := mp.OnRename
	mp.mu.Unlock()

	if hook != nil {
		hook(oldpath, newpath)
	}
	return mp.BasePlatform.Rename(oldpath, newpath)
}

func (mp *MockPlatform) Remove(path string) error {
	mp.mu.Lock()
	mp.RemoveCalls = append(mp.RemoveCalls, path)
	fail := mp.ShouldFailRemove
	mp.mu.Unlock()

	if fail {
		return NewPlatformError("mock", "remove", os.ErrPermission)
	}
	return mp.BasePlatform.Remove(path)
}

// Reset clears all call tracking and failure flags
func (mp *MockPlatform) Reset() {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	mp.LinkCalls = mp.LinkCalls[:0]
	mp.RemoveCalls = mp.RemoveCalls[:0]
	mp.ShouldFailCreate = false
	mp.ShouldFailWrite = false
	mp.ShouldFailSync = false
	mp.ShouldFailRead = false
	mp.ShouldFailLink = false
	mp.ShouldFailRemove = false
	mp.OnRename = nil
	mp.OnRead = nil
}

type mockFile struct {
	File
	mp *MockPlatform
}

func (f *mockFile) Write(p []byte) (int, error) {
	if f.mp.flag(&f.mp.ShouldFailWrite) {
		return 0, NewPlatformError("mock", "write", syscall.EIO)
	}
	return f.File.Write(p)
}

func (f *mockFile) Read(p []byte) (int, error) {
	f.mp.mu.Lock()
	hook := f.mp.OnRead
	f.mp.mu.Unlock()
	if hook != nil {
		hook(f.Name())
	}

	if f.mp.flag(&f.mp.ShouldFailRead) {
		return 0, NewPlatformError("mock", "read", syscall.EIO)
	}
	return f.File.Read(p)
}

func (f *mockFile) Sync() error {
	if f.mp.flag(&f.mp.ShouldFailSync) {
		return NewPlatformError("mock", "sync", syscall.EIO)
	}
	return f.File.Sync()
}
