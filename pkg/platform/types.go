package platform

import (
	"io"
	"os"
)

// File is the subset of *os.File the storage backends use.
type File interface {
	io.Reader
	io.Writer
	io.Closer
	Sync() error
	Name() string
}

// Platform abstracts the file system calls made by the filesystem and casync
// containers so tests can inject failures.
type Platform interface {
	MkdirAll(dir string, perm os.FileMode) error
	CreateTemp(dir, pattern string) (File, error)
	Open(name string) (File, error)
	Stat(name string) (os.FileInfo, error)
	ReadFile(path string) ([]byte, error)
	WriteFile(name string, data []byte, perm os.FileMode) error
	ReadDir(dir string) ([]os.DirEntry, error)
	Link(oldname, newname string) error
	Rename(oldpath, newpath string) error
	Remove(path string) error
	RemoveAll(path string) error
	IsNotExist(err error) bool
	IsExist(err error) bool
}

// OSPlatform is the production implementation backed by package os
type OSPlatform struct {
	*BasePlatform
}

// Ensure implementations satisfy Platform
var _ Platform = (*OSPlatform)(nil)
var _ Platform = (*MockPlatform)(nil)
