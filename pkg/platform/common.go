package platform

import (
	"os"

	"mediahub/pkg/logger"
)

// BasePlatform provides the os-backed file operations
type BasePlatform struct {
	logger *logger.Logger
}

// NewBasePlatform creates a new base platform
func NewBasePlatform() *BasePlatform {
	return &BasePlatform{
		logger: logger.WithField("component", "platform"),
	}
}

func (bp *BasePlatform) MkdirAll(dir string, perm os.FileMode) error {
	return os.MkdirAll(dir, perm)
}

func (bp *BasePlatform) CreateTemp(dir, pattern string) (File, error) {
	f, err := os.CreateTemp(dir, pattern)
	if err != nil {
		return nil, err
	}
	return f, nil
}

func (bp *BasePlatform) Open(name string) (File, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	return f, nil
}

func (bp *BasePlatform) Stat(name string) (os.FileInfo, error) {
	return os.Stat(name)
}

func (bp *BasePlatform) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

func (bp *BasePlatform) WriteFile(name string, data []byte, perm os.FileMode) error {
	return os.WriteFile(name, data, perm)
}

func (bp *BasePlatform) ReadDir(dir string) ([]os.DirEntry, error) {
	return os.ReadDir(dir)
}

// Link fails with an os.IsExist error when newname is present, which the
// filesystem container relies on for create-if-absent publishing.
func (bp *BasePlatform) Link(oldname, newname string) error {
	return os.Link(oldname, newname)
}

func (bp *BasePlatform) Rename(oldpath, newpath string) error {
	return os.Rename(oldpath, newpath)
}

func (bp *BasePlatform) Remove(path string) error {
	return os.Remove(path)
}

func (bp *BasePlatform) RemoveAll(path string) error {
	bp.logger.Debug("removing directory tree", "path", path)
	return os.RemoveAll(path)
}

func (bp *BasePlatform) IsNotExist(err error) bool {
	return os.IsNotExist(err)
}

func (bp *BasePlatform) IsExist(err error) bool {
	return os.IsExist(err)
}
