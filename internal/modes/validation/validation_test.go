package validation

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mediahub/pkg/platform"
)

func TestValidateRoot(t *testing.T) {
	root := filepath.Join(t.TempDir(), "store")

	err := NewStorageValidator(platform.NewPlatform()).ValidateRoot(root)
	require.NoError(t, err)

	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	assert.Empty(t, entries, "validation files must be cleaned up")
}

func TestValidateRoot_NotADirectory(t *testing.T) {
	file := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

	err := NewStorageValidator(platform.NewPlatform()).ValidateRoot(file)
	assert.Error(t, err)
}

func TestValidateRoot_Empty(t *testing.T) {
	err := NewStorageValidator(platform.NewPlatform()).ValidateRoot("")
	assert.Error(t, err)
}

func TestValidateRoot_LinkFailure(t *testing.T) {
	mp := platform.NewMockPlatform()
	mp.Set(func(mp *platform.MockPlatform) { mp.ShouldFailLink = true })

	err := NewStorageValidator(mp).ValidateRoot(t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "hard links")
	assert.Len(t, mp.LinkCalls, 1)
}
