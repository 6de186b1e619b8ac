package validation

import (
	"fmt"
	"path/filepath"
	"runtime"

	"mediahub/pkg/logger"
	"mediahub/pkg/platform"
)

const probeName = ".mediahub-probe"

// StorageValidator checks that a local storage root can hold media before
// the server accepts uploads.
type StorageValidator struct {
	platform platform.Platform
	logger   *logger.Logger
}

func NewStorageValidator(p platform.Platform) *StorageValidator {
	return &StorageValidator{
		platform: p,
		logger:   logger.WithField("component", "storage-validator"),
	}
}

// ValidateRoot creates root if needed and verifies that files can be
// written, hard linked and removed inside it.
func (sv *StorageValidator) ValidateRoot(root string) error {
	if root == "" {
		return fmt.Errorf("storage root is empty")
	}

	if err := sv.platform.MkdirAll(root, 0o755); err != nil {
		return fmt.Errorf("cannot create storage root %s: %w", root, err)
	}

	info, err := sv.platform.Stat(root)
	if err != nil {
		return fmt.Errorf("cannot stat storage root %s: %w", root, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("storage root %s is not a directory", root)
	}

	probe := filepath.Join(root, probeName)
	linked := probe + ".link"
	defer func() {
		_ = sv.platform.Remove(probe)
		_ = sv.platform.Remove(linked)
	}()

	if err := sv.platform.WriteFile(probe, []byte("ok"), 0o644); err != nil {
		return fmt.Errorf("storage root %s is not writable: %w", root, err)
	}

	// publishing relies on link(2) failing when the target exists
	if err := sv.platform.Link(probe, linked); err != nil {
		return fmt.Errorf("storage root %s does not support hard links: %w", root, err)
	}
	if err := sv.platform.Link(probe, linked); err == nil || !sv.platform.IsExist(err) {
		return fmt.Errorf("storage root %s does not reject existing link targets", root)
	}

	sv.logger.Info("storage root validated", "root", root, "platform", runtime.GOOS)
	return nil
}
