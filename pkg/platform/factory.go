package platform

import (
	"sync"
)

var (
	currentPlatform Platform
	platformOnce    sync.Once
)

// NewPlatform returns the process-wide os-backed platform
func NewPlatform() Platform {
	platformOnce.Do(func() {
		currentPlatform = &OSPlatform{
			BasePlatform: NewBasePlatform(),
		}
	})
	return currentPlatform
}
