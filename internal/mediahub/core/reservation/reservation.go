// Package reservation claims a media name for the lifetime of one upload so
// a second upload of the same name is refused before it writes anything.
package reservation

import (
	"context"
	"sync"
)

// Reserver hands out exclusive claims on media names. release is non-nil
// only when granted is true and must be called exactly once.
type Reserver interface {
	Reserve(ctx context.Context, name string) (release func(), granted bool, err error)
}

var _ Reserver = &Memory{}

// Memory keeps reservations in a process-local set.
type Memory struct {
	mu       sync.Mutex
	reserved map[string]struct{}
}

func NewMemory() *Memory {
	return &Memory{reserved: make(map[string]struct{})}
}

func (m *Memory) Reserve(ctx context.Context, name string) (func(), bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, taken := m.reserved[name]; taken {
		return nil, false, nil
	}
	m.reserved[name] = struct{}{}

	var once sync.Once
	release := func() {
		once.Do(func() {
			m.mu.Lock()
			delete(m.reserved, name)
			m.mu.Unlock()
		})
	}
	return release, true, nil
}

// Held reports the number of outstanding reservations.
func (m *Memory) Held() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.reserved)
}
