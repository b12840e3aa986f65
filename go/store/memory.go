package store

import (
	"context"
	"sync"
)

// Memory is an in-process Store used by tests and local development.
type Memory struct {
	mu      sync.Mutex
	objects map[string][]byte
}

// NewMemory returns an empty Memory store.
func NewMemory() *Memory {
	return &Memory{objects: make(map[string][]byte)}
}

func (m *Memory) Get(_ context.Context, path string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var data, ok = m.objects[path]
	if !ok {
		return nil, ErrNotExist
	}
	// Copy, so callers cannot alias the stored object.
	var out = make([]byte, len(data))
	copy(out, data)
	return out, nil
}

func (m *Memory) Put(_ context.Context, path string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var cp = make([]byte, len(data))
	copy(cp, data)
	m.objects[path] = cp
	return nil
}

// Paths returns the set of object paths currently stored.
func (m *Memory) Paths() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []string
	for path := range m.objects {
		out = append(out, path)
	}
	return out
}
