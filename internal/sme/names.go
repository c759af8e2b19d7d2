package sme

import (
	"context"
	"maps"
	"sync"
)

// NameCache maps metadata field ids to display names. It is populated once
// from the first metadata response that carries names and read by every
// request after that. Concurrent first population is tolerated: every
// population stores the same names.
type NameCache interface {
	Populated(ctx context.Context) bool
	Names(ctx context.Context) map[string]string
	Store(ctx context.Context, names map[string]string)
}

// MemoryNames is a process-local NameCache.
type MemoryNames struct {
	mu    sync.RWMutex
	names map[string]string
}

// NewMemoryNames returns an empty in-memory cache.
func NewMemoryNames() *MemoryNames {
	return &MemoryNames{names: make(map[string]string)}
}

func (m *MemoryNames) Populated(context.Context) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.names) > 0
}

// Names returns a copy of the cached names.
func (m *MemoryNames) Names(context.Context) map[string]string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return maps.Clone(m.names)
}

func (m *MemoryNames) Store(_ context.Context, names map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	maps.Copy(m.names, names)
}
