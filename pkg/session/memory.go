package session

import (
	"context"
	"sync"

	"github.com/jemygraw/deepresearch/pkg/core"
)

// MemoryStore keeps history in process memory. It is the default backend;
// history is lost on restart.
type MemoryStore struct {
	mu    sync.RWMutex
	turns map[string][]core.Turn
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{turns: make(map[string][]core.Turn)}
}

// Append adds turns to the session's history.
func (m *MemoryStore) Append(_ context.Context, sessionID string, turns ...core.Turn) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.turns[sessionID] = append(m.turns[sessionID], turns...)
	return nil
}

// History returns a copy of the session's turns, oldest first.
func (m *MemoryStore) History(_ context.Context, sessionID string) ([]core.Turn, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	stored := m.turns[sessionID]
	out := make([]core.Turn, len(stored))
	copy(out, stored)
	return out, nil
}

// Clear removes the session's history.
func (m *MemoryStore) Clear(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.turns, sessionID)
	return nil
}

// Close is a no-op for the in-memory store.
func (m *MemoryStore) Close() error {
	return nil
}
