package state

import (
	"context"
	"sync"
)

// MemoryManager keeps states in a map. Useful for tests and development.
type MemoryManager struct {
	mu     sync.RWMutex
	states map[int64]State
}

// NewMemoryManager constructs an empty in-memory Manager.
func NewMemoryManager() *MemoryManager {
	return &MemoryManager{states: make(map[int64]State)}
}

// GetState returns the stored state or Idle.
func (m *MemoryManager) GetState(_ context.Context, userID int64) (State, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.states[userID], nil
}

// SetState overwrites the user's state.
func (m *MemoryManager) SetState(_ context.Context, userID int64, st State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.states[userID] = st
	return nil
}
