package lock

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is an in-process lock table with the same staleness semantics as
// Store. Suitable for single-process deployments and tests.
type MemoryStore struct {
	mu         sync.Mutex
	held       map[uuid.UUID]time.Time
	staleAfter time.Duration
	nowFunc    func() time.Time
}

// NewMemoryStore builds an in-memory lock table.
func NewMemoryStore(staleAfter time.Duration) *MemoryStore {
	return &MemoryStore{
		held:       make(map[uuid.UUID]time.Time),
		staleAfter: staleAfter,
		nowFunc:    time.Now,
	}
}

// Acquire takes the lock unless a fresh one is already held for the user.
func (m *MemoryStore) Acquire(ctx context.Context, userID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.nowFunc()
	if takenAt, ok := m.held[userID]; ok {
		if now.Sub(takenAt) < m.staleAfter {
			return ErrBusy
		}
	}
	m.held[userID] = now
	return nil
}

// Release clears the lock for the user. Idempotent.
func (m *MemoryStore) Release(ctx context.Context, userID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.held, userID)
	return nil
}
