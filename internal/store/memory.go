package store

import (
	"context"
	"sync"
	"time"

	"wattsup/internal/diagram"
)

// MemoryStore keeps every saved snapshot in process memory.
type MemoryStore struct {
	mu    sync.RWMutex
	saved map[string][]*diagram.Snapshot
	now   func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{saved: make(map[string][]*diagram.Snapshot), now: time.Now}
}

func (m *MemoryStore) Save(_ context.Context, s *diagram.Snapshot) error {
	if err := stamp(s, m.now); err != nil {
		return err
	}
	cp := copySnapshot(s)

	m.mu.Lock()
	m.saved[s.UserID] = append(m.saved[s.UserID], cp)
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Latest(_ context.Context, userID string) (*diagram.Snapshot, error) {
	if err := validUser(userID); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	history := m.saved[userID]
	if len(history) == 0 {
		return nil, ErrNotFound
	}
	return copySnapshot(history[len(history)-1]), nil
}

// History returns how many snapshots userID has saved.
func (m *MemoryStore) History(userID string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.saved[userID])
}

func (m *MemoryStore) Close(context.Context) error { return nil }

func copySnapshot(s *diagram.Snapshot) *diagram.Snapshot {
	cp := *s
	cp.Elements = append([]diagram.ElementRecord(nil), s.Elements...)
	cp.Wires = append([]diagram.WireRecord(nil), s.Wires...)
	return &cp
}

var _ Store = (*MemoryStore)(nil)
