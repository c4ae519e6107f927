package sessions

import (
	"context"
	"sync"
	"time"
)

// MemoryStore держит сессии в памяти процесса. Истёкшие читаются как Idle
// и удаляются в Sweep.
type MemoryStore struct {
	mu    sync.RWMutex
	items map[Key]Session
	now   func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: make(map[Key]Session), now: time.Now}
}

func (m *MemoryStore) Get(_ context.Context, k Key) (Session, error) {
	m.mu.RLock()
	s, ok := m.items[k]
	m.mu.RUnlock()
	if !ok || s.Expired(m.now()) {
		return Idle(k), nil
	}
	return s, nil
}

func (m *MemoryStore) Save(_ context.Context, s Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s.State == StateIdle {
		delete(m.items, s.Key())
		return nil
	}
	m.items[s.Key()] = s
	return nil
}

func (m *MemoryStore) Clear(_ context.Context, k Key) error {
	m.mu.Lock()
	delete(m.items, k)
	m.mu.Unlock()
	return nil
}

// Sweep удаляет истёкшие сессии и возвращает их число.
func (m *MemoryStore) Sweep(_ context.Context) int {
	now := m.now()
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for k, s := range m.items {
		if s.Expired(now) {
			delete(m.items, k)
			n++
		}
	}
	return n
}

func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.items)
}
