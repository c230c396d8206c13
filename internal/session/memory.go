package session

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	values    map[string]string
	expiresAt time.Time
}

// MemoryStore keeps sessions in process. Used when no Redis is configured.
type MemoryStore struct {
	mu       sync.Mutex
	ttl      time.Duration
	sessions map[string]*memoryEntry
	now      func() time.Time
}

// NewMemoryStore creates a MemoryStore. A zero ttl never expires sessions.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{ttl: ttl, sessions: make(map[string]*memoryEntry), now: time.Now}
}

// entry returns the live entry for id, dropping it when expired. Callers hold mu.
func (m *MemoryStore) entry(id string) *memoryEntry {
	e, ok := m.sessions[id]
	if !ok {
		return nil
	}
	if m.ttl > 0 && m.now().After(e.expiresAt) {
		delete(m.sessions, id)
		return nil
	}
	return e
}

func (m *MemoryStore) touch(e *memoryEntry) {
	if m.ttl > 0 {
		e.expiresAt = m.now().Add(m.ttl)
	}
}

func (m *MemoryStore) Get(_ context.Context, id, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e := m.entry(id)
	if e == nil {
		return "", false, nil
	}
	v, ok := e.values[key]
	return v, ok, nil
}

func (m *MemoryStore) Set(_ context.Context, id string, values map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	e := m.entry(id)
	if e == nil {
		e = &memoryEntry{values: make(map[string]string)}
		m.sessions[id] = e
	}
	for k, v := range values {
		e.values[k] = v
	}
	m.touch(e)
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, id string, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if e := m.entry(id); e != nil {
		for _, k := range keys {
			delete(e.values, k)
		}
		m.touch(e)
	}
	return nil
}
