package store

import (
	"errors"
	"sync"
	"time"

	"github.com/i474232898/weather-lookup/internal/session"
)

var (
	// ErrNotFound is returned when no live session has the given id.
	ErrNotFound = errors.New("session not found")
)

// MemoryStore is a concurrency-safe in-memory registry of live sessions.
// Nothing outlives the process.
type MemoryStore struct {
	mu sync.RWMutex

	// key: session id
	data map[string]*session.Session

	// idle sessions older than maxAge are torn down by EvictIdle (0 = never)
	maxAge time.Duration
	now    func() time.Time
}

// NewMemoryStore creates a new MemoryStore.
func NewMemoryStore(maxAge time.Duration) *MemoryStore {
	return &MemoryStore{
		data:   make(map[string]*session.Session),
		maxAge: maxAge,
		now:    time.Now,
	}
}

// Save registers s, replacing (and closing) any session with the same id.
func (m *MemoryStore) Save(s *session.Session) {
	m.mu.Lock()
	prev, ok := m.data[s.ID()]
	m.data[s.ID()] = s
	m.mu.Unlock()

	if ok && prev != s {
		prev.Close()
	}
}

// Get returns the live session with id.
func (m *MemoryStore) Get(id string) (*session.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.data[id]
	if !ok || !s.Alive() {
		return nil, ErrNotFound
	}
	return s, nil
}

// Delete tears down and forgets the session with id.
func (m *MemoryStore) Delete(id string) error {
	m.mu.Lock()
	s, ok := m.data[id]
	delete(m.data, id)
	m.mu.Unlock()

	if !ok {
		return ErrNotFound
	}
	s.Close()
	return nil
}

// Len returns the number of registered sessions.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.data)
}

// EvictIdle closes and removes sessions not touched within maxAge, plus any
// that were already closed. It returns how many were removed.
func (m *MemoryStore) EvictIdle() int {
	var cutoff time.Time
	if m.maxAge > 0 {
		cutoff = m.now().Add(-m.maxAge)
	}

	m.mu.Lock()
	var evicted []*session.Session
	for id, s := range m.data {
		if !s.Alive() || (!cutoff.IsZero() && s.LastActive().Before(cutoff)) {
			evicted = append(evicted, s)
			delete(m.data, id)
		}
	}
	m.mu.Unlock()

	for _, s := range evicted {
		s.Close()
	}
	return len(evicted)
}

// CloseAll tears down every session; used on shutdown.
func (m *MemoryStore) CloseAll() {
	m.mu.Lock()
	all := m.data
	m.data = make(map[string]*session.Session)
	m.mu.Unlock()

	for _, s := range all {
		s.Close()
	}
}
