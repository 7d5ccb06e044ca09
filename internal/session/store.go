// Package session keeps login tokens and the sessions they map to.
package session

import (
	"context"
	"sync"

	"sample-app/internal/domain"
)

// Store persists sessions by token. Get reports false for an unknown token;
// expiry is left to the caller.
type Store interface {
	Put(ctx context.Context, token string, s domain.Session) error
	Get(ctx context.Context, token string) (domain.Session, bool, error)
	Delete(ctx context.Context, token string) error
}

// MemoryStore is a process local Store.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]domain.Session
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]domain.Session)}
}

func (m *MemoryStore) Put(_ context.Context, token string, s domain.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[token] = s
	return nil
}

func (m *MemoryStore) Get(_ context.Context, token string) (domain.Session, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[token]
	return s, ok, nil
}

func (m *MemoryStore) Delete(_ context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, token)
	return nil
}

// Len returns the number of stored sessions, expired ones included.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

var _ Store = (*MemoryStore)(nil)
