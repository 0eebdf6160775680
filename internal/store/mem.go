// ABOUTME: In-memory Store implementation for unit tests
// ABOUTME: Map-backed parameter and connection storage with the same semantics as SQLite

package store

import (
	"context"
	"sync"
	"time"
)

// MemStore is an in-memory Store implementation for tests.
type MemStore struct {
	mu          sync.RWMutex
	parameters  map[string]*Parameter
	connections map[string]*Connection

	// GetParameterCalls counts resolution attempts, used by bootstrap
	// idempotence tests.
	GetParameterCalls int
}

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{
		parameters:  make(map[string]*Parameter),
		connections: make(map[string]*Connection),
	}
}

func (m *MemStore) GetParameter(ctx context.Context, name string, decrypt bool) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.GetParameterCalls++
	p, ok := m.parameters[name]
	if !ok {
		return "", ErrNotFound
	}
	if p.Secret && !decrypt {
		return "", ErrNotFound
	}
	return p.Value, nil
}

func (m *MemStore) PutParameter(ctx context.Context, p *Parameter) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *p
	if cp.UpdatedAt.IsZero() {
		cp.UpdatedAt = time.Now().UTC()
	}
	m.parameters[cp.Name] = &cp
	return nil
}

func (m *MemStore) PutConnection(ctx context.Context, conn *Connection) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *conn
	m.connections[cp.ID] = &cp
	return nil
}

func (m *MemStore) GetConnection(ctx context.Context, id string) (*Connection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	conn, ok := m.connections[id]
	if !ok {
		return nil, ErrNotFound
	}
	if time.Now().After(conn.ExpiresAt) {
		delete(m.connections, id)
		return nil, ErrNotFound
	}
	cp := *conn
	return &cp, nil
}

func (m *MemStore) DeleteConnection(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.connections, id)
	return nil
}

func (m *MemStore) PurgeExpiredConnections(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	var purged int
	for id, conn := range m.connections {
		if now.After(conn.ExpiresAt) {
			delete(m.connections, id)
			purged++
		}
	}
	return purged, nil
}

// ConnectionCount reports how many connection records are held, for
// registry lifecycle tests.
func (m *MemStore) ConnectionCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.connections)
}

func (m *MemStore) Close() error { return nil }
