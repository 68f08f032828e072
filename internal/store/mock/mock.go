// Package mock provides an in-memory store implementation for testing.
package mock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kozaktomas/door-dashboard/internal/store"
)

// Store is an in-memory implementation of store.Store.
type Store struct {
	mu         sync.RWMutex
	users      []store.User
	logs       []store.AccessLog
	embeddings map[string][]float64
	nextID     int64

	// Error injection
	AddUserError         error
	DeleteUserError      error
	GetAllUsersError     error
	RecentLogsError      error
	SaveEmbeddingError   error
	DeleteEmbeddingError error
}

// New creates a new mock store.
func New() *Store {
	return &Store{
		embeddings: make(map[string][]float64),
		nextID:     1,
	}
}

// SeedUser adds a user row directly, bypassing AddUser bookkeeping.
func (m *Store) SeedUser(u store.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u.ID == 0 {
		u.ID = m.nextID
		m.nextID++
	}
	m.users = append(m.users, u)
}

// SeedLog adds an access log row directly.
func (m *Store) SeedLog(l store.AccessLog) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if l.ID == 0 {
		l.ID = int64(len(m.logs) + 1)
	}
	m.logs = append(m.logs, l)
}

// Users returns a copy of the current user rows.
func (m *Store) Users() []store.User {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]store.User, len(m.users))
	copy(out, m.users)
	return out
}

// Embedding returns the mirrored embedding for a user, or nil.
func (m *Store) Embedding(name string) []float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.embeddings[name]
}

// AddUser inserts a user row with a fresh UID.
func (m *Store) AddUser(ctx context.Context, name string) (store.User, error) {
	if m.AddUserError != nil {
		return store.User{}, m.AddUserError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Name == name {
			return store.User{}, fmt.Errorf("user %q already exists", name)
		}
	}
	u := store.User{
		ID:        m.nextID,
		UID:       uuid.NewString(),
		Name:      name,
		CreatedAt: time.Now(),
	}
	m.nextID++
	m.users = append(m.users, u)
	return u, nil
}

// DeleteUser removes a user row, tolerating absent names.
func (m *Store) DeleteUser(ctx context.Context, name string) error {
	if m.DeleteUserError != nil {
		return m.DeleteUserError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, u := range m.users {
		if u.Name == name {
			m.users = append(m.users[:i], m.users[i+1:]...)
			break
		}
	}
	return nil
}

// GetAllUsers returns all user rows in insertion order.
func (m *Store) GetAllUsers(ctx context.Context) ([]store.User, error) {
	if m.GetAllUsersError != nil {
		return nil, m.GetAllUsersError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]store.User, len(m.users))
	copy(out, m.users)
	return out, nil
}

// RecentAccessLogs returns up to limit rows, newest first.
func (m *Store) RecentAccessLogs(ctx context.Context, limit int) ([]store.AccessLog, error) {
	if m.RecentLogsError != nil {
		return nil, m.RecentLogsError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]store.AccessLog, len(m.logs))
	copy(out, m.logs)
	// Newest first.
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// SaveEmbedding mirrors a user's embedding in memory.
func (m *Store) SaveEmbedding(ctx context.Context, name string, vector []float64) error {
	if m.SaveEmbeddingError != nil {
		return m.SaveEmbeddingError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	vec := make([]float64, len(vector))
	copy(vec, vector)
	m.embeddings[name] = vec
	return nil
}

// DeleteEmbedding clears the mirrored embedding for a user.
func (m *Store) DeleteEmbedding(ctx context.Context, name string) error {
	if m.DeleteEmbeddingError != nil {
		return m.DeleteEmbeddingError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.embeddings, name)
	return nil
}

// Close is a no-op for the mock store.
func (m *Store) Close() error {
	return nil
}
