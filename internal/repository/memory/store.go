// Package memory is an in-process connection store for development and tests.
package memory

import (
	"context"
	"sync"

	"imet-backend/internal/domain"
	"imet-backend/internal/repository"
)

// Store keeps connections in a map guarded by a RWMutex. Records are cloned on the way
// in and out so callers never share slices with the store.
type Store struct {
	mu    sync.RWMutex
	conns map[string]domain.Connection
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{conns: make(map[string]domain.Connection)}
}

// List returns every connection ordered by CreatedAt, then ID.
func (s *Store) List(ctx context.Context) ([]domain.Connection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Connection, 0, len(s.conns))
	for _, c := range s.conns {
		out = append(out, c.Clone())
	}
	repository.SortConnections(out)
	return out, nil
}

// FindByID returns the connection with id.
func (s *Store) FindByID(ctx context.Context, id string) (*domain.Connection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.conns[id]
	if !ok {
		return nil, repository.NewNotFound(id)
	}
	clone := c.Clone()
	return &clone, nil
}

// Insert adds a new connection.
func (s *Store) Insert(ctx context.Context, conn domain.Connection) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.conns[conn.ID]; exists {
		return repository.NewConflict(conn.ID, "already exists")
	}
	s.conns[conn.ID] = conn.Clone()
	return nil
}

// Save replaces a connection if the stored version still equals expectedVersion.
func (s *Store) Save(ctx context.Context, conn domain.Connection, expectedVersion int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.conns[conn.ID]
	if !ok {
		return repository.NewNotFound(conn.ID)
	}
	if current.Version != expectedVersion {
		return repository.NewConflict(conn.ID, "version mismatch")
	}
	s.conns[conn.ID] = conn.Clone()
	return nil
}

// Delete removes a connection.
func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.conns[id]; !ok {
		return repository.NewNotFound(id)
	}
	delete(s.conns, id)
	return nil
}

// Ping always succeeds.
func (s *Store) Ping(ctx context.Context) error {
	return nil
}
