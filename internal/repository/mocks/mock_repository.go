// Package mocks provides mock implementations of repository interfaces for testing.
package mocks

import (
	"context"
	"sync"

	"imet-backend/internal/domain"
	"imet-backend/internal/repository"
	"imet-backend/internal/repository/memory"
)

// MockRepository is an in-memory ConnectionRepository with error injection and call
// counting, for unit testing services without a real database.
type MockRepository struct {
	mu sync.Mutex

	store *memory.Store

	// For testing error scenarios
	shouldFailOn    map[string]error
	saveConflicts   int
	beforeSaveHooks []func()
	calls           map[string]int
}

// NewMockRepository creates a new mock repository instance.
func NewMockRepository() *MockRepository {
	return &MockRepository{
		store:        memory.NewStore(),
		shouldFailOn: make(map[string]error),
		calls:        make(map[string]int),
	}
}

// SetError configures the mock to return an error for a specific method.
func (m *MockRepository) SetError(method string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.shouldFailOn[method] = err
}

// ClearErrors removes all configured errors.
func (m *MockRepository) ClearErrors() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.shouldFailOn = make(map[string]error)
	m.saveConflicts = 0
}

// FailSavesWithConflict makes the next n Save calls report a version conflict.
func (m *MockRepository) FailSavesWithConflict(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saveConflicts = n
}

// BeforeSave registers fn to run at the start of the next Save, which lets a test
// simulate a concurrent writer.
func (m *MockRepository) BeforeSave(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.beforeSaveHooks = append(m.beforeSaveHooks, fn)
}

// Calls returns how many times method was invoked.
func (m *MockRepository) Calls(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[method]
}

// Seed inserts records directly, bypassing error injection and call counting.
func (m *MockRepository) Seed(conns ...domain.Connection) {
	for _, c := range conns {
		_ = m.store.Insert(context.Background(), c)
	}
}

// checkError records the call and returns an error if one is configured for method.
func (m *MockRepository) checkError(method string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls[method]++
	if err, exists := m.shouldFailOn[method]; exists {
		return err
	}
	return nil
}

func (m *MockRepository) List(ctx context.Context) ([]domain.Connection, error) {
	if err := m.checkError("List"); err != nil {
		return nil, err
	}
	return m.store.List(ctx)
}

func (m *MockRepository) FindByID(ctx context.Context, id string) (*domain.Connection, error) {
	if err := m.checkError("FindByID"); err != nil {
		return nil, err
	}
	return m.store.FindByID(ctx, id)
}

func (m *MockRepository) Insert(ctx context.Context, conn domain.Connection) error {
	if err := m.checkError("Insert"); err != nil {
		return err
	}
	return m.store.Insert(ctx, conn)
}

func (m *MockRepository) Save(ctx context.Context, conn domain.Connection, expectedVersion int) error {
	if err := m.checkError("Save"); err != nil {
		return err
	}

	m.mu.Lock()
	hooks := m.beforeSaveHooks
	m.beforeSaveHooks = nil
	conflict := m.saveConflicts > 0
	if conflict {
		m.saveConflicts--
	}
	m.mu.Unlock()

	for _, hook := range hooks {
		hook()
	}
	if conflict {
		return repository.NewConflict(conn.ID, "injected conflict")
	}
	return m.store.Save(ctx, conn, expectedVersion)
}

func (m *MockRepository) Delete(ctx context.Context, id string) error {
	if err := m.checkError("Delete"); err != nil {
		return err
	}
	return m.store.Delete(ctx, id)
}

func (m *MockRepository) Ping(ctx context.Context) error {
	return m.checkError("Ping")
}

var _ repository.ConnectionRepository = (*MockRepository)(nil)
