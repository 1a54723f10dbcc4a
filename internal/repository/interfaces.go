// Package repository defines the connection store contract and its error vocabulary.
package repository

import (
	"context"

	"imet-backend/internal/domain"
)

// ConnectionRepository is a durable keyed collection of connection records.
//
// Writes are per-record and conditional: Insert fails with a conflict when the id
// already exists, Save fails with a conflict unless the stored version equals
// expectedVersion. List returns records ordered by CreatedAt, then ID.
type ConnectionRepository interface {
	List(ctx context.Context) ([]domain.Connection, error)
	FindByID(ctx context.Context, id string) (*domain.Connection, error)
	Insert(ctx context.Context, conn domain.Connection) error
	Save(ctx context.Context, conn domain.Connection, expectedVersion int) error
	Delete(ctx context.Context, id string) error
}

// HealthChecker is implemented by stores that can report readiness.
type HealthChecker interface {
	Ping(ctx context.Context) error
}
