package repository

import (
	"fmt"
	"sort"

	"imet-backend/internal/domain"
	appErrors "imet-backend/pkg/errors"
)

// NewNotFound reports a missing connection.
func NewNotFound(id string) error {
	return &appErrors.AppError{
		Type:    appErrors.ErrorTypeNotFound,
		Message: "Connection not found",
		Err:     fmt.Errorf("connection with ID '%s' not found", id),
	}
}

// NewConflict reports a lost optimistic version check or a duplicate id.
func NewConflict(id, reason string) error {
	return &appErrors.AppError{
		Type:    appErrors.ErrorTypeConflict,
		Message: "The connection has been modified by another request",
		Err:     fmt.Errorf("conflict with connection '%s': %s", id, reason),
	}
}

// NewStorage wraps a backend failure.
func NewStorage(operation string, err error) error {
	return appErrors.NewStorage(fmt.Sprintf("failed to %s", operation), err)
}

// IsNotFound checks if an error is a not found error.
func IsNotFound(err error) bool {
	return appErrors.IsNotFound(err)
}

// IsConflict checks if an error is a repository conflict error.
func IsConflict(err error) bool {
	return appErrors.IsConflict(err)
}

// SortConnections orders records the way List must return them.
func SortConnections(conns []domain.Connection) {
	sort.SliceStable(conns, func(i, j int) bool {
		if !conns[i].CreatedAt.Equal(conns[j].CreatedAt) {
			return conns[i].CreatedAt.Before(conns[j].CreatedAt)
		}
		return conns[i].ID < conns[j].ID
	})
}
