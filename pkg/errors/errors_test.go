package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPredicates(t *testing.T) {
	cause := stderrors.New("boom")

	tests := []struct {
		name string
		err  error
		want ErrorType
	}{
		{"validation", NewValidation("bad"), ErrorTypeValidation},
		{"not found", NewNotFound("missing"), ErrorTypeNotFound},
		{"conflict", NewConflict("stale"), ErrorTypeConflict},
		{"upstream", NewUpstream("llm", cause), ErrorTypeUpstream},
		{"storage", NewStorage("ddb", cause), ErrorTypeStorage},
		{"internal", NewInternal("oops", cause), ErrorTypeInternal},
		{"plain error", cause, ErrorTypeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TypeOf(tt.err))
		})
	}
}

func TestPredicatesSeeThroughWrapping(t *testing.T) {
	err := fmt.Errorf("handler: %w", NewNotFound("Connection not found"))

	assert.True(t, IsNotFound(err))
	assert.False(t, IsValidation(err))
	assert.Equal(t, "Connection not found", Message(err))
}

func TestWrap(t *testing.T) {
	t.Run("Should preserve the type of an AppError", func(t *testing.T) {
		err := Wrap(NewConflict("version mismatch"), "update connection")

		assert.True(t, IsConflict(err))
		assert.Equal(t, "update connection: version mismatch", Message(err))
	})

	t.Run("Should classify foreign errors as internal", func(t *testing.T) {
		cause := stderrors.New("disk full")
		err := Wrap(cause, "save")

		assert.True(t, IsInternal(err))
		assert.ErrorIs(t, err, cause)
	})

	t.Run("Should return nil for nil", func(t *testing.T) {
		assert.NoError(t, Wrap(nil, "noop"))
	})
}
