package apperrors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidationError(t *testing.T) {
	t.Run("should name the offending field in the message", func(t *testing.T) {
		err := &ValidationError{Field: "tenure", Message: "must be positive"}
		assert.Equal(t, "validation failed for field 'tenure': must be positive", err.Error())
	})

	t.Run("should format without a field", func(t *testing.T) {
		err := &ValidationError{Message: "request body is empty"}
		assert.Equal(t, "validation failed: request body is empty", err.Error())
	})

	t.Run("should unwrap its cause", func(t *testing.T) {
		cause := errors.New("boom")
		err := &ValidationError{Message: "bad input", Cause: cause}
		assert.ErrorIs(t, err, cause)
	})
}

func TestNewValidationError(t *testing.T) {
	err := NewValidationError("age", "must be between 18 and 100")

	assert.ErrorIs(t, err, ErrValidation)

	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "age", vErr.Field)
	assert.Equal(t, "must be between 18 and 100", vErr.Message)
}

func TestAppError(t *testing.T) {
	t.Run("should prefix the code when present", func(t *testing.T) {
		err := &AppError{Code: "DB_ERROR", Message: "query failed"}
		assert.Equal(t, "[DB_ERROR] query failed", err.Error())
	})

	t.Run("should format without a code", func(t *testing.T) {
		err := &AppError{Message: "something went wrong"}
		assert.Equal(t, "something went wrong", err.Error())
	})
}

func TestWrapDatabaseError(t *testing.T) {
	cause := errors.New("connection refused")
	err := WrapDatabaseError(cause, "failed to find customer")

	assert.ErrorIs(t, err, ErrDatabase)
	assert.ErrorIs(t, err, cause)

	var appErr *AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "DB_ERROR", appErr.Code)
	assert.Equal(t, "failed to find customer", appErr.Message)
}
