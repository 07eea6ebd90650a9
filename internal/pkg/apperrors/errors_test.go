package apperrors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppErrorError(t *testing.T) {
	tests := []struct {
		name     string
		appError *AppError
		expected string
	}{
		{
			name: "With Code",
			appError: &AppError{
				Code:    "LOAN_NOT_FOUND",
				Message: "Loan not found in repository",
			},
			expected: "[LOAN_NOT_FOUND] Loan not found in repository",
		},
		{
			name: "Without Code",
			appError: &AppError{
				Message: "Loan not found in repository",
			},
			expected: "Loan not found in repository",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.appError.Error()
			if result != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, result)
			}
		})
	}
}

func TestAppErrorUnwrap(t *testing.T) {
	err := &AppError{Code: "LOAN_NOT_FOUND", Message: "missing", Cause: ErrNotFound}

	assert.True(t, errors.Is(err, ErrNotFound))
	assert.False(t, errors.Is(err, ErrDatabase))
}

func TestNewValidationError(t *testing.T) {
	err := NewValidationError("status", "unknown loan status")

	assert.True(t, errors.Is(err, ErrValidation))

	var validationErr *ValidationError
	assert.True(t, errors.As(err, &validationErr))
	assert.Equal(t, "status", validationErr.Field)
	assert.Equal(t, "validation failed for field 'status': unknown loan status", validationErr.Error())
}

func TestWrapDatabaseError(t *testing.T) {
	cause := errors.New("connection reset")
	err := WrapDatabaseError(cause, "failed to save loan")

	assert.Equal(t, "[DB_ERROR] failed to save loan", err.Error())
	assert.True(t, errors.Is(err, ErrDatabase))
	assert.True(t, errors.Is(err, cause))
}
