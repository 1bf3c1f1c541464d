package errors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_Behavior(t *testing.T) {
	err := NewValidationError("invalid input").WithCode("VAL001").WithDetail("field", "name").WithComponent("test-component")
	assert.Equal(t, ErrorTypeValidation, err.Type)
	assert.Equal(t, "invalid input", err.Message)
	assert.Equal(t, "VAL001", err.Code)
	assert.Equal(t, "test-component", err.Component)
	assert.Equal(t, "name", err.Details["field"])
	assert.Equal(t, "invalid input", err.Error())
}

func TestAppError_WithCause_Unwrap(t *testing.T) {
	cause := ErrNotFound
	err := NewNotFoundError("resource").WithCause(cause)
	assert.Equal(t, cause, err.Unwrap())
}

func TestNewEmptyPathError(t *testing.T) {
	err := NewEmptyPathError()
	assert.Equal(t, ErrorTypeValidation, err.Type)
	assert.Equal(t, "EMPTY_PATH", err.Code)
	assert.True(t, errors.Is(err, ErrEmptyPath))
	assert.True(t, IsValidation(err))
}

func TestNewSpeedViolationError(t *testing.T) {
	err := NewSpeedViolationError(1, 1111.1, 15)
	assert.Equal(t, "SPEED_VIOLATION", err.Code)
	assert.Equal(t, 1, err.Details["segment_index"])
	assert.Equal(t, 1111.1, err.Details["speed_ms"])
	assert.True(t, errors.Is(err, ErrSpeedViolation))
	assert.Contains(t, err.Message, "segment 1")
	assert.Contains(t, err.Message, "1111.1 m/s")
}

func TestNewStoreUnavailableError(t *testing.T) {
	cause := errors.New("connection reset")
	err := NewStoreUnavailableError(cause)
	assert.Equal(t, ErrorTypeInfrastructure, err.Type)
	assert.True(t, errors.Is(err, ErrStoreUnavailable))
	assert.True(t, errors.Is(err, cause))
	assert.True(t, IsStoreUnavailable(err))
	// Client-visible message must not leak store internals.
	assert.NotContains(t, err.Message, "connection reset")
}

func TestValidationErrors(t *testing.T) {
	ve := NewValidationErrors()
	ve.Add("path", "must be set", "")
	assert.True(t, ve.HasErrors())
	appErr := ve.ToAppError()
	assert.NotNil(t, appErr)
	assert.Equal(t, ErrorTypeValidation, appErr.Type)
}

func TestErrorKindHelpers(t *testing.T) {
	nf := NewNotFoundError("tile")
	assert.True(t, IsNotFound(nf))
	assert.False(t, IsValidation(nf))
	assert.False(t, IsAuthentication(nf))

	assert.True(t, IsNotFound(ErrTileNotFound))
	assert.True(t, IsValidation(ErrEmptyPath))
	assert.True(t, IsAuthentication(NewAuthenticationError("bad")))
	assert.True(t, IsConflict(NewConflictError("dup")))
}
