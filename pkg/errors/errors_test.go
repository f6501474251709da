package errors_test

import (
	stderrors "errors"
	"fmt"
	"testing"

	apperrors "github.com/rihla-rentals/backend/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestAppError_Error(t *testing.T) {
	err := apperrors.NewInternalError("failed to insert", stderrors.New("connection reset"))
	assert.Equal(t, "INTERNAL: failed to insert: connection reset", err.Error())

	notFound := apperrors.NewNotFoundError("vehicle 7 not found")
	assert.Equal(t, "NOT_FOUND: vehicle 7 not found", notFound.Error())
}

func TestAppError_Unwrap(t *testing.T) {
	cause := stderrors.New("boom")
	err := apperrors.NewInternalError("store failure", cause)
	assert.ErrorIs(t, err, cause)
}

func TestIsNotFound_WrappedChain(t *testing.T) {
	err := fmt.Errorf("similar generator: %w", apperrors.NewNotFoundError("missing"))
	assert.True(t, apperrors.IsNotFound(err))
	assert.False(t, apperrors.IsValidation(err))
	assert.False(t, apperrors.IsNotFound(stderrors.New("plain")))
	assert.False(t, apperrors.IsNotFound(nil))
}

func TestTypeOf(t *testing.T) {
	assert.Equal(t, apperrors.ErrorTypeValidation, apperrors.TypeOf(apperrors.NewValidationError("bad")))
	assert.Equal(t, apperrors.ErrorType(""), apperrors.TypeOf(stderrors.New("plain")))
}
