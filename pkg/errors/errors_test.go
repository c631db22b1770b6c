package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_Error(t *testing.T) {
	err := NewInternalError("failed to save snapshot", stderrors.New("disk full"))
	assert.Equal(t, "INTERNAL: failed to save snapshot: disk full", err.Error())

	err = NewNotFoundError("query query_9 not found")
	assert.Equal(t, "NOT_FOUND: query query_9 not found", err.Error())
}

func TestIsType_ThroughWrapping(t *testing.T) {
	base := NewInvalidTransitionError("query query_1 is completed")
	wrapped := fmt.Errorf("take query: %w", base)

	assert.True(t, IsType(wrapped, ErrorTypeInvalidTransition))
	assert.False(t, IsType(wrapped, ErrorTypeNotFound))
	assert.Equal(t, ErrorTypeInvalidTransition, TypeOf(wrapped))
	assert.False(t, IsType(nil, ErrorTypeInvalidTransition))
	assert.Equal(t, ErrorType(""), TypeOf(stderrors.New("plain")))
}

func TestNewAlreadyAssignedError_CarriesCurrentDoctor(t *testing.T) {
	err := NewAlreadyAssignedError("patient_1", "doctor_1")

	assert.Equal(t, ErrorTypeAlreadyAssigned, err.Type)
	assert.Equal(t, "doctor_1", err.Details[DetailCurrentDoctorID])
	assert.Contains(t, err.Message, "doctor_1")
}
