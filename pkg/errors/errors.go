package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorType represents different types of errors in the system
type ErrorType string

const (
	// ErrorTypeNotFound indicates a resource was not found
	ErrorTypeNotFound ErrorType = "NOT_FOUND"

	// ErrorTypeValidation indicates a validation error
	ErrorTypeValidation ErrorType = "VALIDATION"

	// ErrorTypeConflict indicates a conflict with existing data
	ErrorTypeConflict ErrorType = "CONFLICT"

	// ErrorTypeInternal indicates an internal server error
	ErrorTypeInternal ErrorType = "INTERNAL"

	// ErrorTypeExternal indicates an error from external service
	ErrorTypeExternal ErrorType = "EXTERNAL"

	// ErrorTypeInvalidTransition indicates a query is not in the status the operation requires
	ErrorTypeInvalidTransition ErrorType = "INVALID_TRANSITION"

	// ErrorTypeAlreadyAssigned indicates the patient already has a doctor
	ErrorTypeAlreadyAssigned ErrorType = "ALREADY_ASSIGNED"

	// ErrorTypeNotAssigned indicates the patient has no doctor
	ErrorTypeNotAssigned ErrorType = "NOT_ASSIGNED"

	// ErrorTypeDoctorMismatch indicates the caller is not the doctor on record
	ErrorTypeDoctorMismatch ErrorType = "DOCTOR_MISMATCH"

	// ErrorTypeUnknownPatient indicates a query referenced a patient that does not exist
	ErrorTypeUnknownPatient ErrorType = "UNKNOWN_PATIENT"

	// ErrorTypeDraftUnavailable indicates no AI draft could be produced.
	// It is logged, never returned to submitters.
	ErrorTypeDraftUnavailable ErrorType = "DRAFT_UNAVAILABLE"
)

// DetailCurrentDoctorID is the Details key carried by ALREADY_ASSIGNED errors.
const DetailCurrentDoctorID = "current_doctor_id"

// AppError represents an application error
type AppError struct {
	Type    ErrorType
	Message string
	Err     error
	Details map[string]string
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap implements the unwrap interface
func (e *AppError) Unwrap() error {
	return e.Err
}

// TypeOf returns the ErrorType of the first AppError in err's chain, or "" if there is none.
func TypeOf(err error) ErrorType {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Type
	}
	return ""
}

// IsType reports whether err wraps an AppError of type t.
func IsType(err error, t ErrorType) bool {
	return err != nil && TypeOf(err) == t
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(message string) *AppError {
	return &AppError{
		Type:    ErrorTypeNotFound,
		Message: message,
	}
}

// NewValidationError creates a new validation error
func NewValidationError(message string) *AppError {
	return &AppError{
		Type:    ErrorTypeValidation,
		Message: message,
	}
}

// NewConflictError creates a new conflict error
func NewConflictError(message string) *AppError {
	return &AppError{
		Type:    ErrorTypeConflict,
		Message: message,
	}
}

// NewInternalError creates a new internal error
func NewInternalError(message string, err error) *AppError {
	return &AppError{
		Type:    ErrorTypeInternal,
		Message: message,
		Err:     err,
	}
}

// NewExternalError creates a new external service error
func NewExternalError(message string, err error) *AppError {
	return &AppError{
		Type:    ErrorTypeExternal,
		Message: message,
		Err:     err,
	}
}

// NewInvalidTransitionError creates a new invalid transition error
func NewInvalidTransitionError(message string) *AppError {
	return &AppError{
		Type:    ErrorTypeInvalidTransition,
		Message: message,
	}
}

// NewAlreadyAssignedError creates an error carrying the doctor currently assigned to the patient
func NewAlreadyAssignedError(patientID, currentDoctorID string) *AppError {
	return &AppError{
		Type:    ErrorTypeAlreadyAssigned,
		Message: fmt.Sprintf("patient %s is already assigned to doctor %s", patientID, currentDoctorID),
		Details: map[string]string{DetailCurrentDoctorID: currentDoctorID},
	}
}

// NewNotAssignedError creates a new not assigned error
func NewNotAssignedError(patientID string) *AppError {
	return &AppError{
		Type:    ErrorTypeNotAssigned,
		Message: fmt.Sprintf("patient %s is not assigned to any doctor", patientID),
	}
}

// NewDoctorMismatchError creates a new doctor mismatch error
func NewDoctorMismatchError(message string) *AppError {
	return &AppError{
		Type:    ErrorTypeDoctorMismatch,
		Message: message,
	}
}

// NewUnknownPatientError creates a new unknown patient error
func NewUnknownPatientError(patientID string) *AppError {
	return &AppError{
		Type:    ErrorTypeUnknownPatient,
		Message: fmt.Sprintf("patient %s does not exist", patientID),
	}
}

// NewDraftUnavailableError creates a new draft unavailable error
func NewDraftUnavailableError(message string, err error) *AppError {
	return &AppError{
		Type:    ErrorTypeDraftUnavailable,
		Message: message,
		Err:     err,
	}
}
