package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/zatekoja/Medicalqueryreview/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/Medicalqueryreview/pkg/errors"
)

// maxBodyBytes bounds request bodies
const maxBodyBytes = 1 << 20

type errorResponse struct {
	Error   string            `json:"error"`
	Type    string            `json:"type,omitempty"`
	Details map[string]string `json:"details,omitempty"`
}

func respondWithJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(payload)
}

func respondWithError(w http.ResponseWriter, statusCode int, message string) {
	respondWithJSON(w, statusCode, errorResponse{
		Error: message,
		Type:  string(apperrors.ErrorTypeValidation),
	})
}

// respondWithAppError maps a service error onto an HTTP status and error body
func respondWithAppError(w http.ResponseWriter, r *http.Request, err error) {
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		observability.LoggerFromContext(r.Context()).Error().Err(err).Msg("unexpected error")
		respondWithJSON(w, http.StatusInternalServerError, errorResponse{
			Error: "internal server error",
			Type:  string(apperrors.ErrorTypeInternal),
		})
		return
	}

	status := statusForError(appErr.Type)
	message := appErr.Message
	if status >= http.StatusInternalServerError {
		observability.LoggerFromContext(r.Context()).Error().Err(err).Msg("request failed")
		message = "internal server error"
	}
	respondWithJSON(w, status, errorResponse{
		Error:   message,
		Type:    string(appErr.Type),
		Details: appErr.Details,
	})
}

func statusForError(t apperrors.ErrorType) int {
	switch t {
	case apperrors.ErrorTypeNotFound:
		return http.StatusNotFound
	case apperrors.ErrorTypeInvalidTransition,
		apperrors.ErrorTypeAlreadyAssigned,
		apperrors.ErrorTypeNotAssigned,
		apperrors.ErrorTypeConflict:
		return http.StatusConflict
	case apperrors.ErrorTypeDoctorMismatch:
		return http.StatusForbidden
	case apperrors.ErrorTypeUnknownPatient:
		return http.StatusUnprocessableEntity
	case apperrors.ErrorTypeValidation:
		return http.StatusBadRequest
	case apperrors.ErrorTypeExternal:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// decodeJSON reads a JSON body into dst, rejecting unknown fields
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			respondWithError(w, http.StatusBadRequest, "request body is required")
			return false
		}
		respondWithError(w, http.StatusBadRequest, "invalid request payload")
		return false
	}
	return true
}
