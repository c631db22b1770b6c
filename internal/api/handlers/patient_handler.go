package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/zatekoja/Medicalqueryreview/internal/domain/entities"
)

// PatientService defines the patient operations used by the handler
type PatientService interface {
	Register(ctx context.Context, name, condition, email string) string
	Get(ctx context.Context, id string) (*entities.Patient, error)
	ListUnassigned(ctx context.Context) []*entities.Patient
	Assign(ctx context.Context, patientID, doctorID string) error
	Unassign(ctx context.Context, patientID, doctorID string) error
}

// PatientHandler handles patient-related HTTP requests
type PatientHandler struct {
	service PatientService
}

// NewPatientHandler creates a new patient handler
func NewPatientHandler(service PatientService) *PatientHandler {
	return &PatientHandler{service: service}
}

type registerPatientRequest struct {
	Name      string `json:"name"`
	Condition string `json:"condition"`
	Email     string `json:"email"`
}

type assignmentRequest struct {
	DoctorID string `json:"doctor_id"`
}

// RegisterPatient handles POST /api/patients
func (h *PatientHandler) RegisterPatient(w http.ResponseWriter, r *http.Request) {
	var req registerPatientRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		respondWithError(w, http.StatusBadRequest, "name is required")
		return
	}

	id := h.service.Register(r.Context(), strings.TrimSpace(req.Name), strings.TrimSpace(req.Condition), strings.TrimSpace(req.Email))
	patient, err := h.service.Get(r.Context(), id)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, patient)
}

// GetPatient handles GET /api/patients/{id}
func (h *PatientHandler) GetPatient(w http.ResponseWriter, r *http.Request) {
	patient, err := h.service.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, patient)
}

// ListUnassigned handles GET /api/patients/unassigned
func (h *PatientHandler) ListUnassigned(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, h.service.ListUnassigned(r.Context()))
}

// AssignPatient handles POST /api/patients/{id}/assign
func (h *PatientHandler) AssignPatient(w http.ResponseWriter, r *http.Request) {
	h.changeAssignment(w, r, h.service.Assign)
}

// UnassignPatient handles POST /api/patients/{id}/unassign
func (h *PatientHandler) UnassignPatient(w http.ResponseWriter, r *http.Request) {
	h.changeAssignment(w, r, h.service.Unassign)
}

func (h *PatientHandler) changeAssignment(w http.ResponseWriter, r *http.Request, change func(ctx context.Context, patientID, doctorID string) error) {
	var req assignmentRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.DoctorID) == "" {
		respondWithError(w, http.StatusBadRequest, "doctor_id is required")
		return
	}

	patientID := r.PathValue("id")
	if err := change(r.Context(), patientID, req.DoctorID); err != nil {
		respondWithAppError(w, r, err)
		return
	}

	patient, err := h.service.Get(r.Context(), patientID)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, patient)
}
