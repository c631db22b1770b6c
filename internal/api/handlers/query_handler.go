package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/zatekoja/Medicalqueryreview/internal/domain/entities"
)

// QueryService defines the query lifecycle operations used by the handler
type QueryService interface {
	Submit(ctx context.Context, patientID, title, description string) (string, error)
	Take(ctx context.Context, queryID, doctorID string) error
	Respond(ctx context.Context, queryID, doctorID, text string) error
	Get(ctx context.Context, queryID string) (*entities.MedicalQuery, error)
	ListByPatient(ctx context.Context, patientID string) []*entities.MedicalQuery
	ListPending(ctx context.Context) []*entities.MedicalQuery
}

// PatientLookup resolves a patient id
type PatientLookup interface {
	Get(ctx context.Context, id string) (*entities.Patient, error)
}

// QueryHandler handles medical query HTTP requests
type QueryHandler struct {
	service  QueryService
	patients PatientLookup
}

// NewQueryHandler creates a new query handler
func NewQueryHandler(service QueryService, patients PatientLookup) *QueryHandler {
	return &QueryHandler{
		service:  service,
		patients: patients,
	}
}

type submitQueryRequest struct {
	PatientID   string `json:"patient_id"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

type takeQueryRequest struct {
	DoctorID string `json:"doctor_id"`
}

type respondQueryRequest struct {
	DoctorID string `json:"doctor_id"`
	Response string `json:"response"`
}

// SubmitQuery handles POST /api/queries
func (h *QueryHandler) SubmitQuery(w http.ResponseWriter, r *http.Request) {
	var req submitQueryRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.PatientID) == "" {
		respondWithError(w, http.StatusBadRequest, "patient_id is required")
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		respondWithError(w, http.StatusBadRequest, "title is required")
		return
	}

	id, err := h.service.Submit(r.Context(), req.PatientID, strings.TrimSpace(req.Title), strings.TrimSpace(req.Description))
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	h.respondWithQuery(w, r, http.StatusCreated, id)
}

// GetQuery handles GET /api/queries/{id}
func (h *QueryHandler) GetQuery(w http.ResponseWriter, r *http.Request) {
	h.respondWithQuery(w, r, http.StatusOK, r.PathValue("id"))
}

// ListPending handles GET /api/queries/pending
func (h *QueryHandler) ListPending(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, h.service.ListPending(r.Context()))
}

// ListPatientQueries handles GET /api/patients/{id}/queries
func (h *QueryHandler) ListPatientQueries(w http.ResponseWriter, r *http.Request) {
	patientID := r.PathValue("id")
	if _, err := h.patients.Get(r.Context(), patientID); err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, h.service.ListByPatient(r.Context(), patientID))
}

// TakeQuery handles POST /api/queries/{id}/take
func (h *QueryHandler) TakeQuery(w http.ResponseWriter, r *http.Request) {
	var req takeQueryRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.DoctorID) == "" {
		respondWithError(w, http.StatusBadRequest, "doctor_id is required")
		return
	}

	queryID := r.PathValue("id")
	if err := h.service.Take(r.Context(), queryID, req.DoctorID); err != nil {
		respondWithAppError(w, r, err)
		return
	}
	h.respondWithQuery(w, r, http.StatusOK, queryID)
}

// RespondToQuery handles POST /api/queries/{id}/respond
func (h *QueryHandler) RespondToQuery(w http.ResponseWriter, r *http.Request) {
	var req respondQueryRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.DoctorID) == "" {
		respondWithError(w, http.StatusBadRequest, "doctor_id is required")
		return
	}
	if strings.TrimSpace(req.Response) == "" {
		respondWithError(w, http.StatusBadRequest, "response is required")
		return
	}

	queryID := r.PathValue("id")
	if err := h.service.Respond(r.Context(), queryID, req.DoctorID, req.Response); err != nil {
		respondWithAppError(w, r, err)
		return
	}
	h.respondWithQuery(w, r, http.StatusOK, queryID)
}

func (h *QueryHandler) respondWithQuery(w http.ResponseWriter, r *http.Request, status int, queryID string) {
	query, err := h.service.Get(r.Context(), queryID)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, status, query)
}
