package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/zatekoja/Medicalqueryreview/internal/domain/entities"
)

// DoctorService defines the doctor operations used by the handler
type DoctorService interface {
	Register(ctx context.Context, name, specialization string) string
	Get(ctx context.Context, id string) (*entities.Doctor, error)
	ListAll(ctx context.Context) []*entities.Doctor
}

// DoctorPatientLister lists the patients assigned to a doctor
type DoctorPatientLister interface {
	ListForDoctor(ctx context.Context, doctorID string) []*entities.Patient
}

// DoctorQueryLister lists the queries a doctor has taken
type DoctorQueryLister interface {
	ListByDoctor(ctx context.Context, doctorID string) []*entities.MedicalQuery
}

// DoctorHandler handles doctor-related HTTP requests
type DoctorHandler struct {
	service  DoctorService
	patients DoctorPatientLister
	queries  DoctorQueryLister
}

// NewDoctorHandler creates a new doctor handler
func NewDoctorHandler(service DoctorService, patients DoctorPatientLister, queries DoctorQueryLister) *DoctorHandler {
	return &DoctorHandler{
		service:  service,
		patients: patients,
		queries:  queries,
	}
}

type registerDoctorRequest struct {
	Name           string `json:"name"`
	Specialization string `json:"specialization"`
}

// RegisterDoctor handles POST /api/doctors
func (h *DoctorHandler) RegisterDoctor(w http.ResponseWriter, r *http.Request) {
	var req registerDoctorRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		respondWithError(w, http.StatusBadRequest, "name is required")
		return
	}

	id := h.service.Register(r.Context(), strings.TrimSpace(req.Name), strings.TrimSpace(req.Specialization))
	doctor, err := h.service.Get(r.Context(), id)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, doctor)
}

// ListDoctors handles GET /api/doctors
func (h *DoctorHandler) ListDoctors(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, h.service.ListAll(r.Context()))
}

// GetDoctor handles GET /api/doctors/{id}
func (h *DoctorHandler) GetDoctor(w http.ResponseWriter, r *http.Request) {
	doctor, err := h.service.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, doctor)
}

// ListDoctorPatients handles GET /api/doctors/{id}/patients
func (h *DoctorHandler) ListDoctorPatients(w http.ResponseWriter, r *http.Request) {
	doctorID, ok := h.existingDoctor(w, r)
	if !ok {
		return
	}
	respondWithJSON(w, http.StatusOK, h.patients.ListForDoctor(r.Context(), doctorID))
}

// ListDoctorQueries handles GET /api/doctors/{id}/queries
func (h *DoctorHandler) ListDoctorQueries(w http.ResponseWriter, r *http.Request) {
	doctorID, ok := h.existingDoctor(w, r)
	if !ok {
		return
	}
	respondWithJSON(w, http.StatusOK, h.queries.ListByDoctor(r.Context(), doctorID))
}

func (h *DoctorHandler) existingDoctor(w http.ResponseWriter, r *http.Request) (string, bool) {
	doctorID := r.PathValue("id")
	if _, err := h.service.Get(r.Context(), doctorID); err != nil {
		respondWithAppError(w, r, err)
		return "", false
	}
	return doctorID, true
}
