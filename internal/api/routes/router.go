package routes

import (
	"net/http"

	"github.com/zatekoja/Medicalqueryreview/internal/api/handlers"
	"github.com/zatekoja/Medicalqueryreview/internal/api/middleware"
	"github.com/zatekoja/Medicalqueryreview/internal/infrastructure/observability"
)

// Router holds all route handlers
type Router struct {
	mux *http.ServeMux

	patientHandler *handlers.PatientHandler
	doctorHandler  *handlers.DoctorHandler
	queryHandler   *handlers.QueryHandler
	healthHandler  *handlers.HealthHandler
	sseHandler     *handlers.SSEHandler

	metrics *observability.Metrics
}

// NewRouter creates a new router. sseHandler and metrics may be nil.
func NewRouter(
	patientHandler *handlers.PatientHandler,
	doctorHandler *handlers.DoctorHandler,
	queryHandler *handlers.QueryHandler,
	healthHandler *handlers.HealthHandler,
	sseHandler *handlers.SSEHandler,
	metrics *observability.Metrics,
) *Router {
	return &Router{
		mux:            http.NewServeMux(),
		patientHandler: patientHandler,
		doctorHandler:  doctorHandler,
		queryHandler:   queryHandler,
		healthHandler:  healthHandler,
		sseHandler:     sseHandler,
		metrics:        metrics,
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes() http.Handler {
	r.mux.HandleFunc("GET /health", r.healthHandler.Health)

	// Patient endpoints
	r.mux.HandleFunc("POST /api/patients", r.patientHandler.RegisterPatient)
	r.mux.HandleFunc("GET /api/patients/unassigned", r.patientHandler.ListUnassigned)
	r.mux.HandleFunc("GET /api/patients/{id}", r.patientHandler.GetPatient)
	r.mux.HandleFunc("POST /api/patients/{id}/assign", r.patientHandler.AssignPatient)
	r.mux.HandleFunc("POST /api/patients/{id}/unassign", r.patientHandler.UnassignPatient)
	r.mux.HandleFunc("GET /api/patients/{id}/queries", r.queryHandler.ListPatientQueries)

	// Doctor endpoints
	r.mux.HandleFunc("POST /api/doctors", r.doctorHandler.RegisterDoctor)
	r.mux.HandleFunc("GET /api/doctors", r.doctorHandler.ListDoctors)
	r.mux.HandleFunc("GET /api/doctors/{id}", r.doctorHandler.GetDoctor)
	r.mux.HandleFunc("GET /api/doctors/{id}/patients", r.doctorHandler.ListDoctorPatients)
	r.mux.HandleFunc("GET /api/doctors/{id}/queries", r.doctorHandler.ListDoctorQueries)

	// Query endpoints
	r.mux.HandleFunc("POST /api/queries", r.queryHandler.SubmitQuery)
	r.mux.HandleFunc("GET /api/queries/pending", r.queryHandler.ListPending)
	r.mux.HandleFunc("GET /api/queries/{id}", r.queryHandler.GetQuery)
	r.mux.HandleFunc("POST /api/queries/{id}/take", r.queryHandler.TakeQuery)
	r.mux.HandleFunc("POST /api/queries/{id}/respond", r.queryHandler.RespondToQuery)

	if r.sseHandler != nil {
		r.mux.HandleFunc("GET /api/stream/queries", r.sseHandler.StreamQueryUpdates)
	}

	// Apply middleware in reverse order (last middleware wraps first)
	var handler http.Handler = r.mux
	handler = middleware.LoggingMiddleware(handler)
	handler = middleware.ObservabilityMiddleware(r.metrics)(handler)
	handler = middleware.RequestIDMiddleware(handler)
	handler = middleware.CORSMiddleware(handler)

	return handler
}
