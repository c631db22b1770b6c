package handlers

import (
	"context"
	"net/http"

	"github.com/zatekoja/Medicalqueryreview/internal/domain/entities"
)

// HealthChecker reports service health
type HealthChecker interface {
	Check(ctx context.Context) *entities.HealthReport
}

// HealthHandler serves the health endpoint
type HealthHandler struct {
	checker HealthChecker
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(checker HealthChecker) *HealthHandler {
	return &HealthHandler{checker: checker}
}

// Health handles GET /health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	report := h.checker.Check(r.Context())
	status := http.StatusOK
	if report.Status != "ok" {
		status = http.StatusServiceUnavailable
	}
	respondWithJSON(w, status, report)
}
