package services

import (
	"context"
	"time"

	"github.com/zatekoja/Medicalqueryreview/internal/domain/entities"
	"github.com/zatekoja/Medicalqueryreview/internal/domain/repositories"
)

const healthPingTimeout = 2 * time.Second

// HealthService reports service state for the health endpoint
type HealthService struct {
	ids      *IDAllocator
	patients *PatientRegistry
	doctors  *DoctorRegistry
	queries  *QueryLifecycleService
	drafts   *DraftIntegrator
	store    repositories.SnapshotRepository
}

// NewHealthService creates a health service. drafts and store may be nil.
func NewHealthService(
	ids *IDAllocator,
	patients *PatientRegistry,
	doctors *DoctorRegistry,
	queries *QueryLifecycleService,
	drafts *DraftIntegrator,
	store repositories.SnapshotRepository,
) *HealthService {
	return &HealthService{
		ids:      ids,
		patients: patients,
		doctors:  doctors,
		queries:  queries,
		drafts:   drafts,
		store:    store,
	}
}

// Check builds a health report. A failing snapshot store degrades the status.
func (s *HealthService) Check(ctx context.Context) *entities.HealthReport {
	total, pending := s.queries.Count()
	report := &entities.HealthReport{
		Status:         "ok",
		Patients:       s.patients.Count(),
		Doctors:        s.doctors.Count(),
		Queries:        total,
		PendingQueries: pending,
		Counters:       s.ids.Counters(),
		Components:     make(map[string]entities.ComponentHealth),
	}

	if s.drafts != nil {
		report.DraftQueueDepth = s.drafts.QueueDepth()
		if s.drafts.Enabled() {
			report.Components["drafting"] = entities.ComponentHealth{Status: "ok"}
		} else {
			report.Components["drafting"] = entities.ComponentHealth{Status: "disabled"}
		}
	}

	if s.store != nil {
		pingCtx, cancel := context.WithTimeout(ctx, healthPingTimeout)
		defer cancel()
		if err := s.store.Ping(pingCtx); err != nil {
			report.Status = "degraded"
			report.Components["snapshot_store"] = entities.ComponentHealth{Status: "error", Error: err.Error()}
		} else {
			report.Components["snapshot_store"] = entities.ComponentHealth{Status: "ok"}
		}
	}

	return report
}
