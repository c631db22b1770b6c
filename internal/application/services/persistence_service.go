package services

import (
	"context"
	"fmt"
	"time"

	"github.com/zatekoja/Medicalqueryreview/internal/domain/entities"
	"github.com/zatekoja/Medicalqueryreview/internal/domain/repositories"
	"github.com/zatekoja/Medicalqueryreview/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/Medicalqueryreview/pkg/errors"
	"github.com/zatekoja/Medicalqueryreview/pkg/retry"
)

// PersistenceService exports and restores the complete in-memory state.
type PersistenceService struct {
	ids      *IDAllocator
	patients *PatientRegistry
	doctors  *DoctorRegistry
	queries  *QueryLifecycleService

	store    repositories.SnapshotRepository
	backend  string
	retryCfg retry.Config
	metrics  *observability.Metrics
	now      func() time.Time
}

// NewPersistenceService creates a persistence service. store may be nil for
// callers that only need Snapshot and Restore.
func NewPersistenceService(
	ids *IDAllocator,
	patients *PatientRegistry,
	doctors *DoctorRegistry,
	queries *QueryLifecycleService,
	store repositories.SnapshotRepository,
	backend string,
) *PersistenceService {
	retryCfg := retry.DefaultConfig()
	retryCfg.MaxAttempts = 5
	retryCfg.MaxTotalTimeout = 30 * time.Second

	return &PersistenceService{
		ids:      ids,
		patients: patients,
		doctors:  doctors,
		queries:  queries,
		store:    store,
		backend:  backend,
		retryCfg: retryCfg,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// SetRetryConfig overrides how Save retries a failing store
func (s *PersistenceService) SetRetryConfig(cfg retry.Config) {
	s.retryCfg = cfg
}

// SetMetrics enables snapshot metrics
func (s *PersistenceService) SetMetrics(metrics *observability.Metrics) {
	s.metrics = metrics
}

// Snapshot exports all records and counters while mutations continue.
// Records are never removed, so exporting referrers before the records they
// point at (queries, patients, doctors) keeps every reference resolvable.
// Counters are read last, so they are never below an exported id.
func (s *PersistenceService) Snapshot() *entities.Snapshot {
	snapshot := &entities.Snapshot{
		Version: entities.SnapshotVersion,
		TakenAt: s.now(),
	}
	snapshot.Queries = s.queries.Export()
	snapshot.Patients = s.patients.Export()
	snapshot.Doctors = s.doctors.Export()
	snapshot.Counters = s.ids.Counters()
	return snapshot
}

// Restore replaces all in-memory state with snapshot. Nothing is modified
// unless the whole snapshot validates.
func (s *PersistenceService) Restore(ctx context.Context, snapshot *entities.Snapshot) error {
	if snapshot == nil {
		return apperrors.NewValidationError("snapshot is nil")
	}

	counters, err := validateSnapshot(snapshot)
	if err != nil {
		return err
	}
	if counters != snapshot.Counters {
		observability.LoggerFromContext(ctx).Warn().
			Interface("stored", snapshot.Counters).
			Interface("raised_to", counters).
			Msg("snapshot counters were behind issued ids; raised")
	}

	s.doctors.Import(snapshot.Doctors)
	s.patients.Import(snapshot.Patients)
	s.queries.Import(snapshot.Queries)
	s.ids.Restore(counters)

	observability.LoggerFromContext(ctx).Info().
		Int("patients", len(snapshot.Patients)).
		Int("doctors", len(snapshot.Doctors)).
		Int("queries", len(snapshot.Queries)).
		Time("taken_at", snapshot.TakenAt).
		Msg("state restored from snapshot")
	return nil
}

// Save writes a snapshot to the store, retrying transient failures
func (s *PersistenceService) Save(ctx context.Context) error {
	if s.store == nil {
		return apperrors.NewInternalError("no snapshot store configured", nil)
	}

	snapshot := s.Snapshot()
	logger := observability.LoggerFromContext(ctx)

	start := time.Now()
	err := retry.DoWithLog(ctx, s.retryCfg, "snapshot", func() error {
		return s.store.Save(ctx, snapshot)
	}, func(attempt int, err error, nextDelay time.Duration) {
		logger.Warn().Err(err).Int("attempt", attempt).Dur("next_delay", nextDelay).Msg("snapshot save failed; retrying")
	})
	observability.RecordSnapshotMetric(ctx, s.metrics, s.backend, time.Since(start), err)
	if err != nil {
		return apperrors.NewInternalError("failed to save snapshot", err)
	}

	logger.Info().
		Str("backend", s.backend).
		Int("patients", len(snapshot.Patients)).
		Int("doctors", len(snapshot.Doctors)).
		Int("queries", len(snapshot.Queries)).
		Msg("snapshot saved")
	return nil
}

// LoadAndRestore restores the latest stored snapshot. It reports false when the
// store has none. Any other failure must stop startup.
func (s *PersistenceService) LoadAndRestore(ctx context.Context) (bool, error) {
	if s.store == nil {
		return false, apperrors.NewInternalError("no snapshot store configured", nil)
	}

	snapshot, err := s.store.Load(ctx)
	if err != nil {
		return false, apperrors.NewInternalError("failed to load snapshot", err)
	}
	if snapshot == nil {
		return false, nil
	}
	if err := s.Restore(ctx, snapshot); err != nil {
		return false, err
	}
	return true, nil
}

// StartPeriodicCheckpoint saves a snapshot every interval until ctx is done
func (s *PersistenceService) StartPeriodicCheckpoint(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.Save(ctx); err != nil {
				observability.LoggerFromContext(ctx).Error().Err(err).Msg("periodic checkpoint failed")
			}
		}
	}
}

// validateSnapshot checks every record and returns counters raised to cover all ids present
func validateSnapshot(snapshot *entities.Snapshot) (entities.Counters, error) {
	invalid := func(format string, args ...interface{}) error {
		return apperrors.NewValidationError("invalid snapshot: " + fmt.Sprintf(format, args...))
	}

	if snapshot.Version > entities.SnapshotVersion {
		return entities.Counters{}, invalid("version %d is newer than supported version %d", snapshot.Version, entities.SnapshotVersion)
	}

	counters := snapshot.Counters
	raise := func(counter *uint64, n uint64) {
		if n > *counter {
			*counter = n
		}
	}

	doctors := make(map[string]bool, len(snapshot.Doctors))
	for _, e := range snapshot.Doctors {
		n, ok := ParseID(KindDoctor, e.ID)
		if !ok || e.Record.ID != e.ID {
			return entities.Counters{}, invalid("bad doctor id %q", e.ID)
		}
		if doctors[e.ID] {
			return entities.Counters{}, invalid("duplicate doctor %s", e.ID)
		}
		doctors[e.ID] = true
		raise(&counters.Doctor, n)
	}

	patients := make(map[string]bool, len(snapshot.Patients))
	for _, e := range snapshot.Patients {
		n, ok := ParseID(KindPatient, e.ID)
		if !ok || e.Record.ID != e.ID {
			return entities.Counters{}, invalid("bad patient id %q", e.ID)
		}
		if patients[e.ID] {
			return entities.Counters{}, invalid("duplicate patient %s", e.ID)
		}
		if e.Record.IsActive != e.Record.IsAssigned() {
			return entities.Counters{}, invalid("patient %s active flag disagrees with assignment", e.ID)
		}
		if e.Record.IsAssigned() && !doctors[*e.Record.AssignedDoctorID] {
			return entities.Counters{}, invalid("patient %s assigned to unknown doctor %s", e.ID, *e.Record.AssignedDoctorID)
		}
		patients[e.ID] = true
		raise(&counters.Patient, n)
	}

	queries := make(map[string]bool, len(snapshot.Queries))
	for _, e := range snapshot.Queries {
		n, ok := ParseID(KindQuery, e.ID)
		if !ok || e.Record.ID != e.ID {
			return entities.Counters{}, invalid("bad query id %q", e.ID)
		}
		if queries[e.ID] {
			return entities.Counters{}, invalid("duplicate query %s", e.ID)
		}
		if !patients[e.Record.PatientID] {
			return entities.Counters{}, invalid("query %s references unknown patient %s", e.ID, e.Record.PatientID)
		}
		if reason := e.Record.CheckInvariants(); reason != "" {
			return entities.Counters{}, invalid("query %s: %s", e.ID, reason)
		}
		if e.Record.DoctorID != nil && !doctors[*e.Record.DoctorID] {
			return entities.Counters{}, invalid("query %s references unknown doctor %s", e.ID, *e.Record.DoctorID)
		}
		queries[e.ID] = true
		raise(&counters.Query, n)
	}

	return counters, nil
}
