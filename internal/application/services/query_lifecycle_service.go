package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/zatekoja/Medicalqueryreview/internal/domain/entities"
	"github.com/zatekoja/Medicalqueryreview/internal/domain/providers"
	"github.com/zatekoja/Medicalqueryreview/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/Medicalqueryreview/pkg/errors"
)

// PatientDirectory resolves patients for query submission
type PatientDirectory interface {
	Get(ctx context.Context, id string) (*entities.Patient, error)
}

// DraftDispatcher hands draft jobs to a background worker
type DraftDispatcher interface {
	Dispatch(job DraftJob) bool
}

const eventPublishTimeout = 5 * time.Second

// QueryLifecycleService owns medical queries and drives
// pending -> under_review -> completed. Each operation's read-modify-write
// happens under one lock, so racing transitions resolve to a single winner.
type QueryLifecycleService struct {
	ids      *IDAllocator
	patients PatientDirectory
	doctors  DoctorDirectory
	drafts   DraftDispatcher
	eventBus providers.EventBus
	now      func() time.Time

	transitions metric.Int64Counter

	mu      sync.RWMutex
	queries map[string]*entities.MedicalQuery
	order   []string
}

// NewQueryLifecycleService creates the lifecycle service.
// doctors and drafts may be nil.
func NewQueryLifecycleService(
	ids *IDAllocator,
	patients PatientDirectory,
	doctors DoctorDirectory,
	drafts DraftDispatcher,
) *QueryLifecycleService {
	transitions, _ := observability.Meter().Int64Counter(
		"query.transition.count",
		metric.WithDescription("Number of query lifecycle transitions"),
	)

	return &QueryLifecycleService{
		ids:         ids,
		patients:    patients,
		doctors:     doctors,
		drafts:      drafts,
		now:         func() time.Time { return time.Now().UTC() },
		transitions: transitions,
		queries:     make(map[string]*entities.MedicalQuery),
	}
}

// SetEventBus enables lifecycle event publishing
func (s *QueryLifecycleService) SetEventBus(eventBus providers.EventBus) {
	s.eventBus = eventBus
}

// SetClock replaces the timestamp source
func (s *QueryLifecycleService) SetClock(now func() time.Time) {
	s.now = now
}

// Submit creates a pending query for patientID and requests a draft in the background.
// The draft request never delays or fails the submission.
func (s *QueryLifecycleService) Submit(ctx context.Context, patientID, title, description string) (string, error) {
	patient, err := s.patients.Get(ctx, patientID)
	if err != nil {
		if apperrors.IsType(err, apperrors.ErrorTypeNotFound) {
			return "", apperrors.NewUnknownPatientError(patientID)
		}
		return "", err
	}

	s.mu.Lock()
	id := s.ids.Next(KindQuery)
	now := s.now()
	query := &entities.MedicalQuery{
		ID:          id,
		PatientID:   patientID,
		Title:       title,
		Description: description,
		Status:      entities.QueryStatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.queries[id] = query
	s.order = append(s.order, id)
	event := s.newEvent(entities.QueryEventSubmitted, query)
	s.mu.Unlock()

	observability.LoggerFromContext(ctx).Info().
		Str("query_id", id).
		Str("patient_id", patientID).
		Msg("query submitted")
	s.recordTransition(ctx, entities.QueryStatusPending)
	s.publish(ctx, event)

	if s.drafts != nil {
		s.drafts.Dispatch(DraftJob{
			QueryID: id,
			Request: entities.DraftRequest{
				QueryText: draftQueryText(title, description),
				Condition: patient.Condition,
			},
		})
	}

	return id, nil
}

// Take moves a pending query under review by doctorID
func (s *QueryLifecycleService) Take(ctx context.Context, queryID, doctorID string) error {
	s.mu.Lock()
	query, ok := s.queries[queryID]
	if !ok {
		s.mu.Unlock()
		return apperrors.NewNotFoundError(fmt.Sprintf("query %s not found", queryID))
	}
	if query.Status != entities.QueryStatusPending {
		s.mu.Unlock()
		return apperrors.NewInvalidTransitionError(
			fmt.Sprintf("query %s is %s; only pending queries can be taken", queryID, query.Status))
	}
	if s.doctors != nil && !s.doctors.HasDoctor(doctorID) {
		s.mu.Unlock()
		return apperrors.NewNotFoundError(fmt.Sprintf("doctor %s not found", doctorID))
	}

	query.DoctorID = entities.StringPtr(doctorID)
	query.Status = entities.QueryStatusUnderReview
	query.UpdatedAt = s.now()
	event := s.newEvent(entities.QueryEventTaken, query)
	s.mu.Unlock()

	observability.LoggerFromContext(ctx).Info().
		Str("query_id", queryID).
		Str("doctor_id", doctorID).
		Msg("query taken")
	s.recordTransition(ctx, entities.QueryStatusUnderReview)
	s.publish(ctx, event)
	return nil
}

// Respond completes a query under review. Only the doctor who took it may respond.
func (s *QueryLifecycleService) Respond(ctx context.Context, queryID, doctorID, text string) error {
	s.mu.Lock()
	query, ok := s.queries[queryID]
	if !ok {
		s.mu.Unlock()
		return apperrors.NewNotFoundError(fmt.Sprintf("query %s not found", queryID))
	}
	if query.Status != entities.QueryStatusUnderReview {
		s.mu.Unlock()
		return apperrors.NewInvalidTransitionError(
			fmt.Sprintf("query %s is %s; only queries under review can be answered", queryID, query.Status))
	}
	if *query.DoctorID != doctorID {
		s.mu.Unlock()
		return apperrors.NewDoctorMismatchError(
			fmt.Sprintf("query %s is under review by a different doctor", queryID))
	}

	query.Response = entities.StringPtr(text)
	query.Status = entities.QueryStatusCompleted
	query.UpdatedAt = s.now()
	event := s.newEvent(entities.QueryEventCompleted, query)
	s.mu.Unlock()

	observability.LoggerFromContext(ctx).Info().
		Str("query_id", queryID).
		Str("doctor_id", doctorID).
		Msg("query completed")
	s.recordTransition(ctx, entities.QueryStatusCompleted)
	s.publish(ctx, event)
	return nil
}

// AttachDraft implements DraftSink. The query is re-read under the lock because
// it may have moved on while the draft was being produced; drafts for missing or
// completed queries are dropped.
func (s *QueryLifecycleService) AttachDraft(ctx context.Context, queryID, text string) {
	logger := observability.LoggerFromContext(ctx).With().Str("query_id", queryID).Logger()

	s.mu.Lock()
	query, ok := s.queries[queryID]
	switch {
	case !ok:
		s.mu.Unlock()
		logger.Warn().Msg("draft arrived for unknown query; ignored")
		return
	case query.Status == entities.QueryStatusCompleted:
		s.mu.Unlock()
		logger.Info().Msg("draft arrived after completion; ignored")
		return
	case query.AIDraftResponse != nil:
		s.mu.Unlock()
		logger.Debug().Msg("query already has a draft; ignored")
		return
	}
	query.AIDraftResponse = entities.StringPtr(text)
	event := s.newEvent(entities.QueryEventDraftAttached, query)
	s.mu.Unlock()

	logger.Info().Msg("draft attached")
	s.publish(ctx, event)
}

// Get returns a copy of the query with the given id
func (s *QueryLifecycleService) Get(ctx context.Context, queryID string) (*entities.MedicalQuery, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query, ok := s.queries[queryID]
	if !ok {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("query %s not found", queryID))
	}
	return query.Clone(), nil
}

// ListByPatient returns the patient's queries in submission order
func (s *QueryLifecycleService) ListByPatient(ctx context.Context, patientID string) []*entities.MedicalQuery {
	return s.filter(func(q *entities.MedicalQuery) bool { return q.PatientID == patientID })
}

// ListByDoctor returns queries taken by doctorID in submission order
func (s *QueryLifecycleService) ListByDoctor(ctx context.Context, doctorID string) []*entities.MedicalQuery {
	return s.filter(func(q *entities.MedicalQuery) bool {
		return q.DoctorID != nil && *q.DoctorID == doctorID
	})
}

// ListPending returns queries no doctor has taken yet
func (s *QueryLifecycleService) ListPending(ctx context.Context) []*entities.MedicalQuery {
	return s.filter(func(q *entities.MedicalQuery) bool { return q.Status == entities.QueryStatusPending })
}

// Count returns the total and pending number of queries
func (s *QueryLifecycleService) Count() (total, pending int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, q := range s.queries {
		if q.Status == entities.QueryStatusPending {
			pending++
		}
	}
	return len(s.order), pending
}

// Export returns copies of all queries in submission order
func (s *QueryLifecycleService) Export() []entities.QueryEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]entities.QueryEntry, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, entities.QueryEntry{ID: id, Record: *s.queries[id].Clone()})
	}
	return out
}

// Import replaces all queries. Entries must already be validated.
func (s *QueryLifecycleService) Import(entries []entities.QueryEntry) {
	queries := make(map[string]*entities.MedicalQuery, len(entries))
	order := make([]string, 0, len(entries))
	for _, e := range entries {
		queries[e.ID] = e.Record.Clone()
		order = append(order, e.ID)
	}

	s.mu.Lock()
	s.queries = queries
	s.order = order
	s.mu.Unlock()
}

func (s *QueryLifecycleService) filter(keep func(*entities.MedicalQuery) bool) []*entities.MedicalQuery {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*entities.MedicalQuery, 0)
	for _, id := range s.order {
		if q := s.queries[id]; keep(q) {
			out = append(out, q.Clone())
		}
	}
	return out
}

// newEvent must be called with s.mu held
func (s *QueryLifecycleService) newEvent(eventType entities.QueryEventType, q *entities.MedicalQuery) *entities.QueryEvent {
	event := &entities.QueryEvent{
		ID:        uuid.New().String(),
		Type:      eventType,
		QueryID:   q.ID,
		PatientID: q.PatientID,
		Status:    q.Status,
		Timestamp: s.now(),
	}
	if q.DoctorID != nil {
		event.DoctorID = *q.DoctorID
	}
	return event
}

// publish sends the event in the background so a slow bus never delays the caller
func (s *QueryLifecycleService) publish(ctx context.Context, event *entities.QueryEvent) {
	if s.eventBus == nil {
		return
	}
	logger := observability.LoggerFromContext(ctx)
	go func() {
		pubCtx, cancel := context.WithTimeout(context.Background(), eventPublishTimeout)
		defer cancel()
		for _, channel := range providers.ChannelsForEvent(event) {
			if err := s.eventBus.Publish(pubCtx, channel, event); err != nil {
				logger.Warn().Err(err).Str("channel", channel).Str("event_id", event.ID).Msg("failed to publish query event")
			}
		}
	}()
}

func (s *QueryLifecycleService) recordTransition(ctx context.Context, to entities.QueryStatus) {
	if s.transitions == nil {
		return
	}
	s.transitions.Add(ctx, 1, metric.WithAttributes(attribute.String("query.status", string(to))))
}

func draftQueryText(title, description string) string {
	title = strings.TrimSpace(title)
	description = strings.TrimSpace(description)
	switch {
	case title == "":
		return description
	case description == "":
		return title
	}
	return title + "\n\n" + description
}
