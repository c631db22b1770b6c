package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/zatekoja/Medicalqueryreview/internal/domain/entities"
	"github.com/zatekoja/Medicalqueryreview/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/Medicalqueryreview/pkg/errors"
)

// DoctorDirectory answers whether a doctor id is registered
type DoctorDirectory interface {
	HasDoctor(id string) bool
}

// DoctorRegistry owns doctor records. Doctors are immutable once registered.
type DoctorRegistry struct {
	ids *IDAllocator

	mu      sync.RWMutex
	doctors map[string]entities.Doctor
	order   []string
}

// NewDoctorRegistry creates an empty doctor registry
func NewDoctorRegistry(ids *IDAllocator) *DoctorRegistry {
	return &DoctorRegistry{
		ids:     ids,
		doctors: make(map[string]entities.Doctor),
	}
}

// Register adds a doctor and returns its id
func (r *DoctorRegistry) Register(ctx context.Context, name, specialization string) string {
	r.mu.Lock()
	id := r.ids.Next(KindDoctor)
	r.doctors[id] = entities.Doctor{ID: id, Name: name, Specialization: specialization}
	r.order = append(r.order, id)
	r.mu.Unlock()

	observability.LoggerFromContext(ctx).Info().
		Str("doctor_id", id).
		Str("specialization", specialization).
		Msg("doctor registered")
	return id
}

// Get returns the doctor with the given id
func (r *DoctorRegistry) Get(ctx context.Context, id string) (*entities.Doctor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	doctor, ok := r.doctors[id]
	if !ok {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("doctor %s not found", id))
	}
	return &doctor, nil
}

// HasDoctor implements DoctorDirectory
func (r *DoctorRegistry) HasDoctor(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.doctors[id]
	return ok
}

// ListAll returns every doctor in registration order
func (r *DoctorRegistry) ListAll(ctx context.Context) []*entities.Doctor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*entities.Doctor, 0, len(r.order))
	for _, id := range r.order {
		doctor := r.doctors[id]
		out = append(out, &doctor)
	}
	return out
}

// Count returns the number of registered doctors
func (r *DoctorRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// Export returns the registry contents in registration order
func (r *DoctorRegistry) Export() []entities.DoctorEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]entities.DoctorEntry, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, entities.DoctorEntry{ID: id, Record: r.doctors[id]})
	}
	return out
}

// Import replaces the registry contents. Entries must already be validated.
func (r *DoctorRegistry) Import(entries []entities.DoctorEntry) {
	doctors := make(map[string]entities.Doctor, len(entries))
	order := make([]string, 0, len(entries))
	for _, e := range entries {
		doctors[e.ID] = e.Record
		order = append(order, e.ID)
	}

	r.mu.Lock()
	r.doctors = doctors
	r.order = order
	r.mu.Unlock()
}
