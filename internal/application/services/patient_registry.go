package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/zatekoja/Medicalqueryreview/internal/domain/entities"
	"github.com/zatekoja/Medicalqueryreview/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/Medicalqueryreview/pkg/errors"
)

// PatientRegistry owns patient records and their doctor assignment.
// Assignment state lives only here; doctors do not track their patients.
type PatientRegistry struct {
	ids     *IDAllocator
	doctors DoctorDirectory

	mu       sync.RWMutex
	patients map[string]*entities.Patient
	order    []string
}

// NewPatientRegistry creates an empty patient registry.
// doctors may be nil, in which case assignment does not check that the doctor exists.
func NewPatientRegistry(ids *IDAllocator, doctors DoctorDirectory) *PatientRegistry {
	return &PatientRegistry{
		ids:      ids,
		doctors:  doctors,
		patients: make(map[string]*entities.Patient),
	}
}

// Register adds an unassigned patient and returns its id
func (r *PatientRegistry) Register(ctx context.Context, name, condition, email string) string {
	r.mu.Lock()
	id := r.ids.Next(KindPatient)
	r.patients[id] = &entities.Patient{
		ID:        id,
		Name:      name,
		Condition: condition,
		Email:     email,
	}
	r.order = append(r.order, id)
	r.mu.Unlock()

	observability.LoggerFromContext(ctx).Info().Str("patient_id", id).Msg("patient registered")
	return id
}

// Get returns a copy of the patient with the given id
func (r *PatientRegistry) Get(ctx context.Context, id string) (*entities.Patient, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	patient, ok := r.patients[id]
	if !ok {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("patient %s not found", id))
	}
	return patient.Clone(), nil
}

// ListUnassigned returns patients without a doctor, in registration order
func (r *PatientRegistry) ListUnassigned(ctx context.Context) []*entities.Patient {
	return r.filter(func(p *entities.Patient) bool { return !p.IsAssigned() })
}

// ListForDoctor returns patients assigned to doctorID, in registration order
func (r *PatientRegistry) ListForDoctor(ctx context.Context, doctorID string) []*entities.Patient {
	return r.filter(func(p *entities.Patient) bool {
		return p.IsAssigned() && *p.AssignedDoctorID == doctorID
	})
}

// Assign records doctorID as the patient's doctor
func (r *PatientRegistry) Assign(ctx context.Context, patientID, doctorID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	patient, ok := r.patients[patientID]
	if !ok {
		return apperrors.NewNotFoundError(fmt.Sprintf("patient %s not found", patientID))
	}
	if patient.IsAssigned() {
		return apperrors.NewAlreadyAssignedError(patientID, *patient.AssignedDoctorID)
	}
	if r.doctors != nil && !r.doctors.HasDoctor(doctorID) {
		return apperrors.NewNotFoundError(fmt.Sprintf("doctor %s not found", doctorID))
	}

	patient.AssignedDoctorID = entities.StringPtr(doctorID)
	patient.IsActive = true

	observability.LoggerFromContext(ctx).Info().
		Str("patient_id", patientID).
		Str("doctor_id", doctorID).
		Msg("patient assigned")
	return nil
}

// Unassign clears the patient's doctor. Only the doctor on record may do so.
func (r *PatientRegistry) Unassign(ctx context.Context, patientID, doctorID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	patient, ok := r.patients[patientID]
	if !ok {
		return apperrors.NewNotFoundError(fmt.Sprintf("patient %s not found", patientID))
	}
	if !patient.IsAssigned() {
		return apperrors.NewNotAssignedError(patientID)
	}
	if *patient.AssignedDoctorID != doctorID {
		return apperrors.NewDoctorMismatchError(
			fmt.Sprintf("patient %s is assigned to a different doctor", patientID))
	}

	patient.AssignedDoctorID = nil
	patient.IsActive = false

	observability.LoggerFromContext(ctx).Info().
		Str("patient_id", patientID).
		Str("doctor_id", doctorID).
		Msg("patient unassigned")
	return nil
}

// Count returns the number of registered patients
func (r *PatientRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// Export returns copies of all records in registration order
func (r *PatientRegistry) Export() []entities.PatientEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]entities.PatientEntry, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, entities.PatientEntry{ID: id, Record: *r.patients[id].Clone()})
	}
	return out
}

// Import replaces the registry contents. Entries must already be validated.
func (r *PatientRegistry) Import(entries []entities.PatientEntry) {
	patients := make(map[string]*entities.Patient, len(entries))
	order := make([]string, 0, len(entries))
	for _, e := range entries {
		record := e.Record.Clone()
		record.IsActive = record.IsAssigned()
		patients[e.ID] = record
		order = append(order, e.ID)
	}

	r.mu.Lock()
	r.patients = patients
	r.order = order
	r.mu.Unlock()
}

func (r *PatientRegistry) filter(keep func(*entities.Patient) bool) []*entities.Patient {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*entities.Patient, 0)
	for _, id := range r.order {
		if p := r.patients[id]; keep(p) {
			out = append(out, p.Clone())
		}
	}
	return out
}
