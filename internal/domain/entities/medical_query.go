package entities

import "time"

// QueryStatus represents where a query is in its review lifecycle
type QueryStatus string

const (
	QueryStatusPending     QueryStatus = "pending"
	QueryStatusUnderReview QueryStatus = "under_review"
	QueryStatusCompleted   QueryStatus = "completed"
)

// Valid reports whether s is one of the known statuses
func (s QueryStatus) Valid() bool {
	switch s {
	case QueryStatusPending, QueryStatusUnderReview, QueryStatusCompleted:
		return true
	}
	return false
}

// MedicalQuery is a question raised by a patient and answered by a doctor
type MedicalQuery struct {
	ID              string      `json:"id"`
	PatientID       string      `json:"patient_id"`
	Title           string      `json:"title"`
	Description     string      `json:"description"`
	Status          QueryStatus `json:"status"`
	DoctorID        *string     `json:"doctor_id,omitempty"`
	Response        *string     `json:"response,omitempty"`
	AIDraftResponse *string     `json:"ai_draft_response,omitempty"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
}

// Clone returns a deep copy of the query
func (q *MedicalQuery) Clone() *MedicalQuery {
	if q == nil {
		return nil
	}
	c := *q
	c.DoctorID = cloneString(q.DoctorID)
	c.Response = cloneString(q.Response)
	c.AIDraftResponse = cloneString(q.AIDraftResponse)
	return &c
}

// CheckInvariants verifies the status/doctor/response coupling of a record.
// It returns a human-readable reason, or "" when the record is consistent.
func (q *MedicalQuery) CheckInvariants() string {
	if !q.Status.Valid() {
		return "unknown status " + string(q.Status)
	}
	hasDoctor := q.DoctorID != nil
	if q.Status == QueryStatusPending && hasDoctor {
		return "pending query has a doctor"
	}
	if q.Status != QueryStatusPending && !hasDoctor {
		return string(q.Status) + " query has no doctor"
	}
	if (q.Status == QueryStatusCompleted) != (q.Response != nil) {
		return "response must be present exactly when completed"
	}
	return ""
}

// QueryEntry is the snapshot form of a query record
type QueryEntry struct {
	ID     string       `json:"id"`
	Record MedicalQuery `json:"record"`
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

// StringPtr returns a pointer to a copy of s
func StringPtr(s string) *string {
	return &s
}
