package entities

import "time"

// QueryEventType identifies a lifecycle change
type QueryEventType string

const (
	QueryEventSubmitted     QueryEventType = "query.submitted"
	QueryEventTaken         QueryEventType = "query.taken"
	QueryEventCompleted     QueryEventType = "query.completed"
	QueryEventDraftAttached QueryEventType = "query.draft_attached"
)

// QueryEvent is published whenever a query changes
type QueryEvent struct {
	ID        string         `json:"id"`
	Type      QueryEventType `json:"type"`
	QueryID   string         `json:"query_id"`
	PatientID string         `json:"patient_id"`
	DoctorID  string         `json:"doctor_id,omitempty"`
	Status    QueryStatus    `json:"status"`
	Timestamp time.Time      `json:"timestamp"`
}
