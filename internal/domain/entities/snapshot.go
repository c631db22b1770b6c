package entities

import "time"

// SnapshotVersion is the layout version written by this build
const SnapshotVersion = 1

// Counters holds the last issued sequence number per entity kind
type Counters struct {
	Patient uint64 `json:"patient"`
	Doctor  uint64 `json:"doctor"`
	Query   uint64 `json:"query"`
}

// Snapshot is the serialisable representation of all in-memory state.
// Entries keep registration order.
type Snapshot struct {
	Version  int            `json:"version"`
	TakenAt  time.Time      `json:"taken_at"`
	Patients []PatientEntry `json:"patients"`
	Doctors  []DoctorEntry  `json:"doctors"`
	Queries  []QueryEntry   `json:"queries"`
	Counters Counters       `json:"counters"`
}
