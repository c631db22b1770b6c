package snapshot

import "time"

// SnapshotRow describes one stored snapshot without its payload
type SnapshotRow struct {
	ID      int64     `json:"id"`
	Version int       `json:"version"`
	TakenAt time.Time `json:"taken_at"`
}
