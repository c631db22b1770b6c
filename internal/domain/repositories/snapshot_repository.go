package repositories

import (
	"context"

	"github.com/zatekoja/Medicalqueryreview/internal/domain/entities"
)

// SnapshotRepository defines durable storage for state snapshots
type SnapshotRepository interface {
	// Save stores snapshot as the latest state
	Save(ctx context.Context, snapshot *entities.Snapshot) error

	// Load returns the latest snapshot, or nil with no error when none was ever saved
	Load(ctx context.Context) (*entities.Snapshot, error)

	// Ping verifies the backing store is reachable
	Ping(ctx context.Context) error
}
