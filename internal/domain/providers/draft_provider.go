package providers

import (
	"context"

	"github.com/zatekoja/Medicalqueryreview/internal/domain/entities"
)

// DraftProvider produces a candidate answer for a medical query.
// Implementations return an error for every kind of failure; callers decide how to degrade.
type DraftProvider interface {
	Draft(ctx context.Context, req entities.DraftRequest) (string, error)
}
