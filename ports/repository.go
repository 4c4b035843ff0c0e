package ports

import (
	"context"

	"github.com/google/uuid"

	"prevalence/domain/prevalence"
)

// AnalysisRepository persists completed prevalence analyses.
type AnalysisRepository interface {
	// Store saves a completed analysis.
	Store(ctx context.Context, analysis *prevalence.Analysis) error

	// GetByID retrieves an analysis by its ID.
	GetByID(ctx context.Context, id uuid.UUID) (*prevalence.Analysis, error)

	// List returns the most recent analyses, newest first. A limit of 0
	// means no limit.
	List(ctx context.Context, limit int) ([]*prevalence.Analysis, error)
}
