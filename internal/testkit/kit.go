package testkit

import (
	"context"
	"math/rand"
	"sort"
	"sync"

	"github.com/google/uuid"

	"prevalence/domain/prevalence"
	"prevalence/internal/errors"
)

// InMemoryAnalysisRepository implements ports.AnalysisRepository with
// map-backed storage, for tests and for running the API without a database.
type InMemoryAnalysisRepository struct {
	mu       sync.RWMutex
	analyses map[uuid.UUID]*prevalence.Analysis
	order    []uuid.UUID
}

// NewInMemoryAnalysisRepository creates an empty in-memory repository
func NewInMemoryAnalysisRepository() *InMemoryAnalysisRepository {
	return &InMemoryAnalysisRepository{
		analyses: make(map[uuid.UUID]*prevalence.Analysis),
	}
}

func (r *InMemoryAnalysisRepository) Store(ctx context.Context, a *prevalence.Analysis) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.analyses[a.ID]; !exists {
		r.order = append(r.order, a.ID)
	}
	cp := *a
	r.analyses[a.ID] = &cp
	return nil
}

func (r *InMemoryAnalysisRepository) GetByID(ctx context.Context, id uuid.UUID) (*prevalence.Analysis, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.analyses[id]
	if !ok {
		return nil, errors.NotFound("analysis")
	}
	cp := *a
	return &cp, nil
}

func (r *InMemoryAnalysisRepository) List(ctx context.Context, limit int) ([]*prevalence.Analysis, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]uuid.UUID, len(r.order))
	copy(ids, r.order)
	// Newest first.
	sort.SliceStable(ids, func(i, j int) bool {
		return r.analyses[ids[i]].CreatedAt.After(r.analyses[ids[j]].CreatedAt)
	})
	if limit > 0 && limit < len(ids) {
		ids = ids[:limit]
	}

	out := make([]*prevalence.Analysis, 0, len(ids))
	for _, id := range ids {
		cp := *r.analyses[id]
		out = append(out, &cp)
	}
	return out, nil
}

// SyntheticStudy generates per-individual p-values under the two-state
// mixture model the prevalence test assumes: a fraction gamma of individuals
// truly carry the effect and their tests reject with probability betaInd;
// the rest reject with probability alphaInd. Deterministic for a given seed.
func SyntheticStudy(n int, gamma, alphaInd, betaInd float64, seed int64) []float64 {
	rng := rand.New(rand.NewSource(seed))
	pvalues := make([]float64, n)
	for i := range pvalues {
		rejectRate := alphaInd
		if rng.Float64() < gamma {
			rejectRate = betaInd
		}
		if rng.Float64() < rejectRate {
			// Significant: uniform below the threshold.
			pvalues[i] = rng.Float64() * alphaInd
		} else {
			// Non-significant: uniform on the rest of the interval.
			pvalues[i] = alphaInd + rng.Float64()*(1-alphaInd)
		}
	}
	return pvalues
}
