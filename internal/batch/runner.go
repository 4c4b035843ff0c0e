package batch

import (
	"context"

	"golang.org/x/sync/errgroup"

	"prevalence/app"
	"prevalence/domain/prevalence"
	"prevalence/internal"
)

// Runner evaluates many independent prevalence analyses concurrently. Each
// dataset is a pure call-and-return computation, so the fan-out needs no
// coordination beyond the bound on in-flight work.
type Runner struct {
	service     *app.AnalysisService
	concurrency int
	logger      *internal.Logger
}

// NewRunner creates a batch runner. concurrency <= 0 means unbounded.
func NewRunner(service *app.AnalysisService, concurrency int, logger *internal.Logger) *Runner {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &Runner{service: service, concurrency: concurrency, logger: logger}
}

// RunAll executes every request and returns results in request order. The
// first failing dataset cancels the remainder and its error is returned.
func (r *Runner) RunAll(ctx context.Context, requests []app.AnalysisRequest) ([]*prevalence.Analysis, error) {
	results := make([]*prevalence.Analysis, len(requests))

	g, gctx := errgroup.WithContext(ctx)
	if r.concurrency > 0 {
		g.SetLimit(r.concurrency)
	}

	for i, req := range requests {
		i, req := i, req
		g.Go(func() error {
			result, err := r.service.Run(gctx, req)
			if err != nil {
				r.logger.Error("batch dataset %d (%s): %v", i, req.StudyName, err)
				return err
			}
			results[i] = result
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	r.logger.Info("batch completed: %d analyses", len(results))
	return results, nil
}
