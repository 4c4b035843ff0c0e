package app

import (
	"context"
	"math"

	"prevalence/domain/prevalence"
	"prevalence/internal"
	"prevalence/internal/analysis"
	"prevalence/ports"
)

// AnalysisService orchestrates a full prevalence analysis: frequentist test,
// Bayesian posterior family, and persistence of the combined result.
type AnalysisService struct {
	repo   ports.AnalysisRepository
	logger *internal.Logger
}

// AnalysisRequest defines inputs for one prevalence analysis
type AnalysisRequest struct {
	StudyName   string
	Observed    prevalence.ObservedData
	TestConfig  prevalence.TestConfig
	BayesConfig prevalence.BayesConfig
	// HPDIMass is the probability mass of the reported highest-density
	// interval; BoundMass the mass above the one-sided lower bound.
	HPDIMass  float64
	BoundMass float64
}

// DefaultAnalysisRequest returns a request with the conventional defaults
// applied; the caller fills in Observed and StudyName.
func DefaultAnalysisRequest() AnalysisRequest {
	return AnalysisRequest{
		TestConfig:  prevalence.DefaultTestConfig(),
		BayesConfig: prevalence.DefaultBayesConfig(),
		HPDIMass:    0.96,
		BoundMass:   0.95,
	}
}

// NewAnalysisService creates an analysis service
func NewAnalysisService(repo ports.AnalysisRepository, logger *internal.Logger) *AnalysisService {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &AnalysisService{repo: repo, logger: logger}
}

// Run executes both inference branches over the observed data and persists
// the combined analysis.
func (s *AnalysisService) Run(ctx context.Context, req AnalysisRequest) (*prevalence.Analysis, error) {
	freq, err := analysis.FrequentistTest(req.Observed, req.TestConfig)
	if err != nil {
		return nil, err
	}
	k, n := freq.K, freq.N

	bayes, err := s.bayesSummary(k, n, req)
	if err != nil {
		return nil, err
	}

	result := prevalence.NewAnalysis(req.StudyName, k, n, req.TestConfig, req.BayesConfig, *freq, *bayes)
	if s.repo != nil {
		if err := s.repo.Store(ctx, result); err != nil {
			return nil, err
		}
	}

	s.logger.Info("analysis %s: k=%d n=%d p_null=%.4g map=%.3f hpdi=[%.3f, %.3f]",
		result.ID, k, n, freq.PNull, bayes.MAP, bayes.HPDI.Lower, bayes.HPDI.Upper)
	return result, nil
}

func (s *AnalysisService) bayesSummary(k, n int, req AnalysisRequest) (*prevalence.BayesSummary, error) {
	cfg := req.BayesConfig

	mapEst, err := analysis.MAP(k, n, cfg)
	if err != nil {
		return nil, err
	}
	bound, err := analysis.LowerBound(req.BoundMass, k, n, cfg)
	if err != nil {
		return nil, err
	}
	hpdi, err := analysis.HPDI(req.HPDIMass, k, n, cfg)
	if err != nil {
		return nil, err
	}

	// The posterior tail is reported against the frequentist null so the two
	// branches answer the same question.
	nullGamma := req.TestConfig.Gamma0
	prob, err := analysis.PosteriorProb(nullGamma, k, n, cfg)
	if err != nil {
		return nil, err
	}
	logOdds, err := analysis.PosteriorLogOdds(nullGamma, k, n, cfg)
	if err != nil {
		return nil, err
	}
	// The global null gamma_0 = 0 (and its mirror gamma_0 = 1) puts the tail
	// probability exactly at 1 or 0, where the log-odds is infinite. The
	// summary carries no log-odds in that case rather than a value JSON
	// cannot encode.
	var logOddsOut *float64
	if !math.IsInf(logOdds, 0) {
		logOddsOut = &logOdds
	}

	return &prevalence.BayesSummary{
		MAP:              mapEst,
		LowerBound:       bound,
		BoundMass:        req.BoundMass,
		HPDI:             hpdi,
		ProbAboveNull:    prob,
		LogOddsAboveNull: logOddsOut,
		NullGamma:        nullGamma,
	}, nil
}
