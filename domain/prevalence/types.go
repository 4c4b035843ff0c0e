package prevalence

import (
	"fmt"
	"time"

	"prevalence/internal/errors"

	"github.com/google/uuid"
)

// ============================================================================
// OBSERVED DATA
// ============================================================================

// ObservedData carries the person-level evidence for a prevalence analysis:
// either the raw per-individual p-values, or a pre-counted (positive, total)
// pair. Exactly one representation is populated.
type ObservedData struct {
	PValues []float64 `json:"p_values,omitempty"`
	K       int       `json:"positive_count"`
	N       int       `json:"total_count"`
	counted bool
}

// ObservedFromPValues builds observed data from per-individual p-values.
func ObservedFromPValues(pvalues []float64) (ObservedData, error) {
	if len(pvalues) == 0 {
		return ObservedData{}, errors.InvalidObserved("empty p-value sequence")
	}
	for i, p := range pvalues {
		if p < 0 || p > 1 {
			return ObservedData{}, errors.InvalidObserved(fmt.Sprintf("p-value at index %d out of [0,1]: %g", i, p))
		}
	}
	vals := make([]float64, len(pvalues))
	copy(vals, pvalues)
	return ObservedData{PValues: vals, N: len(vals)}, nil
}

// ObservedFromCounts builds observed data from a (positive, total) pair.
func ObservedFromCounts(positive, total int) (ObservedData, error) {
	if total <= 0 {
		return ObservedData{}, errors.InvalidObserved(fmt.Sprintf("total count must be > 0, got %d", total))
	}
	if positive < 0 || positive > total {
		return ObservedData{}, errors.InvalidObserved(fmt.Sprintf("positive count must be in [0,%d], got %d", total, positive))
	}
	return ObservedData{K: positive, N: total, counted: true}, nil
}

// Counts reduces the observed data to the sufficient statistics (k, n) under
// the person-level threshold alphaInd. A counts pair passes through unchanged;
// this matches thresholding k zeros and n-k ones.
func (o ObservedData) Counts(alphaInd float64) (k, n int, err error) {
	if o.counted {
		return o.K, o.N, nil
	}
	if len(o.PValues) == 0 {
		return 0, 0, errors.InvalidObserved("observed data holds neither p-values nor counts")
	}
	for _, p := range o.PValues {
		if p < alphaInd {
			k++
		}
	}
	return k, len(o.PValues), nil
}

// ============================================================================
// CONFIGURATION
// ============================================================================

// DefaultGridStep is the default resolution of the candidate-prevalence grid.
// A precision/cost trade-off, not a domain constant.
const DefaultGridStep = 0.001

// TestConfig parameterizes the frequentist prevalence test.
type TestConfig struct {
	AlphaIndividual float64 `json:"alpha_individual"` // per-person test size, in (0,1)
	BetaIndividual  float64 `json:"beta_individual"`  // per-person test sensitivity, in (0,1]
	AlphaGroup      float64 `json:"alpha_group"`      // group-level rejection threshold, in (0,1)
	Gamma0          float64 `json:"gamma_0"`          // null prevalence under test, in [0,1]
	GridStep        float64 `json:"grid_step"`        // candidate-prevalence grid resolution
}

// DefaultTestConfig returns the conventional majority-null configuration.
func DefaultTestConfig() TestConfig {
	return TestConfig{
		AlphaIndividual: 0.05,
		BetaIndividual:  1.0,
		AlphaGroup:      0.05,
		Gamma0:          0.5,
		GridStep:        DefaultGridStep,
	}
}

// Validate checks the test configuration invariants.
func (c TestConfig) Validate() error {
	if c.AlphaIndividual <= 0 || c.AlphaIndividual >= 1 {
		return errors.ConfigInvalid(fmt.Sprintf("alpha_individual must be in (0,1), got %g", c.AlphaIndividual))
	}
	if c.BetaIndividual <= 0 || c.BetaIndividual > 1 {
		return errors.ConfigInvalid(fmt.Sprintf("beta_individual must be in (0,1], got %g", c.BetaIndividual))
	}
	if c.AlphaIndividual >= c.BetaIndividual {
		return errors.ConfigInvalid(fmt.Sprintf("alpha_individual (%g) must be below beta_individual (%g): the person-level test would not discriminate", c.AlphaIndividual, c.BetaIndividual))
	}
	if c.AlphaGroup <= 0 || c.AlphaGroup >= 1 {
		return errors.ConfigInvalid(fmt.Sprintf("alpha_group must be in (0,1), got %g", c.AlphaGroup))
	}
	if c.Gamma0 < 0 || c.Gamma0 > 1 {
		return errors.ConfigInvalid(fmt.Sprintf("gamma_0 must be in [0,1], got %g", c.Gamma0))
	}
	if c.GridStep <= 0 || c.GridStep > 0.5 {
		return errors.ConfigInvalid(fmt.Sprintf("grid_step must be in (0,0.5], got %g", c.GridStep))
	}
	return nil
}

// BayesConfig parameterizes the Bayesian posterior family. Alpha and Beta are
// the per-person false-positive and true-positive rates; the posterior over
// prevalence lives on the transformed interval [Alpha, Beta].
type BayesConfig struct {
	Alpha float64 `json:"alpha"` // per-person false-positive rate
	Beta  float64 `json:"beta"`  // per-person true-positive rate
}

// DefaultBayesConfig returns the conventional a=0.05, b=1 configuration.
func DefaultBayesConfig() BayesConfig {
	return BayesConfig{Alpha: 0.05, Beta: 1.0}
}

// Validate checks the Bayes configuration invariants. Alpha == Beta is
// rejected outright: the theta interval collapses and every posterior
// quantity divides by zero.
func (c BayesConfig) Validate() error {
	if c.Alpha < 0 || c.Alpha >= 1 {
		return errors.ConfigInvalid(fmt.Sprintf("alpha must be in [0,1), got %g", c.Alpha))
	}
	if c.Beta <= 0 || c.Beta > 1 {
		return errors.ConfigInvalid(fmt.Sprintf("beta must be in (0,1], got %g", c.Beta))
	}
	if c.Alpha >= c.Beta {
		return errors.ConfigInvalid(fmt.Sprintf("alpha (%g) must be below beta (%g)", c.Alpha, c.Beta))
	}
	return nil
}

// ValidateCounts checks the sufficient statistics shared by the Bayesian
// posterior family.
func ValidateCounts(k, n int) error {
	if n <= 0 {
		return errors.InvalidObserved(fmt.Sprintf("total count must be > 0, got %d", n))
	}
	if k < 0 || k > n {
		return errors.InvalidObserved(fmt.Sprintf("positive count must be in [0,%d], got %d", n, k))
	}
	return nil
}

// ============================================================================
// RESULTS
// ============================================================================

// FrequentistResult is the outcome of the frequentist prevalence test.
type FrequentistResult struct {
	PNull         float64 `json:"p_null"`         // tail probability at gamma_0
	GammaCritical float64 `json:"gamma_critical"` // highest prevalence rejectable at alpha_group
	K             int     `json:"positive_count"`
	N             int     `json:"total_count"`
}

// CredibleInterval is a posterior interval over prevalence with its enclosed
// probability mass.
type CredibleInterval struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
	Mass  float64 `json:"mass"`
}

// Width returns the interval width.
func (ci CredibleInterval) Width() float64 {
	return ci.Upper - ci.Lower
}

// BayesSummary bundles the posterior-family quantities reported for one
// analysis.
type BayesSummary struct {
	MAP              float64          `json:"map"`
	LowerBound       float64          `json:"lower_bound"`       // one-sided bound at BoundMass
	BoundMass        float64          `json:"bound_mass"`        // mass above LowerBound
	HPDI             CredibleInterval `json:"hpdi"`              // highest posterior density interval
	ProbAboveNull    float64          `json:"prob_above_null"`   // P(gamma > NullGamma)
	// LogOddsAboveNull is nil when ProbAboveNull is exactly 0 or 1: the
	// log-odds is unbounded there and an infinite float64 cannot be encoded
	// as JSON.
	LogOddsAboveNull *float64 `json:"log_odds_above_null,omitempty"`
	NullGamma        float64  `json:"null_gamma"`
}

// Analysis is a completed prevalence analysis: observed counts, both inference
// branches, and enough configuration to reproduce the numbers.
type Analysis struct {
	ID          uuid.UUID         `json:"id"`
	StudyName   string            `json:"study_name"`
	K           int               `json:"positive_count"`
	N           int               `json:"total_count"`
	TestConfig  TestConfig        `json:"test_config"`
	BayesConfig BayesConfig       `json:"bayes_config"`
	Frequentist FrequentistResult `json:"frequentist"`
	Bayes       BayesSummary      `json:"bayes"`
	CreatedAt   time.Time         `json:"created_at"`
}

// NewAnalysis stamps identity and creation time onto a completed analysis.
func NewAnalysis(studyName string, k, n int, tc TestConfig, bc BayesConfig, freq FrequentistResult, bayes BayesSummary) *Analysis {
	return &Analysis{
		ID:          uuid.New(),
		StudyName:   studyName,
		K:           k,
		N:           n,
		TestConfig:  tc,
		BayesConfig: bc,
		Frequentist: freq,
		Bayes:       bayes,
		CreatedAt:   time.Now().UTC(),
	}
}
