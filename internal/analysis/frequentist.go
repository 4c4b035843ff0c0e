package analysis

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"prevalence/domain/prevalence"
)

// FrequentistTest tests whether the population prevalence of a within-person
// effect exceeds the null value cfg.Gamma0, given only the count of
// individuals whose person-level test passed threshold.
//
// The test enumerates a grid of candidate prevalences. At each candidate γ a
// person yields a positive test with probability
//
//	p(γ) = γ·beta_individual + (1−γ)·alpha_individual
//
// (true positives plus false positives), so the positive count is binomial.
// PNull is the upper-tail probability P(J ≥ k | γ₀); GammaCritical is the
// largest grid prevalence still rejectable at alpha_group.
func FrequentistTest(observed prevalence.ObservedData, cfg prevalence.TestConfig) (*prevalence.FrequentistResult, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	k, n, err := observed.Counts(cfg.AlphaIndividual)
	if err != nil {
		return nil, err
	}

	// The grid divides [0,1] into round(1/GridStep) equal intervals. Dividing
	// by steps rather than multiplying by GridStep keeps both endpoints exact
	// when GridStep does not divide 1.
	steps := int(math.Round(1 / cfg.GridStep))
	nullIdx := int(math.Round(cfg.Gamma0 * float64(steps)))
	if nullIdx > steps {
		nullIdx = steps
	}

	result := &prevalence.FrequentistResult{K: k, N: n, GammaCritical: 0}
	for i := 0; i <= steps; i++ {
		gamma := float64(i) / float64(steps)
		tail := binomialUpperTail(k, n, positiveRate(gamma, cfg.AlphaIndividual, cfg.BetaIndividual))
		if i == nullIdx {
			result.PNull = tail
		}
		// The tail grows with gamma, so the last grid point below the
		// threshold is the critical prevalence.
		if tail < cfg.AlphaGroup {
			result.GammaCritical = gamma
		}
	}
	return result, nil
}

// positiveRate is the marginal probability of a positive person-level test at
// prevalence gamma.
func positiveRate(gamma, alphaInd, betaInd float64) float64 {
	return gamma*betaInd + (1-gamma)*alphaInd
}

// binomialUpperTail computes P(J >= k) for J ~ Binomial(n, p), summing the
// mass strictly below k and subtracting so k stays inclusive in the tail.
func binomialUpperTail(k, n int, p float64) float64 {
	if k <= 0 {
		return 1
	}
	if k > n {
		return 0
	}
	// Degenerate rates: distuv's log-space pmf produces NaN at the support
	// boundary when p is exactly 0 or 1.
	if p <= 0 {
		return 0
	}
	if p >= 1 {
		return 1
	}

	bin := distuv.Binomial{N: float64(n), P: p}
	below := 0.0
	for j := 0; j < k; j++ {
		below += bin.Prob(float64(j))
	}
	tail := 1 - below
	if tail < 0 {
		tail = 0
	}
	return tail
}
