package analysis

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"prevalence/domain/prevalence"
)

// The Bayesian posterior family shares one model: prevalence γ gets a uniform
// prior on [0,1]; with per-person false-positive rate a and true-positive rate
// b, the positive rate θ = a + (b−a)γ lies in [a,b], and observing k positive
// tests out of n induces a Beta(k+1, n−k+1) posterior over θ truncated and
// renormalized to [a,b]. Every function below queries that posterior at a
// point and rescales back to γ. (Ince et al., 2021; Donhauser et al., 2018.)

// thetaPosterior returns the untruncated Beta posterior over theta plus the
// CDF values bounding the truncation window.
func thetaPosterior(k, n int, cfg prevalence.BayesConfig) (dist distuv.Beta, cdfLo, cdfHi float64) {
	dist = distuv.Beta{Alpha: float64(k + 1), Beta: float64(n - k + 1)}
	return dist, dist.CDF(cfg.Alpha), dist.CDF(cfg.Beta)
}

// gammaToTheta maps prevalence to the positive-rate coordinate.
func gammaToTheta(gamma float64, cfg prevalence.BayesConfig) float64 {
	return cfg.Alpha + (cfg.Beta-cfg.Alpha)*gamma
}

// thetaToGamma maps the positive-rate coordinate back to prevalence.
func thetaToGamma(theta float64, cfg prevalence.BayesConfig) float64 {
	return (theta - cfg.Alpha) / (cfg.Beta - cfg.Alpha)
}

// MAP returns the maximum a posteriori prevalence estimate, clamped to [0,1].
func MAP(k, n int, cfg prevalence.BayesConfig) (float64, error) {
	if err := cfg.Validate(); err != nil {
		return 0, err
	}
	if err := prevalence.ValidateCounts(k, n); err != nil {
		return 0, err
	}
	est := (float64(k)/float64(n) - cfg.Alpha) / (cfg.Beta - cfg.Alpha)
	return clamp(est, 0, 1), nil
}

// PosteriorDensity evaluates the posterior density of prevalence at x. The
// (b−a) factor accounts for the change of variable from theta to gamma, and
// the CDF difference renormalizes for the truncation to [a,b].
func PosteriorDensity(x float64, k, n int, cfg prevalence.BayesConfig) (float64, error) {
	if err := cfg.Validate(); err != nil {
		return 0, err
	}
	if err := prevalence.ValidateCounts(k, n); err != nil {
		return 0, err
	}
	if x < 0 || x > 1 {
		return 0, nil
	}
	dist, cdfLo, cdfHi := thetaPosterior(k, n, cfg)
	scale := cfg.Beta - cfg.Alpha
	return scale * dist.Prob(gammaToTheta(x, cfg)) / (cdfHi - cdfLo), nil
}

// LowerBound returns the one-sided lower credible bound: the prevalence with
// posterior mass p above it.
func LowerBound(p float64, k, n int, cfg prevalence.BayesConfig) (float64, error) {
	if err := cfg.Validate(); err != nil {
		return 0, err
	}
	if err := prevalence.ValidateCounts(k, n); err != nil {
		return 0, err
	}
	if err := validateMass(p); err != nil {
		return 0, err
	}
	dist, cdfLo, cdfHi := thetaPosterior(k, n, cfg)
	theta := dist.Quantile(cdfLo + (1-p)*(cdfHi-cdfLo))
	return clamp(thetaToGamma(theta, cfg), 0, 1), nil
}

// PosteriorProb returns P(γ > x) under the posterior.
func PosteriorProb(x float64, k, n int, cfg prevalence.BayesConfig) (float64, error) {
	if err := cfg.Validate(); err != nil {
		return 0, err
	}
	if err := prevalence.ValidateCounts(k, n); err != nil {
		return 0, err
	}
	dist, cdfLo, cdfHi := thetaPosterior(k, n, cfg)
	if x <= 0 {
		return 1, nil
	}
	if x >= 1 {
		return 0, nil
	}
	return (cdfHi - dist.CDF(gammaToTheta(x, cfg))) / (cdfHi - cdfLo), nil
}

// PosteriorLogOdds returns log(P/(1−P)) for P = PosteriorProb(x, ...).
func PosteriorLogOdds(x float64, k, n int, cfg prevalence.BayesConfig) (float64, error) {
	p, err := PosteriorProb(x, k, n, cfg)
	if err != nil {
		return 0, err
	}
	return math.Log(p / (1 - p)), nil
}

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
