package analysis

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"prevalence/domain/prevalence"
	"prevalence/internal/errors"
)

const hpdiTolerance = 1e-10

// hpdiMaxIterations caps the interior density-interval solve. A variable so
// tests can force the exhausted-iterations path.
var hpdiMaxIterations = 100

// hpdiBranch classifies the shape of the truncated posterior, which decides
// how the highest-density interval is anchored.
type hpdiBranch int

const (
	// branchLeftAnchored: density monotonically decreasing over [a,b], the
	// HDI starts at the left truncation boundary.
	branchLeftAnchored hpdiBranch = iota
	// branchRightAnchored: density monotonically increasing, HDI ends at the
	// right boundary.
	branchRightAnchored
	// branchInterior: interior mode, both endpoints free.
	branchInterior
)

// classifyHPDI keys the branch off k relative to n·a and n·b. k = 0 and k = n
// degenerate a shape parameter to 1, which flattens the corresponding tail;
// k at or beyond the rate implied by chance alone pushes the mode onto the
// truncation boundary.
func classifyHPDI(k, n int, cfg prevalence.BayesConfig) hpdiBranch {
	switch {
	case k == 0 || float64(k) <= float64(n)*cfg.Alpha:
		return branchLeftAnchored
	case k == n || float64(k) >= float64(n)*cfg.Beta:
		return branchRightAnchored
	default:
		return branchInterior
	}
}

// HPDI returns the shortest posterior interval over prevalence containing
// probability mass p. The general interior-mode case solves the pair of
// equations {enclosed mass = p, equal density at both endpoints} by Newton
// iteration seeded from the symmetric-tail quantiles; non-convergence is
// reported, never masked.
func HPDI(p float64, k, n int, cfg prevalence.BayesConfig) (prevalence.CredibleInterval, error) {
	if err := cfg.Validate(); err != nil {
		return prevalence.CredibleInterval{}, err
	}
	if err := prevalence.ValidateCounts(k, n); err != nil {
		return prevalence.CredibleInterval{}, err
	}
	if err := validateMass(p); err != nil {
		return prevalence.CredibleInterval{}, err
	}

	dist, cdfLo, cdfHi := thetaPosterior(k, n, cfg)
	mass := cdfHi - cdfLo

	var thetaLo, thetaHi float64
	switch classifyHPDI(k, n, cfg) {
	case branchLeftAnchored:
		thetaLo = cfg.Alpha
		thetaHi = dist.Quantile(cdfLo + p*mass)
	case branchRightAnchored:
		thetaHi = cfg.Beta
		thetaLo = dist.Quantile(cdfHi - p*mass)
	case branchInterior:
		var err error
		thetaLo, thetaHi, err = solveInteriorHPDI(dist, p, mass, cdfLo, cdfHi, cfg)
		if err != nil {
			return prevalence.CredibleInterval{}, err
		}
	}

	return prevalence.CredibleInterval{
		Lower: clamp(thetaToGamma(thetaLo, cfg), 0, 1),
		Upper: clamp(thetaToGamma(thetaHi, cfg), 0, 1),
		Mass:  p,
	}, nil
}

// solveInteriorHPDI finds the interval [lo,hi] within [a,b] with enclosed
// renormalized mass p and equal density at both endpoints. Endpoints that
// leave [a,b] during the solve collapse the problem to the corresponding
// anchored branch, re-solved from the mass constraint alone.
func solveInteriorHPDI(dist distuv.Beta, p, mass, cdfLo, cdfHi float64, cfg prevalence.BayesConfig) (float64, float64, error) {
	// Symmetric-tail seed: (1−p)/2 mass in each tail.
	lo := dist.Quantile(cdfLo + mass*(1-p)/2)
	hi := dist.Quantile(cdfHi - mass*(1-p)/2)

	for iter := 0; iter < hpdiMaxIterations; iter++ {
		if lo <= cfg.Alpha {
			return cfg.Alpha, dist.Quantile(cdfLo + p*mass), nil
		}
		if hi >= cfg.Beta {
			return dist.Quantile(cdfHi - p*mass), cfg.Beta, nil
		}

		rMass := (dist.CDF(hi)-dist.CDF(lo))/mass - p
		rDensity := dist.Prob(hi) - dist.Prob(lo)
		if math.Abs(rMass) < hpdiTolerance && math.Abs(rDensity) < hpdiTolerance*densityScale(dist, lo, hi) {
			return lo, hi, nil
		}

		// Jacobian of (rMass, rDensity) with respect to (lo, hi).
		fLo, fHi := dist.Prob(lo), dist.Prob(hi)
		j11, j12 := -fLo/mass, fHi/mass
		j21, j22 := -betaDensityDeriv(dist, lo), betaDensityDeriv(dist, hi)

		det := j11*j22 - j12*j21
		if det == 0 || math.IsNaN(det) || math.IsInf(det, 0) {
			return 0, 0, errors.NonConvergence(fmt.Sprintf("singular Jacobian in density-interval solve at [%g, %g]", lo, hi))
		}

		dLo := (rMass*j22 - rDensity*j12) / det
		dHi := (rDensity*j11 - rMass*j21) / det
		lo -= dLo
		hi -= dHi

		if math.IsNaN(lo) || math.IsNaN(hi) {
			return 0, 0, errors.NonConvergence("density-interval solve produced NaN endpoints")
		}
		// Keep the iterate ordered around the mode; a crossed interval has no
		// Newton direction back.
		if lo >= hi {
			return 0, 0, errors.NonConvergence(fmt.Sprintf("density-interval endpoints crossed at iteration %d", iter))
		}
	}
	return 0, 0, errors.NonConvergence(fmt.Sprintf("density-interval solve did not converge within %d iterations", hpdiMaxIterations))
}

// betaDensityDeriv is the derivative of the Beta density,
// f'(x) = f(x)·((α−1)/x − (β−1)/(1−x)).
func betaDensityDeriv(dist distuv.Beta, x float64) float64 {
	return dist.Prob(x) * ((dist.Alpha-1)/x - (dist.Beta-1)/(1-x))
}

// densityScale gives an absolute scale for the equal-density residual, so the
// convergence check is not biased by the height of the posterior.
func densityScale(dist distuv.Beta, lo, hi float64) float64 {
	s := dist.Prob(lo) + dist.Prob(hi)
	if s < 1 {
		return 1
	}
	return s
}

func validateMass(p float64) error {
	if p <= 0 || p >= 1 {
		return errors.InvalidInput(fmt.Sprintf("probability mass must be in (0,1), got %g", p))
	}
	return nil
}
