package analysis

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"prevalence/domain/prevalence"
	"prevalence/internal/errors"
)

func defaultBayes() prevalence.BayesConfig {
	return prevalence.DefaultBayesConfig()
}

func TestMAP_ReferenceScenario(t *testing.T) {
	// k=4, n=45, a=0.05, b=1: (4/45 - 0.05) / 0.95 ~ 0.041.
	est, err := MAP(4, 45, defaultBayes())
	require.NoError(t, err)
	assert.InDelta(t, 0.04, est, 0.01)
}

func TestMAP_StaysInUnitInterval(t *testing.T) {
	cfg := defaultBayes()
	for n := 1; n <= 50; n += 7 {
		for k := 0; k <= n; k++ {
			est, err := MAP(k, n, cfg)
			require.NoError(t, err)
			assert.GreaterOrEqual(t, est, 0.0, "MAP(%d,%d)", k, n)
			assert.LessOrEqual(t, est, 1.0, "MAP(%d,%d)", k, n)
		}
	}
}

func TestMAP_ClampsBelowChanceRate(t *testing.T) {
	// k/n below the false-positive rate would go negative without the clamp.
	est, err := MAP(1, 45, defaultBayes())
	require.NoError(t, err)
	assert.Equal(t, 0.0, est)
}

func TestPosteriorDensity_IntegratesToOne(t *testing.T) {
	// Trapezoid over a fine grid; the renormalized density must carry unit
	// mass on [0,1].
	cfg := defaultBayes()
	const steps = 2000
	h := 1.0 / steps
	sum := 0.0
	for i := 0; i <= steps; i++ {
		x := float64(i) * h
		d, err := PosteriorDensity(x, 4, 45, cfg)
		require.NoError(t, err)
		w := h
		if i == 0 || i == steps {
			w = h / 2
		}
		sum += d * w
	}
	assert.InDelta(t, 1.0, sum, 1e-3)
}

func TestPosteriorProb_FullMassAboveZero(t *testing.T) {
	p, err := PosteriorProb(0, 4, 45, defaultBayes())
	require.NoError(t, err)
	assert.Equal(t, 1.0, p)
}

func TestPosteriorProb_MajorityTailReferenceScenario(t *testing.T) {
	// P(gamma > 0.5 | k=4, n=45) ~ 3.9e-10; check the order of magnitude.
	p, err := PosteriorProb(0.5, 4, 45, defaultBayes())
	require.NoError(t, err)
	require.Greater(t, p, 0.0)
	assert.InDelta(t, -9.4, math.Log10(p), 0.6)
}

func TestPosteriorProb_MonotoneDecreasingInX(t *testing.T) {
	cfg := defaultBayes()
	prev := 2.0
	for _, x := range []float64{0, 0.05, 0.1, 0.25, 0.5, 0.75, 1} {
		p, err := PosteriorProb(x, 10, 45, cfg)
		require.NoError(t, err)
		assert.LessOrEqual(t, p, prev, "tail mass must shrink as x grows (x=%g)", x)
		prev = p
	}
}

func TestPosteriorLogOdds_MatchesTailProbability(t *testing.T) {
	cfg := defaultBayes()
	p, err := PosteriorProb(0.1, 10, 45, cfg)
	require.NoError(t, err)
	lo, err := PosteriorLogOdds(0.1, 10, 45, cfg)
	require.NoError(t, err)
	assert.InDelta(t, math.Log(p/(1-p)), lo, 1e-12)
}

func TestLowerBound_MassAboveBoundMatches(t *testing.T) {
	cfg := defaultBayes()
	for _, mass := range []float64{0.5, 0.9, 0.95} {
		bound, err := LowerBound(mass, 10, 45, cfg)
		require.NoError(t, err)

		above, err := PosteriorProb(bound, 10, 45, cfg)
		require.NoError(t, err)
		assert.InDelta(t, mass, above, 1e-9, "mass above bound at p=%g", mass)
	}
}

func TestBayesConfig_RejectsCollapsedInterval(t *testing.T) {
	cfg := prevalence.BayesConfig{Alpha: 0.3, Beta: 0.3}
	_, err := PosteriorProb(0.5, 4, 45, cfg)
	require.Error(t, err)
	assert.Equal(t, errors.CodeConfigInvalid, errors.GetCode(err))

	_, err = PosteriorLogOdds(0.5, 4, 45, cfg)
	require.Error(t, err)
}

func TestBayes_RejectsInvalidCounts(t *testing.T) {
	cfg := defaultBayes()
	for _, fn := range []func() error{
		func() error { _, err := MAP(5, 4, cfg); return err },
		func() error { _, err := PosteriorDensity(0.5, -1, 4, cfg); return err },
		func() error { _, err := LowerBound(0.95, 5, 0, cfg); return err },
		func() error { _, err := PosteriorProb(0.5, 5, 4, cfg); return err },
	} {
		err := fn()
		require.Error(t, err)
		assert.Equal(t, errors.CodeInvalidObserved, errors.GetCode(err))
	}
}

func TestRescaling_RoundTripIdentity(t *testing.T) {
	cfg := prevalence.BayesConfig{Alpha: 0.07, Beta: 0.83}
	for _, gamma := range []float64{0, 0.1, 0.25, 0.5, 0.75, 0.9, 1} {
		back := thetaToGamma(gammaToTheta(gamma, cfg), cfg)
		assert.InDelta(t, gamma, back, 1e-12)
	}
}
