package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"prevalence/domain/prevalence"
	"prevalence/internal/errors"
)

func majorityNullConfig() prevalence.TestConfig {
	return prevalence.DefaultTestConfig()
}

func globalNullConfig() prevalence.TestConfig {
	cfg := prevalence.DefaultTestConfig()
	cfg.Gamma0 = 0
	return cfg
}

func TestFrequentistTest_MajorityNull_FailsToReject(t *testing.T) {
	// 4 of 45 individuals positive can never beat a 50% prevalence null.
	observed, err := prevalence.ObservedFromCounts(4, 45)
	require.NoError(t, err)

	result, err := FrequentistTest(observed, majorityNullConfig())
	require.NoError(t, err)

	assert.InDelta(t, 1.0, result.PNull, 1e-6)
	assert.Equal(t, 4, result.K)
	assert.Equal(t, 45, result.N)
}

func TestFrequentistTest_GlobalNull_TwoPositives(t *testing.T) {
	observed, err := prevalence.ObservedFromCounts(2, 45)
	require.NoError(t, err)

	result, err := FrequentistTest(observed, globalNullConfig())
	require.NoError(t, err)

	// P(J >= 2 | n=45, p=0.05) = 1 - P(0) - P(1) ~ 0.67.
	assert.InDelta(t, 0.67, result.PNull, 0.01)
}

func TestFrequentistTest_ZeroPositives_GlobalNull(t *testing.T) {
	observed, err := prevalence.ObservedFromCounts(0, 45)
	require.NoError(t, err)

	result, err := FrequentistTest(observed, globalNullConfig())
	require.NoError(t, err)

	// Zero-or-more positives is certain, so there is no evidence against
	// the global null.
	assert.Equal(t, 1.0, result.PNull)
	assert.Equal(t, 0.0, result.GammaCritical)
}

func TestFrequentistTest_PNullMonotoneInGamma0(t *testing.T) {
	observed, err := prevalence.ObservedFromCounts(10, 45)
	require.NoError(t, err)

	prev := -1.0
	for _, gamma0 := range []float64{0, 0.1, 0.25, 0.5, 0.75, 0.9, 1.0} {
		cfg := prevalence.DefaultTestConfig()
		cfg.Gamma0 = gamma0
		result, err := FrequentistTest(observed, cfg)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, result.PNull, prev, "p_null must be non-decreasing in gamma_0 (gamma_0=%g)", gamma0)
		prev = result.PNull
	}
}

func TestFrequentistTest_FromPValues(t *testing.T) {
	// 3 of 10 below the 0.05 threshold; 0.05 itself does not count.
	pvalues := []float64{0.001, 0.02, 0.049, 0.05, 0.2, 0.4, 0.6, 0.7, 0.8, 0.95}
	observed, err := prevalence.ObservedFromPValues(pvalues)
	require.NoError(t, err)

	result, err := FrequentistTest(observed, globalNullConfig())
	require.NoError(t, err)
	assert.Equal(t, 3, result.K)
	assert.Equal(t, 10, result.N)

	// Counts input must agree with the equivalent p-value input.
	counted, err := prevalence.ObservedFromCounts(3, 10)
	require.NoError(t, err)
	fromCounts, err := FrequentistTest(counted, globalNullConfig())
	require.NoError(t, err)
	assert.Equal(t, result.PNull, fromCounts.PNull)
	assert.Equal(t, result.GammaCritical, fromCounts.GammaCritical)
}

func TestFrequentistTest_GammaCriticalBounds(t *testing.T) {
	// A strong signal leaves a wide rejectable range below the estimate.
	observed, err := prevalence.ObservedFromCounts(40, 45)
	require.NoError(t, err)

	result, err := FrequentistTest(observed, majorityNullConfig())
	require.NoError(t, err)
	assert.Greater(t, result.GammaCritical, 0.5)
	assert.LessOrEqual(t, result.GammaCritical, 1.0)
	assert.Less(t, result.PNull, 0.05)
}

func TestFrequentistTest_CoarseGridKeepsEndpointsExact(t *testing.T) {
	// A step that does not divide 1 must still evaluate gamma_0 = 1 at
	// exactly 1, not at the nearest multiple of the step.
	cfg := prevalence.TestConfig{
		AlphaIndividual: 0.05,
		BetaIndividual:  0.9,
		AlphaGroup:      0.05,
		Gamma0:          1,
		GridStep:        0.3,
	}
	observed, err := prevalence.ObservedFromCounts(40, 45)
	require.NoError(t, err)

	result, err := FrequentistTest(observed, cfg)
	require.NoError(t, err)

	want := binomialUpperTail(40, 45, positiveRate(1, 0.05, 0.9))
	assert.Equal(t, want, result.PNull)
	assert.LessOrEqual(t, result.GammaCritical, 1.0)

	// The other endpoint: gamma_0 = 0 on the same coarse grid.
	cfg.Gamma0 = 0
	result, err = FrequentistTest(observed, cfg)
	require.NoError(t, err)
	assert.Equal(t, binomialUpperTail(40, 45, positiveRate(0, 0.05, 0.9)), result.PNull)
}

func TestFrequentistTest_InvalidInputs(t *testing.T) {
	observed, err := prevalence.ObservedFromCounts(4, 45)
	require.NoError(t, err)

	tests := []struct {
		name   string
		mutate func(*prevalence.TestConfig)
	}{
		{"alpha_individual at zero", func(c *prevalence.TestConfig) { c.AlphaIndividual = 0 }},
		{"alpha_individual at one", func(c *prevalence.TestConfig) { c.AlphaIndividual = 1 }},
		{"beta_individual above one", func(c *prevalence.TestConfig) { c.BetaIndividual = 1.5 }},
		{"alpha equals beta", func(c *prevalence.TestConfig) { c.AlphaIndividual = 0.5; c.BetaIndividual = 0.5 }},
		{"gamma_0 above one", func(c *prevalence.TestConfig) { c.Gamma0 = 1.5 }},
		{"grid step zero", func(c *prevalence.TestConfig) { c.GridStep = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := prevalence.DefaultTestConfig()
			tt.mutate(&cfg)
			_, err := FrequentistTest(observed, cfg)
			require.Error(t, err)
			assert.Equal(t, errors.CodeConfigInvalid, errors.GetCode(err))
		})
	}
}

func TestObservedFromCounts_RejectsInconsistentCounts(t *testing.T) {
	_, err := prevalence.ObservedFromCounts(5, 4)
	require.Error(t, err)
	assert.Equal(t, errors.CodeInvalidObserved, errors.GetCode(err))

	_, err = prevalence.ObservedFromCounts(-1, 4)
	require.Error(t, err)

	_, err = prevalence.ObservedFromCounts(0, 0)
	require.Error(t, err)
}
