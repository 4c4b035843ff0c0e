package report

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"prevalence/app"
	"prevalence/domain/prevalence"
)

func runAnalysis(t *testing.T, k, n int) *prevalence.Analysis {
	t.Helper()
	observed, err := prevalence.ObservedFromCounts(k, n)
	require.NoError(t, err)

	req := app.DefaultAnalysisRequest()
	req.StudyName = "report test"
	req.Observed = observed

	result, err := app.NewAnalysisService(nil, nil).Run(context.Background(), req)
	require.NoError(t, err)
	return result
}

func TestRender_ContainsBothInferenceBranches(t *testing.T) {
	a := runAnalysis(t, 4, 45)
	md := NewBuilder().Render(a, nil)

	assert.Contains(t, md, "# Prevalence analysis: report test")
	assert.Contains(t, md, "## Frequentist prevalence test")
	assert.Contains(t, md, "## Bayesian prevalence")
	assert.Contains(t, md, "majority null")
	assert.Contains(t, md, "4 of 45 individuals")
	// No descriptives without raw p-values.
	assert.NotContains(t, md, "## Person-level p-values")
}

func TestRender_DescriptivesForPValues(t *testing.T) {
	a := runAnalysis(t, 3, 10)
	pvalues := []float64{0.001, 0.02, 0.049, 0.05, 0.2, 0.4, 0.6, 0.7, 0.8, 0.95}
	md := NewBuilder().Render(a, pvalues)

	assert.Contains(t, md, "## Person-level p-values")
	assert.Contains(t, md, "| n | 10 |")
	assert.Contains(t, md, "| median |")
}

func TestRender_RejectionWording(t *testing.T) {
	strong := runAnalysis(t, 40, 45)
	require.Less(t, strong.Frequentist.PNull, strong.TestConfig.AlphaGroup)
	md := NewBuilder().Render(strong, nil)
	assert.Contains(t, md, "the null is rejected")

	weak := runAnalysis(t, 4, 45)
	md = NewBuilder().Render(weak, nil)
	assert.Contains(t, md, "the null is not rejected")
	assert.True(t, strings.Contains(md, "not rejected"))
}
