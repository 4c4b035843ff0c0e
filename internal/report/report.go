package report

import (
	"fmt"
	"strings"

	"github.com/montanaflynn/stats"

	"prevalence/domain/prevalence"
)

// Builder renders a completed prevalence analysis as a markdown report.
type Builder struct{}

// NewBuilder creates a report builder
func NewBuilder() *Builder {
	return &Builder{}
}

// Render produces the markdown report for one analysis. pvalues may be nil
// when the analysis was run from a counts pair; the descriptives section is
// omitted in that case.
func (b *Builder) Render(a *prevalence.Analysis, pvalues []float64) string {
	var sb strings.Builder

	name := a.StudyName
	if name == "" {
		name = "untitled study"
	}
	fmt.Fprintf(&sb, "# Prevalence analysis: %s\n\n", name)
	fmt.Fprintf(&sb, "Analysis `%s`, run at %s.\n\n", a.ID, a.CreatedAt.Format("2006-01-02 15:04 UTC"))
	fmt.Fprintf(&sb, "%d of %d individuals showed a significant within-person effect at the %.3g person-level threshold.\n\n",
		a.K, a.N, a.TestConfig.AlphaIndividual)

	if len(pvalues) > 0 {
		b.writeDescriptives(&sb, pvalues)
	}
	b.writeFrequentist(&sb, a)
	b.writeBayes(&sb, a)

	return sb.String()
}

func (b *Builder) writeDescriptives(sb *strings.Builder, pvalues []float64) {
	mean, _ := stats.Mean(pvalues)
	median, _ := stats.Median(pvalues)
	q25, _ := stats.Percentile(pvalues, 25)
	q75, _ := stats.Percentile(pvalues, 75)
	min, _ := stats.Min(pvalues)
	max, _ := stats.Max(pvalues)

	sb.WriteString("## Person-level p-values\n\n")
	sb.WriteString("| statistic | value |\n|---|---|\n")
	fmt.Fprintf(sb, "| n | %d |\n", len(pvalues))
	fmt.Fprintf(sb, "| mean | %.4f |\n", mean)
	fmt.Fprintf(sb, "| median | %.4f |\n", median)
	fmt.Fprintf(sb, "| IQR | [%.4f, %.4f] |\n", q25, q75)
	fmt.Fprintf(sb, "| range | [%.4f, %.4f] |\n\n", min, max)
}

func (b *Builder) writeFrequentist(sb *strings.Builder, a *prevalence.Analysis) {
	f := a.Frequentist
	cfg := a.TestConfig

	sb.WriteString("## Frequentist prevalence test\n\n")
	fmt.Fprintf(sb, "Null prevalence γ₀ = %.3g (%s), group-level α = %.3g.\n\n",
		cfg.Gamma0, nullName(cfg.Gamma0), cfg.AlphaGroup)
	fmt.Fprintf(sb, "- p = %.4g\n", f.PNull)
	if f.PNull < cfg.AlphaGroup {
		fmt.Fprintf(sb, "- the null is rejected at α = %.3g\n", cfg.AlphaGroup)
	} else {
		fmt.Fprintf(sb, "- the null is not rejected at α = %.3g\n", cfg.AlphaGroup)
	}
	fmt.Fprintf(sb, "- highest rejectable prevalence: γ = %.3f\n\n", f.GammaCritical)
}

func (b *Builder) writeBayes(sb *strings.Builder, a *prevalence.Analysis) {
	bs := a.Bayes

	sb.WriteString("## Bayesian prevalence\n\n")
	fmt.Fprintf(sb, "- MAP estimate: γ̂ = %.3f\n", bs.MAP)
	fmt.Fprintf(sb, "- %.0f%% lower bound: γ > %.3f\n", bs.BoundMass*100, bs.LowerBound)
	fmt.Fprintf(sb, "- %.0f%% HPDI: [%.3f, %.3f]\n", bs.HPDI.Mass*100, bs.HPDI.Lower, bs.HPDI.Upper)
	if bs.LogOddsAboveNull != nil {
		fmt.Fprintf(sb, "- P(γ > %.3g) = %.4g (log-odds %.3f)\n\n", bs.NullGamma, bs.ProbAboveNull, *bs.LogOddsAboveNull)
	} else {
		fmt.Fprintf(sb, "- P(γ > %.3g) = %.4g\n\n", bs.NullGamma, bs.ProbAboveNull)
	}
}

func nullName(gamma0 float64) string {
	switch gamma0 {
	case 0:
		return "global null"
	case 0.5:
		return "majority null"
	default:
		return "custom null"
	}
}
