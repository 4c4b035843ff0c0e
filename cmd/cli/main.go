package main

import (
	"fmt"
	"os"
	"strconv"

	"prevalence/adapters/excel"
	"prevalence/app"
	"prevalence/domain/prevalence"
	"prevalence/internal"
	"prevalence/internal/report"
	"prevalence/internal/testkit"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:   "prevalence-cli",
		Short: "Prevalence inference from person-level test results",
	}

	rootCmd.AddCommand(
		newCountsCmd(),
		newFileCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type analysisFlags struct {
	studyName string
	alphaInd  float64
	betaInd   float64
	alphaGrp  float64
	gamma0    float64
	hpdiMass  float64
	boundMass float64
}

func (f *analysisFlags) register(cmd *cobra.Command, defaults prevalence.TestConfig) {
	cmd.Flags().StringVar(&f.studyName, "study", "", "Study name for the report header")
	cmd.Flags().Float64Var(&f.alphaInd, "alpha-ind", defaults.AlphaIndividual, "Within-person false positive rate")
	cmd.Flags().Float64Var(&f.betaInd, "beta-ind", defaults.BetaIndividual, "Within-person sensitivity")
	cmd.Flags().Float64Var(&f.alphaGrp, "alpha-group", defaults.AlphaGroup, "Population-level significance threshold")
	cmd.Flags().Float64Var(&f.gamma0, "gamma0", defaults.Gamma0, "Null prevalence (0 = global null, 0.5 = majority null)")
	cmd.Flags().Float64Var(&f.hpdiMass, "hpdi-mass", 0.96, "Highest posterior density interval mass")
	cmd.Flags().Float64Var(&f.boundMass, "bound-mass", 0.95, "Credible lower bound mass")
}

func (f *analysisFlags) request(observed prevalence.ObservedData) app.AnalysisRequest {
	req := app.DefaultAnalysisRequest()
	req.StudyName = f.studyName
	req.Observed = observed
	req.TestConfig.AlphaIndividual = f.alphaInd
	req.TestConfig.BetaIndividual = f.betaInd
	req.TestConfig.AlphaGroup = f.alphaGrp
	req.TestConfig.Gamma0 = f.gamma0
	req.BayesConfig.Alpha = f.alphaInd
	req.BayesConfig.Beta = f.betaInd
	req.HPDIMass = f.hpdiMass
	req.BoundMass = f.boundMass
	return req
}

func newCountsCmd() *cobra.Command {
	var flags analysisFlags

	cmd := &cobra.Command{
		Use:   "counts [k] [n]",
		Short: "Analyze a study from significant and total participant counts",
		Long: `Run the full prevalence analysis from aggregate counts.

k is the number of participants with a significant within-person result,
n is the total number of participants tested.

Example: prevalence-cli counts 4 45 --gamma0 0.5 --study "Pilot EEG"`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			k, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid k %q: %w", args[0], err)
			}
			n, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid n %q: %w", args[1], err)
			}

			observed, err := prevalence.ObservedFromCounts(k, n)
			if err != nil {
				return err
			}

			return runAnalysis(cmd, flags, observed)
		},
	}

	flags.register(cmd, prevalence.DefaultTestConfig())
	return cmd
}

func newFileCmd() *cobra.Command {
	var flags analysisFlags
	var column string

	cmd := &cobra.Command{
		Use:   "file [path]",
		Short: "Analyze a study from a column of person-level p-values",
		Long: `Run the full prevalence analysis from a CSV or Excel file.

The named column must hold one p-value per participant. Each p-value
below --alpha-ind counts as a significant within-person result.

Example: prevalence-cli file study.csv --column p_value --gamma0 0`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			observed, err := excel.NewDataReader(args[0]).ReadPValues(column)
			if err != nil {
				return err
			}

			return runAnalysis(cmd, flags, observed)
		},
	}

	flags.register(cmd, prevalence.DefaultTestConfig())
	cmd.Flags().StringVar(&column, "column", "p_value", "Column holding person-level p-values")
	return cmd
}

func runAnalysis(cmd *cobra.Command, flags analysisFlags, observed prevalence.ObservedData) error {
	service := app.NewAnalysisService(testkit.NewInMemoryAnalysisRepository(), internal.NewDefaultLogger())

	analysis, err := service.Run(cmd.Context(), flags.request(observed))
	if err != nil {
		return err
	}

	fmt.Fprint(cmd.OutOrStdout(), report.NewBuilder().Render(analysis, observed.PValues))
	return nil
}
