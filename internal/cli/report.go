package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/samurailab/poolsweep/internal/report"
	"github.com/samurailab/poolsweep/internal/results"
)

func analyzeCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "analyze",
		Short: "Aggregate stored run records into CSV reports",
		Long: `Load every run record from the results directory and write, into the
analysis directory:
  cpu_<limit>_<metric>.csv   worker threads x pool size matrix per metric
  summary_all_tests.csv      one row per run
  best_configurations.csv    best throughput and p99 latency per limit`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p := app.printer
			p.Step("Analyzing results in %s...", app.cfg.ResultsDir())

			store := results.NewStore(app.cfg.ResultsDir())
			written, err := report.NewAggregator(store, app.cfg.AnalysisDir()).Run()
			p.Written(written)

			switch {
			case errors.Is(err, results.ErrNoResultsDir), errors.Is(err, report.ErrNoRecords):
				p.Failure("No test results found in %s", app.cfg.ResultsDir())
				return err
			case err != nil:
				p.Failure("Some reports could not be written")
				return err
			}
			return nil
		},
	}
}

func summarizeCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "summarize",
		Short: "Build multiplier-indexed tables from the summary report",
		Long: `Read summary_all_tests.csv from the analysis directory and write, per
configured limit, throughput and p99 latency tables indexed by the nominal
thread and pool multipliers:
  cpu_<limit>_multiplier_throughput.csv
  cpu_<limit>_multiplier_p99_latency.csv
Run analyze first.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p := app.printer
			s := app.cfg.Sweep
			p.Step("Generating summary tables for %d limits...", len(s.ResourceLimits))

			written, err := report.NewSummarizer(
				app.cfg.AnalysisDir(),
				s.ResourceLimits,
				s.ThreadMultipliers,
				s.PoolMultipliers,
			).Run()
			p.Written(written)
			if err != nil {
				p.Failure("Summary tables incomplete")
				return err
			}
			return nil
		},
	}
}
