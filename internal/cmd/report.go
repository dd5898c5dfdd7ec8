package cmd

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/strrl/postwatch/internal/aggregator"
	"github.com/strrl/postwatch/internal/analyzer"
	"github.com/strrl/postwatch/internal/output"
)

var (
	reportHours  int
	reportActor  string
	reportStrict bool
	reportNoSave bool
	reportJSON   bool
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Score every monitored account against its posting policy",
	Long: `Analyze the stored activity of every registered account over a trailing
window, print a compliance summary, and save the full report as JSON in the
reports directory.`,
	RunE: runReport,
}

func init() {
	rootCmd.AddCommand(reportCmd)

	reportCmd.Flags().IntVar(&reportHours, "hours", 0, "Analysis window in hours (default: POSTWATCH_LOOKBACK_HOURS)")
	reportCmd.Flags().StringVar(&reportActor, "actor", "", "Analyze a single actor key instead of the whole registry")
	reportCmd.Flags().BoolVar(&reportStrict, "strict", false, "Fail the report when any actor's records cannot be fetched")
	reportCmd.Flags().BoolVar(&reportNoSave, "no-save", false, "Do not write the JSON report file")
	reportCmd.Flags().BoolVar(&reportJSON, "json", false, "Print the report as JSON instead of text")
}

func runReport(cmd *cobra.Command, args []string) error {
	hours := reportHours
	if hours <= 0 {
		hours = cfg.LookbackHours
	}

	registry, err := loadRegistry()
	if err != nil {
		return err
	}

	database, store, err := openStore()
	if err != nil {
		return err
	}
	defer database.Close()

	aggCfg := aggregator.Config{
		FetchTimeout:    cfg.FetchTimeout,
		Concurrency:     cfg.Concurrency,
		IsolateFailures: !reportStrict,
	}
	agg := aggregator.NewAggregator(aggCfg, registry, store, analyzer.NewDefault(), aggregator.WithLogger(logger))

	out := cmd.OutOrStdout()
	ctx := cmd.Context()

	if reportActor != "" {
		analysis, err := agg.AnalyzeActor(ctx, reportActor, hours)
		if err != nil {
			return err
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(analysis)
	}

	report, err := agg.GenerateReport(ctx, hours)
	if err != nil {
		return fmt.Errorf("failed to generate report: %w", err)
	}

	if reportJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			return err
		}
	} else if err := output.WriteSummary(out, report); err != nil {
		return err
	}

	if reportNoSave {
		return nil
	}
	path, err := output.SaveJSON(cfg.ReportsDir, report, time.Now())
	if err != nil {
		return err
	}
	logger.WithField("path", path).Info("Report saved")
	if !reportJSON {
		fmt.Fprintf(out, "\nFull report saved to %s\n", path)
	}
	return nil
}
