package cmd

import (
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/strrl/postwatch/internal/collector"
)

var (
	collectOnce     bool
	collectInterval time.Duration
	collectMirrors  []string
)

var collectCmd = &cobra.Command{
	Use:   "collect",
	Short: "Fetch account feeds from the configured mirrors into the store",
	Long: `Fetch each registered account's public feed from the configured mirrors and
upsert the records. Runs on an interval until interrupted, or once with --once.`,
	RunE: runCollect,
}

func init() {
	rootCmd.AddCommand(collectCmd)

	collectCmd.Flags().BoolVar(&collectOnce, "once", false, "Run a single monitoring cycle and exit")
	collectCmd.Flags().DurationVar(&collectInterval, "interval", 0, "Time between cycles (default: POSTWATCH_CHECK_INTERVAL)")
	collectCmd.Flags().StringSliceVar(&collectMirrors, "mirror", nil, "Feed mirror base URL, repeatable (default: POSTWATCH_MIRRORS)")
}

func newCollector(store collector.Sink) (*collector.Collector, error) {
	registry, err := loadRegistry()
	if err != nil {
		return nil, err
	}

	ccfg := collector.DefaultConfig()
	ccfg.Mirrors = cfg.Mirrors
	if len(collectMirrors) > 0 {
		ccfg.Mirrors = collectMirrors
	}
	client, err := collector.NewClient(ccfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create feed client: %w", err)
	}
	return collector.New(registry, client, store, logger), nil
}

func runCollect(cmd *cobra.Command, args []string) error {
	database, store, err := openStore()
	if err != nil {
		return err
	}
	defer database.Close()

	c, err := newCollector(store)
	if err != nil {
		return err
	}

	if collectOnce {
		session, err := c.RunCycle(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Session %s: %d records, %d errors\n",
			session.ID, session.RecordsFound, len(session.Errors))
		return nil
	}

	interval := collectInterval
	if interval <= 0 {
		interval = cfg.CheckInterval
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.WithField("interval", interval).Info("Starting continuous monitoring")
	return c.Run(ctx, interval)
}
