package cmd

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/strrl/postwatch/internal/aggregator"
	"github.com/strrl/postwatch/internal/analyzer"
	"github.com/strrl/postwatch/internal/collector"
	"github.com/strrl/postwatch/internal/metrics"
	"github.com/strrl/postwatch/internal/server"
)

var (
	servePort    int
	serveCollect bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the monitoring dashboard and JSON API",
	Long: `Serve the HTML dashboard, the report/posts/status JSON API, health and
Prometheus metrics. With --collect, the feed collector runs in the same process.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().IntVar(&servePort, "port", 0, "HTTP port (default: POSTWATCH_PORT)")
	serveCmd.Flags().BoolVar(&serveCollect, "collect", false, "Also run the feed collector on POSTWATCH_CHECK_INTERVAL")
}

func runServe(cmd *cobra.Command, args []string) error {
	port := servePort
	if port <= 0 {
		port = cfg.Port
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

	mc := metrics.New(Version, GitCommit)
	agg := aggregator.NewAggregator(aggregator.Config{
		FetchTimeout:    cfg.FetchTimeout,
		Concurrency:     cfg.Concurrency,
		IsolateFailures: true,
	}, registry, store, analyzer.NewDefault(), aggregator.WithLogger(logger))

	scfg := server.DefaultConfig(port)
	scfg.DefaultHours = cfg.LookbackHours
	srv, err := server.New(scfg, agg, store, mc, logger)
	if err != nil {
		return err
	}

	var feed *collector.Collector
	if serveCollect {
		ccfg := collector.DefaultConfig()
		ccfg.Mirrors = cfg.Mirrors
		client, err := collector.NewClient(ccfg, logger)
		if err != nil {
			return fmt.Errorf("failed to create feed client: %w", err)
		}
		feed = collector.New(registry, client, store, logger, collector.WithFailureRecorder(mc))
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Start(gctx)
	})
	if feed != nil {
		g.Go(func() error {
			return feed.Run(gctx, cfg.CheckInterval)
		})
	}

	return g.Wait()
}
