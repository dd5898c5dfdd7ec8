package cmd

import (
	"database/sql"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/strrl/postwatch/internal/activity"
	"github.com/strrl/postwatch/internal/config"
	"github.com/strrl/postwatch/internal/db"
	"github.com/strrl/postwatch/internal/logging"
	"github.com/strrl/postwatch/internal/policy"
)

var (
	flagDB       string
	flagPolicies string
	flagLogLevel string
	flagLogJSON  bool

	cfg    config.Config
	logger *logrus.Logger
)

var rootCmd = &cobra.Command{
	Use:   "postwatch",
	Short: "Monitor automated accounts for posting schedule compliance",
	Long: `postwatch collects the public activity of automated social accounts, stores it
in DuckDB, and scores each account against its declared posting policy.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		config.LoadEnv(nil)
		cfg = config.FromEnv()

		if cmd.Flags().Changed("db") {
			cfg.DBPath = flagDB
		}
		if cmd.Flags().Changed("policies") {
			cfg.PolicyFile = flagPolicies
		}
		if cmd.Flags().Changed("log-level") {
			cfg.LogLevel = flagLogLevel
		}
		if cmd.Flags().Changed("log-json") {
			cfg.LogJSON = flagLogJSON
		}

		logger = logging.NewLogger(cfg.LogLevel, cfg.LogJSON)
		return nil
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.CompletionOptions.HiddenDefaultCmd = false

	d := config.Default()
	rootCmd.PersistentFlags().StringVar(&flagDB, "db", d.DBPath, "Path to the DuckDB database")
	rootCmd.PersistentFlags().StringVar(&flagPolicies, "policies", "", "Policy YAML file (default: built-in accounts)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", d.LogLevel, "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().BoolVar(&flagLogJSON, "log-json", false, "Emit JSON logs")
}

func openStore() (*sql.DB, *activity.Store, error) {
	database, err := db.Open(cfg.DBPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}
	return database, activity.NewStore(database), nil
}

func loadRegistry() (*policy.Registry, error) {
	registry, err := policy.Load(cfg.PolicyFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load policies: %w", err)
	}
	logger.WithField("actors", registry.Keys()).Debug("Loaded policy registry")
	return registry, nil
}
