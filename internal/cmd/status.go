package cmd

import (
	"github.com/spf13/cobra"

	"github.com/strrl/postwatch/internal/output"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the result of the latest collection cycle",
	RunE: func(cmd *cobra.Command, args []string) error {
		database, store, err := openStore()
		if err != nil {
			return err
		}
		defer database.Close()

		session, err := store.LatestSession(cmd.Context())
		if err != nil {
			return err
		}
		return output.WriteStatus(cmd.OutOrStdout(), output.StatusFromSession(session))
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
