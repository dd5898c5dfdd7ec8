package cmd

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <file.jsonl>...",
	Short: "Import activity records from newline-delimited JSON files",
	Long: `Import activity records exported by an external scraper. Each line is one
record with id, actor, content, timestamp, kind, inReplyTo and engagement.
Malformed lines are skipped and counted.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	database, store, err := openStore()
	if err != nil {
		return err
	}
	defer database.Close()

	for _, path := range args {
		result, err := store.ImportJSONL(cmd.Context(), path)
		if err != nil {
			return fmt.Errorf("failed to import %s: %w", path, err)
		}
		logger.WithFields(logrus.Fields{
			"file":     path,
			"imported": result.Imported,
			"skipped":  result.Skipped,
		}).Info("Import complete")
		fmt.Fprintf(cmd.OutOrStdout(), "%s: imported %d, skipped %d\n", path, result.Imported, result.Skipped)
	}
	return nil
}
