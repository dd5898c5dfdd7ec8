package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/strrl/postwatch/internal/demo"
)

var (
	seedHours int
	seedValue uint64
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Fill the store with synthetic activity for every account",
	Long: `Generate synthetic activity that roughly follows each account's policy and
upsert it into the store. Useful for trying the dashboard without a feed mirror.`,
	RunE: runSeed,
}

func init() {
	rootCmd.AddCommand(seedCmd)

	seedCmd.Flags().IntVar(&seedHours, "hours", 24, "Hours of history to generate")
	seedCmd.Flags().Uint64Var(&seedValue, "seed", uint64(time.Now().UnixNano()), "Random seed")
}

func runSeed(cmd *cobra.Command, args []string) error {
	registry, err := loadRegistry()
	if err != nil {
		return err
	}

	database, store, err := openStore()
	if err != nil {
		return err
	}
	defer database.Close()

	gen := demo.NewGenerator(seedValue, time.Now)
	for _, p := range registry.Policies() {
		records := gen.Generate(p, seedHours)
		n, err := store.Upsert(cmd.Context(), records)
		if err != nil {
			return fmt.Errorf("failed to seed %s: %w", p.Key, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s (@%s): %d records\n", p.DisplayName, p.ActorHandle, n)
	}
	return nil
}
