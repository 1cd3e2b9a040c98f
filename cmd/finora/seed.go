package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"finora/internal/seed"
)

func seedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Fill the store with demo data",
		Long: `Create demo users, categories, transactions and goals.

Every seeded user logs in with the password "` + seed.DemoPassword + `".`,
		RunE: runSeed,
	}
	cmd.Flags().Int("count", 0, "users to create, and transactions per user (overrides SEED_COUNT)")
	cmd.Flags().Int64("seed", 0, "random seed for reproducible data (0 picks one)")
	return cmd
}

func runSeed(cmd *cobra.Command, _ []string) error {
	count, _ := cmd.Flags().GetInt("count")
	if count == 0 {
		count = appConfig.SeedCount
	}
	randomSeed, _ := cmd.Flags().GetInt64("seed")

	svc, err := openServices(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = svc.Close() }()

	res, err := seed.New(svc, randomSeed, logger).Run(cmd.Context(), count)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "seeded %d users, %d categories, %d transactions, %d goals\n",
		res.Users, res.Categories, res.Transactions, res.Goals)
	return nil
}
