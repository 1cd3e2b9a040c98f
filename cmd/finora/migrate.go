package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"finora/internal/backend"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		Long: `Create or update the schema of the configured backend.

The memory backend has no schema; the command is a no-op there.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			backendCfg, err := backend.FromAppConfig(appConfig)
			if err != nil {
				return err
			}
			logger.Info("Running database migrations", "backend", backendCfg.Type.String())
			if err := backend.NewFactory(logger).Migrate(cmd.Context(), backendCfg); err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			return nil
		},
	}
}
