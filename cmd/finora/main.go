package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"finora/internal/cli"
	"finora/internal/config"
	"finora/internal/log"
)

var (
	cfgFile   string
	logLevel  string
	logFormat string
	version   = "dev"

	appConfig *config.Config
	logger    *log.Logger

	rootCmd = &cobra.Command{
		Use:               "finora",
		Short:             "Personal finance REST backend",
		Long:              `finora serves users, categories, transactions and savings goals over a JSON API.`,
		SilenceUsage:      true,
		PersistentPreRunE: initConfig,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format (text, json)")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(seedCmd())
	rootCmd.AddCommand(versionCmd())
}

func main() {
	ctx, cancel := cli.SignalContext(context.Background(), log.New(log.DefaultConfig()))
	err := rootCmd.ExecuteContext(ctx)
	cancel()

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func initConfig(cmd *cobra.Command, _ []string) error {
	if cmd.Name() == "version" {
		return nil
	}
	cli.LoadEnvFile()

	cfg, err := cli.LoadAndValidateConfig(cfgFile)
	if err != nil {
		return err
	}
	l, err := cli.SetupLogger(cfg, log.ComponentApp, logLevel, logFormat)
	if err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}

	appConfig, logger = cfg, l
	return nil
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "finora "+version)
		},
	}
}
