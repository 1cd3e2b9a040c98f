package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"finora/internal/amqp"
	"finora/internal/cli"
	"finora/internal/config"
	"finora/internal/log"
	"finora/internal/sheets"
	gsheet "finora/internal/sheets/google"
	"finora/internal/sheets/memory"
	"finora/internal/worker"
)

func main() {
	var cfgFile, logLevel, logFormat string

	cmd := &cobra.Command{
		Use:          "finora-worker",
		Short:        "Export record events to the activity sheet",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cli.LoadEnvFile()
			cfg, err := cli.LoadAndValidateConfig(cfgFile)
			if err != nil {
				return err
			}
			logger, err := cli.SetupLogger(cfg, log.ComponentWorker, logLevel, logFormat)
			if err != nil {
				return err
			}
			return run(cmd.Context(), cfg, logger)
		},
	}
	cmd.Flags().StringVar(&cfgFile, "config", "", "config file (yaml)")
	cmd.Flags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	cmd.Flags().StringVar(&logFormat, "log-format", "", "log format (text, json)")

	ctx, cancel := cli.SignalContext(context.Background(), log.New(log.DefaultConfig()))
	err := cmd.ExecuteContext(ctx)
	cancel()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *log.Logger) error {
	logger.Info("Starting finora-worker")

	if cfg.AMQPURL == "" {
		return errors.New("AMQP_URL is required for the worker")
	}

	writer, err := activityWriter(ctx, cfg, logger)
	if err != nil {
		return err
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		return fmt.Errorf("failed to initialize AMQP client: %w", err)
	}
	defer amqpClient.Close()

	logger.Info("Consuming record events", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	if err := worker.NewActivityWorker(writer, logger).Run(ctx, amqpClient); err != nil {
		return fmt.Errorf("worker stopped: %w", err)
	}
	logger.Info("Worker stopped")
	return nil
}

func activityWriter(ctx context.Context, cfg *config.Config, logger *log.Logger) (sheets.ActivityWriter, error) {
	if !cfg.SheetsEnabled() {
		logger.Info("Google Sheets disabled - no GOOGLE_SPREADSHEET_ID provided, activity kept in memory")
		return memory.New(), nil
	}

	client, err := gsheet.New(ctx, gsheet.Config{
		SpreadsheetID:   cfg.GoogleSpreadsheetID,
		SheetName:       cfg.GoogleSheetName,
		CredentialsJSON: cfg.GoogleServiceAccountJSON,
		CredentialsFile: cfg.GoogleServiceAccountFile,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Google Sheets client: %w", err)
	}
	logger.Info("Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	return client, nil
}
