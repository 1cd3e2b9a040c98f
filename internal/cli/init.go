// Package cli provides the initialization steps shared by cmd/finora and
// cmd/finora-worker.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"finora/internal/config"
	"finora/internal/log"
)

// LoadEnvFile loads a .env file for local development.
// A missing file is not an error in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration from file (may be empty) and the
// environment and validates it.
func LoadAndValidateConfig(file string) (*config.Config, error) {
	cfg, err := config.Load(file)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SetupLogger builds the process logger from cfg and installs it as the
// slog default. Overrides, when non-empty, win over the configured values.
func SetupLogger(cfg *config.Config, component, levelOverride, formatOverride string) (*log.Logger, error) {
	level, format := cfg.LogLevel, cfg.LogFormat
	if levelOverride != "" {
		level = levelOverride
	}
	if formatOverride != "" {
		format = formatOverride
	}

	lvl, err := log.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	switch format {
	case "", "text", "console":
		format = "text"
	case "json":
	default:
		return nil, fmt.Errorf("invalid log format: %s", format)
	}

	logger := log.New(log.Config{
		Level:     lvl,
		Format:    format,
		Component: component,
		Output:    os.Stdout,
	})
	log.SetDefault(logger)
	return logger, nil
}

// SignalContext returns a context cancelled on SIGINT or SIGTERM.
func SignalContext(parent context.Context, logger *log.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigChan)
		select {
		case sig := <-sigChan:
			logger.Info("Shutdown signal received", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}

// GracefulShutdown runs shutdown with a fresh context bounded by timeout.
// It is meant to be called after the signal context is done.
func GracefulShutdown(logger *log.Logger, timeout time.Duration, shutdown func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := shutdown(ctx); err != nil {
		if ctx.Err() != nil {
			logger.Warn("Shutdown timeout reached", "timeout", timeout.String())
		}
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.Info("Shutdown complete")
	return nil
}
