package main

import (
	"errors"
	"fmt"
	nethttp "net/http"

	"github.com/spf13/cobra"

	"finora/internal/amqp"
	"finora/internal/backend"
	"finora/internal/cli"
	"finora/internal/http"
	"finora/internal/log"
	"finora/internal/services"
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE:  runServe,
	}
	cmd.Flags().String("port", "", "listen port (overrides PORT)")
	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if port, _ := cmd.Flags().GetString("port"); port != "" {
		appConfig.Port = port
		if err := appConfig.Validate(); err != nil {
			return err
		}
	}

	svc, err := openServices(cmd)
	if err != nil {
		return err
	}
	defer func() {
		if err := svc.Close(); err != nil {
			logger.Error("Failed to close services", "error", err)
		}
	}()

	srv := http.NewServer(http.Options{
		Addr:               appConfig.Addr(),
		AllowedOrigin:      appConfig.CORSAllowedOrigin,
		RateLimitPerMinute: appConfig.RateLimitPerMinute,
		Logger:             logger,
	}, svc)

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("Starting HTTP server",
			"addr", appConfig.Addr(),
			log.FieldBackend, appConfig.DataBackend,
			"allowed_origin", appConfig.CORSAllowedOrigin)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Shutting down HTTP server", "timeout", appConfig.ShutdownTimeout.String())
	return cli.GracefulShutdown(logger, appConfig.ShutdownTimeout, srv.Shutdown)
}

// openServices opens the configured store and, when AMQP_URL is set, the
// event publisher. Closing the returned Services releases both.
func openServices(cmd *cobra.Command) (*services.Services, error) {
	backendCfg, err := backend.FromAppConfig(appConfig)
	if err != nil {
		return nil, err
	}
	result, err := backend.NewFactory(logger).CreateBackend(cmd.Context(), backendCfg)
	if err != nil {
		return nil, err
	}

	var publisher services.Publisher
	if appConfig.AMQPURL != "" {
		client, err := amqp.NewClient(appConfig.AMQPURL, appConfig.AMQPExchange, appConfig.AMQPQueue)
		if err != nil {
			_ = result.Cleanup()
			return nil, fmt.Errorf("failed to initialize AMQP client: %w", err)
		}
		publisher = client
		logger.Info("Record events enabled", "exchange", appConfig.AMQPExchange)
	} else {
		logger.Info("AMQP_URL not set, record events disabled")
	}

	return services.New(result.Store, publisher, logger), nil
}
