package cli

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finora/internal/config"
	"finora/internal/log"
)

func TestLoadAndValidateConfig(t *testing.T) {
	t.Setenv("DATA_BACKEND", "memory")
	t.Setenv("PORT", "9090")

	cfg, err := LoadAndValidateConfig("")
	require.NoError(t, err)
	assert.Equal(t, "memory", cfg.DataBackend)
	assert.Equal(t, ":9090", cfg.Addr())
}

func TestLoadAndValidateConfigRejectsInvalid(t *testing.T) {
	t.Setenv("DATA_BACKEND", "mongo")

	_, err := LoadAndValidateConfig("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid data backend")
}

func TestSetupLogger(t *testing.T) {
	cfg := &config.Config{LogLevel: "info", LogFormat: "text"}

	logger, err := SetupLogger(cfg, log.ComponentApp, "debug", "json")
	require.NoError(t, err)
	assert.True(t, logger.Enabled(context.Background(), slog.LevelDebug))
	assert.Equal(t, log.ComponentApp, logger.Component())

	_, err = SetupLogger(cfg, log.ComponentApp, "loud", "")
	require.Error(t, err)

	_, err = SetupLogger(cfg, log.ComponentApp, "", "xml")
	require.Error(t, err)
}

func TestGracefulShutdown(t *testing.T) {
	logger := log.New(log.DefaultConfig())

	err := GracefulShutdown(logger, time.Second, func(ctx context.Context) error {
		_, ok := ctx.Deadline()
		assert.True(t, ok)
		return nil
	})
	require.NoError(t, err)

	boom := errors.New("boom")
	err = GracefulShutdown(logger, time.Second, func(context.Context) error { return boom })
	require.ErrorIs(t, err, boom)
}

func TestSignalContextCancelledByParent(t *testing.T) {
	parent, cancelParent := context.WithCancel(context.Background())
	ctx, cancel := SignalContext(parent, log.New(log.DefaultConfig()))
	defer cancel()

	cancelParent()
	select {
	case <-ctx.Done():
	case <-time.After(time.Second):
		t.Fatal("context not cancelled")
	}
}
