package backend

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finora/internal/config"
	"finora/internal/core"
)

func TestFromAppConfig(t *testing.T) {
	_, err := FromAppConfig(nil)
	assert.Error(t, err)

	_, err = FromAppConfig(&config.Config{DataBackend: "sheets"})
	assert.Error(t, err)

	cfg, err := FromAppConfig(&config.Config{DataBackend: "postgres", DatabaseURL: "postgres://x"})
	require.NoError(t, err)
	assert.Equal(t, PostgresBackend, cfg.Type)
	assert.Equal(t, "postgres://x", cfg.DatabaseURL)
}

func TestConfigValidate(t *testing.T) {
	assert.Error(t, Config{Type: SQLiteBackend}.Validate())
	assert.Error(t, Config{Type: PostgresBackend}.Validate())
	assert.NoError(t, Config{Type: MemoryBackend}.Validate())
	assert.Error(t, Config{Type: "sheets"}.Validate())
	assert.Equal(t, []string{"sqlite", "postgres", "memory"}, GetBackendTypeStrings())
}

func TestCreateBackend(t *testing.T) {
	ctx := context.Background()
	f := NewFactory(nil)

	for _, cfg := range []Config{
		{Type: MemoryBackend},
		{Type: SQLiteBackend, SQLiteDBPath: filepath.Join(t.TempDir(), "finora.db")},
	} {
		t.Run(cfg.Type.String(), func(t *testing.T) {
			res, err := f.CreateBackend(ctx, cfg)
			require.NoError(t, err)
			defer res.Cleanup()

			c, err := res.Store.SaveCategory(ctx, core.Category{Name: "Food", Type: core.Expense})
			require.NoError(t, err)
			assert.NotZero(t, c.ID)
		})
	}

	_, err := f.CreateBackend(ctx, Config{Type: "sheets"})
	assert.Error(t, err)
}

func TestMigrate(t *testing.T) {
	f := NewFactory(nil)
	ctx := context.Background()
	require.NoError(t, f.Migrate(ctx, Config{Type: MemoryBackend}))
	require.NoError(t, f.Migrate(ctx, Config{Type: SQLiteBackend, SQLiteDBPath: filepath.Join(t.TempDir(), "m.db")}))
}
