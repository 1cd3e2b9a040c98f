package backend

import (
	"context"
	"fmt"

	"finora/internal/log"
	"finora/internal/repository/memory"
	"finora/internal/repository/postgres"
	"finora/internal/repository/sqlite"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger
}

func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &DefaultFactory{logger: logger.WithComponent(log.ComponentBackend)}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case SQLiteBackend:
		store, err := sqlite.Open(config.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite store: %w", err)
		}
		f.logger.InfoContext(ctx, "Initialized SQLite backend", "db_path", config.SQLiteDBPath)
		return &BackendResult{Store: store, Cleanup: store.Close}, nil

	case PostgresBackend:
		store, err := postgres.Open(ctx, config.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Postgres store: %w", err)
		}
		f.logger.InfoContext(ctx, "Initialized Postgres backend")
		return &BackendResult{Store: store, Cleanup: store.Close}, nil

	case MemoryBackend:
		store := memory.New()
		f.logger.InfoContext(ctx, "Initialized memory backend")
		return &BackendResult{Store: store, Cleanup: store.Close}, nil

	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

// Migrate implements Factory.Migrate
func (f *DefaultFactory) Migrate(ctx context.Context, config Config) error {
	if err := config.Validate(); err != nil {
		return err
	}

	switch config.Type {
	case SQLiteBackend:
		if err := sqlite.RunMigrations(config.SQLiteDBPath); err != nil {
			return err
		}
	case PostgresBackend:
		if err := postgres.RunMigrations(config.DatabaseURL); err != nil {
			return err
		}
	case MemoryBackend:
		f.logger.InfoContext(ctx, "Memory backend has no schema to migrate")
		return nil
	}

	f.logger.InfoContext(ctx, "Migrations applied", log.FieldBackend, config.Type.String(), log.FieldOperation, log.OpMigrate)
	return nil
}
