package postgres

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"finora/internal/repository"
	"finora/internal/repository/repotest"
)

// Set FINORA_TEST_DATABASE_URL to a disposable database to run these.
func openTest(t *testing.T) *Store {
	t.Helper()
	url := os.Getenv("FINORA_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("FINORA_TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	s, err := Open(ctx, url)
	require.NoError(t, err)
	_, err = s.pool.Exec(ctx, `TRUNCATE goals, transactions, categories, users RESTART IDENTITY CASCADE`)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStoreContract(t *testing.T) {
	repotest.Run(t, func(t *testing.T) repository.Store { return openTest(t) })
}
