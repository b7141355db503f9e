package repository

import (
	"context"
	"os"
	"testing"

	"github.com/ammiranda/forest/config"

	"github.com/stretchr/testify/require"
)

// newPostgresRepository connects to the database described by DB_HOST and
// friends, skipping the test when none is configured
func newPostgresRepository(t *testing.T) Repository {
	t.Helper()
	if os.Getenv("DB_HOST") == "" {
		t.Skip("DB_HOST not set, skipping PostgreSQL tests")
	}

	ctx := context.Background()
	repo, err := NewPostgresRepository(ctx, config.NewEnvProvider(""))
	require.NoError(t, err)
	require.NoError(t, repo.Initialize(ctx))

	_, err = repo.db.ExecContext(ctx, "TRUNCATE nodes RESTART IDENTITY CASCADE")
	require.NoError(t, err)

	t.Cleanup(func() {
		repo.Cleanup(ctx)
	})
	return repo
}

func TestPostgresRepository(t *testing.T) {
	testRepositoryContract(t, newPostgresRepository)
}
