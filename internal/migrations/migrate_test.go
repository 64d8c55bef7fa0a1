package migrations

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Simplici0/printledger/internal/db"
)

func TestUpIsIdempotent(t *testing.T) {
	ctx := context.Background()
	database, err := db.Open(ctx, filepath.Join(t.TempDir(), "migrate.db"), db.Options{MaxOpenConns: 2})
	require.NoError(t, err)
	defer database.Close()

	applied, err := Up(ctx, database)
	require.NoError(t, err)
	require.Equal(t, 2, applied)

	applied, err = Up(ctx, database)
	require.NoError(t, err)
	require.Zero(t, applied)

	version, err := Version(ctx, database)
	require.NoError(t, err)
	require.EqualValues(t, 2, version)

	for _, table := range []string{"business_settings", "filaments", "items", "orders", "notes"} {
		var n int
		err := database.QueryRowContext(ctx, `SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&n)
		require.NoError(t, err)
		require.Equal(t, 1, n, "table %s", table)
	}
}
