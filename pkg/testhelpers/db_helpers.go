package testhelpers

import (
	"context"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/require"

	"nftmarket/pkg/db"
)

// SetupPool connects to DATABASE_URL_FOR_TEST, applies the schema and empties
// the market tables. The test is skipped when the variable is not set.
func SetupPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	if err := godotenv.Load(); err != nil {
		t.Log("No .env file found, using environment variables")
	}

	dsn := os.Getenv("DATABASE_URL_FOR_TEST")
	if dsn == "" {
		t.Skip("DATABASE_URL_FOR_TEST not set; skipping postgres tests")
	}

	ctx := context.Background()
	cfg, err := pgxpool.ParseConfig(dsn)
	require.NoError(t, err)

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	require.NoError(t, err)
	require.NoError(t, pool.Ping(ctx))
	t.Cleanup(pool.Close)

	require.NoError(t, db.ApplySchema(ctx, pool, ""))
	CleanMarketTables(t, pool)
	return pool
}

// CleanMarketTables truncates every market table.
func CleanMarketTables(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()
	ctx := context.Background()
	_, err := pool.Exec(ctx, "TRUNCATE TABLE market_items, market_balances, market_layout, market_logic, market_state")
	require.NoError(t, err)
}
