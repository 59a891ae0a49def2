// Package testutil provides shared test infrastructure, in the spirit of
// net/http/httptest: helpers that spin up real collaborators for
// integration tests.
package testutil

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/Chiragbhatt711/ai-jarvis/db"
	"github.com/Chiragbhatt711/ai-jarvis/internal/log"
)

// SetupTestDB starts a disposable PostgreSQL container, applies the
// embedded migrations, and returns a ready pool. The container and pool
// are cleaned up when the test finishes.
//
// Skipped when Docker is unavailable or JARVIS_SKIP_DOCKER_TESTS is set.
func SetupTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()

	if os.Getenv("JARVIS_SKIP_DOCKER_TESTS") != "" {
		t.Skip("JARVIS_SKIP_DOCKER_TESTS set")
	}

	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("jarvis_test"),
		postgres.WithUsername("jarvis_test"),
		postgres.WithPassword("test_password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		t.Skipf("starting postgres container (is Docker running?): %v", err)
	}
	t.Cleanup(func() {
		_ = container.Terminate(context.Background())
	})

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("connection string: %v", err)
	}

	if err := db.Migrate(connStr, log.NewNop()); err != nil {
		t.Fatalf("applying migrations: %v", err)
	}

	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		t.Fatalf("creating pool: %v", err)
	}
	t.Cleanup(pool.Close)

	if err := pool.Ping(ctx); err != nil {
		t.Fatalf("pinging database: %v", err)
	}
	return pool
}
