package testing

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vvka-141/pgload/internal/testinfra"
)

var (
	testContainerOnce sync.Once
	testContainerConn string
	testContainerErr  error
)

func getOrStartTestContainer() (string, error) {
	testContainerOnce.Do(func() {
		ctx := context.Background()
		container, err := testinfra.StartPostgres(ctx)
		if err != nil {
			testContainerErr = err
			return
		}
		testContainerConn = container.ConnString
	})
	return testContainerConn, testContainerErr
}

// GetTestConnectionString returns the test database connection string.
// Priority: PGLOAD_TEST_CONN env var > auto-started testcontainer > skip test.
func GetTestConnectionString(t *testing.T) string {
	t.Helper()

	if connString := os.Getenv("PGLOAD_TEST_CONN"); connString != "" {
		return connString
	}

	connString, err := getOrStartTestContainer()
	if err != nil {
		t.Skipf("PGLOAD_TEST_CONN not set and Docker unavailable: %v", err)
	}
	return connString
}

// SkipIfShort skips the test if running in short mode (-short flag).
func SkipIfShort(t *testing.T) {
	t.Helper()

	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
}

// RequireDatabase combines SkipIfShort and GetTestConnectionString for convenience.
// Returns the test connection string if available, otherwise skips the test.
func RequireDatabase(t *testing.T) string {
	t.Helper()

	SkipIfShort(t)
	return GetTestConnectionString(t)
}

// GetTestPool creates a connection pool for connString.
// The pool is automatically closed when the test completes.
func GetTestPool(t *testing.T, connString string) *pgxpool.Pool {
	t.Helper()

	pool, err := pgxpool.New(context.Background(), connString)
	if err != nil {
		t.Fatalf("Failed to create connection pool: %v", err)
	}
	t.Cleanup(pool.Close)
	return pool
}

// CreateTestSchema creates a uniquely named schema and drops it, with
// everything in it, when the test completes.
func CreateTestSchema(t *testing.T, pool *pgxpool.Pool) string {
	t.Helper()

	ctx := context.Background()
	schema := "pgload_test_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	quoted := pgx.Identifier{schema}.Sanitize()

	if _, err := pool.Exec(ctx, "CREATE SCHEMA "+quoted); err != nil {
		t.Fatalf("Failed to create test schema %s: %v", schema, err)
	}
	t.Cleanup(func() {
		if _, err := pool.Exec(context.Background(), fmt.Sprintf("DROP SCHEMA IF EXISTS %s CASCADE", quoted)); err != nil {
			t.Logf("Warning: Failed to drop schema %s: %v", schema, err)
		}
	})
	return schema
}

// CountRows returns the number of rows in schema.table.
func CountRows(t *testing.T, pool *pgxpool.Pool, schema, table string) int64 {
	t.Helper()

	var n int64
	query := "SELECT count(*) FROM " + pgx.Identifier{schema, table}.Sanitize()
	if err := pool.QueryRow(context.Background(), query).Scan(&n); err != nil {
		t.Fatalf("Failed to count rows of %s.%s: %v", schema, table, err)
	}
	return n
}
