package testinfra

import (
	"context"
	"fmt"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	PostgresImage    = "postgres:17-alpine"
	PostgresUser     = "postgres"
	PostgresPassword = "postgres"
	PostgresDB       = "warehouse"
)

type PostgresContainer struct {
	*postgres.PostgresContainer
	ConnString string
}

// StartPostgres starts a throwaway PostgreSQL server without TLS and returns
// a URI connection string for it. The caller terminates the container.
func StartPostgres(ctx context.Context) (*PostgresContainer, error) {
	ctr, err := postgres.Run(ctx,
		PostgresImage,
		postgres.WithUsername(PostgresUser),
		postgres.WithPassword(PostgresPassword),
		postgres.WithDatabase(PostgresDB),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("start postgres: %w", err)
	}

	connStr, err := ctr.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		ctr.Terminate(ctx) //nolint:errcheck
		return nil, fmt.Errorf("get connection string: %w", err)
	}

	return &PostgresContainer{PostgresContainer: ctr, ConnString: connStr}, nil
}
