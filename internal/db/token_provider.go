package db

import (
	"context"
	"time"
)

// TokenProvider abstracts cloud token acquisition for database authentication.
// The token is used as the password when connecting to cloud-hosted PostgreSQL.
type TokenProvider interface {
	// GetToken returns the token string and its expiry time.
	GetToken(ctx context.Context) (token string, expiresOn time.Time, err error)

	// String describes the provider for logging. It never includes secrets.
	String() string
}

// AzurePostgreSQLScope is the OAuth scope for Azure Database for PostgreSQL.
const AzurePostgreSQLScope = "https://ossrdbms-aad.database.windows.net/.default"

// rdsTokenLifetime is how long an RDS IAM auth token is accepted for new connections.
const rdsTokenLifetime = 15 * time.Minute
