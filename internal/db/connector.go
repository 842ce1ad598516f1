package db

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vvka-141/pgload/internal/logging"
	"github.com/vvka-141/pgload/internal/retry"
	"github.com/vvka-141/pgload/pkg/pgload"
)

// Connection pool configuration constants. A load run holds at most one
// connection at a time, so the pool stays small.
const (
	DefaultMaxConns        = 2
	DefaultMinConns        = 0
	DefaultMaxConnIdleTime = 5 * time.Minute
)

func configurePool(poolConfig *pgxpool.Config, logger pgload.Logger) {
	poolConfig.MaxConns = DefaultMaxConns
	poolConfig.MinConns = DefaultMinConns
	poolConfig.MaxConnIdleTime = DefaultMaxConnIdleTime
	if poolConfig.ConnConfig.RuntimeParams == nil {
		poolConfig.ConnConfig.RuntimeParams = map[string]string{}
	}
	if _, ok := poolConfig.ConnConfig.RuntimeParams["application_name"]; !ok {
		poolConfig.ConnConfig.RuntimeParams["application_name"] = "pgload"
	}
	poolConfig.ConnConfig.OnNotice = func(_ *pgconn.PgConn, notice *pgconn.Notice) {
		logger.Verbose("server %s: %s", strings.ToLower(notice.Severity), notice.Message)
	}
}

// StandardConnector implements the Connector interface for standard
// username/password authentication with automatic retry on transient failures.
type StandardConnector struct {
	config        *pgload.ConnectionConfig
	logger        pgload.Logger
	retryExecutor *retry.Executor
}

// NewStandardConnector creates a new StandardConnector with the given configuration.
// A nil logger discards server notices and retry messages.
func NewStandardConnector(config *pgload.ConnectionConfig, logger pgload.Logger) *StandardConnector {
	if logger == nil {
		logger = logging.NewNullLogger()
	}
	return &StandardConnector{
		config:        config,
		logger:        logger,
		retryExecutor: retry.NewConnectionExecutor(logger),
	}
}

// Connect establishes a connection pool using standard authentication with automatic retry.
func (c *StandardConnector) Connect(ctx context.Context) (*pgxpool.Pool, error) {
	var pool *pgxpool.Pool
	connStr := BuildConnectionString(c.config)

	err := c.retryExecutor.Execute(ctx, func(ctx context.Context) error {
		var err error
		pool, err = openPool(ctx, connStr, c.config, c.logger)
		return err
	})
	if err != nil {
		return nil, err
	}
	return pool, nil
}

// openPool parses connStr, creates the pool and pings it once.
func openPool(ctx context.Context, connStr string, config *pgload.ConnectionConfig, logger pgload.Logger) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection config: %w", err)
	}

	configurePool(poolConfig, logger)

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, wrapConnectionError(err, config.Host, config.Port, config.Database)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, wrapConnectionError(err, config.Host, config.Port, config.Database)
	}

	return pool, nil
}

// NewConnector is a factory function that creates the appropriate Connector
// based on the ConnectionConfig's AuthMethod.
func NewConnector(config *pgload.ConnectionConfig, logger pgload.Logger) (pgload.Connector, error) {
	switch config.AuthMethod {
	case pgload.AuthMethodStandard:
		return NewStandardConnector(config, logger), nil
	case pgload.AuthMethodAWSIAM:
		return newAWSConnector(config, logger)
	case pgload.AuthMethodGoogleIAM:
		return newGoogleConnector(config, logger)
	case pgload.AuthMethodAzureEntraID:
		return newAzureConnector(config, logger)
	default:
		return nil, fmt.Errorf("unsupported auth method %v: %w", config.AuthMethod, pgload.ErrUnsupportedAuthMethod)
	}
}

// wrapConnectionError wraps raw pgx connection errors with actionable guidance.
// The result always wraps pgload.ErrConnectionFailed.
func wrapConnectionError(err error, host string, port int, database string) error {
	errStr := strings.ToLower(err.Error())
	addr := fmt.Sprintf("%s:%d", host, port)

	var hint string
	switch {
	case strings.Contains(errStr, "connection refused") || strings.Contains(errStr, "actively refused"):
		hint = fmt.Sprintf(`connection refused to %s

Possible causes:
  - PostgreSQL is not running (check: pg_isready -h %s -p %d)
  - Wrong host or port
  - Firewall blocking the connection`, addr, host, port)

	case strings.Contains(errStr, "no such host") || strings.Contains(errStr, "no host"):
		hint = fmt.Sprintf(`cannot resolve host "%s"

Possible causes:
  - Hostname is misspelled
  - DNS is not configured or reachable`, host)

	case strings.Contains(errStr, "password authentication failed"):
		hint = fmt.Sprintf(`password authentication failed for database "%s"

Possible causes:
  - Wrong password (check $PGPASSWORD or the connection string)
  - Wrong username
  - User does not have access to the database`, database)

	case strings.Contains(errStr, "does not exist"):
		hint = fmt.Sprintf(`database "%s" does not exist

pgload loads into an existing table of an existing database.`, database)

	case strings.Contains(errStr, "timeout") || strings.Contains(errStr, "timed out"):
		hint = fmt.Sprintf(`connection timed out to %s

Possible causes:
  - Server is overloaded or unresponsive
  - Firewall silently dropping packets
  - Wrong host/port (server not listening)`, addr)

	case strings.Contains(errStr, "ssl") || strings.Contains(errStr, "tls"):
		hint = `SSL/TLS connection error

Possible causes:
  - Server requires SSL but --sslmode is wrong
  - Certificate verification failed (check --sslrootcert)`

	case strings.Contains(errStr, "too many connections"):
		hint = fmt.Sprintf(`too many connections to database "%s"

The server's max_connections limit is reached; retry later.`, database)

	default:
		return fmt.Errorf("failed to connect to database: %w: %w", pgload.ErrConnectionFailed, err)
	}

	return fmt.Errorf("%s\n\nOriginal error: %w: %w", hint, pgload.ErrConnectionFailed, err)
}

// newAWSConnector creates a token-based connector with the AWS IAM token provider.
func newAWSConnector(config *pgload.ConnectionConfig, logger pgload.Logger) (pgload.Connector, error) {
	endpoint := fmt.Sprintf("%s:%d", config.Host, config.Port)

	tokenProvider, err := NewAWSIAMTokenProvider(endpoint, config.AWSRegion, config.Username)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS IAM token provider: %w", err)
	}

	return NewTokenBasedConnector(config, tokenProvider, "AWS IAM", logger), nil
}

// newGoogleConnector creates a GoogleCloudSQLConnector for Google Cloud SQL IAM authentication.
func newGoogleConnector(config *pgload.ConnectionConfig, logger pgload.Logger) (pgload.Connector, error) {
	if config.GoogleInstance == "" {
		return nil, fmt.Errorf("Google Cloud SQL IAM auth requires --google-instance (project:region:instance): %w", pgload.ErrInvalidConfig)
	}
	if config.Username == "" {
		return nil, fmt.Errorf("Google Cloud SQL IAM auth requires username (-U): %w", pgload.ErrInvalidConfig)
	}

	return NewGoogleCloudSQLConnector(config, config.GoogleInstance, logger), nil
}

// newAzureConnector creates a token-based connector with the Azure Entra ID token provider.
// Explicit tenant, client and secret select Service Principal auth; otherwise
// the DefaultAzureCredential chain is used.
func newAzureConnector(config *pgload.ConnectionConfig, logger pgload.Logger) (pgload.Connector, error) {
	var tokenProvider TokenProvider
	var err error

	if config.AzureTenantID != "" && config.AzureClientID != "" && config.AzureClientSecret != "" {
		tokenProvider, err = NewAzureServicePrincipalProvider(
			config.AzureTenantID,
			config.AzureClientID,
			config.AzureClientSecret,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create Azure Service Principal provider: %w", err)
		}
	} else {
		tokenProvider, err = NewAzureDefaultCredentialProvider()
		if err != nil {
			return nil, fmt.Errorf("failed to create Azure Default Credential provider: %w", err)
		}
	}

	return NewTokenBasedConnector(config, tokenProvider, "Azure", logger), nil
}
