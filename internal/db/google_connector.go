package db

import (
	"context"
	"fmt"
	"net"

	"cloud.google.com/go/cloudsqlconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vvka-141/pgload/internal/logging"
	"github.com/vvka-141/pgload/pkg/pgload"
)

// GoogleCloudSQLConnector implements the Connector interface for Google Cloud SQL
// using IAM database authentication via the Cloud SQL Go Connector.
//
// It implements io.Closer. Call Close() after the pool is closed to release
// the Cloud SQL dialer.
type GoogleCloudSQLConnector struct {
	config   *pgload.ConnectionConfig
	instance string
	logger   pgload.Logger
	dialer   *cloudsqlconn.Dialer
}

// NewGoogleCloudSQLConnector creates a connector for Google Cloud SQL IAM authentication.
// instance is the instance connection name in format: project:region:instance
func NewGoogleCloudSQLConnector(config *pgload.ConnectionConfig, instance string, logger pgload.Logger) *GoogleCloudSQLConnector {
	if logger == nil {
		logger = logging.NewNullLogger()
	}
	return &GoogleCloudSQLConnector{
		config:   config,
		instance: instance,
		logger:   logger,
	}
}

// Connect dials the instance through the Cloud SQL connector, which handles
// IAM login and TLS. Connection retries are left to the dialer.
func (c *GoogleCloudSQLConnector) Connect(ctx context.Context) (*pgxpool.Pool, error) {
	dialer, err := cloudsqlconn.NewDialer(ctx, cloudsqlconn.WithIAMAuthN())
	if err != nil {
		return nil, fmt.Errorf("failed to create Cloud SQL dialer: %w", err)
	}

	dsn := fmt.Sprintf(
		"host=%s user=%s dbname=%s sslmode=disable",
		c.instance,
		c.config.Username,
		c.config.Database,
	)

	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		dialer.Close()
		return nil, fmt.Errorf("failed to parse connection config: %w", err)
	}

	poolConfig.ConnConfig.DialFunc = func(ctx context.Context, _, _ string) (net.Conn, error) {
		return dialer.Dial(ctx, c.instance)
	}

	configurePool(poolConfig, c.logger)

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		dialer.Close()
		return nil, fmt.Errorf("failed to connect to Cloud SQL instance %s: %w: %w", c.instance, pgload.ErrConnectionFailed, err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		dialer.Close()
		return nil, fmt.Errorf("failed to ping Cloud SQL instance %s: %w: %w", c.instance, pgload.ErrConnectionFailed, err)
	}

	c.logger.Verbose("connected to Cloud SQL instance %s as %s", c.instance, c.config.Username)
	c.dialer = dialer
	return pool, nil
}

// Close releases the Cloud SQL dialer resources.
func (c *GoogleCloudSQLConnector) Close() error {
	if c.dialer != nil {
		err := c.dialer.Close()
		c.dialer = nil
		return err
	}
	return nil
}
