package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vvka-141/pgload/internal/logging"
	"github.com/vvka-141/pgload/internal/retry"
	"github.com/vvka-141/pgload/pkg/pgload"
)

// tokenExpiryWarning is how close to expiry a fresh token may be before a
// warning is logged. A long load can outlive the token's connection window.
const tokenExpiryWarning = 5 * time.Minute

// TokenBasedConnector implements the Connector interface for cloud providers
// that authenticate via short-lived tokens (AWS IAM, Azure Entra ID).
// The token is acquired from a TokenProvider and used as the PostgreSQL password.
type TokenBasedConnector struct {
	config        *pgload.ConnectionConfig
	tokenProvider TokenProvider
	retryExecutor *retry.Executor
	providerName  string
	logger        pgload.Logger
}

// NewTokenBasedConnector creates a connector that uses a TokenProvider for authentication.
// providerName is used in error/warning messages (e.g., "AWS IAM", "Azure").
func NewTokenBasedConnector(config *pgload.ConnectionConfig, tokenProvider TokenProvider, providerName string, logger pgload.Logger) *TokenBasedConnector {
	if logger == nil {
		logger = logging.NewNullLogger()
	}
	return &TokenBasedConnector{
		config:        config,
		tokenProvider: tokenProvider,
		retryExecutor: retry.NewConnectionExecutor(logger),
		providerName:  providerName,
		logger:        logger,
	}
}

// Connect acquires a fresh token on every attempt and opens the pool with it.
func (c *TokenBasedConnector) Connect(ctx context.Context) (*pgxpool.Pool, error) {
	var pool *pgxpool.Pool

	err := c.retryExecutor.Execute(ctx, func(ctx context.Context) error {
		token, expiresOn, err := c.tokenProvider.GetToken(ctx)
		if err != nil {
			return fmt.Errorf("failed to acquire %s token: %w", c.providerName, err)
		}

		if remaining := time.Until(expiresOn); remaining < tokenExpiryWarning {
			c.logger.Warn("%s token expires in %v", c.providerName, remaining.Round(time.Second))
		}
		c.logger.Verbose("acquired token from %s", c.tokenProvider)

		configWithToken := *c.config
		configWithToken.Password = token

		pool, err = openPool(ctx, BuildConnectionString(&configWithToken), c.config, c.logger)
		return err
	})
	if err != nil {
		return nil, err
	}
	return pool, nil
}
