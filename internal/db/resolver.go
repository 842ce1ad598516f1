package db

import (
	"fmt"
	"os"
	"strconv"

	"github.com/vvka-141/pgload/internal/config"
	"github.com/vvka-141/pgload/pkg/pgload"
)

// GranularConnFlags represents connection parameters from CLI flags.
// These follow PostgreSQL standard flag conventions (-h, -p, -U, -d).
//
// Password is not a flag. Use $PGPASSWORD or a connection string.
type GranularConnFlags struct {
	Host        string
	Port        int
	Username    string
	Database    string
	SSLMode     string
	SSLRootCert string
}

// IsEmpty returns true if no connection-related granular flags were provided.
// Database is excluded: it may override the database of a connection string.
func (g *GranularConnFlags) IsEmpty() bool {
	return g.Host == "" && g.Port == 0 && g.Username == "" && g.SSLMode == "" && g.SSLRootCert == ""
}

// CloudFlags selects and parameterizes cloud IAM authentication.
// Secrets never come from flags.
type CloudFlags struct {
	AuthMethod     string // "", standard, aws, google, azure
	AWSRegion      string // Overrides AWS_REGION
	GoogleInstance string // project:region:instance
	AzureTenantID  string // Overrides AZURE_TENANT_ID
	AzureClientID  string // Overrides AZURE_CLIENT_ID
}

// EnvVars represents PostgreSQL standard environment variables plus the
// cloud SDK variables pgload honours.
// See: https://www.postgresql.org/docs/current/libpq-envars.html
type EnvVars struct {
	PGHOST        string
	PGPORT        string
	PGUSER        string
	PGPASSWORD    string
	PGDATABASE    string
	PGSSLMODE     string
	PGSSLROOTCERT string

	PGLOAD_CONNECTION_STRING string
	DATABASE_URL             string // Heroku/Rails convention

	AWS_REGION          string
	AZURE_TENANT_ID     string
	AZURE_CLIENT_ID     string
	AZURE_CLIENT_SECRET string
}

// LoadFromEnvironment loads PostgreSQL and cloud provider environment variables.
func LoadFromEnvironment() *EnvVars {
	return &EnvVars{
		PGHOST:                   os.Getenv("PGHOST"),
		PGPORT:                   os.Getenv("PGPORT"),
		PGUSER:                   os.Getenv("PGUSER"),
		PGPASSWORD:               os.Getenv("PGPASSWORD"),
		PGDATABASE:               os.Getenv("PGDATABASE"),
		PGSSLMODE:                os.Getenv("PGSSLMODE"),
		PGSSLROOTCERT:            os.Getenv("PGSSLROOTCERT"),
		PGLOAD_CONNECTION_STRING: os.Getenv("PGLOAD_CONNECTION_STRING"),
		DATABASE_URL:             os.Getenv("DATABASE_URL"),
		AWS_REGION:               os.Getenv("AWS_REGION"),
		AZURE_TENANT_ID:          os.Getenv("AZURE_TENANT_ID"),
		AZURE_CLIENT_ID:          os.Getenv("AZURE_CLIENT_ID"),
		AZURE_CLIENT_SECRET:      os.Getenv("AZURE_CLIENT_SECRET"),
	}
}

// ResolveConnectionParams resolves connection parameters with this precedence:
//
//  1. --connection flag
//  2. $PGLOAD_CONNECTION_STRING, then $DATABASE_URL (only when no granular flag is set)
//  3. granular flags, then PG* environment variables, then pgload.yaml
//  4. defaults (localhost:5432, prefer SSL)
//
// -d/--database overrides the database of whichever source won.
// Specifying both --connection and granular flags is an error.
//
// The auth method comes from flags, then pgload.yaml. Azure auth is also
// selected implicitly when AZURE_TENANT_ID or AZURE_CLIENT_ID is set.
func ResolveConnectionParams(
	connStringFlag string,
	granularFlags *GranularConnFlags,
	cloudFlags *CloudFlags,
	envVars *EnvVars,
	projectConfig *config.ProjectConfig,
) (*pgload.ConnectionConfig, error) {
	if granularFlags == nil {
		granularFlags = &GranularConnFlags{}
	}
	if cloudFlags == nil {
		cloudFlags = &CloudFlags{}
	}
	if envVars == nil {
		envVars = &EnvVars{}
	}
	var pc config.ConnectionConfig
	if projectConfig != nil {
		pc = projectConfig.Connection
	}

	if connStringFlag != "" && !granularFlags.IsEmpty() {
		return nil, fmt.Errorf(
			"cannot specify both --connection and granular flags (-h, -p, -U, --sslmode)\n"+
				"Choose one approach:\n"+
				"  1. Connection string: --connection \"postgresql://user@localhost:5432/warehouse\"\n"+
				"  2. Granular flags: -h localhost -p 5432 -U loader -d warehouse\n"+
				"  3. Environment variables: export PGHOST=localhost PGUSER=loader PGDATABASE=warehouse: %w",
			pgload.ErrInvalidConfig,
		)
	}

	var cfg *pgload.ConnectionConfig
	var err error

	switch {
	case connStringFlag != "":
		cfg, err = resolveFromConnectionString(connStringFlag, envVars)
	case granularFlags.IsEmpty() && envVars.PGLOAD_CONNECTION_STRING != "":
		cfg, err = resolveFromConnectionString(envVars.PGLOAD_CONNECTION_STRING, envVars)
	case granularFlags.IsEmpty() && envVars.DATABASE_URL != "":
		cfg, err = resolveFromConnectionString(envVars.DATABASE_URL, envVars)
	default:
		cfg, err = resolveFromGranularParams(granularFlags, envVars, pc)
	}
	if err != nil {
		return nil, err
	}

	if granularFlags.Database != "" {
		cfg.Database = granularFlags.Database
	}

	if err := applyCloudAuth(cfg, cloudFlags, envVars, pc); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyCloudAuth sets the auth method and its parameters. Flags take
// precedence over environment variables, which take precedence over pgload.yaml.
func applyCloudAuth(cfg *pgload.ConnectionConfig, flags *CloudFlags, env *EnvVars, pc config.ConnectionConfig) error {
	method := firstNonEmpty(flags.AuthMethod, pc.AuthMethod)
	authMethod, err := pgload.ParseAuthMethod(method)
	if err != nil {
		return err
	}

	tenantID := firstNonEmpty(flags.AzureTenantID, env.AZURE_TENANT_ID, pc.AzureTenantID)
	clientID := firstNonEmpty(flags.AzureClientID, env.AZURE_CLIENT_ID, pc.AzureClientID)
	if method == "" && (tenantID != "" || clientID != "") {
		authMethod = pgload.AuthMethodAzureEntraID
	}

	cfg.AuthMethod = authMethod
	switch authMethod {
	case pgload.AuthMethodAzureEntraID:
		cfg.AzureTenantID = tenantID
		cfg.AzureClientID = clientID
		cfg.AzureClientSecret = env.AZURE_CLIENT_SECRET
	case pgload.AuthMethodAWSIAM:
		cfg.AWSRegion = firstNonEmpty(flags.AWSRegion, env.AWS_REGION, pc.AWSRegion)
	case pgload.AuthMethodGoogleIAM:
		cfg.GoogleInstance = firstNonEmpty(flags.GoogleInstance, pc.GoogleInstance)
	}
	return nil
}

// resolveFromConnectionString parses a connection string and applies
// $PGSSLMODE when the string did not set sslmode, as libpq does.
func resolveFromConnectionString(connStr string, envVars *EnvVars) (*pgload.ConnectionConfig, error) {
	cfg, err := ParseConnectionString(connStr)
	if err != nil {
		return nil, fmt.Errorf("invalid connection string: %w: %w", err, pgload.ErrInvalidConfig)
	}

	cfg.SSLMode = firstNonEmpty(cfg.SSLMode, envVars.PGSSLMODE, "prefer")
	cfg.SSLRootCert = firstNonEmpty(cfg.SSLRootCert, envVars.PGSSLROOTCERT)
	return cfg, nil
}

// resolveFromGranularParams builds a ConnectionConfig field by field:
// flag > environment variable > pgload.yaml > default.
func resolveFromGranularParams(
	flags *GranularConnFlags,
	envVars *EnvVars,
	pc config.ConnectionConfig,
) (*pgload.ConnectionConfig, error) {
	cfg := &pgload.ConnectionConfig{
		AuthMethod:       pgload.AuthMethodStandard,
		AdditionalParams: make(map[string]string),
	}

	cfg.Host = firstNonEmpty(flags.Host, envVars.PGHOST, pc.Host, "localhost")

	switch {
	case flags.Port != 0:
		cfg.Port = flags.Port
	case envVars.PGPORT != "":
		port, err := strconv.Atoi(envVars.PGPORT)
		if err != nil {
			return nil, fmt.Errorf("invalid $PGPORT value '%s': must be an integer: %w", envVars.PGPORT, pgload.ErrInvalidConfig)
		}
		cfg.Port = port
	case pc.Port != 0:
		cfg.Port = pc.Port
	default:
		cfg.Port = 5432
	}

	cfg.Username = firstNonEmpty(flags.Username, envVars.PGUSER, pc.Username, os.Getenv("USER"), os.Getenv("USERNAME"))
	cfg.Password = envVars.PGPASSWORD
	cfg.Database = firstNonEmpty(flags.Database, envVars.PGDATABASE, pc.Database, "postgres")
	cfg.SSLMode = firstNonEmpty(flags.SSLMode, envVars.PGSSLMODE, pc.SSLMode, "prefer")
	cfg.SSLRootCert = firstNonEmpty(flags.SSLRootCert, envVars.PGSSLROOTCERT, pc.SSLRootCert)
	cfg.SSLCert = pc.SSLCert
	cfg.SSLKey = pc.SSLKey

	return cfg, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
