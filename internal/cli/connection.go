package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/vvka-141/pgload/internal/config"
	"github.com/vvka-141/pgload/internal/db"
	"github.com/vvka-141/pgload/pkg/pgload"
)

// connectionFlags holds the common connection-related flag values.
type connectionFlags struct {
	connection     string
	host           string
	port           int
	username       string
	database       string
	sslMode        string
	sslRootCert    string
	authMethod     string
	awsRegion      string
	googleInstance string
	azureTenantID  string
	azureClientID  string
}

// registerConnectionFlags binds the connection flags shared by load and inspect.
func registerConnectionFlags(cmd *cobra.Command, f *connectionFlags) {
	flags := cmd.Flags()

	flags.StringVar(&f.connection, "connection", "",
		"PostgreSQL connection string (URI or ADO.NET format).\n"+
			"Mutually exclusive with granular flags (--host, --port, --username, --sslmode).\n"+
			"Alternative: PGLOAD_CONNECTION_STRING or DATABASE_URL environment variable.\n"+
			"Example: postgresql://loader@localhost:5432/warehouse")

	// Precedence: flag > environment variable > pgload.yaml > default
	flags.StringVarP(&f.host, "host", "h", "",
		"PostgreSQL server host\n"+
			"Precedence: --host > $PGHOST > pgload.yaml > localhost")
	flags.IntVarP(&f.port, "port", "p", 0,
		"PostgreSQL server port\n"+
			"Precedence: --port > $PGPORT > pgload.yaml > 5432")
	flags.StringVarP(&f.username, "username", "U", "",
		"PostgreSQL user (default: $PGUSER or current OS user)")
	flags.StringVarP(&f.database, "database", "d", "",
		"Database name (overrides the database of a connection string, default: $PGDATABASE)")
	flags.StringVar(&f.sslMode, "sslmode", "",
		"SSL mode: disable|allow|prefer|require|verify-ca|verify-full\n"+
			"(default: prefer, or $PGSSLMODE)")
	flags.StringVar(&f.sslRootCert, "sslrootcert", "",
		"Root certificate used to verify the server (default: $PGSSLROOTCERT)")

	flags.StringVar(&f.authMethod, "auth", "",
		"Authentication method: standard|aws|google|azure (default: standard)")
	flags.StringVar(&f.awsRegion, "aws-region", "",
		"AWS region for RDS IAM tokens (overrides $AWS_REGION)")
	flags.StringVar(&f.googleInstance, "google-instance", "",
		"Cloud SQL instance connection name (project:region:instance)")
	flags.StringVar(&f.azureTenantID, "azure-tenant-id", "",
		"Azure AD tenant/directory ID (overrides $AZURE_TENANT_ID)")
	flags.StringVar(&f.azureClientID, "azure-client-id", "",
		"Azure AD application/client ID (overrides $AZURE_CLIENT_ID)")

	_ = cmd.RegisterFlagCompletionFunc("sslmode", completeSSLModes)
	_ = cmd.RegisterFlagCompletionFunc("auth", completeAuthMethods)
}

// resolvedConnection holds the resolved connection configuration.
type resolvedConnection struct {
	ConnConfig *pgload.ConnectionConfig
	ConnStr    string
}

// resolveConnectionFromFlags resolves connection configuration from flags,
// the environment and pgload.yaml.
func resolveConnectionFromFlags(
	flags connectionFlags,
	projectCfg *config.ProjectConfig,
	verbose bool,
) (*resolvedConnection, error) {
	granularFlags := &db.GranularConnFlags{
		Host:        flags.host,
		Port:        flags.port,
		Username:    flags.username,
		Database:    flags.database,
		SSLMode:     flags.sslMode,
		SSLRootCert: flags.sslRootCert,
	}

	cloudFlags := &db.CloudFlags{
		AuthMethod:     flags.authMethod,
		AWSRegion:      flags.awsRegion,
		GoogleInstance: flags.googleInstance,
		AzureTenantID:  flags.azureTenantID,
		AzureClientID:  flags.azureClientID,
	}

	connConfig, err := db.ResolveConnectionParams(
		flags.connection,
		granularFlags,
		cloudFlags,
		db.LoadFromEnvironment(),
		projectCfg,
	)
	if err != nil {
		return nil, err
	}

	if verbose {
		logConnectionVerbose(connConfig)
	}

	return &resolvedConnection{
		ConnConfig: connConfig,
		ConnStr:    db.BuildConnectionString(connConfig),
	}, nil
}

// logConnectionVerbose logs connection details when verbose mode is enabled.
func logConnectionVerbose(connConfig *pgload.ConnectionConfig) {
	fmt.Fprintf(os.Stderr, "[VERBOSE] Connection resolved:\n")
	fmt.Fprintf(os.Stderr, "  Host: %s\n", connConfig.Host)
	fmt.Fprintf(os.Stderr, "  Port: %d\n", connConfig.Port)
	fmt.Fprintf(os.Stderr, "  User: %s\n", connConfig.Username)
	fmt.Fprintf(os.Stderr, "  Database: %s\n", connConfig.Database)
	fmt.Fprintf(os.Stderr, "  SSL Mode: %s\n", connConfig.SSLMode)
	if connConfig.SSLRootCert != "" {
		fmt.Fprintf(os.Stderr, "  SSL Root Cert: %s\n", connConfig.SSLRootCert)
	}
	fmt.Fprintf(os.Stderr, "  Auth Method: %s\n", connConfig.AuthMethod)
}
