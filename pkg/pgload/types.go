package pgload

import (
	"errors"
	"fmt"
	"time"
)

// LoadConfig contains all parameters needed for a load run.
type LoadConfig struct {
	// Table is the target table, optionally schema-qualified ("sales.orders").
	Table string

	// Inputs are file paths or directories. Directories are expanded with Patterns.
	Inputs []string

	// Patterns are glob patterns matched against file base names inside directories.
	Patterns []string

	// Recursive descends into subdirectories of directory inputs.
	Recursive bool

	// BatchSize is the maximum number of rows submitted in one insert.
	BatchSize int

	// Delimiter separates fields in input files.
	Delimiter rune

	// NullValues are field values loaded as SQL NULL. Nil means DefaultNullValues.
	NullValues []string

	// ConnectionString is the PostgreSQL connection string (URI or ADO.NET format)
	ConnectionString string

	// Cloud authentication applied on top of ConnectionString.
	AuthMethod        AuthMethod
	AWSRegion         string
	GoogleInstance    string
	AzureTenantID     string
	AzureClientID     string
	AzureClientSecret string

	// Timeout is the global timeout for the entire run
	Timeout time.Duration

	// DryRun inspects the table, parses and reconciles files without inserting anything.
	DryRun bool

	// Verbose enables detailed logging
	Verbose bool
}

// Validate checks if the LoadConfig has all required fields and valid values.
// It returns a multi-error if multiple validation failures occur.
func (c *LoadConfig) Validate() error {
	var errs []error

	if c.Table == "" {
		errs = append(errs, fmt.Errorf("Table is required: %w", ErrInvalidConfig))
	} else if _, err := ParseTableName(c.Table); err != nil {
		errs = append(errs, err)
	}

	if c.ConnectionString == "" {
		errs = append(errs, fmt.Errorf("ConnectionString is required: %w", ErrInvalidConfig))
	}

	if c.BatchSize < 0 {
		errs = append(errs, fmt.Errorf("batch size cannot be negative: %w", ErrInvalidConfig))
	}

	if c.Delimiter == '"' || c.Delimiter == '\r' || c.Delimiter == '\n' {
		errs = append(errs, fmt.Errorf("delimiter %q is not allowed: %w", c.Delimiter, ErrInvalidConfig))
	}

	if !c.AuthMethod.IsValid() {
		errs = append(errs, fmt.Errorf("auth method %v: %w", c.AuthMethod, ErrUnsupportedAuthMethod))
	}

	if c.Timeout < 0 {
		errs = append(errs, fmt.Errorf("timeout cannot be negative: %w", ErrInvalidConfig))
	}

	return errors.Join(errs...)
}

// EffectiveBatchSize returns BatchSize, or DefaultBatchSize when unset.
func (c *LoadConfig) EffectiveBatchSize() int {
	if c.BatchSize <= 0 {
		return DefaultBatchSize
	}
	return c.BatchSize
}

// EffectiveNullValues returns NullValues, or DefaultNullValues when unset.
// A non-nil empty slice disables NULL detection.
func (c *LoadConfig) EffectiveNullValues() []string {
	if c.NullValues == nil {
		return DefaultNullValues
	}
	return c.NullValues
}

// ConnectionConfig represents parsed connection parameters.
type ConnectionConfig struct {
	Host     string
	Port     int
	Database string
	Username string
	Password string
	SSLMode  string

	// TLS client material for verify-ca / verify-full and mTLS setups.
	SSLCert     string
	SSLKey      string
	SSLRootCert string

	// AuthMethod indicates the authentication mechanism to use
	AuthMethod AuthMethod

	// Additional connection parameters
	AppName          string
	ConnectTimeout   time.Duration
	AdditionalParams map[string]string

	// AWSRegion is required for AuthMethodAWSIAM.
	AWSRegion string

	// GoogleInstance is the Cloud SQL instance connection name (project:region:instance).
	GoogleInstance string

	// Azure Entra ID authentication parameters (used when AuthMethod is AuthMethodAzureEntraID)
	// If all three are provided, Service Principal authentication is used.
	// If none are provided, DefaultAzureCredential chain is used (env vars, managed identity, CLI, etc.)
	AzureTenantID     string
	AzureClientID     string
	AzureClientSecret string
}

// AuthMethod represents the type of authentication to use.
type AuthMethod int

const (
	AuthMethodStandard     AuthMethod = iota // Username/Password
	AuthMethodAWSIAM                         // AWS IAM Database Authentication
	AuthMethodGoogleIAM                      // Google Cloud SQL IAM
	AuthMethodAzureEntraID                   // Azure Active Directory (Entra ID)
)

// String returns a human-readable string representation of the AuthMethod.
func (a AuthMethod) String() string {
	switch a {
	case AuthMethodStandard:
		return "Standard"
	case AuthMethodAWSIAM:
		return "AWS IAM"
	case AuthMethodGoogleIAM:
		return "Google IAM"
	case AuthMethodAzureEntraID:
		return "Azure Entra ID"
	default:
		return fmt.Sprintf("Unknown(%d)", a)
	}
}

// IsValid returns true if the AuthMethod is a valid, defined value.
func (a AuthMethod) IsValid() bool {
	return a >= AuthMethodStandard && a <= AuthMethodAzureEntraID
}

// ParseAuthMethod maps the CLI/config spelling of an auth method.
func ParseAuthMethod(s string) (AuthMethod, error) {
	switch s {
	case "", "standard", "password":
		return AuthMethodStandard, nil
	case "aws", "aws-iam", "awsiam":
		return AuthMethodAWSIAM, nil
	case "google", "gcp", "google-iam", "googleiam":
		return AuthMethodGoogleIAM, nil
	case "azure", "entra", "azure-entra", "azureentraid":
		return AuthMethodAzureEntraID, nil
	default:
		return AuthMethodStandard, fmt.Errorf("auth method %q: %w", s, ErrUnsupportedAuthMethod)
	}
}
