package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/vvka-141/pgload/internal/config"
	"github.com/vvka-141/pgload/pkg/pgload"
)

// loadOptionFlags holds the file and batching flags of load and inspect.
type loadOptionFlags struct {
	table     string
	delimiter string
	patterns  []string
	recursive bool
	nulls     []string
	batchSize int
	timeout   time.Duration
}

func registerLoadOptionFlags(cmd *cobra.Command, f *loadOptionFlags) {
	flags := cmd.Flags()
	flags.StringVarP(&f.table, "table", "t", "",
		"Target table, optionally schema-qualified (sales.orders or \"Sales\".\"Orders\")\n"+
			"Default: load.table in pgload.yaml")
	flags.StringVar(&f.delimiter, "delimiter", "",
		"Field delimiter, a single character or \\t (default: ,)")
	flags.StringSliceVar(&f.patterns, "pattern", nil,
		"File name patterns matched inside directory inputs (can be specified multiple times)\n"+
			"Default: *.csv and compressed variants (.gz, .zst, .xz, .bz2)")
	flags.BoolVarP(&f.recursive, "recursive", "r", false,
		"Descend into subdirectories of directory inputs")
	flags.StringArrayVar(&f.nulls, "null", nil,
		"Field value loaded as SQL NULL (can be specified multiple times)\n"+
			"Default: the empty field. --null=\"\" --null=NULL keeps both")
	flags.DurationVar(&f.timeout, "timeout", pgload.DefaultTimeout,
		"Catastrophic failure protection timeout for the whole run\n"+
			"Examples: 30s, 5m, 1h30m")
}

// loadProjectConfig loads godotenv and project configuration.
// Without an explicit path a missing ./pgload.yaml is not an error.
func loadProjectConfig(path string) (*config.ProjectConfig, error) {
	_ = godotenv.Load()

	if path != "" {
		projectCfg, err := config.LoadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load %s: %w: %w", path, err, pgload.ErrInvalidConfig)
		}
		return projectCfg, nil
	}

	projectCfg, err := config.Load(".")
	if err != nil {
		if errors.Is(err, config.ErrConfigNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load %s: %w: %w", config.ConfigFileName, err, pgload.ErrInvalidConfig)
	}
	return projectCfg, nil
}

// buildLoadConfig merges flags, pgload.yaml and defaults into a LoadConfig.
// A flag wins when it was set explicitly; otherwise pgload.yaml fills it in.
func buildLoadConfig(
	cmd *cobra.Command,
	opts loadOptionFlags,
	conn connectionFlags,
	inputs []string,
	verbose bool,
) (pgload.LoadConfig, error) {
	projectCfg, err := loadProjectConfig(getConfigFlag(cmd))
	if err != nil {
		return pgload.LoadConfig{}, err
	}
	var section config.LoadSection
	if projectCfg != nil {
		section = projectCfg.Load
	}

	resolved, err := resolveConnectionFromFlags(conn, projectCfg, verbose)
	if err != nil {
		return pgload.LoadConfig{}, err
	}

	cfg := pgload.LoadConfig{
		Table:             opts.table,
		Inputs:            inputs,
		Patterns:          opts.patterns,
		Recursive:         opts.recursive,
		BatchSize:         opts.batchSize,
		ConnectionString:  resolved.ConnStr,
		AuthMethod:        resolved.ConnConfig.AuthMethod,
		AWSRegion:         resolved.ConnConfig.AWSRegion,
		GoogleInstance:    resolved.ConnConfig.GoogleInstance,
		AzureTenantID:     resolved.ConnConfig.AzureTenantID,
		AzureClientID:     resolved.ConnConfig.AzureClientID,
		AzureClientSecret: resolved.ConnConfig.AzureClientSecret,
		Timeout:           opts.timeout,
		Verbose:           verbose,
	}

	if cfg.Table == "" {
		cfg.Table = section.Table
	}
	if len(cfg.Patterns) == 0 {
		cfg.Patterns = section.Patterns
	}
	if !cmd.Flags().Changed("recursive") {
		cfg.Recursive = section.Recursive
	}
	if !cmd.Flags().Changed("batch-size") && section.BatchSize > 0 {
		cfg.BatchSize = section.BatchSize
	}

	if cmd.Flags().Changed("null") {
		cfg.NullValues = opts.nulls
		if cfg.NullValues == nil {
			cfg.NullValues = []string{}
		}
	} else if section.NullValues != nil {
		cfg.NullValues = section.NullValues
	}

	delimiter := opts.delimiter
	if delimiter == "" {
		delimiter = section.Delimiter
	}
	if cfg.Delimiter, err = (config.LoadSection{Delimiter: delimiter}).DelimiterRune(); err != nil {
		return pgload.LoadConfig{}, fmt.Errorf("%w: %w", err, pgload.ErrInvalidConfig)
	}
	if cfg.Delimiter == 0 {
		cfg.Delimiter = pgload.DefaultDelimiter
	}

	if cfg.Timeout, err = resolveEffectiveTimeout(cmd, section, opts.timeout); err != nil {
		return pgload.LoadConfig{}, err
	}

	return cfg, nil
}

// resolveEffectiveTimeout returns the effective timeout, preferring pgload.yaml if the flag wasn't set.
func resolveEffectiveTimeout(cmd *cobra.Command, section config.LoadSection, flagTimeout time.Duration) (time.Duration, error) {
	if cmd.Flags().Changed("timeout") {
		return flagTimeout, nil
	}
	parsed, err := section.ParsedTimeout()
	if err != nil {
		return 0, fmt.Errorf("%w: %w", err, pgload.ErrInvalidConfig)
	}
	if parsed > 0 {
		return parsed, nil
	}
	return flagTimeout, nil
}
