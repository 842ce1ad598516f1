package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
	"unicode/utf8"

	"gopkg.in/yaml.v3"
)

// ErrConfigNotFound is returned when the config file does not exist.
// Callers can check for this with errors.Is(err, config.ErrConfigNotFound).
var ErrConfigNotFound = errors.New("config file not found")

type ConnectionConfig struct {
	Host           string `yaml:"host"`
	Port           int    `yaml:"port"`
	Username       string `yaml:"username"`
	Database       string `yaml:"database"`
	SSLMode        string `yaml:"sslmode"`
	SSLCert        string `yaml:"sslcert,omitempty"`
	SSLKey         string `yaml:"sslkey,omitempty"`
	SSLRootCert    string `yaml:"sslrootcert,omitempty"`
	AuthMethod     string `yaml:"auth_method,omitempty"`
	AzureTenantID  string `yaml:"azure_tenant_id,omitempty"`
	AzureClientID  string `yaml:"azure_client_id,omitempty"`
	AWSRegion      string `yaml:"aws_region,omitempty"`
	GoogleInstance string `yaml:"google_instance,omitempty"`
}

// LoadSection holds defaults for the load command. Flags override every field.
type LoadSection struct {
	Table      string   `yaml:"table"`
	BatchSize  int      `yaml:"batch_size,omitempty"`
	Delimiter  string   `yaml:"delimiter,omitempty"`
	Patterns   []string `yaml:"patterns,omitempty"`
	Recursive  bool     `yaml:"recursive,omitempty"`
	NullValues []string `yaml:"null_values,omitempty"`
	Timeout    string   `yaml:"timeout,omitempty"`
}

type ProjectConfig struct {
	Connection ConnectionConfig `yaml:"connection"`
	Load       LoadSection      `yaml:"load"`
}

const ConfigFileName = "pgload.yaml"

// Load reads pgload.yaml from dir.
func Load(dir string) (*ProjectConfig, error) {
	return LoadFile(filepath.Join(dir, ConfigFileName))
}

// LoadFile reads and validates a config file at an explicit path.
func LoadFile(path string) (*ProjectConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var cfg ProjectConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if _, err := cfg.Load.ParsedTimeout(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if _, err := cfg.Load.DelimiterRune(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &cfg, nil
}

// ParsedTimeout returns the load timeout, or zero when unset.
func (l LoadSection) ParsedTimeout() (time.Duration, error) {
	if l.Timeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(l.Timeout)
	if err != nil {
		return 0, fmt.Errorf("load.timeout %q: %w", l.Timeout, err)
	}
	return d, nil
}

// DelimiterRune returns the configured delimiter, or zero when unset.
// "\t" and "tab" both select a tab.
func (l LoadSection) DelimiterRune() (rune, error) {
	switch l.Delimiter {
	case "":
		return 0, nil
	case `\t`, "tab":
		return '\t', nil
	}
	r, size := utf8.DecodeRuneInString(l.Delimiter)
	if r == utf8.RuneError || size != len(l.Delimiter) {
		return 0, fmt.Errorf("load.delimiter %q must be a single character", l.Delimiter)
	}
	return r, nil
}
