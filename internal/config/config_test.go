package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFileName), []byte(content), 0644))
	return dir
}

func TestLoad_AllFields(t *testing.T) {
	dir := writeConfig(t, `connection:
  host: myhost
  port: 5433
  username: loader
  database: warehouse
  sslmode: require
  sslrootcert: /path/ca.crt
  auth_method: aws
  aws_region: eu-west-1

load:
  table: sales.orders
  batch_size: 1000
  delimiter: ";"
  patterns: ["*.csv", "*.csv.gz"]
  recursive: true
  null_values: ["", "NULL"]
  timeout: 10m
`)

	cfg, err := Load(dir)
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "myhost", cfg.Connection.Host)
	assert.Equal(t, 5433, cfg.Connection.Port)
	assert.Equal(t, "loader", cfg.Connection.Username)
	assert.Equal(t, "warehouse", cfg.Connection.Database)
	assert.Equal(t, "require", cfg.Connection.SSLMode)
	assert.Equal(t, "/path/ca.crt", cfg.Connection.SSLRootCert)
	assert.Equal(t, "aws", cfg.Connection.AuthMethod)
	assert.Equal(t, "eu-west-1", cfg.Connection.AWSRegion)

	assert.Equal(t, "sales.orders", cfg.Load.Table)
	assert.Equal(t, 1000, cfg.Load.BatchSize)
	assert.Equal(t, []string{"*.csv", "*.csv.gz"}, cfg.Load.Patterns)
	assert.True(t, cfg.Load.Recursive)
	assert.Equal(t, []string{"", "NULL"}, cfg.Load.NullValues)

	timeout, err := cfg.Load.ParsedTimeout()
	require.NoError(t, err)
	assert.Equal(t, 10*time.Minute, timeout)

	delim, err := cfg.Load.DelimiterRune()
	require.NoError(t, err)
	assert.Equal(t, ';', delim)
}

func TestLoad_MinimalYAML(t *testing.T) {
	dir := writeConfig(t, "load:\n  table: orders\n")

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "orders", cfg.Load.Table)
	assert.Empty(t, cfg.Connection.Host)
	assert.Zero(t, cfg.Load.BatchSize)
}

func TestLoad_FileNotFound(t *testing.T) {
	_, err := Load(t.TempDir())
	assert.True(t, errors.Is(err, ErrConfigNotFound))
}

func TestLoad_InvalidYAML(t *testing.T) {
	dir := writeConfig(t, "load: [unclosed\n")

	_, err := Load(dir)
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrConfigNotFound))
}

func TestLoad_InvalidTimeout(t *testing.T) {
	dir := writeConfig(t, "load:\n  timeout: soon\n")

	_, err := Load(dir)
	assert.ErrorContains(t, err, "load.timeout")
}

func TestLoad_InvalidDelimiter(t *testing.T) {
	dir := writeConfig(t, "load:\n  delimiter: \"::\"\n")

	_, err := Load(dir)
	assert.ErrorContains(t, err, "load.delimiter")
}

func TestLoadSection_DelimiterRune(t *testing.T) {
	for input, want := range map[string]rune{"": 0, "tab": '\t', `\t`: '\t', "|": '|', ",": ','} {
		got, err := LoadSection{Delimiter: input}.DelimiterRune()
		require.NoError(t, err, input)
		assert.Equal(t, want, got, input)
	}
}

func TestLoadFile_ExplicitPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte("load:\n  table: t\n"), 0644))

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "t", cfg.Load.Table)
}

func TestLoad_EmptyFile(t *testing.T) {
	dir := writeConfig(t, "")

	cfg, err := Load(dir)
	require.NoError(t, err)
	require.NotNil(t, cfg)
	assert.Empty(t, cfg.Load.Table)
}
