package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vvka-141/pgload/internal/db"
	"github.com/vvka-141/pgload/pkg/pgload"
)

type ingestFixture struct {
	svc       *IngestService
	scanner   *mockFileScanner
	inspector *mockInspector
	parser    *mockParser
	writer    *mockWriter
	approver  *mockApprover
	logger    *mockLogger
	db        *mockDB
	closed    bool
	gotConfig *pgload.ConnectionConfig
	delimiter rune
	nulls     []string
}

func newIngestFixture(t *testing.T) *ingestFixture {
	t.Helper()
	f := &ingestFixture{
		scanner:   &mockFileScanner{},
		inspector: &mockInspector{columns: pgload.NewColumnSet("id", "name")},
		parser:    &mockParser{records: map[string]*pgload.FileRecord{}},
		writer:    &mockWriter{},
		approver:  &mockApprover{approved: true},
		logger:    &mockLogger{},
		db:        newMockDB(),
	}
	factory := func(delimiter rune, nullValues []string) pgload.FileParser {
		f.delimiter = delimiter
		f.nulls = nullValues
		return f.parser
	}
	connectorFactory := func(*pgload.ConnectionConfig) (pgload.Connector, error) {
		return &mockConnector{}, nil
	}
	f.svc = NewIngestService(connectorFactory, f.scanner, f.inspector, factory, f.writer, f.approver, f.logger)
	f.svc.connect = func(_ context.Context, cfg *pgload.ConnectionConfig) (pgload.DBConnection, func(), error) {
		f.gotConfig = cfg
		return f.db, func() { f.closed = true }, nil
	}
	return f
}

func baseConfig() pgload.LoadConfig {
	return pgload.LoadConfig{
		Table:            "sales.orders",
		Inputs:           []string{"in"},
		ConnectionString: "postgresql://loader@db.internal:5432/warehouse",
	}
}

func TestNewIngestService_PanicsOnNil(t *testing.T) {
	factory := func(*pgload.ConnectionConfig) (pgload.Connector, error) { return nil, nil }
	parsers := func(rune, []string) pgload.FileParser { return &mockParser{} }

	assert.Panics(t, func() {
		NewIngestService(nil, &mockFileScanner{}, &mockInspector{}, parsers, &mockWriter{}, &mockApprover{}, &mockLogger{})
	})
	assert.Panics(t, func() {
		NewIngestService(factory, nil, &mockInspector{}, parsers, &mockWriter{}, &mockApprover{}, &mockLogger{})
	})
	assert.Panics(t, func() {
		NewIngestService(factory, &mockFileScanner{}, nil, parsers, &mockWriter{}, &mockApprover{}, &mockLogger{})
	})
	assert.Panics(t, func() {
		NewIngestService(factory, &mockFileScanner{}, &mockInspector{}, nil, &mockWriter{}, &mockApprover{}, &mockLogger{})
	})
	assert.Panics(t, func() {
		NewIngestService(factory, &mockFileScanner{}, &mockInspector{}, parsers, nil, &mockApprover{}, &mockLogger{})
	})
	assert.Panics(t, func() {
		NewIngestService(factory, &mockFileScanner{}, &mockInspector{}, parsers, &mockWriter{}, nil, &mockLogger{})
	})
	assert.Panics(t, func() {
		NewIngestService(factory, &mockFileScanner{}, &mockInspector{}, parsers, &mockWriter{}, &mockApprover{}, nil)
	})
}

func TestIngestService_Run(t *testing.T) {
	f := newIngestFixture(t)
	f.scanner.paths = []string{"in/a.csv", "in/b.csv"}
	f.parser.records["in/a.csv"] = record("in/a.csv", []string{"id", "name", "extra"}, []string{"1", "ann", "x"})
	f.parser.records["in/b.csv"] = record("in/b.csv", []string{"name"}, []string{"bob"}, []string{"cat"})

	cfg := baseConfig()
	cfg.Delimiter = ';'
	cfg.NullValues = []string{"NULL"}
	cfg.AuthMethod = pgload.AuthMethodAWSIAM
	cfg.AWSRegion = "eu-west-1"

	report, err := f.svc.Run(context.Background(), cfg)

	require.NoError(t, err)
	require.NotNil(t, report)
	assert.Equal(t, pgload.TableName{Schema: "sales", Name: "orders"}, report.Table)
	assert.Equal(t, int64(3), report.RowsLoaded())
	require.Len(t, report.Files, 2)
	assert.Equal(t, pgload.FileCompleted, report.Files[0].State)
	assert.Equal(t, pgload.FileCompleted, report.Files[1].State)

	assert.Equal(t, 1, f.inspector.calls, "column set is fetched once per run")
	assert.Equal(t, ';', f.delimiter)
	assert.Equal(t, []string{"NULL"}, f.nulls)
	assert.True(t, f.closed, "pool is closed after the run")

	require.NotNil(t, f.gotConfig)
	assert.Equal(t, "db.internal", f.gotConfig.Host)
	assert.Equal(t, "warehouse", f.gotConfig.Database)
	assert.Equal(t, "pgload", f.gotConfig.AppName)
	assert.Equal(t, pgload.AuthMethodAWSIAM, f.gotConfig.AuthMethod)
	assert.Equal(t, "eu-west-1", f.gotConfig.AWSRegion)

	require.NotNil(t, f.approver.plan)
	assert.Len(t, f.approver.plan.Files, 2)
	assert.Equal(t, pgload.FilePending, f.approver.plan.Files[0].State)
}

func TestIngestService_MetadataFailureStopsRun(t *testing.T) {
	f := newIngestFixture(t)
	f.scanner.paths = []string{"a.csv", "b.csv"}
	f.inspector.err = &pgload.MetadataFetchError{
		Table: pgload.TableName{Name: "orders"},
		Err:   errors.New("connection refused"),
	}

	report, err := f.svc.Run(context.Background(), baseConfig())

	require.Error(t, err)
	assert.Nil(t, report)
	assert.ErrorIs(t, err, pgload.ErrMetadataFetch)
	assert.Equal(t, pgload.ExitMetadataFetchError, pgload.ExitCodeForError(err))
	assert.Empty(t, f.parser.parsed, "no file is processed")
	assert.Empty(t, f.writer.calls)
	assert.Nil(t, f.approver.plan)
}

func TestIngestService_InvalidConfig(t *testing.T) {
	f := newIngestFixture(t)
	cfg := baseConfig()
	cfg.Table = ""

	_, err := f.svc.Run(context.Background(), cfg)

	assert.ErrorIs(t, err, pgload.ErrInvalidConfig)
	assert.Nil(t, f.gotConfig, "no connection attempt")
}

func TestIngestService_UnparsableConnectionString(t *testing.T) {
	f := newIngestFixture(t)
	cfg := baseConfig()
	cfg.ConnectionString = "not a connection string"

	_, err := f.svc.Run(context.Background(), cfg)

	assert.ErrorIs(t, err, pgload.ErrInvalidConfig)
}

func TestIngestService_DiscoveryFailure(t *testing.T) {
	f := newIngestFixture(t)
	f.scanner.err = errors.New("permission denied")

	_, err := f.svc.Run(context.Background(), baseConfig())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to discover input files")
	assert.Nil(t, f.gotConfig)
}

func TestIngestService_ConnectFailure(t *testing.T) {
	f := newIngestFixture(t)
	f.svc.connect = func(context.Context, *pgload.ConnectionConfig) (pgload.DBConnection, func(), error) {
		return nil, nil, pgload.ErrConnectionFailed
	}

	_, err := f.svc.Run(context.Background(), baseConfig())

	assert.ErrorIs(t, err, pgload.ErrConnectionFailed)
	assert.Zero(t, f.inspector.calls)
}

func TestIngestService_NoFilesIsSuccess(t *testing.T) {
	f := newIngestFixture(t)

	report, err := f.svc.Run(context.Background(), baseConfig())

	require.NoError(t, err)
	require.NotNil(t, report)
	assert.Empty(t, report.Files)
	assert.Equal(t, 2, report.Columns.Len())
	assert.Nil(t, f.approver.plan, "nothing to approve")
	assert.Empty(t, f.writer.calls)
}

func TestIngestService_ApprovalDenied(t *testing.T) {
	f := newIngestFixture(t)
	f.scanner.paths = []string{"a.csv"}
	f.approver.approved = false

	report, err := f.svc.Run(context.Background(), baseConfig())

	assert.Nil(t, report)
	assert.ErrorIs(t, err, pgload.ErrApprovalDenied)
	assert.Equal(t, pgload.ExitApprovalDenied, pgload.ExitCodeForError(err))
	assert.Empty(t, f.parser.parsed)
}

func TestIngestService_ApprovalError(t *testing.T) {
	f := newIngestFixture(t)
	f.scanner.paths = []string{"a.csv"}
	f.approver.err = context.Canceled

	_, err := f.svc.Run(context.Background(), baseConfig())

	assert.ErrorIs(t, err, context.Canceled)
	assert.Contains(t, err.Error(), "approval request failed")
}

func TestIngestService_DryRunSkipsApprovalAndWrites(t *testing.T) {
	f := newIngestFixture(t)
	f.scanner.paths = []string{"a.csv"}
	f.parser.records["a.csv"] = record("a.csv", []string{"id"}, []string{"1"})
	cfg := baseConfig()
	cfg.DryRun = true

	report, err := f.svc.Run(context.Background(), cfg)

	require.NoError(t, err)
	assert.True(t, report.DryRun)
	assert.Equal(t, pgload.FileSkipped, report.Files[0].State)
	assert.Nil(t, f.approver.plan)
	assert.Empty(t, f.writer.calls)
}

func TestIngestService_PartialLoad(t *testing.T) {
	f := newIngestFixture(t)
	f.scanner.paths = []string{"good.csv", "bad.csv"}
	f.parser.records["good.csv"] = record("good.csv", []string{"id"}, []string{"1"})
	f.parser.errs = map[string]error{"bad.csv": errors.New("wrong number of fields")}

	report, err := f.svc.Run(context.Background(), baseConfig())

	require.NotNil(t, report, "the report is returned alongside the error")
	assert.ErrorIs(t, err, pgload.ErrPartialLoad)
	assert.ErrorIs(t, err, pgload.ErrFileParse)
	assert.Equal(t, int64(1), report.RowsLoaded())
	assert.Equal(t, pgload.ExitPartialLoad, pgload.ExitCodeForError(err))
}

func TestIngestService_DefaultConnectCallsConnectorOnce(t *testing.T) {
	attempts := 0
	connector := &countingConnector{
		fn: func() error {
			attempts++
			return errors.New("connection refused")
		},
	}
	factory := func(*pgload.ConnectionConfig) (pgload.Connector, error) { return connector, nil }
	svc := NewIngestService(factory, &mockFileScanner{}, &mockInspector{},
		func(rune, []string) pgload.FileParser { return &mockParser{} },
		&mockWriter{}, &mockApprover{}, &mockLogger{})

	_, err := svc.Run(context.Background(), baseConfig())

	require.Error(t, err)
	assert.Equal(t, 1, attempts, "retries belong to the connector")
}

func TestIngestService_UnreachableServerRetriesWithinConnectorBudget(t *testing.T) {
	if testing.Short() {
		t.Skip("dials a closed local port and waits for backoff")
	}

	logger := &mockLogger{}
	connects := 0
	factory := func(cfg *pgload.ConnectionConfig) (pgload.Connector, error) {
		inner, err := db.NewConnector(cfg, logger)
		if err != nil {
			return nil, err
		}
		return &countingConnector{next: inner, fn: func() error { connects++; return nil }}, nil
	}
	svc := NewIngestService(factory, &mockFileScanner{}, &mockInspector{},
		func(rune, []string) pgload.FileParser { return &mockParser{} },
		&mockWriter{}, &mockApprover{}, logger)
	cfg := baseConfig()
	cfg.ConnectionString = "postgresql://loader@127.0.0.1:1/warehouse?sslmode=disable&connect_timeout=2"

	_, err := svc.Run(context.Background(), cfg)

	require.Error(t, err)
	assert.ErrorIs(t, err, pgload.ErrConnectionFailed)
	assert.Equal(t, 1, connects)

	retries := 0
	for _, line := range logger.verbose {
		if strings.Contains(line, "connection attempt failed") {
			retries++
		}
	}
	assert.Equal(t, pgload.DefaultRetryMaxAttempts, retries,
		"pool opens = 1 + %d retries", pgload.DefaultRetryMaxAttempts)
}

func TestIngestService_ConnectorFactoryError(t *testing.T) {
	factory := func(*pgload.ConnectionConfig) (pgload.Connector, error) {
		return nil, pgload.ErrUnsupportedAuthMethod
	}
	svc := NewIngestService(factory, &mockFileScanner{}, &mockInspector{},
		func(rune, []string) pgload.FileParser { return &mockParser{} },
		&mockWriter{}, &mockApprover{}, &mockLogger{})

	_, err := svc.Run(context.Background(), baseConfig())

	assert.ErrorIs(t, err, pgload.ErrUnsupportedAuthMethod)
	assert.Equal(t, pgload.ExitConfigError, pgload.ExitCodeForError(err))
}
