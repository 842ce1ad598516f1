package services

import (
	"context"
	"fmt"

	"github.com/vvka-141/pgload/internal/db"
	"github.com/vvka-141/pgload/pkg/pgload"
)

// ParserFactory builds the file parser for one run from its format options.
type ParserFactory func(delimiter rune, nullValues []string) pgload.FileParser

type dbConnFunc func(ctx context.Context, connConfig *pgload.ConnectionConfig) (pgload.DBConnection, func(), error)

// IngestService runs a whole load: it connects, fetches the table's column
// set once, expands the inputs and hands the files to a FileLoader.
//
// Thread-Safety: NOT safe for concurrent Run() calls on the same instance.
// Create separate instances for concurrent runs.
type IngestService struct {
	connectorFactory func(*pgload.ConnectionConfig) (pgload.Connector, error)
	fileScanner      pgload.FileScanner
	inspector        pgload.SchemaInspector
	parserFactory    ParserFactory
	writer           pgload.BatchWriter
	approver         pgload.Approver
	logger           pgload.Logger
	connect          dbConnFunc
}

// NewIngestService creates a new IngestService with all dependencies injected.
//
// Panics on nil dependencies: these are wiring mistakes that should surface at
// startup. Runtime conditions (bad configuration, unreachable server, broken
// files) are returned as errors or recorded in the report.
func NewIngestService(
	connectorFactory func(*pgload.ConnectionConfig) (pgload.Connector, error),
	fileScanner pgload.FileScanner,
	inspector pgload.SchemaInspector,
	parserFactory ParserFactory,
	writer pgload.BatchWriter,
	approver pgload.Approver,
	logger pgload.Logger,
) *IngestService {
	if connectorFactory == nil {
		panic("connectorFactory cannot be nil")
	}
	if fileScanner == nil {
		panic("fileScanner cannot be nil")
	}
	if inspector == nil {
		panic("inspector cannot be nil")
	}
	if parserFactory == nil {
		panic("parserFactory cannot be nil")
	}
	if writer == nil {
		panic("writer cannot be nil")
	}
	if approver == nil {
		panic("approver cannot be nil")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}

	svc := &IngestService{
		connectorFactory: connectorFactory,
		fileScanner:      fileScanner,
		inspector:        inspector,
		parserFactory:    parserFactory,
		writer:           writer,
		approver:         approver,
		logger:           logger,
	}
	svc.connect = svc.defaultConnect
	return svc
}

func (s *IngestService) defaultConnect(ctx context.Context, connConfig *pgload.ConnectionConfig) (pgload.DBConnection, func(), error) {
	connector, err := s.connectorFactory(connConfig)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create connector: %w", err)
	}

	// Connectors retry transient failures themselves.
	pool, err := connector.Connect(ctx)
	if err != nil {
		return nil, nil, err
	}

	adapter := db.NewPoolAdapter(pool)
	return adapter, adapter.Close, nil
}

// Run executes one load and returns its report. The report is nil only when
// the run stopped before any file was considered: invalid configuration,
// input discovery, connection, metadata fetch or a declined approval.
// Otherwise the returned error is report.Err().
func (s *IngestService) Run(ctx context.Context, cfg pgload.LoadConfig) (*pgload.Report, error) {
	connConfig, table, err := s.validateAndParseConfig(cfg)
	if err != nil {
		return nil, err
	}

	paths, err := s.fileScanner.Discover(cfg.Inputs, cfg.Patterns, cfg.Recursive)
	if err != nil {
		return nil, fmt.Errorf("failed to discover input files: %w", err)
	}
	s.logger.Verbose("Discovered %d input file(s)", len(paths))

	conn, cleanup, err := s.connect(ctx, connConfig)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	columns, err := s.inspector.Columns(ctx, conn, table)
	if err != nil {
		return nil, err
	}
	s.logger.Info("Target %s: %d column(s)", table, columns.Len())

	if len(paths) == 0 {
		s.logger.Info("No input files; nothing to load")
		report := pgload.NewReport(table, columns)
		report.DryRun = cfg.DryRun
		return report, nil
	}

	if !cfg.DryRun {
		if err := s.requestApproval(ctx, table, columns, paths); err != nil {
			return nil, err
		}
	}

	loader := NewFileLoader(
		s.parserFactory(cfg.Delimiter, cfg.EffectiveNullValues()),
		s.writer,
		s.logger,
		WithBatchSize(cfg.EffectiveBatchSize()),
		WithDryRun(cfg.DryRun),
	)
	report := loader.Load(ctx, conn, table, columns, paths)
	return report, report.Err()
}

func (s *IngestService) validateAndParseConfig(cfg pgload.LoadConfig) (*pgload.ConnectionConfig, pgload.TableName, error) {
	if err := cfg.Validate(); err != nil {
		return nil, pgload.TableName{}, fmt.Errorf("invalid configuration: %w", err)
	}

	table, err := pgload.ParseTableName(cfg.Table)
	if err != nil {
		return nil, pgload.TableName{}, err
	}

	connConfig, err := db.ParseConnectionString(cfg.ConnectionString)
	if err != nil {
		return nil, pgload.TableName{}, fmt.Errorf("failed to parse connection string: %v: %w", err, pgload.ErrInvalidConfig)
	}
	if connConfig.AppName == "" {
		connConfig.AppName = "pgload"
	}

	connConfig.AuthMethod = cfg.AuthMethod
	connConfig.AWSRegion = cfg.AWSRegion
	connConfig.GoogleInstance = cfg.GoogleInstance
	connConfig.AzureTenantID = cfg.AzureTenantID
	connConfig.AzureClientID = cfg.AzureClientID
	connConfig.AzureClientSecret = cfg.AzureClientSecret

	s.logger.Verbose("Loading into %s on %s:%d/%s", table, connConfig.Host, connConfig.Port, connConfig.Database)
	return connConfig, table, nil
}

func (s *IngestService) requestApproval(ctx context.Context, table pgload.TableName, columns pgload.ColumnSet, paths []string) error {
	plan := pgload.NewReport(table, columns)
	for _, p := range paths {
		plan.Files = append(plan.Files, pgload.FileResult{Path: p, State: pgload.FilePending})
	}

	approved, err := s.approver.RequestApproval(ctx, plan)
	if err != nil {
		return fmt.Errorf("approval request failed: %w", err)
	}
	if !approved {
		return fmt.Errorf("load into %s was not approved: %w", table, pgload.ErrApprovalDenied)
	}
	return nil
}
