package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/vvka-141/pgload/pkg/pgload"
)

// FileLoader reconciles each input file against the table's column set and
// loads it in batches. Files are processed one after another; a failure in
// one file never stops the next.
//
// Thread-Safety: NOT safe for concurrent Load() calls on the same instance.
type FileLoader struct {
	parser    pgload.FileParser
	writer    pgload.BatchWriter
	logger    pgload.Logger
	batchSize int
	dryRun    bool
}

// LoaderOption configures a FileLoader.
type LoaderOption func(*FileLoader)

// WithBatchSize sets the maximum number of rows per insert. Values <= 0
// keep pgload.DefaultBatchSize.
func WithBatchSize(n int) LoaderOption {
	return func(l *FileLoader) {
		if n > 0 {
			l.batchSize = n
		}
	}
}

// WithDryRun makes the loader stop after reconciliation. Files end in
// FileSkipped and no connection is acquired.
func WithDryRun(dryRun bool) LoaderOption {
	return func(l *FileLoader) { l.dryRun = dryRun }
}

// NewFileLoader creates a FileLoader with all dependencies injected.
// Panics if any dependency is nil.
func NewFileLoader(parser pgload.FileParser, writer pgload.BatchWriter, logger pgload.Logger, opts ...LoaderOption) *FileLoader {
	if parser == nil {
		panic("parser cannot be nil")
	}
	if writer == nil {
		panic("writer cannot be nil")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}

	l := &FileLoader{
		parser:    parser,
		writer:    writer,
		logger:    logger,
		batchSize: pgload.DefaultBatchSize,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load processes paths in order and returns one FileResult per path, in the
// same order. conn may be nil for a dry run.
//
// When ctx is cancelled the file in flight and every file not yet started
// are reported as failed with the context error.
func (l *FileLoader) Load(ctx context.Context, conn pgload.DBConnection, table pgload.TableName, columns pgload.ColumnSet, paths []string) *pgload.Report {
	report := pgload.NewReport(table, columns)
	report.DryRun = l.dryRun
	report.Files = make([]pgload.FileResult, 0, len(paths))

	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			report.Files = append(report.Files, pgload.FileResult{Path: path, State: pgload.FileFailed, Err: err})
			continue
		}

		result := l.loadFile(ctx, conn, table, columns, path)
		l.logResult(result)
		report.Files = append(report.Files, result)
	}

	report.Duration = time.Since(report.StartedAt)
	return report
}

func (l *FileLoader) loadFile(ctx context.Context, conn pgload.DBConnection, table pgload.TableName, columns pgload.ColumnSet, path string) (result pgload.FileResult) {
	start := time.Now()
	result = pgload.FileResult{Path: path, State: pgload.FilePending}
	defer func() { result.Duration = time.Since(start) }()

	fail := func(err error) pgload.FileResult {
		result.State = pgload.FileFailed
		result.Err = err
		return result
	}

	rec, err := l.parser.Parse(path)
	if err != nil {
		return fail(err)
	}
	result.State = pgload.FileParsed
	result.Checksum = rec.Checksum
	result.RowsParsed = len(rec.Rows)
	l.logger.Verbose("%s: %d column(s), %d row(s), sha256 %s", path, len(rec.Columns), len(rec.Rows), rec.Checksum)

	rc := pgload.Reconcile(rec.Columns, columns)
	result.Columns = rc.Columns
	result.Dropped = rc.Dropped
	if rc.Empty() {
		return fail(&pgload.ReconcileError{Path: path, FileColumns: rec.Columns})
	}
	result.State = pgload.FileReconciled
	if !rc.Subset {
		l.logger.Warn("%s: %d column(s) not in %s will not be loaded: %s",
			path, len(rc.Dropped), table, previewColumns(rc.Dropped))
	}

	if l.dryRun {
		result.State = pgload.FileSkipped
		return result
	}

	batches := rec.Project(rc).Batches(l.batchSize)
	if len(batches) == 0 {
		result.State = pgload.FileCompleted
		return result
	}

	pc, err := conn.Acquire(ctx)
	if err != nil {
		return fail(&pgload.InsertError{Path: path, Batch: 1, Err: fmt.Errorf("acquire connection: %w", err)})
	}
	defer pc.Release()

	result.State = pgload.FileSubmitting
	lastFlush := time.Now()
	for i, batch := range batches {
		n, err := l.writer.WriteBatch(ctx, pc, table, rc.Columns, batch)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				err = ctxErr
			}
			return fail(&pgload.InsertError{Path: path, Batch: i + 1, RowsCommitted: result.RowsLoaded, Err: err})
		}
		result.RowsLoaded += n
		result.Batches++

		now := time.Now()
		since := now.Sub(lastFlush)
		rps := float64(0)
		if since > 0 {
			rps = float64(n) / since.Seconds()
		}
		l.logger.Verbose("%s: batch #%d/%d rows=%d total=%d rps=%.0f",
			path, i+1, len(batches), n, result.RowsLoaded, rps)
		lastFlush = now
	}

	result.State = pgload.FileCompleted
	return result
}

func (l *FileLoader) logResult(r pgload.FileResult) {
	switch r.State {
	case pgload.FileCompleted:
		l.logger.Info("✓ %s: %d row(s) in %d batch(es) (%s)",
			r.Path, r.RowsLoaded, r.Batches, r.Duration.Truncate(time.Millisecond))
	case pgload.FileSkipped:
		l.logger.Info("%s: would load %d row(s) into %d column(s)", r.Path, r.RowsParsed, len(r.Columns))
	case pgload.FileFailed:
		l.logger.Error("✗ %v", r.Err)
	}
}

// previewColumns joins names for log output, eliding past pgload.MaxColumnPreview.
func previewColumns(names []string) string {
	if len(names) <= pgload.MaxColumnPreview {
		return strings.Join(names, ", ")
	}
	return fmt.Sprintf("%s, ... (%d more)",
		strings.Join(names[:pgload.MaxColumnPreview], ", "), len(names)-pgload.MaxColumnPreview)
}
