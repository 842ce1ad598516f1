package services

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vvka-141/pgload/pkg/pgload"
)

var ordersTable = pgload.TableName{Schema: "sales", Name: "orders"}

func rowsOf(n int) [][]string {
	rows := make([][]string, n)
	for i := range rows {
		rows[i] = []string{fmt.Sprint(i + 1)}
	}
	return rows
}

func newTestLoader(parser *mockParser, writer *mockWriter, opts ...LoaderOption) (*FileLoader, *mockLogger) {
	logger := &mockLogger{}
	return NewFileLoader(parser, writer, logger, opts...), logger
}

func TestNewFileLoader_PanicsOnNil(t *testing.T) {
	assert.Panics(t, func() { NewFileLoader(nil, &mockWriter{}, &mockLogger{}) })
	assert.Panics(t, func() { NewFileLoader(&mockParser{}, nil, &mockLogger{}) })
	assert.Panics(t, func() { NewFileLoader(&mockParser{}, &mockWriter{}, nil) })
}

func TestFileLoader_SupersetFileDropsExtraColumn(t *testing.T) {
	parser := &mockParser{records: map[string]*pgload.FileRecord{
		"a.csv": record("a.csv", []string{"id", "name", "amount", "extra"},
			[]string{"1", "ann", "10", "x"},
			[]string{"2", "bob", "20", "y"},
			[]string{"3", "cat", "30", "z"},
		),
	}}
	writer := &mockWriter{}
	loader, logger := newTestLoader(parser, writer)
	conn := newMockDB()

	report := loader.Load(context.Background(), conn, ordersTable, pgload.NewColumnSet("id", "name", "amount"), []string{"a.csv"})

	require.Len(t, report.Files, 1)
	res := report.Files[0]
	assert.Equal(t, pgload.FileCompleted, res.State)
	assert.Equal(t, []string{"id", "name", "amount"}, res.Columns)
	assert.Equal(t, []string{"extra"}, res.Dropped)
	assert.Equal(t, int64(3), res.RowsLoaded)
	assert.Equal(t, "sum-a.csv", res.Checksum)

	require.Len(t, writer.calls, 1)
	assert.Equal(t, ordersTable, writer.calls[0].table)
	assert.Equal(t, []string{"id", "name", "amount"}, writer.calls[0].columns)
	assert.Equal(t, "ann", writer.calls[0].rows[0][1].String)
	for _, row := range writer.calls[0].rows {
		assert.Len(t, row, 3, "extra column must not reach the writer")
	}

	require.Len(t, logger.warnings, 1)
	assert.Contains(t, logger.warnings[0], "extra")
	assert.Zero(t, conn.outstanding(), "connection must be released")
	assert.NoError(t, report.Err())
}

func TestFileLoader_PartialOverlapLoadsIntersection(t *testing.T) {
	parser := &mockParser{records: map[string]*pgload.FileRecord{
		"b.csv": record("b.csv", []string{"name", "region"}, []string{"ann", "eu"}),
	}}
	writer := &mockWriter{}
	loader, _ := newTestLoader(parser, writer)

	report := loader.Load(context.Background(), newMockDB(), ordersTable, pgload.NewColumnSet("id", "name"), []string{"b.csv"})

	res := report.Files[0]
	assert.Equal(t, pgload.FileCompleted, res.State)
	assert.Equal(t, []string{"name"}, res.Columns)
	assert.Equal(t, []string{"region"}, res.Dropped)

	require.Len(t, writer.calls, 1)
	assert.Equal(t, []string{"name"}, writer.calls[0].columns)
	require.Len(t, writer.calls[0].rows, 1)
	assert.Equal(t, pgload.Row{pgload.Value("ann")}, writer.calls[0].rows[0])
}

func TestFileLoader_SubsetKeepsFileOrder(t *testing.T) {
	parser := &mockParser{records: map[string]*pgload.FileRecord{
		"c.csv": record("c.csv", []string{"name", "id"}, []string{"ann", "1"}),
	}}
	writer := &mockWriter{}
	loader, logger := newTestLoader(parser, writer)

	report := loader.Load(context.Background(), newMockDB(), ordersTable, pgload.NewColumnSet("id", "name", "amount"), []string{"c.csv"})

	assert.Equal(t, pgload.FileCompleted, report.Files[0].State)
	assert.Empty(t, report.Files[0].Dropped)
	assert.Equal(t, []string{"name", "id"}, writer.calls[0].columns)
	assert.Empty(t, logger.warnings)
}

func TestFileLoader_ZeroOverlapIsSkippedAndReported(t *testing.T) {
	parser := &mockParser{records: map[string]*pgload.FileRecord{
		"none.csv": record("none.csv", []string{"foo", "bar"}, []string{"1", "2"}),
		"ok.csv":   record("ok.csv", []string{"id"}, []string{"1"}),
	}}
	writer := &mockWriter{}
	loader, _ := newTestLoader(parser, writer)
	conn := newMockDB()

	report := loader.Load(context.Background(), conn, ordersTable, pgload.NewColumnSet("id"), []string{"none.csv", "ok.csv"})

	require.Len(t, report.Files, 2)
	none := report.Files[0]
	assert.Equal(t, pgload.FileFailed, none.State)
	var rerr *pgload.ReconcileError
	require.ErrorAs(t, none.Err, &rerr)
	assert.Equal(t, []string{"foo", "bar"}, rerr.FileColumns)
	assert.ErrorIs(t, none.Err, pgload.ErrNoInsertableColumns)
	assert.Zero(t, none.RowsLoaded)

	assert.Equal(t, pgload.FileCompleted, report.Files[1].State)
	require.Len(t, writer.calls, 1, "no insert for the zero-overlap file")
	assert.Equal(t, 1, conn.acquired, "no connection for the zero-overlap file")
}

func TestFileLoader_BatchSizeRespected(t *testing.T) {
	parser := &mockParser{records: map[string]*pgload.FileRecord{
		"big.csv": record("big.csv", []string{"id"}, rowsOf(12000)...),
	}}
	writer := &mockWriter{}
	loader, _ := newTestLoader(parser, writer, WithBatchSize(5000))

	report := loader.Load(context.Background(), newMockDB(), ordersTable, pgload.NewColumnSet("id"), []string{"big.csv"})

	require.Len(t, writer.calls, 3)
	assert.Len(t, writer.calls[0].rows, 5000)
	assert.Len(t, writer.calls[1].rows, 5000)
	assert.Len(t, writer.calls[2].rows, 2000)
	assert.Equal(t, "12000", writer.calls[2].rows[1999][0].String, "batches keep file order")

	res := report.Files[0]
	assert.Equal(t, 3, res.Batches)
	assert.Equal(t, int64(12000), res.RowsLoaded)
	assert.Equal(t, 12000, res.RowsParsed)
}

func TestFileLoader_DefaultBatchSize(t *testing.T) {
	parser := &mockParser{records: map[string]*pgload.FileRecord{
		"big.csv": record("big.csv", []string{"id"}, rowsOf(pgload.DefaultBatchSize+1)...),
	}}
	writer := &mockWriter{}
	loader, _ := newTestLoader(parser, writer, WithBatchSize(0))

	loader.Load(context.Background(), newMockDB(), ordersTable, pgload.NewColumnSet("id"), []string{"big.csv"})

	require.Len(t, writer.calls, 2)
	assert.Len(t, writer.calls[0].rows, pgload.DefaultBatchSize)
}

func TestFileLoader_InsertFailureKeepsCommittedPrefix(t *testing.T) {
	boom := errors.New("value too long for type character varying(3)")
	parser := &mockParser{records: map[string]*pgload.FileRecord{
		"a.csv": record("a.csv", []string{"id"}, rowsOf(25)...),
		"b.csv": record("b.csv", []string{"id"}, rowsOf(5)...),
	}}
	writer := &mockWriter{failOn: map[int]error{2: boom}}
	loader, logger := newTestLoader(parser, writer, WithBatchSize(10))
	conn := newMockDB()

	report := loader.Load(context.Background(), conn, ordersTable, pgload.NewColumnSet("id"), []string{"a.csv", "b.csv"})

	a := report.Files[0]
	assert.Equal(t, pgload.FileFailed, a.State)
	assert.Equal(t, int64(10), a.RowsLoaded, "first batch stays committed")
	assert.Equal(t, 1, a.Batches)

	var ierr *pgload.InsertError
	require.ErrorAs(t, a.Err, &ierr)
	assert.Equal(t, 2, ierr.Batch)
	assert.Equal(t, int64(10), ierr.RowsCommitted)
	assert.ErrorIs(t, a.Err, boom)
	assert.ErrorIs(t, a.Err, pgload.ErrInsert)

	b := report.Files[1]
	assert.Equal(t, pgload.FileCompleted, b.State, "next file is still processed")
	assert.Equal(t, int64(5), b.RowsLoaded)

	// a: batch 1 ok, batch 2 fails, batch 3 never attempted; b: one batch.
	assert.Len(t, writer.calls, 3)
	assert.Equal(t, 15, writer.rowsWritten())
	assert.Zero(t, conn.outstanding())
	require.Len(t, logger.errors, 1)
	assert.Contains(t, logger.errors[0], "a.csv")

	err := report.Err()
	assert.ErrorIs(t, err, pgload.ErrPartialLoad)
	assert.Equal(t, pgload.ExitPartialLoad, pgload.ExitCodeForError(err))
}

func TestFileLoader_FailureNeverStopsLaterFiles(t *testing.T) {
	parser := &mockParser{
		records: map[string]*pgload.FileRecord{
			"2.csv": record("2.csv", []string{"id"}, []string{"1"}),
			"4.csv": record("4.csv", []string{"id"}, []string{"1"}),
		},
		errs: map[string]error{"1.csv": errors.New("bare quote in field")},
	}
	writer := &mockWriter{failOn: map[int]error{1: errors.New("duplicate key")}}
	loader, _ := newTestLoader(parser, writer)

	paths := []string{"1.csv", "2.csv", "3.csv", "4.csv"}
	report := loader.Load(context.Background(), newMockDB(), ordersTable, pgload.NewColumnSet("id"), paths)

	assert.Equal(t, paths, parser.parsed, "every file is attempted in order")
	states := make([]pgload.FileState, len(report.Files))
	for i, f := range report.Files {
		states[i] = f.State
	}
	assert.Equal(t, []pgload.FileState{pgload.FileFailed, pgload.FileFailed, pgload.FileFailed, pgload.FileCompleted}, states)
	assert.ErrorIs(t, report.Files[0].Err, pgload.ErrFileParse)
	assert.ErrorIs(t, report.Files[1].Err, pgload.ErrInsert)
	assert.ErrorIs(t, report.Files[2].Err, pgload.ErrFileParse)
	assert.Len(t, report.Failed(), 3)
}

func TestFileLoader_HeaderOnlyFileCompletesWithoutConnection(t *testing.T) {
	parser := &mockParser{records: map[string]*pgload.FileRecord{
		"empty.csv": record("empty.csv", []string{"id"}),
	}}
	writer := &mockWriter{}
	loader, _ := newTestLoader(parser, writer)
	conn := newMockDB()

	report := loader.Load(context.Background(), conn, ordersTable, pgload.NewColumnSet("id"), []string{"empty.csv"})

	assert.Equal(t, pgload.FileCompleted, report.Files[0].State)
	assert.Zero(t, report.Files[0].Batches)
	assert.Empty(t, writer.calls)
	assert.Zero(t, conn.acquired)
}

func TestFileLoader_NoFiles(t *testing.T) {
	writer := &mockWriter{}
	loader, _ := newTestLoader(&mockParser{}, writer)

	report := loader.Load(context.Background(), newMockDB(), ordersTable, pgload.NewColumnSet("id"), nil)

	assert.Empty(t, report.Files)
	assert.Empty(t, writer.calls)
	assert.NoError(t, report.Err())
}

func TestFileLoader_AcquireFailure(t *testing.T) {
	parser := &mockParser{records: map[string]*pgload.FileRecord{
		"a.csv": record("a.csv", []string{"id"}, []string{"1"}),
	}}
	writer := &mockWriter{}
	loader, _ := newTestLoader(parser, writer)
	conn := newMockDB()
	conn.acquireErr = errors.New("pool closed")

	report := loader.Load(context.Background(), conn, ordersTable, pgload.NewColumnSet("id"), []string{"a.csv"})

	res := report.Files[0]
	assert.Equal(t, pgload.FileFailed, res.State)
	assert.ErrorIs(t, res.Err, pgload.ErrInsert)
	assert.Contains(t, res.Err.Error(), "pool closed")
	assert.Empty(t, writer.calls)
}

func TestFileLoader_DryRun(t *testing.T) {
	parser := &mockParser{records: map[string]*pgload.FileRecord{
		"a.csv": record("a.csv", []string{"id", "extra"}, []string{"1", "x"}),
	}}
	writer := &mockWriter{}
	loader, logger := newTestLoader(parser, writer, WithDryRun(true))

	report := loader.Load(context.Background(), nil, ordersTable, pgload.NewColumnSet("id"), []string{"a.csv"})

	assert.True(t, report.DryRun)
	res := report.Files[0]
	assert.Equal(t, pgload.FileSkipped, res.State)
	assert.Equal(t, []string{"id"}, res.Columns)
	assert.Equal(t, []string{"extra"}, res.Dropped)
	assert.Equal(t, 1, res.RowsParsed)
	assert.Zero(t, res.RowsLoaded)
	assert.Empty(t, writer.calls)
	assert.NoError(t, report.Err())
	assert.NotEmpty(t, logger.info)
}

func TestFileLoader_ContextCancelled(t *testing.T) {
	parser := &mockParser{records: map[string]*pgload.FileRecord{
		"a.csv": record("a.csv", []string{"id"}, rowsOf(30)...),
		"b.csv": record("b.csv", []string{"id"}, []string{"1"}),
	}}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	writer := &mockWriter{failOn: map[int]error{2: errors.New("conn closed")}}
	writer.onWrite = func(n int) {
		if n == 2 {
			cancel()
		}
	}
	loader, _ := newTestLoader(parser, writer, WithBatchSize(10))

	report := loader.Load(ctx, newMockDB(), ordersTable, pgload.NewColumnSet("id"), []string{"a.csv", "b.csv"})

	require.Len(t, report.Files, 2)
	assert.Equal(t, pgload.FileFailed, report.Files[0].State)
	assert.ErrorIs(t, report.Files[0].Err, context.Canceled)
	assert.Equal(t, int64(10), report.Files[0].RowsLoaded)

	assert.Equal(t, pgload.FileFailed, report.Files[1].State)
	assert.ErrorIs(t, report.Files[1].Err, context.Canceled)
	assert.Equal(t, []string{"a.csv"}, parser.parsed, "files after cancellation are not parsed")
}

func TestFileLoader_NullValuesReachWriter(t *testing.T) {
	rec := &pgload.FileRecord{
		Path:    "n.csv",
		Columns: []string{"id", "name"},
		Rows:    []pgload.Row{{pgload.Value("1"), pgload.Null()}},
	}
	parser := &mockParser{records: map[string]*pgload.FileRecord{"n.csv": rec}}
	writer := &mockWriter{}
	loader, _ := newTestLoader(parser, writer)

	loader.Load(context.Background(), newMockDB(), ordersTable, pgload.NewColumnSet("id", "name"), []string{"n.csv"})

	require.Len(t, writer.calls, 1)
	assert.False(t, writer.calls[0].rows[0][1].Valid)
}

func TestPreviewColumns(t *testing.T) {
	assert.Equal(t, "a, b", previewColumns([]string{"a", "b"}))

	many := make([]string, pgload.MaxColumnPreview+3)
	for i := range many {
		many[i] = fmt.Sprintf("c%d", i)
	}
	got := previewColumns(many)
	assert.Contains(t, got, "c0")
	assert.NotContains(t, got, fmt.Sprintf("c%d", pgload.MaxColumnPreview))
	assert.Contains(t, got, "(3 more)")
}
