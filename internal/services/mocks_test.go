package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vvka-141/pgload/pkg/pgload"
)

type mockConnector struct {
	pool *pgxpool.Pool
	err  error
}

func (m *mockConnector) Connect(_ context.Context) (*pgxpool.Pool, error) {
	return m.pool, m.err
}

// countingConnector calls fn on every Connect. When fn succeeds and next is
// set, the call is passed on to next.
type countingConnector struct {
	fn   func() error
	next pgload.Connector
}

func (c *countingConnector) Connect(ctx context.Context) (*pgxpool.Pool, error) {
	if err := c.fn(); err != nil {
		return nil, err
	}
	if c.next == nil {
		return nil, errors.New("no connector")
	}
	return c.next.Connect(ctx)
}

type mockApprover struct {
	approved bool
	err      error
	plan     *pgload.Report
}

func (m *mockApprover) RequestApproval(_ context.Context, plan *pgload.Report) (bool, error) {
	m.plan = plan
	return m.approved, m.err
}

type mockFileScanner struct {
	paths []string
	err   error
}

func (m *mockFileScanner) Discover(_ []string, _ []string, _ bool) ([]string, error) {
	return m.paths, m.err
}

type mockInspector struct {
	columns pgload.ColumnSet
	err     error
	calls   int
}

func (m *mockInspector) Columns(_ context.Context, _ pgload.DBConnection, _ pgload.TableName) (pgload.ColumnSet, error) {
	m.calls++
	return m.columns, m.err
}

// mockParser serves records by path; paths in errs fail with a FileParseError.
type mockParser struct {
	records map[string]*pgload.FileRecord
	errs    map[string]error
	parsed  []string
}

func (m *mockParser) Parse(path string) (*pgload.FileRecord, error) {
	m.parsed = append(m.parsed, path)
	if err, ok := m.errs[path]; ok {
		return nil, &pgload.FileParseError{Path: path, Err: err}
	}
	rec, ok := m.records[path]
	if !ok {
		return nil, &pgload.FileParseError{Path: path, Err: errors.New("no such file")}
	}
	return rec, nil
}

type writeCall struct {
	table   pgload.TableName
	columns []string
	rows    []pgload.Row
}

// mockWriter records every batch. failOn maps a 1-based call number to the
// error returned by that call; the rows of a failing call are not recorded
// as written.
type mockWriter struct {
	calls   []writeCall
	failOn  map[int]error
	onWrite func(n int)
}

func (m *mockWriter) WriteBatch(_ context.Context, _ pgload.PooledConnection, table pgload.TableName, columns []string, rows []pgload.Row) (int64, error) {
	n := len(m.calls) + 1
	if m.onWrite != nil {
		m.onWrite(n)
	}
	if err, ok := m.failOn[n]; ok {
		m.calls = append(m.calls, writeCall{table: table, columns: columns})
		return 0, err
	}
	m.calls = append(m.calls, writeCall{table: table, columns: columns, rows: rows})
	return int64(len(rows)), nil
}

func (m *mockWriter) rowsWritten() int {
	total := 0
	for _, c := range m.calls {
		total += len(c.rows)
	}
	return total
}

// mockDB hands out mockConn connections and tracks how many are outstanding.
type mockDB struct {
	mu         sync.Mutex
	acquireErr error
	acquired   int
	released   int
	conn       *mockConn
}

func newMockDB() *mockDB {
	return &mockDB{conn: &mockConn{}}
}

func (m *mockDB) Acquire(_ context.Context) (pgload.PooledConnection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.acquireErr != nil {
		return nil, m.acquireErr
	}
	m.acquired++
	return &trackedConn{mockConn: m.conn, db: m}, nil
}

func (m *mockDB) outstanding() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.acquired - m.released
}

type trackedConn struct {
	*mockConn
	db *mockDB
}

func (c *trackedConn) Release() {
	c.db.mu.Lock()
	defer c.db.mu.Unlock()
	c.db.released++
}

// mockConn answers Query with a fixed result and records COPY payloads.
type mockConn struct {
	queryRows *mockRows
	queryErr  error
	lastSQL   string
	lastArgs  []any

	copyTag     pgconn.CommandTag
	copyErr     error
	copySQL     string
	copyPayload string
}

func (c *mockConn) Query(_ context.Context, sql string, args ...any) (pgload.Rows, error) {
	c.lastSQL = sql
	c.lastArgs = args
	if c.queryErr != nil {
		return nil, c.queryErr
	}
	if c.queryRows == nil {
		return &mockRows{}, nil
	}
	return c.queryRows, nil
}

func (c *mockConn) CopyFrom(_ context.Context, r io.Reader, sql string) (pgconn.CommandTag, error) {
	c.copySQL = sql
	b, err := io.ReadAll(r)
	if err != nil {
		return pgconn.CommandTag{}, err
	}
	c.copyPayload = string(b)
	return c.copyTag, c.copyErr
}

func (c *mockConn) Release() {}

type mockRows struct {
	values  []string
	pos     int
	scanErr error
	err     error
	closed  bool
}

func (r *mockRows) Next() bool {
	if r.pos >= len(r.values) {
		return false
	}
	r.pos++
	return true
}

func (r *mockRows) Scan(dest ...any) error {
	if r.scanErr != nil {
		return r.scanErr
	}
	if len(dest) != 1 {
		return fmt.Errorf("expected 1 destination, got %d", len(dest))
	}
	s, ok := dest[0].(*string)
	if !ok {
		return fmt.Errorf("unsupported destination %T", dest[0])
	}
	*s = r.values[r.pos-1]
	return nil
}

func (r *mockRows) Err() error { return r.err }
func (r *mockRows) Close()     { r.closed = true }

type mockLogger struct {
	mu       sync.Mutex
	verbose  []string
	info     []string
	warnings []string
	errors   []string
}

func (m *mockLogger) Verbose(format string, args ...interface{}) {
	m.record(&m.verbose, format, args)
}
func (m *mockLogger) Info(format string, args ...interface{})  { m.record(&m.info, format, args) }
func (m *mockLogger) Warn(format string, args ...interface{})  { m.record(&m.warnings, format, args) }
func (m *mockLogger) Error(format string, args ...interface{}) { m.record(&m.errors, format, args) }

func (m *mockLogger) record(dst *[]string, format string, args []interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	*dst = append(*dst, fmt.Sprintf(format, args...))
}

// record builds a FileRecord whose rows hold the given string values.
func record(path string, columns []string, rows ...[]string) *pgload.FileRecord {
	rec := &pgload.FileRecord{Path: path, Columns: columns, Checksum: "sum-" + path}
	for _, r := range rows {
		row := make(pgload.Row, len(r))
		for i, v := range r {
			row[i] = pgload.Value(v)
		}
		rec.Rows = append(rec.Rows, row)
	}
	return rec
}
