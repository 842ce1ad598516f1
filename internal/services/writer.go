package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/vvka-141/pgload/pkg/pgload"
)

// CopyWriter submits each batch as one COPY ... FROM STDIN statement. A COPY
// is atomic: either every row of the batch is committed or none is.
//
// CopyWriter holds no state and is safe for concurrent use.
type CopyWriter struct{}

// NewCopyWriter creates a CopyWriter.
func NewCopyWriter() *CopyWriter {
	return &CopyWriter{}
}

// WriteBatch streams rows into table's columns on conn and returns the row
// count reported by the server.
func (w *CopyWriter) WriteBatch(ctx context.Context, conn pgload.PooledConnection, table pgload.TableName, columns []string, rows []pgload.Row) (int64, error) {
	if len(columns) == 0 {
		return 0, errors.New("copy requires at least one column")
	}
	if len(rows) == 0 {
		return 0, nil
	}

	payload, err := encodeRows(columns, rows)
	if err != nil {
		return 0, err
	}

	tag, err := conn.CopyFrom(ctx, payload, copyStatement(table, columns))
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func copyStatement(table pgload.TableName, columns []string) string {
	quoted := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = pgx.Identifier{c}.Sanitize()
	}
	return fmt.Sprintf(copyStatementFormat, table.Sanitize(), strings.Join(quoted, ", "))
}

// encodeRows renders rows as COPY CSV. Non-NULL values are always quoted so
// that an empty string stays distinct from NULL.
func encodeRows(columns []string, rows []pgload.Row) (*bytes.Buffer, error) {
	var buf bytes.Buffer
	for n, row := range rows {
		if len(row) != len(columns) {
			return nil, fmt.Errorf("row %d has %d values, expected %d", n+1, len(row), len(columns))
		}
		for i, v := range row {
			if i > 0 {
				buf.WriteByte(',')
			}
			if !v.Valid {
				continue
			}
			buf.WriteByte('"')
			buf.WriteString(strings.ReplaceAll(v.String, `"`, `""`))
			buf.WriteByte('"')
		}
		buf.WriteByte('\n')
	}
	return &buf, nil
}

var _ pgload.BatchWriter = (*CopyWriter)(nil)
