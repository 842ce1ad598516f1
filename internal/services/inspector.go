package services

import (
	"context"
	"fmt"

	"github.com/vvka-141/pgload/pkg/pgload"
)

// CatalogInspector reads a table's columns from pg_catalog.
// It holds no state and is safe for concurrent use.
type CatalogInspector struct {
	logger pgload.Logger
}

// NewCatalogInspector creates a CatalogInspector. Panics if logger is nil.
func NewCatalogInspector(logger pgload.Logger) *CatalogInspector {
	if logger == nil {
		panic("logger cannot be nil")
	}
	return &CatalogInspector{logger: logger}
}

// Columns returns the authoritative column set of table. The connection is
// acquired for the duration of the query only. A table with no visible
// columns is reported as ErrTableNotFound; every failure is a
// *pgload.MetadataFetchError.
func (i *CatalogInspector) Columns(ctx context.Context, conn pgload.DBConnection, table pgload.TableName) (pgload.ColumnSet, error) {
	names, err := i.columnNames(ctx, conn, table)
	if err != nil {
		return pgload.ColumnSet{}, &pgload.MetadataFetchError{Table: table, Err: err}
	}
	if len(names) == 0 {
		return pgload.ColumnSet{}, &pgload.MetadataFetchError{Table: table, Err: pgload.ErrTableNotFound}
	}

	i.logger.Verbose("Table %s has %d column(s): %s", table, len(names), previewColumns(names))
	return pgload.NewColumnSet(names...), nil
}

func (i *CatalogInspector) columnNames(ctx context.Context, conn pgload.DBConnection, table pgload.TableName) ([]string, error) {
	pc, err := conn.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer pc.Release()

	rows, err := pc.Query(ctx, queryTableColumns, table.Sanitize())
	if err != nil {
		return nil, fmt.Errorf("query pg_attribute: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan column name: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read column names: %w", err)
	}
	return names, nil
}

var _ pgload.SchemaInspector = (*CatalogInspector)(nil)
