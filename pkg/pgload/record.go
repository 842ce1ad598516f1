package pgload

import "github.com/jackc/pgx/v5/pgtype"

// Row is one record of a file: values in the order of its column list.
// A value with Valid == false is SQL NULL.
type Row []pgtype.Text

// Value returns a non-NULL text value.
func Value(s string) pgtype.Text { return pgtype.Text{String: s, Valid: true} }

// Null returns a NULL value.
func Null() pgtype.Text { return pgtype.Text{} }

// FileRecord is the parsed content of one input file.
// Every row has exactly len(Columns) values.
type FileRecord struct {
	Path    string
	Columns []string
	Rows    []Row

	// Checksum is the hex SHA-256 of the file bytes as read from disk.
	Checksum string
}

// Reconciliation is the result of matching a file's columns against the
// target table's ColumnSet.
type Reconciliation struct {
	// Columns is the reconciled column list in file order. Every entry is in
	// the ColumnSet.
	Columns []string

	// Indexes maps Columns[i] to its position in the file's column list.
	Indexes []int

	// Dropped lists the file columns absent from the table, in file order.
	Dropped []string

	// Subset is true when every file column exists in the table.
	Subset bool
}

// Empty reports whether no file column matched the table.
func (r Reconciliation) Empty() bool { return len(r.Columns) == 0 }

// Reconcile computes the reconciled column list for fileColumns. When the
// file's columns are a subset of the table's, the list is the file's columns
// unchanged; otherwise it is the intersection, still in file order.
func Reconcile(fileColumns []string, table ColumnSet) Reconciliation {
	r := Reconciliation{
		Columns: make([]string, 0, len(fileColumns)),
		Indexes: make([]int, 0, len(fileColumns)),
	}
	for i, c := range fileColumns {
		if table.Contains(c) {
			r.Columns = append(r.Columns, c)
			r.Indexes = append(r.Indexes, i)
		} else {
			r.Dropped = append(r.Dropped, c)
		}
	}
	r.Subset = len(r.Dropped) == 0
	return r
}

// Project returns a record restricted to the reconciled columns. Rows keep
// their order and their values keep the file's values for those columns.
// When the reconciliation kept every column the record is returned as is.
func (f *FileRecord) Project(r Reconciliation) *FileRecord {
	if r.Subset && len(r.Columns) == len(f.Columns) {
		return f
	}

	out := &FileRecord{
		Path:     f.Path,
		Columns:  r.Columns,
		Rows:     make([]Row, len(f.Rows)),
		Checksum: f.Checksum,
	}
	for i, row := range f.Rows {
		projected := make(Row, len(r.Indexes))
		for j, idx := range r.Indexes {
			projected[j] = row[idx]
		}
		out.Rows[i] = projected
	}
	return out
}

// Batches splits the rows into contiguous slices of at most size rows, in
// file order. A record without rows yields no batches. size <= 0 means
// DefaultBatchSize.
func (f *FileRecord) Batches(size int) [][]Row {
	if size <= 0 {
		size = DefaultBatchSize
	}
	if len(f.Rows) == 0 {
		return nil
	}

	batches := make([][]Row, 0, (len(f.Rows)+size-1)/size)
	for start := 0; start < len(f.Rows); start += size {
		end := min(start+size, len(f.Rows))
		batches = append(batches, f.Rows[start:end])
	}
	return batches
}
