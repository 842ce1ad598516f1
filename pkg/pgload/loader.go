package pgload

import "context"

// FileScanner expands the run's inputs into an ordered list of files.
type FileScanner interface {
	// Discover returns explicit file inputs as given and the matching files
	// of directory inputs in lexicographic order.
	Discover(inputs []string, patterns []string, recursive bool) ([]string, error)
}

// FileParser reads one delimited file into a FileRecord.
// Any failure is reported as *FileParseError.
type FileParser interface {
	Parse(path string) (*FileRecord, error)
}

// SchemaInspector fetches the authoritative column set of a table.
// Any failure is reported as *MetadataFetchError.
type SchemaInspector interface {
	Columns(ctx context.Context, conn DBConnection, table TableName) (ColumnSet, error)
}

// BatchWriter submits one batch of rows as a single insert operation on an
// acquired connection and returns the number of rows written.
type BatchWriter interface {
	WriteBatch(ctx context.Context, conn PooledConnection, table TableName, columns []string, rows []Row) (int64, error)
}

// Approver asks the operator to confirm a load before anything is written.
type Approver interface {
	// RequestApproval returns true if the load may proceed.
	RequestApproval(ctx context.Context, plan *Report) (bool, error)
}
