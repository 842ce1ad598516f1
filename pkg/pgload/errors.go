package pgload

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for common failure scenarios.
// These enable callers to distinguish error types using errors.Is().
//
// Example usage:
//
//	report, err := svc.Run(ctx, cfg)
//	if errors.Is(err, pgload.ErrMetadataFetch) {
//	    // nothing was loaded
//	}
var (
	// ErrInvalidConfig indicates the provided configuration is invalid.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrConnectionFailed indicates database connection failed.
	ErrConnectionFailed = errors.New("connection failed")

	// ErrUnsupportedAuthMethod indicates the requested authentication method is not supported.
	ErrUnsupportedAuthMethod = errors.New("unsupported authentication method")

	// ErrApprovalDenied indicates the user declined to start the load.
	ErrApprovalDenied = errors.New("approval denied")

	// ErrMetadataFetch marks failures to read the target table's column set.
	// It is fatal to the run.
	ErrMetadataFetch = errors.New("metadata fetch failed")

	// ErrTableNotFound indicates the catalog returned no columns for the target table.
	ErrTableNotFound = errors.New("table not found")

	// ErrFileParse marks a file that could not be read as a header plus rows.
	ErrFileParse = errors.New("file parse failed")

	// ErrDuplicateColumn indicates a file header names the same column twice.
	ErrDuplicateColumn = errors.New("duplicate column")

	// ErrNoInsertableColumns indicates a file shares no column with the target table.
	ErrNoInsertableColumns = errors.New("no insertable columns")

	// ErrInsert marks a batch that the database rejected.
	ErrInsert = errors.New("insert failed")

	// ErrPartialLoad indicates at least one file did not complete.
	ErrPartialLoad = errors.New("one or more files failed to load")
)

// MetadataFetchError reports that the authoritative column set of Table
// could not be retrieved.
type MetadataFetchError struct {
	Table TableName
	Err   error
}

func (e *MetadataFetchError) Error() string {
	return fmt.Sprintf("fetch columns of %s: %v", e.Table, e.Err)
}

func (e *MetadataFetchError) Unwrap() []error { return []error{ErrMetadataFetch, e.Err} }

// FileParseError reports a file that was unreadable or not valid delimited text.
type FileParseError struct {
	Path string
	Err  error
}

func (e *FileParseError) Error() string {
	return fmt.Sprintf("parse %s: %v", e.Path, e.Err)
}

func (e *FileParseError) Unwrap() []error { return []error{ErrFileParse, e.Err} }

// ReconcileError reports a file whose header has no column in common with
// the target table. The file is skipped and nothing is inserted.
type ReconcileError struct {
	Path        string
	FileColumns []string
}

func (e *ReconcileError) Error() string {
	return fmt.Sprintf("reconcile %s: columns [%s]: %v",
		e.Path, strings.Join(e.FileColumns, ", "), ErrNoInsertableColumns)
}

func (e *ReconcileError) Unwrap() error { return ErrNoInsertableColumns }

// InsertError reports the first batch of a file that the database rejected.
// Batches before it stay committed; RowsCommitted counts their rows.
type InsertError struct {
	Path          string
	Batch         int // 1-based
	RowsCommitted int64
	Err           error
}

func (e *InsertError) Error() string {
	return fmt.Sprintf("insert %s batch #%d (%d rows already committed): %v",
		e.Path, e.Batch, e.RowsCommitted, e.Err)
}

func (e *InsertError) Unwrap() []error { return []error{ErrInsert, e.Err} }

// cobraUsagePrefixes match the argument and flag errors produced by cobra/pflag.
var cobraUsagePrefixes = []string{
	"unknown flag",
	"unknown shorthand flag",
	"unknown command",
	"accepts ",
	"requires at least",
	"required flag",
	"invalid argument",
	"flag needs an argument",
}

// ExitCodeForError returns the appropriate exit code for an error.
// Returns ExitSuccess (0) for nil errors, semantic codes for known errors,
// and ExitGeneralError (1) for unclassified errors.
func ExitCodeForError(err error) int {
	if err == nil {
		return ExitSuccess
	}

	switch {
	case errors.Is(err, ErrInvalidConfig), errors.Is(err, ErrUnsupportedAuthMethod):
		return ExitConfigError
	case errors.Is(err, ErrConnectionFailed):
		return ExitConnectionError
	case errors.Is(err, ErrApprovalDenied):
		return ExitApprovalDenied
	case errors.Is(err, ErrMetadataFetch):
		return ExitMetadataFetchError
	case errors.Is(err, ErrPartialLoad):
		return ExitPartialLoad
	}

	errStr := err.Error()
	for _, prefix := range cobraUsagePrefixes {
		if strings.HasPrefix(errStr, prefix) {
			return ExitUsageError
		}
	}
	if strings.Contains(errStr, "failed to connect") ||
		strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "no such host") {
		return ExitConnectionError
	}

	return ExitGeneralError
}
