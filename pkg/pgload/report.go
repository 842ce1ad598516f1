package pgload

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// FileState is the lifecycle position of one input file.
//
//	Pending -> Parsed -> Reconciled -> Submitting -> Completed
//	   any state before Completed     ------------> Failed
//
// Skipped is used by dry runs after reconciliation.
type FileState int

const (
	FilePending FileState = iota
	FileParsed
	FileReconciled
	FileSubmitting
	FileCompleted
	FileFailed
	FileSkipped
)

func (s FileState) String() string {
	switch s {
	case FilePending:
		return "pending"
	case FileParsed:
		return "parsed"
	case FileReconciled:
		return "reconciled"
	case FileSubmitting:
		return "submitting"
	case FileCompleted:
		return "completed"
	case FileFailed:
		return "failed"
	case FileSkipped:
		return "skipped"
	default:
		return fmt.Sprintf("FileState(%d)", int(s))
	}
}

// Terminal reports whether no further transition is possible.
func (s FileState) Terminal() bool {
	return s == FileCompleted || s == FileFailed || s == FileSkipped
}

// FileResult is the outcome of one input file.
type FileResult struct {
	Path     string
	State    FileState
	Checksum string

	// Columns is the reconciled column list; Dropped the file columns not in the table.
	Columns []string
	Dropped []string

	RowsParsed int
	RowsLoaded int64
	Batches    int // committed batches

	Duration time.Duration

	// Err is set when State is FileFailed. It is one of *FileParseError,
	// *ReconcileError, *InsertError or a context error.
	Err error
}

// Report summarises a load run.
type Report struct {
	RunID     uuid.UUID
	Table     TableName
	Columns   ColumnSet
	StartedAt time.Time
	Duration  time.Duration
	DryRun    bool
	Files     []FileResult
}

// NewReport starts a report with a fresh run identifier.
func NewReport(table TableName, columns ColumnSet) *Report {
	return &Report{
		RunID:     uuid.New(),
		Table:     table,
		Columns:   columns,
		StartedAt: time.Now(),
	}
}

// Failed returns the results of files that did not complete.
func (r *Report) Failed() []FileResult {
	var out []FileResult
	for _, f := range r.Files {
		if f.State == FileFailed {
			out = append(out, f)
		}
	}
	return out
}

// RowsLoaded returns the number of rows committed across all files.
func (r *Report) RowsLoaded() int64 {
	var n int64
	for _, f := range r.Files {
		n += f.RowsLoaded
	}
	return n
}

// Err joins the per-file errors under ErrPartialLoad, or returns nil when
// every file completed.
func (r *Report) Err() error {
	failed := r.Failed()
	if len(failed) == 0 {
		return nil
	}
	errs := make([]error, 0, len(failed)+1)
	errs = append(errs, fmt.Errorf("%d of %d files: %w", len(failed), len(r.Files), ErrPartialLoad))
	for _, f := range failed {
		errs = append(errs, f.Err)
	}
	return errors.Join(errs...)
}
