package pgload

import "time"

// Exit codes for semantic error classification.
// These follow Unix/GNU conventions:
//   - 0: Success
//   - 1: General error
//   - 2: CLI usage error (misuse of command line)
//   - 3+: Application-specific errors
const (
	ExitSuccess            = 0  // Every file loaded
	ExitGeneralError       = 1  // Unknown or unclassified error
	ExitUsageError         = 2  // CLI usage error (missing args, invalid flags)
	ExitPanic              = 3  // Internal panic (unexpected crash)
	ExitConfigError        = 10 // Invalid configuration or parameters
	ExitConnectionError    = 11 // Failed to connect to database
	ExitApprovalDenied     = 12 // User declined the load
	ExitMetadataFetchError = 13 // Target table columns could not be read
	ExitPartialLoad        = 14 // At least one file failed
)

const (
	// DefaultBatchSize is the maximum number of rows submitted in one insert.
	DefaultBatchSize = 5000

	// DefaultDelimiter separates fields in input files.
	DefaultDelimiter = ','

	// DefaultTimeout bounds a whole load run.
	DefaultTimeout = 30 * time.Minute

	// DefaultRetryInitialDelay is the default initial delay before the first retry attempt.
	DefaultRetryInitialDelay = 100 * time.Millisecond

	// DefaultRetryMaxDelay is the default maximum delay between retry attempts.
	DefaultRetryMaxDelay = 1 * time.Minute

	// DefaultRetryMaxAttempts is the default maximum number of retry attempts.
	DefaultRetryMaxAttempts = 3

	// MaxColumnPreview caps how many column names are echoed in log lines.
	MaxColumnPreview = 12
)

// DefaultFilePatterns are matched against file names when a directory is
// given as input.
var DefaultFilePatterns = []string{"*.csv", "*.csv.gz", "*.csv.zst", "*.csv.xz", "*.csv.bz2"}

// DefaultNullValues are the field values loaded as SQL NULL when none are
// configured: an empty field.
var DefaultNullValues = []string{""}
