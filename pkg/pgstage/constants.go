package pgstage

import "time"

// Exit codes for semantic error classification.
// These follow Unix/GNU conventions:
//   - 0: Success
//   - 1: General error
//   - 2: CLI usage error (misuse of command line)
//   - 3+: Application-specific errors
const (
	ExitSuccess         = 0  // Load/verify completed successfully
	ExitGeneralError    = 1  // Unknown or unclassified error
	ExitUsageError      = 2  // CLI usage error (missing args, invalid flags)
	ExitPanic           = 3  // Internal panic (unexpected crash)
	ExitConfigError     = 10 // Invalid configuration
	ExitConnectionError = 11 // Failed to connect to database
	ExitSourceError     = 12 // CSV missing, empty or malformed
	ExitExecutionFailed = 13 // SQL execution or value conversion failed
)

const (
	// DefaultTable is the staging table written by load and inspected by verify.
	DefaultTable = "staging_netflix"

	// DefaultChunkSize is the number of CSV data rows written per chunk.
	DefaultChunkSize = 50000

	// DefaultDelimiter is the CSV field separator.
	DefaultDelimiter = ','

	// DefaultEncoding is the CSV text encoding.
	DefaultEncoding = "utf-8"

	// DefaultLoadTimeout bounds a whole load. Zero means no limit.
	DefaultLoadTimeout time.Duration = 0

	// DefaultVerifyTimeout bounds the verification queries.
	DefaultVerifyTimeout = 1 * time.Minute

	// DefaultApplicationName is reported to the server unless the URL sets one.
	DefaultApplicationName = "pgstage"

	// MaxBindParameters is the PostgreSQL limit of bind parameters per statement.
	MaxBindParameters = 65535
)
