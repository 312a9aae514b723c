package services

const (
	// queryServerVersion returns the server's full version banner.
	queryServerVersion = `SELECT version()`

	// queryRowCountFmt counts the rows of a table. %s is a sanitized identifier.
	queryRowCountFmt = `SELECT count(*) FROM %s`
)

// SQLSTATE codes treated as "the table is not there".
const (
	sqlStateUndefinedTable = "42P01"
	sqlStateInvalidSchema  = "3F000"
)
