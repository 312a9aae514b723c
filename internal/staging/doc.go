// Package staging writes typed rows into a Postgres staging table.
//
// A Sink is used in two phases: Replace drops and recreates the table from a
// column schema and writes the first rows, then Append adds further rows.
// Each call runs in its own transaction. Identifiers are always quoted with
// pgx.Identifier.Sanitize.
package staging
