// Package logging provides concrete implementations of the pgstage.Logger interface.
//
// Available implementations:
//   - ConsoleLogger: zerolog-backed logger writing human-readable lines or JSON to stderr
//   - NullLogger: Discards all messages (useful for testing)
//
// All logger implementations are safe for concurrent use by multiple goroutines.
package logging
