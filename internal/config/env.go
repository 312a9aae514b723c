package config

import (
	"errors"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Environment variables consulted for the connection string, highest priority first.
const (
	EnvPgstageDatabaseURL = "PGSTAGE_DATABASE_URL"
	EnvDatabaseURL        = "DATABASE_URL"
)

// DefaultEnvFile is loaded when no --env-file is given.
const DefaultEnvFile = ".env"

// LoadEnvFile loads KEY=VALUE pairs from path into the process environment.
// Variables already set in the environment are not overridden.
// A missing file is not an error.
func LoadEnvFile(path string) error {
	if path == "" {
		path = DefaultEnvFile
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}
	return nil
}

// DatabaseURLFromEnv returns the first non-empty connection string from
// PGSTAGE_DATABASE_URL or DATABASE_URL, with surrounding quotes stripped.
func DatabaseURLFromEnv() string {
	for _, key := range []string{EnvPgstageDatabaseURL, EnvDatabaseURL} {
		if v := NormalizeDatabaseURL(os.Getenv(key)); v != "" {
			return v
		}
	}
	return ""
}

// NormalizeDatabaseURL trims whitespace and any single or double quotes
// wrapping the value, as left behind by shells and hand-written env files.
func NormalizeDatabaseURL(s string) string {
	return strings.Trim(strings.TrimSpace(s), `'"`)
}
