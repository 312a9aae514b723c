package pgstage_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/vvka-141/pgstage/pkg/pgstage"
)

func TestExitCodeForError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil error", nil, pgstage.ExitSuccess},
		{"general error", errors.New("something went wrong"), pgstage.ExitGeneralError},
		{"unknown flag", errors.New("unknown flag: --foo"), pgstage.ExitUsageError},
		{"unknown shorthand flag", errors.New("unknown shorthand flag: 'x' in -x"), pgstage.ExitUsageError},
		{"required flag", errors.New(`required flag(s) "csv" not set`), pgstage.ExitUsageError},
		{"invalid argument", errors.New(`invalid argument "abc" for "--chunksize" flag`), pgstage.ExitUsageError},
		{"invalid config", fmt.Errorf("bad chunk size: %w", pgstage.ErrInvalidConfig), pgstage.ExitConfigError},
		{"unsupported auth", fmt.Errorf("x: %w", pgstage.ErrUnsupportedAuthMethod), pgstage.ExitConfigError},
		{"connection failed", pgstage.ErrConnectionFailed, pgstage.ExitConnectionError},
		{"connection refused text", errors.New("dial tcp: connection refused"), pgstage.ExitConnectionError},
		{"source unreadable", fmt.Errorf("open: %w", pgstage.ErrSourceUnreadable), pgstage.ExitSourceError},
		{"empty source", pgstage.ErrEmptySource, pgstage.ExitSourceError},
		{"type mismatch", fmt.Errorf("line 3: %w", pgstage.ErrTypeMismatch), pgstage.ExitExecutionFailed},
		{"execution failed", fmt.Errorf("insert: %w", pgstage.ErrExecutionFailed), pgstage.ExitExecutionFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := pgstage.ExitCodeForError(tt.err); got != tt.want {
				t.Errorf("ExitCodeForError(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}
