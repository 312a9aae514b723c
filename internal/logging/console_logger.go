package logging

import (
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"

	"github.com/vvka-141/pgstage/internal/tui"
	"github.com/vvka-141/pgstage/pkg/pgstage"
)

// Format selects the line format written by ConsoleLogger.
type Format string

const (
	FormatConsole Format = "console"
	FormatJSON    Format = "json"
)

// ParseFormat resolves the --log-format flag value.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatConsole:
		return FormatConsole, nil
	case FormatJSON:
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unknown log format %q (expected console or json): %w", s, pgstage.ErrInvalidConfig)
	}
}

// ConsoleLogger writes log messages to stderr through zerolog.
// Safe for concurrent use by multiple goroutines.
type ConsoleLogger struct {
	log zerolog.Logger
}

// NewLogger creates a ConsoleLogger writing to w in the given format.
// Verbose() calls are no-ops unless verbose is true.
// Colour is used only when w is a terminal and NO_COLOR is unset.
func NewLogger(w io.Writer, verbose bool, format Format) *ConsoleLogger {
	var out io.Writer = w
	if format != FormatJSON {
		out = zerolog.ConsoleWriter{
			Out:          w,
			NoColor:      !tui.SupportsColor(w),
			PartsExclude: []string{zerolog.TimestampFieldName},
		}
	}

	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}

	ctx := zerolog.New(zerolog.SyncWriter(out)).Level(level).With()
	if format == FormatJSON {
		ctx = ctx.Timestamp()
	}

	return &ConsoleLogger{log: ctx.Logger()}
}

// Verbose logs detailed diagnostic information if verbose mode is enabled.
func (l *ConsoleLogger) Verbose(format string, args ...interface{}) {
	l.log.Debug().Msgf(format, args...)
}

// Info logs informational messages about normal operations.
func (l *ConsoleLogger) Info(format string, args ...interface{}) {
	l.log.Info().Msgf(format, args...)
}

// Error logs error messages.
func (l *ConsoleLogger) Error(format string, args ...interface{}) {
	l.log.Error().Msgf(format, args...)
}

// Zerolog exposes the underlying logger for callers that want structured fields.
func (l *ConsoleLogger) Zerolog() *zerolog.Logger {
	return &l.log
}

var _ pgstage.Logger = (*ConsoleLogger)(nil)
