package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"
	"unicode/utf8"

	"github.com/spf13/cobra"

	"github.com/vvka-141/pgstage/internal/config"
	"github.com/vvka-141/pgstage/internal/db"
	"github.com/vvka-141/pgstage/internal/services"
	"github.com/vvka-141/pgstage/internal/tui"
	"github.com/vvka-141/pgstage/pkg/pgstage"
)

var loadCmd = &cobra.Command{
	Use:   "load",
	Short: "Load a CSV file into a staging table",
	Long: `Load streams a CSV file into a PostgreSQL table in chunks.

The first chunk drops and recreates the table (column types are inferred
from it) and inserts its rows in one transaction. Every further chunk is
appended in its own transaction. A failure stops the load; chunks already
appended stay committed, so re-run the load to start over.

Modes:
  insert   multi-row parameterised INSERT statements (default; alias: pandas)
  copy     COPY FROM STDIN, faster for large files

Examples:
  # Load with DATABASE_URL from .env
  pgstage load --csv netflix_titles.csv

  # Custom table and chunk size, COPY mode
  pgstage load --csv titles.csv --table raw.titles --chunksize 10000 --mode copy

  # Semicolon-separated Latin-1 export
  pgstage load --csv export.csv --delimiter ';' --encoding latin1`,
	Args: cobra.NoArgs,
	RunE: runLoad,
}

type loadFlagValues struct {
	conn      connFlagValues
	csvPath   string
	table     string
	mode      string
	chunkSize int
	delimiter string
	encoding  string
	strict    bool
	timeout   time.Duration
}

var loadFlags loadFlagValues

func init() {
	rootCmd.AddCommand(loadCmd)
	registerLoadFlags(loadCmd, &loadFlags)
}

func registerLoadFlags(cmd *cobra.Command, f *loadFlagValues) {
	registerConnectionFlags(cmd, &f.conn)

	cmd.Flags().StringVar(&f.csvPath, "csv", "", "Path to the CSV file (required)")
	cmd.Flags().StringVar(&f.table, "table", pgstage.DefaultTable,
		"Target table, optionally schema-qualified (schema.table)")
	cmd.Flags().StringVar(&f.mode, "mode", string(pgstage.LoadModeInsert),
		"Write strategy: insert|copy (pandas is accepted as an alias of insert)")
	cmd.Flags().IntVar(&f.chunkSize, "chunksize", pgstage.DefaultChunkSize,
		"Number of CSV rows read and written per chunk")
	cmd.Flags().StringVar(&f.delimiter, "delimiter", string(pgstage.DefaultDelimiter),
		`Field delimiter, a single character ("\t" or "tab" for tabs)`)
	cmd.Flags().StringVar(&f.encoding, "encoding", pgstage.DefaultEncoding,
		"CSV text encoding (utf-8, latin1, windows-1252, shift_jis, ...)")
	cmd.Flags().BoolVar(&f.strict, "strict-quotes", false,
		"Fail on a bare quote in an unquoted field or an unterminated quoted field\n"+
			"(by default such quotes are kept as text)")
	cmd.Flags().DurationVar(&f.timeout, "timeout", pgstage.DefaultLoadTimeout,
		"Upper bound for the whole load (e.g. 10m, 1h); 0 means no limit")

	_ = cmd.MarkFlagRequired("csv")
	_ = cmd.RegisterFlagCompletionFunc("csv", completeCSVFiles)
	_ = cmd.RegisterFlagCompletionFunc("mode", completeFrom(loadModes))
	_ = cmd.RegisterFlagCompletionFunc("encoding", completeFrom(encodings))
}

// buildLoadConfig merges flags, pgstage.yaml and defaults into a LoadConfig.
// Explicitly set flags win over file values, which win over flag defaults.
func buildLoadConfig(cmd *cobra.Command, f *loadFlagValues, projectCfg *config.ProjectConfig, verbose bool) (pgstage.LoadConfig, error) {
	table, modeName, chunkSize := f.table, f.mode, f.chunkSize
	delimiter, encoding, timeout := f.delimiter, f.encoding, f.timeout

	if projectCfg != nil {
		changed := cmd.Flags().Changed
		if projectCfg.Table != "" && !changed("table") {
			table = projectCfg.Table
		}
		if projectCfg.Mode != "" && !changed("mode") {
			modeName = projectCfg.Mode
		}
		if projectCfg.ChunkSize != 0 && !changed("chunksize") {
			chunkSize = projectCfg.ChunkSize
		}
		if projectCfg.Delimiter != "" && !changed("delimiter") {
			delimiter = projectCfg.Delimiter
		}
		if projectCfg.Encoding != "" && !changed("encoding") {
			encoding = projectCfg.Encoding
		}
		if projectCfg.Timeout != "" && !changed("timeout") {
			parsed, err := time.ParseDuration(projectCfg.Timeout)
			if err != nil {
				return pgstage.LoadConfig{}, fmt.Errorf("invalid timeout in %s: %w: %w", config.ConfigFileName, pgstage.ErrInvalidConfig, err)
			}
			timeout = parsed
		}
	}

	mode, err := pgstage.ParseLoadMode(modeName)
	if err != nil {
		return pgstage.LoadConfig{}, err
	}

	sep, err := parseDelimiter(delimiter)
	if err != nil {
		return pgstage.LoadConfig{}, err
	}

	conn, err := resolveConnection(&f.conn, projectCfg)
	if err != nil {
		return pgstage.LoadConfig{}, err
	}

	cfg := pgstage.LoadConfig{
		CSVPath:      f.csvPath,
		Table:        table,
		Mode:         mode,
		ChunkSize:    chunkSize,
		Delimiter:    sep,
		Encoding:     encoding,
		StrictQuotes: f.strict,
		Connection:   conn,
		Timeout:      timeout,
		Verbose:      verbose,
	}
	if err := cfg.Validate(); err != nil {
		return pgstage.LoadConfig{}, err
	}
	return cfg, nil
}

// parseDelimiter accepts a single character, or "\t"/"tab" for a tab.
func parseDelimiter(s string) (rune, error) {
	switch strings.ToLower(s) {
	case `\t`, "tab":
		return '\t', nil
	}
	if utf8.RuneCountInString(s) != 1 {
		return 0, fmt.Errorf("delimiter must be a single character, got %q: %w", s, pgstage.ErrInvalidConfig)
	}
	r, _ := utf8.DecodeRuneInString(s)
	if r == '"' || r == '\r' || r == '\n' || r == utf8.RuneError {
		return 0, fmt.Errorf("invalid delimiter %q: %w", s, pgstage.ErrInvalidConfig)
	}
	return r, nil
}

// signalContext returns a context cancelled by Ctrl+C or SIGTERM and bounded by timeout.
func signalContext(timeout time.Duration) (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	if timeout <= 0 {
		return ctx, stop
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	return ctx, func() {
		cancel()
		stop()
	}
}

func runLoad(cmd *cobra.Command, _ []string) error {
	verbose := getVerboseFlag(cmd)
	logger, err := newLogger(cmd)
	if err != nil {
		return err
	}

	projectCfg, err := prepareEnvironment(&loadFlags.conn)
	if err != nil {
		return err
	}

	cfg, err := buildLoadConfig(cmd, &loadFlags, projectCfg, verbose)
	if err != nil {
		return err
	}
	logger.Verbose("Connection: %s (auth %s)", db.Redacted(cfg.Connection), cfg.Connection.AuthMethod)

	ctx, cancel := signalContext(cfg.Timeout)
	defer cancel()

	loader := services.NewLoadService(db.NewConnector, logger)
	result, err := loader.Load(ctx, cfg)
	if err != nil {
		return fmt.Errorf("load failed: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, tui.Render(out, tui.SuccessStyle, formatLoadSummary(result)))
	return nil
}

func formatLoadSummary(r *pgstage.LoadResult) string {
	return fmt.Sprintf("Loaded '%s' into table '%s' (%d rows, %d chunks, mode %s)",
		r.CSVPath, r.Table, r.Rows, r.Chunks, r.Mode)
}
