package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/vvka-141/pgstage/internal/config"
	"github.com/vvka-141/pgstage/internal/db"
	"github.com/vvka-141/pgstage/internal/services"
	"github.com/vvka-141/pgstage/internal/tui"
	"github.com/vvka-141/pgstage/pkg/pgstage"
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Print the server version and the staging table row count",
	Long: `Verify connects with the same settings as load and runs two queries on a
single connection:

  SELECT version()
  SELECT count(*) FROM <table>

A failed count (missing table or schema, no privilege) is reported as a
note and is not an error. A connection or version query failure exits
non-zero.

Examples:
  pgstage verify
  pgstage verify --table raw.titles`,
	Args: cobra.NoArgs,
	RunE: runVerify,
}

type verifyFlagValues struct {
	conn    connFlagValues
	table   string
	timeout time.Duration
}

var verifyFlags verifyFlagValues

func init() {
	rootCmd.AddCommand(verifyCmd)
	registerVerifyFlags(verifyCmd, &verifyFlags)
}

func registerVerifyFlags(cmd *cobra.Command, f *verifyFlagValues) {
	registerConnectionFlags(cmd, &f.conn)

	cmd.Flags().StringVar(&f.table, "table", pgstage.DefaultTable,
		"Table to count, optionally schema-qualified (schema.table)")
	cmd.Flags().DurationVar(&f.timeout, "timeout", pgstage.DefaultVerifyTimeout,
		"Upper bound for both queries")
}

// buildVerifyConfig merges flags, pgstage.yaml and defaults into a VerifyConfig.
func buildVerifyConfig(cmd *cobra.Command, f *verifyFlagValues, projectCfg *config.ProjectConfig, verbose bool) (pgstage.VerifyConfig, error) {
	table := f.table
	if projectCfg != nil && projectCfg.Table != "" && !cmd.Flags().Changed("table") {
		table = projectCfg.Table
	}

	conn, err := resolveConnection(&f.conn, projectCfg)
	if err != nil {
		return pgstage.VerifyConfig{}, err
	}

	cfg := pgstage.VerifyConfig{
		Table:      table,
		Connection: conn,
		Timeout:    f.timeout,
		Verbose:    verbose,
	}
	if err := cfg.Validate(); err != nil {
		return pgstage.VerifyConfig{}, err
	}
	return cfg, nil
}

func runVerify(cmd *cobra.Command, _ []string) error {
	verbose := getVerboseFlag(cmd)
	logger, err := newLogger(cmd)
	if err != nil {
		return err
	}

	projectCfg, err := prepareEnvironment(&verifyFlags.conn)
	if err != nil {
		return err
	}

	cfg, err := buildVerifyConfig(cmd, &verifyFlags, projectCfg, verbose)
	if err != nil {
		return err
	}
	logger.Verbose("Connection: %s (auth %s)", db.Redacted(cfg.Connection), cfg.Connection.AuthMethod)

	ctx, cancel := signalContext(cfg.Timeout)
	defer cancel()

	verifier := services.NewVerifyService(db.NewConnector, logger)
	report, err := verifier.Verify(ctx, cfg)
	if report != nil {
		printVerifyReport(cmd.OutOrStdout(), report, err == nil)
	}
	if err != nil {
		return fmt.Errorf("verify failed: %w", err)
	}
	return nil
}

// printVerifyReport writes what the diagnostics learned. complete is false
// when the count query failed, in which case only the version is printed.
func printVerifyReport(w io.Writer, r *pgstage.VerifyReport, complete bool) {
	if r.ServerVersion == "" {
		return
	}
	fmt.Fprintf(w, "%s %s\n", tui.Render(w, tui.LabelStyle, "DB version:"), tui.Render(w, tui.ValueStyle, r.ServerVersion))

	switch {
	case !complete:
	case r.TableMissing:
		fmt.Fprintln(w, tui.Render(w, tui.WarningStyle, "note: "+r.Notice))
	default:
		fmt.Fprintf(w, "%s %s\n", tui.Render(w, tui.LabelStyle, r.Table+" row count:"), tui.Render(w, tui.ValueStyle, fmt.Sprint(r.RowCount)))
	}
}
