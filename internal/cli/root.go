package cli

import (
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/vvka-141/pgstage/internal/logging"
)

var rootCmd = &cobra.Command{
	Use:   "pgstage",
	Short: "Load CSV files into PostgreSQL staging tables",
	Long: `pgstage streams a CSV file into a PostgreSQL staging table in fixed-size
chunks and verifies the result with two diagnostic queries.

The first chunk replaces the table (drop, create, insert); every later chunk
is appended. Column types are inferred from the first chunk.

The connection string is read from --connection, $PGSTAGE_DATABASE_URL,
$DATABASE_URL (a local .env file is loaded first) or pgstage.yaml.

Exit Codes:
  0  - Success
  1  - General error
  2  - CLI usage error (invalid arguments or flags)
  3  - Panic or unexpected system error
  10 - Invalid configuration
  11 - Database connection failed
  12 - CSV source unreadable, empty or malformed
  13 - SQL execution or type conversion failed`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() error {
	if len(os.Args) > 1 && os.Args[1] == "--version" {
		printVersionInfo(os.Stdout)
		return nil
	}
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output for all commands")
	rootCmd.PersistentFlags().String("log-format", string(logging.FormatConsole), "Log line format on stderr: console|json")
	_ = rootCmd.RegisterFlagCompletionFunc("log-format", completeFrom([]string{"console", "json"}))
}

// getVerboseFlag safely retrieves the verbose flag value
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Failed to get verbose flag: %v\n", err)
		return false
	}
	return verbose
}

// newLogger builds the stderr logger for a command from the global flags and
// installs it as the zerolog global logger used by the connectors.
func newLogger(cmd *cobra.Command) (*logging.ConsoleLogger, error) {
	raw, _ := cmd.Flags().GetString("log-format")
	format, err := logging.ParseFormat(raw)
	if err != nil {
		return nil, err
	}

	logger := logging.NewLogger(cmd.ErrOrStderr(), getVerboseFlag(cmd), format)
	log.Logger = *logger.Zerolog()
	return logger, nil
}
