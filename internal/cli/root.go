package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "pgload",
	Short: "Load delimited files into an existing PostgreSQL table",
	Long: `pgload appends the rows of CSV files to an existing PostgreSQL table.

The table's columns are read once per run. Each file is matched against them:
file columns the table does not have are ignored, table columns the file does
not have receive their defaults. Rows are sent in batches with COPY.

There is no run-wide transaction. Batches committed before a failure stay
committed, and re-running a load appends the rows again.

Exit Codes:
  0  - Success (every file loaded)
  1  - General error
  2  - CLI usage error (invalid arguments or flags)
  3  - Panic or unexpected system error
  10 - Invalid configuration or parameters
  11 - Database connection failed
  12 - User declined the load
  13 - Target table columns could not be read
  14 - One or more files failed (partial load)`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() error {
	if len(os.Args) > 1 && os.Args[1] == "--version" {
		printVersionInfo()
		return nil
	}
	return rootCmd.Execute()
}

func init() {
	// Frees -h for --host, as in psql.
	rootCmd.PersistentFlags().Bool("help", false, "Help for pgload")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output for all commands")
	rootCmd.PersistentFlags().String("config", "", "Path to pgload.yaml (default: ./pgload.yaml when present)")
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

func getConfigFlag(cmd *cobra.Command) string {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return ""
	}
	return path
}
