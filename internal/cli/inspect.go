package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/vvka-141/pgload/internal/logging"
	"github.com/vvka-141/pgload/internal/ui"
	"github.com/vvka-141/pgload/pkg/pgload"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect [path]... --table <table>",
	Short: "Show a table's columns and how files would map onto them",
	Long: `Inspect prints the column list of the target table. For every file given,
it also prints which file columns would be loaded and which would be ignored.

Nothing is written to the database.

Examples:
  # Columns of a table
  pgload inspect -t sales.orders

  # Columns plus the per-file plan
  pgload inspect ./exports -t sales.orders`,
	ValidArgsFunction: completeInputs,
	RunE:              runInspect,
}

type inspectFlagValues struct {
	conn connectionFlags
	opts loadOptionFlags
}

var inspectFlags inspectFlagValues

func init() {
	rootCmd.AddCommand(inspectCmd)

	registerConnectionFlags(inspectCmd, &inspectFlags.conn)
	registerLoadOptionFlags(inspectCmd, &inspectFlags.opts)
}

func runInspect(cmd *cobra.Command, args []string) error {
	verbose := getVerboseFlag(cmd)

	cfg, err := buildLoadConfig(cmd, inspectFlags.opts, inspectFlags.conn, args, verbose)
	if err != nil {
		return err
	}
	cfg.DryRun = true

	logger := logging.NewConsoleLogger(verbose)
	svc := newIngestService(ui.NewAutoApprover(false), logger)

	report, err := runWithSignals(cfg, svc.Run)
	if report != nil {
		out := cmd.OutOrStdout()
		printColumns(out, report)
		if len(report.Files) > 0 {
			fmt.Fprintln(out)
			printReport(out, report)
		}
	}
	if err != nil {
		return fmt.Errorf("inspect failed: %w", err)
	}
	return nil
}

func printColumns(w io.Writer, report *pgload.Report) {
	names := report.Columns.Names()
	fmt.Fprintf(w, "%s (%d columns)\n", report.Table, len(names))
	fmt.Fprintf(w, "  %s\n", strings.Join(names, ", "))
}
