package ui

import (
	"fmt"
	"io"

	"github.com/vvka-141/pgload/pkg/pgload"
)

// maxListedFiles caps how many file names a plan summary prints.
const maxListedFiles = 10

// writePlan prints the table, its column count and the files about to be loaded.
func writePlan(w io.Writer, plan *pgload.Report) {
	fmt.Fprintf(w, "\nAbout to load %d file(s) into %s (%d columns):\n", len(plan.Files), plan.Table, plan.Columns.Len())
	for i, f := range plan.Files {
		if i == maxListedFiles {
			fmt.Fprintf(w, "  ... and %d more\n", len(plan.Files)-maxListedFiles)
			break
		}
		fmt.Fprintf(w, "  • %s\n", f.Path)
	}
	fmt.Fprintln(w, "Rows are appended; re-running with the same files inserts them again.")
}
