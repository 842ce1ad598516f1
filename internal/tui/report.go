package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/vvka-141/pgload/pkg/pgload"
)

// RenderReport formats a load report for the terminal: one line per file
// followed by a totals line. Colors are dropped when the output is not a TTY.
func RenderReport(r *pgload.Report) string {
	var b strings.Builder

	title := fmt.Sprintf("Load into %s", r.Table)
	if r.DryRun {
		title += " (dry run)"
	}
	b.WriteString(TitleStyle.Render(title))
	b.WriteString("\n")

	if len(r.Files) == 0 {
		b.WriteString(MutedStyle.Render("No input files."))
		b.WriteString("\n")
		return b.String()
	}

	for _, f := range r.Files {
		b.WriteString(renderFile(f))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(renderTotals(r))
	b.WriteString("\n")
	return b.String()
}

func renderFile(f pgload.FileResult) string {
	switch f.State {
	case pgload.FileCompleted:
		line := SuccessStyle.Render(SymbolCheck+" "+f.Path) +
			MutedStyle.Render(fmt.Sprintf("  %d row(s), %d batch(es), %s", f.RowsLoaded, f.Batches, f.Duration.Round(time.Millisecond)))
		return line + droppedNote(f)
	case pgload.FileSkipped:
		return MutedStyle.Render(fmt.Sprintf("%s %s  would load %d row(s) into %d column(s)", SymbolSkip, f.Path, f.RowsParsed, len(f.Columns))) +
			droppedNote(f)
	case pgload.FileFailed:
		line := ErrorStyle.Render(SymbolCross + " " + f.Path)
		if f.RowsLoaded > 0 {
			line += WarningStyle.Render(fmt.Sprintf("  %d row(s) committed before failure", f.RowsLoaded))
		}
		if f.Err != nil {
			line += "\n    " + ErrorStyle.Render(f.Err.Error())
		}
		return line
	default:
		return MutedStyle.Render(fmt.Sprintf("%s %s  %s", SymbolBullet, f.Path, f.State))
	}
}

func droppedNote(f pgload.FileResult) string {
	if len(f.Dropped) == 0 {
		return ""
	}
	return "\n    " + WarningStyle.Render("ignored columns: "+strings.Join(f.Dropped, ", "))
}

func renderTotals(r *pgload.Report) string {
	failed := len(r.Failed())
	summary := fmt.Sprintf("%d file(s), %d row(s) loaded, %d failed in %s",
		len(r.Files), r.RowsLoaded(), failed, r.Duration.Round(time.Millisecond))
	if failed > 0 {
		return WarningStyle.Render(SymbolArrowRight + " " + summary)
	}
	return SuccessStyle.Render(SymbolArrowRight + " " + summary)
}
