package ui

import (
	"context"
	"io"
	"os"

	"github.com/vvka-141/pgload/pkg/pgload"
)

// AutoApprover implements the Approver interface for non-interactive runs
// (--yes, CI, piped input). It approves every plan, printing it first when
// verbose.
type AutoApprover struct {
	verbose bool
	output  io.Writer
}

// NewAutoApprover creates a new AutoApprover writing to stderr.
func NewAutoApprover(verbose bool) pgload.Approver {
	return &AutoApprover{verbose: verbose, output: os.Stderr}
}

// RequestApproval approves unless ctx is already done.
func (a *AutoApprover) RequestApproval(ctx context.Context, plan *pgload.Report) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if a.verbose {
		writePlan(a.output, plan)
	}
	return true, nil
}

// Verify AutoApprover implements the Approver interface at compile time
var _ pgload.Approver = (*AutoApprover)(nil)
