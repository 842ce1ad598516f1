package ui

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/vvka-141/pgload/pkg/pgload"
)

// InteractiveApprover implements the Approver interface with a line-based
// y/N prompt. It is the fallback when stdin is a terminal but a full-screen
// prompt cannot be drawn.
type InteractiveApprover struct {
	verbose bool
	input   io.Reader
	output  io.Writer
}

// NewInteractiveApprover creates a new InteractiveApprover on stdin/stderr.
func NewInteractiveApprover(verbose bool) pgload.Approver {
	return &InteractiveApprover{verbose: verbose, input: os.Stdin, output: os.Stderr}
}

// RequestApproval prints the plan and asks for confirmation. Only "y" or
// "yes" (any case) approves.
func (a *InteractiveApprover) RequestApproval(ctx context.Context, plan *pgload.Report) (bool, error) {
	writePlan(a.output, plan)
	fmt.Fprint(a.output, "\nProceed? [y/N]: ")

	// Read user input with context cancellation support
	inputChan := make(chan string, 1)
	errChan := make(chan error, 1)

	go func() {
		reader := bufio.NewReader(a.input)
		input, err := reader.ReadString('\n')
		if err != nil && input == "" {
			errChan <- err
			return
		}
		inputChan <- strings.TrimSpace(input)
	}()

	select {
	case <-ctx.Done():
		return false, ctx.Err()
	case err := <-errChan:
		return false, fmt.Errorf("failed to read input: %w", err)
	case input := <-inputChan:
		switch strings.ToLower(input) {
		case "y", "yes":
			fmt.Fprintln(a.output, "✓ Confirmed. Loading...")
			return true, nil
		default:
			fmt.Fprintf(a.output, "✗ Load into %s cancelled.\n", plan.Table)
			return false, nil
		}
	}
}

// Verify InteractiveApprover implements the Approver interface at compile time
var _ pgload.Approver = (*InteractiveApprover)(nil)
