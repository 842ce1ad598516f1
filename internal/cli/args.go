package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// RequireInputs validates that at least one file or directory argument is provided.
// Returns a helpful error message with usage and examples if missing.
func RequireInputs(cmd *cobra.Command, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf(`requires at least 1 input path

Usage: %s

Example:
  %s ./exports --table sales.orders`, cmd.UseLine(), cmd.CommandPath())
	}
	return nil
}
