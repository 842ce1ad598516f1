package cli

import (
	"strings"

	"github.com/spf13/cobra"
)

// sslModes contains valid PostgreSQL SSL modes for shell completion.
var sslModes = []string{"disable", "allow", "prefer", "require", "verify-ca", "verify-full"}

// authMethods contains the canonical --auth values for shell completion.
var authMethods = []string{"standard", "aws", "google", "azure"}

// completeSSLModes provides shell completion for SSL mode flag values.
func completeSSLModes(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	return filterPrefix(sslModes, toComplete), cobra.ShellCompDirectiveNoFileComp
}

// completeAuthMethods provides shell completion for --auth values.
func completeAuthMethods(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	return filterPrefix(authMethods, toComplete), cobra.ShellCompDirectiveNoFileComp
}

// completeInputs lets the shell complete file and directory paths.
func completeInputs(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	return nil, cobra.ShellCompDirectiveDefault
}

func filterPrefix(values []string, prefix string) []string {
	var matches []string
	for _, v := range values {
		if strings.HasPrefix(v, prefix) {
			matches = append(matches, v)
		}
	}
	return matches
}
