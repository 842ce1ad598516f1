package tui

import (
	"os"

	"golang.org/x/term"
)

// Mode represents the interaction mode for pgload.
type Mode int

const (
	// ModeNonInteractive is used for CI/CD pipelines, scripts, and piped input.
	ModeNonInteractive Mode = iota
	// ModeInteractive is used when a human is at the terminal.
	ModeInteractive
)

// DetectMode determines whether pgload should run in interactive or non-interactive mode.
//
// Returns ModeNonInteractive if:
//   - PGLOAD_NON_INTERACTIVE=1 is set
//   - CI is set (common CI/CD convention)
//   - NO_COLOR is set
//   - stdin or stdout is not a terminal
//
// Returns ModeInteractive otherwise.
func DetectMode() Mode {
	if NonInteractiveRequested() {
		return ModeNonInteractive
	}
	if os.Getenv("NO_COLOR") != "" {
		return ModeNonInteractive
	}

	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return ModeNonInteractive
	}

	// The confirm screen renders to stdout.
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return ModeNonInteractive
	}

	return ModeInteractive
}

// IsInteractive is a convenience function that returns true if running in interactive mode.
func IsInteractive() bool {
	return DetectMode() == ModeInteractive
}

// StdinIsTerminal reports whether an operator can type an answer, even when
// the full-screen prompt is unavailable.
func StdinIsTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// NonInteractiveRequested reports whether the environment asks pgload never
// to prompt: PGLOAD_NON_INTERACTIVE=1 or CI set.
func NonInteractiveRequested() bool {
	return os.Getenv("PGLOAD_NON_INTERACTIVE") == "1" || os.Getenv("CI") != ""
}
