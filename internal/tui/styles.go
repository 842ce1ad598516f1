package tui

import "github.com/charmbracelet/lipgloss"

// Color palette - keeping it minimal and accessible.
var (
	ColorPrimary   = lipgloss.Color("39")  // Blue
	ColorSecondary = lipgloss.Color("245") // Gray
	ColorSuccess   = lipgloss.Color("34")  // Green
	ColorWarning   = lipgloss.Color("214") // Orange
	ColorError     = lipgloss.Color("196") // Red
	ColorMuted     = lipgloss.Color("240") // Dark gray
)

var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPrimary).
			MarginBottom(1)

	SubtitleStyle = lipgloss.NewStyle().
			Foreground(ColorSecondary)

	BoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorSecondary).
			Padding(0, 1)

	// Confirmation buttons
	ButtonStyle = lipgloss.NewStyle().
			Foreground(ColorSecondary).
			Padding(0, 2)

	ActiveButtonStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("231")).
				Background(ColorPrimary).
				Bold(true).
				Padding(0, 2)

	MutedStyle = lipgloss.NewStyle().
			Foreground(ColorMuted)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(ColorSuccess)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(ColorError)

	WarningStyle = lipgloss.NewStyle().
			Foreground(ColorWarning)

	HelpStyle = lipgloss.NewStyle().
			Foreground(ColorMuted).
			MarginTop(1)
)

// Symbols for visual feedback.
const (
	SymbolCheck      = "✓"
	SymbolCross      = "✗"
	SymbolSkip       = "○"
	SymbolArrowRight = "→"
	SymbolBullet     = "•"
)
