package ui

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// Color palette for the packet monitor UI
var (
	// Primary colors
	PrimaryColor = lipgloss.Color("#7D56F4") // Purple - headers, borders
	SuccessColor = lipgloss.Color("#43BF6D") // Green - packet counts
	WarningColor = lipgloss.Color("#FFA500") // Orange - resync warnings
	MutedColor   = lipgloss.Color("#626262") // Gray - secondary info
	TextColor    = lipgloss.Color("#FFFFFF") // White - main content
)

// Layout constants
const (
	MinTerminalWidth = 60  // Minimum supported terminal width
	MaxContentWidth  = 120 // Maximum content width before capping
)

// Shared styles for the packet monitor
var (
	// TitleStyle is for the monitor title bar
	TitleStyle = lipgloss.NewStyle().
			Foreground(TextColor).
			Bold(true).
			PaddingLeft(1)

	// SubtitleStyle is for the listen address and framing profile line
	SubtitleStyle = lipgloss.NewStyle().
			Foreground(MutedColor).
			PaddingLeft(1)

	// StatsStyle is for the packet/connection counters
	StatsStyle = lipgloss.NewStyle().
			Foreground(SuccessColor).
			PaddingLeft(1)

	// TimestampStyle is for per-row timestamps
	TimestampStyle = lipgloss.NewStyle().
			Foreground(MutedColor)

	// ModeStyle is for the packet mode column
	ModeStyle = lipgloss.NewStyle().
			Foreground(PrimaryColor).
			Bold(true)

	// AddrStyle is for the remote address column
	AddrStyle = lipgloss.NewStyle().
			Foreground(MutedColor)

	// PayloadStyle is for the payload preview column
	PayloadStyle = lipgloss.NewStyle().
			Foreground(TextColor)

	// WaitingStyle is for the "waiting for packets" placeholder
	WaitingStyle = lipgloss.NewStyle().
			Foreground(MutedColor).
			Italic(true).
			PaddingLeft(1)

	// HelpStyle is for the key-binding footer
	HelpStyle = lipgloss.NewStyle().
			Foreground(MutedColor).
			PaddingLeft(1)
)

// HeaderBorderStyle returns the border style for the monitor header
func HeaderBorderStyle(width int) lipgloss.Style {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(PrimaryColor).
		Width(width - 2)
}

// GetTerminalWidth returns the current terminal width, with fallback
func GetTerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width < MinTerminalWidth {
		return MinTerminalWidth
	}
	if width > MaxContentWidth {
		return MaxContentWidth
	}
	return width
}

// GetTerminalSize returns the current terminal width and height
func GetTerminalSize() (int, int) {
	width, height, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil {
		return MinTerminalWidth, 24 // Default fallback
	}
	if width < MinTerminalWidth {
		width = MinTerminalWidth
	}
	if width > MaxContentWidth {
		width = MaxContentWidth
	}
	return width, height
}

// IsInteractive reports whether stdout is attached to a terminal. The
// monitor refuses to start when output is piped.
func IsInteractive() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}
