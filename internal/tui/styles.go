package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/charliek/woconsole/internal/domain"
)

// Colors
var (
	// Category colors
	errorColor   = lipgloss.Color("9")  // Red
	warningColor = lipgloss.Color("11") // Yellow
	successColor = lipgloss.Color("10") // Green
	runningColor = lipgloss.Color("14") // Cyan

	// UI colors
	headerBg = lipgloss.Color("235")
	statusBg = lipgloss.Color("236")
	helpBg   = lipgloss.Color("234")
	dimColor = lipgloss.Color("8")
)

// Styles
var (
	errorStyle   = lipgloss.NewStyle().Foreground(errorColor).Bold(true)
	warningStyle = lipgloss.NewStyle().Foreground(warningColor)
	successStyle = lipgloss.NewStyle().Foreground(successColor)
	runningStyle = lipgloss.NewStyle().Foreground(runningColor)
	normalStyle  = lipgloss.NewStyle()

	// Header style
	headerStyle = lipgloss.NewStyle().
			Background(headerBg).
			Padding(0, 1)

	// Selected source in the header
	activeSourceStyle = lipgloss.NewStyle().
				Bold(true).
				Underline(true)

	// Status bar style
	statusStyle = lipgloss.NewStyle().
			Background(statusBg).
			Padding(0, 1)

	// Help overlay style
	helpStyle = lipgloss.NewStyle().
			Background(helpBg).
			Padding(1, 2).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240"))

	// Console pane
	consoleStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)

	consoleTitleStyle = lipgloss.NewStyle().Bold(true)

	// Error banner
	bannerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("15")).
			Background(errorColor).
			Bold(true).
			Padding(0, 1)

	// Dim style for timestamps
	dimStyle = lipgloss.NewStyle().
			Foreground(dimColor)
)

// categoryStyle returns the style for a line category
func categoryStyle(c domain.Category) lipgloss.Style {
	switch c {
	case domain.CategoryError:
		return errorStyle
	case domain.CategoryWarning:
		return warningStyle
	case domain.CategorySuccess:
		return successStyle
	case domain.CategoryRunning:
		return runningStyle
	default:
		return normalStyle
	}
}

// connStyle returns the style for a connection status
func connStyle(s domain.ConnStatus) lipgloss.Style {
	switch s {
	case domain.ConnStatusConnected:
		return successStyle
	case domain.ConnStatusConnecting:
		return warningStyle
	case domain.ConnStatusError:
		return errorStyle
	default:
		return dimStyle
	}
}
