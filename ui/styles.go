// Package ui renders providers and test results for the terminal.
package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"llmkeyring/provider"
)

var (
	dimColor       = lipgloss.Color("7")
	accentColor    = lipgloss.Color("12")
	successColor   = lipgloss.Color("10")
	warningColor   = lipgloss.Color("11")
	dangerColor    = lipgloss.Color("9")
	highlightColor = lipgloss.Color("13")

	DimStyle = lipgloss.NewStyle().
			Foreground(dimColor)

	TitleStyle = lipgloss.NewStyle().
			Bold(true)

	HeaderStyle = lipgloss.NewStyle().
			Foreground(accentColor).
			Bold(true)

	SelectedStyle = lipgloss.NewStyle().
			Foreground(warningColor).
			Bold(true)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(dangerColor).
			Bold(true)

	HighlightStyle = lipgloss.NewStyle().
			Foreground(highlightColor).
			Bold(true)

	successStyle = lipgloss.NewStyle().Foreground(successColor)
	failureStyle = lipgloss.NewStyle().Foreground(dangerColor)
	unknownStyle = lipgloss.NewStyle().Foreground(dimColor)
)

const dot = "●"

// StatusDot is a colored dot for a test status: green, red or grey.
func StatusDot(s provider.TestStatus) string {
	switch s {
	case provider.StatusSuccess:
		return successStyle.Render(dot)
	case provider.StatusFailure:
		return failureStyle.Render(dot)
	default:
		return unknownStyle.Render(dot)
	}
}

// StatusLine is the dot followed by the message. Multi-line messages keep
// their continuation lines aligned under the first.
func StatusLine(s provider.TestStatus, message string) string {
	if message == "" {
		return StatusDot(s)
	}
	lines := strings.Split(message, "\n")
	for i := 1; i < len(lines); i++ {
		lines[i] = "  " + DimStyle.Render(lines[i])
	}
	return StatusDot(s) + " " + strings.Join(lines, "\n")
}

// FormatFooter formats alternating keys and descriptions.
// Usage: FormatFooter("ctrl+c", "Cancel", "q", "Quit")
func FormatFooter(parts ...string) string {
	descStyle := lipgloss.NewStyle().Foreground(accentColor).Bold(true)
	var result []string
	for i := 0; i+1 < len(parts); i += 2 {
		result = append(result, parts[i]+" "+descStyle.Render(parts[i+1]))
	}
	return strings.Join(result, "  ")
}
