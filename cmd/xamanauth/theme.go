package main

import "github.com/charmbracelet/lipgloss"

var (
	colorSuccess = lipgloss.Color("#22c55e")
	colorWarning = lipgloss.Color("#eab308")
	colorError   = lipgloss.Color("#ef4444")
	colorInfo    = lipgloss.Color("#3b82f6")
	colorMuted   = lipgloss.Color("#6b7280")
)

var (
	styleHeader  = lipgloss.NewStyle().Bold(true)
	styleSuccess = lipgloss.NewStyle().Foreground(colorSuccess)
	styleWarning = lipgloss.NewStyle().Foreground(colorWarning)
	styleError   = lipgloss.NewStyle().Foreground(colorError)
	styleInfo    = lipgloss.NewStyle().Foreground(colorInfo)
	styleLabel   = lipgloss.NewStyle().Foreground(colorMuted).Width(10)

	styleBox = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorInfo).
			Padding(0, 1)
)

func row(label, value string) string {
	return styleLabel.Render(label) + " " + value
}
