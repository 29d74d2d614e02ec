package cmd

import (
	"github.com/charmbracelet/lipgloss"
)

var colorSuccess = lipgloss.Color("#00B785")
var colorFailed = lipgloss.Color("#E1244C")

var styleSuccess = lipgloss.NewStyle().Foreground(colorSuccess).Bold(true)
var styleFailed = lipgloss.NewStyle().Foreground(colorFailed).Bold(true)
var styleHighlight = lipgloss.NewStyle().Foreground(lipgloss.Color("#407FF8")).Bold(true)
var styleSeparator = lipgloss.NewStyle().Foreground(lipgloss.Color("#e08dff")).Bold(true)

func summaryLine(target string, ok bool) string {
	if ok {
		return lipgloss.JoinHorizontal(lipgloss.Left,
			styleSuccess.Render("✔"), " ",
			styleHighlight.Render(target), " ",
			styleSuccess.Render("all resources succeeded"),
		)
	}

	return lipgloss.JoinHorizontal(lipgloss.Left,
		styleFailed.Render("✘"), " ",
		styleHighlight.Render(target), " ",
		styleFailed.Render("some resources failed"),
	)
}
