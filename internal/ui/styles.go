package ui

import (
	"sentinelscan/internal/model"

	"github.com/charmbracelet/lipgloss"
)

var (
	baseStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("240"))

	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFF")).
			Background(lipgloss.Color("#7D56F4")). // Brand Color
			Bold(true).
			Padding(0, 1)

	detailTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("212")). // Light purple
				MarginBottom(1)

	detailTextStyle = lipgloss.NewStyle().
			MarginLeft(2)

	snippetStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")).
			Background(lipgloss.Color("236")).
			Padding(0, 1)

	helpStyle = lipgloss.NewStyle().PaddingLeft(2).Foreground(lipgloss.Color("241"))
)

var severityColors = map[model.Severity]lipgloss.Color{
	model.SeverityHigh:   lipgloss.Color("196"),
	model.SeverityMedium: lipgloss.Color("214"),
	model.SeverityLow:    lipgloss.Color("39"),
}

func severityStyle(s model.Severity) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(severityColors[s]).Bold(s == model.SeverityHigh)
}
