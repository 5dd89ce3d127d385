// Package ui provides the interactive terminal browser for scan reports.
package ui

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"sentinelscan/internal/model"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var startBrowser = func(report *model.ScanReport) error {
	p := tea.NewProgram(newBrowserModel(report), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running TUI: %v\n", err)
		return err
	}
	return nil
}

// StartBrowser opens the findings browser for report and blocks until the user quits.
func StartBrowser(report *model.ScanReport) error {
	return startBrowser(report)
}

// SetStartBrowserForTest allows tests to replace the TUI starter function.
func SetStartBrowserForTest(fn func(report *model.ScanReport) error) func() {
	prev := startBrowser
	startBrowser = fn
	return func() { startBrowser = prev }
}

// severity filter cycle; the empty value shows everything
var filterCycle = []model.Severity{"", model.SeverityHigh, model.SeverityMedium, model.SeverityLow}

type browserModel struct {
	report  *model.ScanReport
	table   table.Model
	help    help.Model
	visible []model.Finding
	filter  int
	detail  bool
	width   int
}

func newBrowserModel(report *model.ScanReport) *browserModel {
	columns := []table.Column{
		{Title: "SEVERITY", Width: 8},
		{Title: "LOCATION", Width: 36},
		{Title: "RULE", Width: 16},
		{Title: "TITLE", Width: 48},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(15),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	t.SetStyles(s)

	m := &browserModel{report: report, table: t, help: help.New()}
	m.applyFilter()
	return m
}

func (m *browserModel) Init() tea.Cmd {
	return nil
}

func (m *browserModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, browserKeys.Quit):
			return m, tea.Quit
		case key.Matches(msg, browserKeys.Back):
			m.detail = false
			return m, nil
		case key.Matches(msg, browserKeys.Enter):
			if len(m.visible) > 0 {
				m.detail = !m.detail
			}
			return m, nil
		case key.Matches(msg, browserKeys.Filter):
			m.filter = (m.filter + 1) % len(filterCycle)
			m.detail = false
			m.applyFilter()
			return m, nil
		}
		if m.detail {
			return m, nil
		}
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		if h := msg.Height - 8; h > 3 {
			m.table.SetHeight(h)
		}
		return m, nil
	}
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m *browserModel) applyFilter() {
	sev := filterCycle[m.filter]
	m.visible = m.visible[:0]
	rows := []table.Row{}
	for _, f := range m.report.Vulnerabilities {
		if sev != "" && f.Severity != sev {
			continue
		}
		m.visible = append(m.visible, f)
		rows = append(rows, table.Row{
			string(f.Severity),
			f.Location(),
			f.RuleID,
			f.Title,
		})
	}
	m.table.SetRows(rows)
	m.table.GotoTop()
}

func (m *browserModel) selected() (model.Finding, bool) {
	i := m.table.Cursor()
	if i < 0 || i >= len(m.visible) {
		return model.Finding{}, false
	}
	return m.visible[i], true
}

func (m *browserModel) header() string {
	s := m.report.Summary
	filter := "All"
	if sev := filterCycle[m.filter]; sev != "" {
		filter = string(sev)
	}
	return headerStyle.Render(fmt.Sprintf(" Scan %s ", m.report.ScanID)) +
		fmt.Sprintf("  %s  files: %d  total: %d  high: %d  medium: %d  low: %d  filter: %s",
			m.report.Source, m.report.FilesScanned, s.Total, s.High, s.Medium, s.Low, filter)
}

func (m *browserModel) View() string {
	var sb strings.Builder
	sb.WriteString(m.header())
	sb.WriteString("\n\n")

	if m.detail {
		if f, ok := m.selected(); ok {
			sb.WriteString(renderDetail(f))
			sb.WriteString("\n")
			sb.WriteString(helpStyle.Render("esc: back • q: quit"))
			return sb.String()
		}
	}

	if len(m.visible) == 0 {
		sb.WriteString(detailTextStyle.Render("No findings."))
		sb.WriteString("\n\n")
	} else {
		sb.WriteString(baseStyle.Render(m.table.View()))
		sb.WriteString("\n")
	}
	sb.WriteString(helpStyle.Render(m.help.View(browserKeys)))
	return sb.String()
}

func renderDetail(f model.Finding) string {
	var sb strings.Builder
	sb.WriteString(detailTitleStyle.Render(f.Title))
	sb.WriteString("\n")
	lines := []string{
		"Severity:  " + severityStyle(f.Severity).Render(string(f.Severity)),
		"Rule:      " + f.RuleID,
		"Location:  " + f.File + ":" + strconv.Itoa(f.Line) + ":" + strconv.Itoa(f.Column),
	}
	if f.Snippet != "" {
		lines = append(lines, "", snippetStyle.Render(f.Snippet))
	}
	if f.Description != "" {
		lines = append(lines, "", f.Description)
	}
	if f.Recommendation != "" {
		lines = append(lines, "", "Recommendation: "+f.Recommendation)
	}
	sb.WriteString(detailTextStyle.Render(strings.Join(lines, "\n")))
	return sb.String()
}
