package ui

import (
	"errors"
	"testing"
	"time"

	"sentinelscan/internal/model"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testReport() *model.ScanReport {
	return model.NewCompletedReport("abc123def456", "file_upload", 2, []model.Finding{
		{RuleID: model.RuleSQLInjection, Title: "SQL built with string formatting", Severity: model.SeverityHigh, File: "db.py", Line: 3, Snippet: "cursor.execute(q % x)", Recommendation: "Use parameters."},
		{RuleID: model.RuleXSS, Title: "innerHTML assignment", Severity: model.SeverityMedium, File: "app.js", Line: 7},
		{RuleID: model.RuleUnsafeFunction, Title: "eval() call", Severity: model.SeverityHigh, File: "run.py", Line: 1},
	}, time.Now())
}

func keyMsg(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestBrowserModel_Rows(t *testing.T) {
	m := newBrowserModel(testReport())
	assert.Nil(t, m.Init())
	assert.Len(t, m.table.Rows(), 3)

	view := m.View()
	assert.Contains(t, view, "abc123def456")
	assert.Contains(t, view, "db.py:3")
	assert.Contains(t, view, "filter: All")
}

func TestBrowserModel_FilterCycle(t *testing.T) {
	m := newBrowserModel(testReport())

	updated, _ := m.Update(keyMsg("f"))
	m = updated.(*browserModel)
	assert.Len(t, m.table.Rows(), 2, "High only")
	assert.Contains(t, m.View(), "filter: High")

	updated, _ = m.Update(keyMsg("f"))
	m = updated.(*browserModel)
	assert.Len(t, m.table.Rows(), 1, "Medium only")

	updated, _ = m.Update(keyMsg("f"))
	m = updated.(*browserModel)
	assert.Empty(t, m.table.Rows(), "Low only")
	assert.Contains(t, m.View(), "No findings.")

	updated, _ = m.Update(keyMsg("f"))
	m = updated.(*browserModel)
	assert.Len(t, m.table.Rows(), 3, "back to all")
}

func TestBrowserModel_Detail(t *testing.T) {
	m := newBrowserModel(testReport())

	updated, _ := m.Update(keyMsg("enter"))
	m = updated.(*browserModel)
	require.True(t, m.detail)
	view := m.View()
	assert.Contains(t, view, "SQL built with string formatting")
	assert.Contains(t, view, "Recommendation: Use parameters.")
	assert.Contains(t, view, "db.py:3:0")

	updated, _ = m.Update(keyMsg("esc"))
	m = updated.(*browserModel)
	assert.False(t, m.detail)

	updated, _ = m.Update(keyMsg("down"))
	m = updated.(*browserModel)
	f, ok := m.selected()
	require.True(t, ok)
	assert.Equal(t, "app.js", f.File)
}

func TestBrowserModel_EnterWithoutFindings(t *testing.T) {
	m := newBrowserModel(model.NewCompletedReport("id", "src", 0, nil, time.Now()))
	updated, _ := m.Update(keyMsg("enter"))
	assert.False(t, updated.(*browserModel).detail)
}

func TestBrowserModel_Quit(t *testing.T) {
	m := newBrowserModel(testReport())
	_, cmd := m.Update(keyMsg("q"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestBrowserModel_WindowSize(t *testing.T) {
	m := newBrowserModel(testReport())
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	m = updated.(*browserModel)
	assert.Equal(t, 120, m.width)
	assert.Equal(t, 32, m.table.Height())
}

func TestStartBrowser_Mock(t *testing.T) {
	var got *model.ScanReport
	restore := SetStartBrowserForTest(func(r *model.ScanReport) error {
		got = r
		return errors.New("no tty")
	})
	defer restore()

	r := testReport()
	err := StartBrowser(r)
	assert.EqualError(t, err, "no tty")
	assert.Same(t, r, got)
}
