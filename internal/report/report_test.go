package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"sentinelscan/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func sampleReport() *model.ScanReport {
	findings := []model.Finding{
		{
			RuleID: model.RuleSQLInjection, Title: "SQL built with string formatting", Severity: model.SeverityHigh,
			File: "db.py", Line: 3, Snippet: `cursor.execute("SELECT " + q)`,
			Description: "Query text is concatenated.", Recommendation: "Use parameters.",
		},
		{
			RuleID: model.RuleXSS, Title: "innerHTML assignment", Severity: model.SeverityMedium,
			File: "web/app.js", Line: 10,
		},
	}
	return model.NewCompletedReport("abc123def456", "file_upload", 2, findings,
		time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC))
}

func TestParseFormat(t *testing.T) {
	tests := map[string]Format{
		"":         FormatTable,
		"table":    FormatTable,
		"JSON":     FormatJSON,
		"yml":      FormatYAML,
		"yaml":     FormatYAML,
		"md":       FormatMarkdown,
		"markdown": FormatMarkdown,
	}
	for in, want := range tests {
		got, err := ParseFormat(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseFormat("xml")
	assert.Error(t, err)
}

func TestWriteTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, sampleReport(), FormatTable, Options{}))

	out := buf.String()
	assert.Contains(t, out, "Scan abc123def456 (file_upload)")
	assert.Contains(t, out, "Findings: 2 (High: 1, Medium: 1, Low: 0)")
	assert.Contains(t, out, "LOCATION")
	assert.Contains(t, out, "db.py:3")
	assert.Contains(t, out, "web/app.js:10")
	assert.NotContains(t, out, "\x1b[", "no colour without a terminal")
}

func TestWriteTableEmptyAndFailed(t *testing.T) {
	var buf bytes.Buffer
	empty := model.NewCompletedReport("id", "src", 3, nil, time.Time{})
	require.NoError(t, WriteTable(&buf, empty, false))
	assert.Contains(t, buf.String(), "No security issues found")

	buf.Reset()
	failed := model.NewErrorReport("id2", "https://example.com/r", time.Time{})
	require.NoError(t, WriteTable(&buf, failed, false))
	assert.Contains(t, buf.String(), "Status: error")
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, sampleReport(), FormatJSON, Options{}))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "abc123def456", decoded["scan_id"])
	assert.Equal(t, "completed", decoded["status"])
	summary := decoded["summary"].(map[string]any)
	assert.Equal(t, 2.0, summary["total"])
	vulns := decoded["vulnerabilities"].([]any)
	require.Len(t, vulns, 2)
	assert.Equal(t, "SQL_INJECTION", vulns[0].(map[string]any)["rule_id"])
}

func TestWriteYAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, sampleReport(), FormatYAML, Options{}))

	var decoded map[string]any
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "abc123def456", decoded["scan_id"])
	assert.Equal(t, 2, decoded["files_scanned"])
}

func TestMarkdown(t *testing.T) {
	md := Markdown(sampleReport())

	assert.True(t, strings.HasPrefix(md, "# Scan abc123def456"))
	assert.Contains(t, md, "| 2 | 1 | 1 | 0 |")
	assert.Contains(t, md, "### High (1)")
	assert.Contains(t, md, "### Medium (1)")
	assert.NotContains(t, md, "### Low")
	assert.Contains(t, md, "**Recommendation:** Use parameters.")
	assert.Less(t, strings.Index(md, "### High"), strings.Index(md, "### Medium"))
}

func TestRenderMarkdown(t *testing.T) {
	out, err := RenderMarkdown("# Hello", 0)
	require.NoError(t, err)
	assert.Contains(t, out, "Hello")
}

func TestWriteList(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteList(&buf, nil))
	assert.Contains(t, buf.String(), "No reports stored.")

	buf.Reset()
	require.NoError(t, WriteList(&buf, []*model.ScanReport{sampleReport()}))
	assert.Contains(t, buf.String(), "SCAN ID")
	assert.Contains(t, buf.String(), "abc123def456")
	assert.Contains(t, buf.String(), "2026-03-04 05:06:07")
}

func TestIsTerminal(t *testing.T) {
	assert.False(t, IsTerminal(&bytes.Buffer{}))
}
