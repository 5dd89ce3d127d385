package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummarize(t *testing.T) {
	findings := []Finding{
		{RuleID: RuleXSS, Severity: SeverityHigh},
		{RuleID: RuleXSS, Severity: SeverityMedium},
		{RuleID: RuleUnsafeFunction, Severity: SeverityMedium},
		{RuleID: RuleHardcodedSecret, Severity: SeverityLow},
	}

	s := Summarize(findings)
	assert.Equal(t, ScanSummary{Total: 4, High: 1, Medium: 2, Low: 1}, s)
	assert.Equal(t, s.Total, s.High+s.Medium+s.Low)
	assert.Equal(t, 2, s.Count(SeverityMedium))

	assert.Equal(t, ScanSummary{}, Summarize(nil))
}

func TestNewCompletedReport(t *testing.T) {
	now := time.Now()
	r := NewCompletedReport("abc", "file_upload", 3, nil, now)
	assert.Equal(t, StatusCompleted, r.Status)
	assert.NotNil(t, r.Vulnerabilities)
	assert.Empty(t, r.Vulnerabilities)
	assert.Equal(t, 0, r.Summary.Total)
	assert.False(t, r.Failed())

	r = NewCompletedReport("abc", "src", 1, []Finding{{Severity: SeverityMedium}}, now)
	assert.True(t, r.HasSeverityAtLeast(SeverityMedium))
	assert.False(t, r.HasSeverityAtLeast(SeverityHigh))
}

func TestNewErrorReport(t *testing.T) {
	r := NewErrorReport("id1", "https://github.com/acme/missing", time.Now())
	assert.True(t, r.Failed())
	assert.Equal(t, 0, r.FilesScanned)
	assert.Empty(t, r.Vulnerabilities)
	assert.Equal(t, ScanSummary{}, r.Summary)
}

func TestSeverityJSON(t *testing.T) {
	var f Finding
	require.NoError(t, json.Unmarshal([]byte(`{"severity":"high","line":2}`), &f))
	assert.Equal(t, SeverityHigh, f.Severity)

	err := json.Unmarshal([]byte(`{"severity":"critical"}`), &f)
	assert.Error(t, err)

	out, err := json.Marshal(Finding{Severity: SeverityLow})
	require.NoError(t, err)
	assert.Contains(t, string(out), `"severity":"Low"`)
}

func TestParseSeverity(t *testing.T) {
	tests := []struct {
		in   string
		want Severity
		err  bool
	}{
		{"High", SeverityHigh, false},
		{" medium ", SeverityMedium, false},
		{"LOW", SeverityLow, false},
		{"critical", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseSeverity(tt.in)
			if tt.err {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
