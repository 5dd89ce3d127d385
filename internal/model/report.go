package model

import "time"

// Report statuses.
const (
	StatusCompleted = "completed"
	StatusError     = "error"
)

// ScanSummary counts findings per severity. It is always derived from a
// finding list with Summarize and never adjusted in place.
type ScanSummary struct {
	Total  int `json:"total" yaml:"total"`
	High   int `json:"high" yaml:"high"`
	Medium int `json:"medium" yaml:"medium"`
	Low    int `json:"low" yaml:"low"`
}

// Summarize recomputes the severity summary of findings.
func Summarize(findings []Finding) ScanSummary {
	s := ScanSummary{Total: len(findings)}
	for _, f := range findings {
		switch f.Severity {
		case SeverityHigh:
			s.High++
		case SeverityMedium:
			s.Medium++
		case SeverityLow:
			s.Low++
		}
	}
	return s
}

// Count returns the number of findings at the given severity.
func (s ScanSummary) Count(sev Severity) int {
	switch sev {
	case SeverityHigh:
		return s.High
	case SeverityMedium:
		return s.Medium
	case SeverityLow:
		return s.Low
	}
	return 0
}

// ScanReport is the result of one scan. Reports are built once by
// NewCompletedReport or NewErrorReport and not modified afterwards.
type ScanReport struct {
	ScanID          string      `json:"scan_id" yaml:"scan_id"`
	Status          string      `json:"status" yaml:"status"`
	Source          string      `json:"source" yaml:"source"`
	FilesScanned    int         `json:"files_scanned" yaml:"files_scanned"`
	Summary         ScanSummary `json:"summary" yaml:"summary"`
	Vulnerabilities []Finding   `json:"vulnerabilities" yaml:"vulnerabilities"`
	CreatedAt       time.Time   `json:"created_at" yaml:"created_at"`
}

// NewCompletedReport builds a completed report whose summary is derived from findings.
func NewCompletedReport(id, source string, filesScanned int, findings []Finding, at time.Time) *ScanReport {
	if findings == nil {
		findings = []Finding{}
	}
	return &ScanReport{
		ScanID:          id,
		Status:          StatusCompleted,
		Source:          source,
		FilesScanned:    filesScanned,
		Summary:         Summarize(findings),
		Vulnerabilities: findings,
		CreatedAt:       at,
	}
}

// NewErrorReport builds a failed report: no findings and zero files scanned.
func NewErrorReport(id, source string, at time.Time) *ScanReport {
	return &ScanReport{
		ScanID:          id,
		Status:          StatusError,
		Source:          source,
		Vulnerabilities: []Finding{},
		CreatedAt:       at,
	}
}

// Failed reports whether the scan could not be performed.
func (r *ScanReport) Failed() bool {
	return r.Status == StatusError
}

// HasSeverityAtLeast reports whether any finding is at or above min.
func (r *ScanReport) HasSeverityAtLeast(min Severity) bool {
	for _, f := range r.Vulnerabilities {
		if f.Severity.Rank() >= min.Rank() {
			return true
		}
	}
	return false
}
