package model

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Severity ranks a finding for display. Detection logic never compares severities.
type Severity string

const (
	SeverityLow    Severity = "Low"
	SeverityMedium Severity = "Medium"
	SeverityHigh   Severity = "High"
)

// Severities lists every severity from most to least severe.
var Severities = []Severity{SeverityHigh, SeverityMedium, SeverityLow}

// ParseSeverity accepts any casing of Low, Medium or High.
func ParseSeverity(s string) (Severity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low":
		return SeverityLow, nil
	case "medium":
		return SeverityMedium, nil
	case "high":
		return SeverityHigh, nil
	}
	return "", fmt.Errorf("unknown severity: %q", s)
}

// Rank orders severities for sorting and thresholds (High=3, Medium=2, Low=1).
func (s Severity) Rank() int {
	switch s {
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 1
	}
	return 0
}

// UnmarshalJSON rejects severities outside the known set.
func (s *Severity) UnmarshalJSON(b []byte) error {
	var raw string
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	parsed, err := ParseSeverity(raw)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Rule identifiers, one per rule family.
const (
	RuleSQLInjection    = "SQL_INJECTION"
	RuleHardcodedSecret = "HARDCODED_SECRET"
	RuleXSS             = "XSS"
	RuleUnsafeFunction  = "UNSAFE_FUNCTION"
)

// Finding is a single reported potential vulnerability.
// Line is 1-based; Column is 0-based and 0 when only the line is known.
type Finding struct {
	RuleID         string   `json:"rule_id" yaml:"rule_id"`
	Title          string   `json:"title" yaml:"title"`
	Severity       Severity `json:"severity" yaml:"severity"`
	File           string   `json:"file" yaml:"file"`
	Line           int      `json:"line" yaml:"line"`
	Column         int      `json:"column" yaml:"column"`
	Snippet        string   `json:"snippet" yaml:"snippet"`
	Description    string   `json:"description" yaml:"description"`
	Recommendation string   `json:"recommendation" yaml:"recommendation"`
}

// Location renders the finding position as file:line.
func (f Finding) Location() string {
	return fmt.Sprintf("%s:%d", f.File, f.Line)
}
