package detect

import "sentinelscan/internal/model"

// Engine runs the fixed detector registry over single files.
type Engine struct {
	detectors []Detector
}

// NewEngine returns an engine with the four rule families in their fixed
// order: SQL injection, secrets, XSS, unsafe functions.
func NewEngine() *Engine {
	return &Engine{detectors: []Detector{
		NewSQLInjectionDetector(),
		NewSecretsDetector(),
		NewXSSDetector(),
		NewUnsafeFunctionsDetector(),
	}}
}

// Detectors returns the registry in run order.
func (e *Engine) Detectors() []Detector {
	return append([]Detector(nil), e.detectors...)
}

// Detect returns every finding for one file. It has no side effects: equal
// inputs produce equal, identically ordered results.
func (e *Engine) Detect(path, content string) []model.Finding {
	return e.DetectSource(NewSource(path, content))
}

// DetectSource is Detect for an already prepared Source.
func (e *Engine) DetectSource(src *Source) []model.Finding {
	var findings []model.Finding
	for _, d := range e.detectors {
		findings = append(findings, d.Detect(src)...)
	}
	return findings
}

// RuleInfo describes one Pattern Library entry for listings.
type RuleInfo struct {
	Family   string         `json:"family" yaml:"family"`
	RuleID   string         `json:"rule_id" yaml:"rule_id"`
	Title    string         `json:"title" yaml:"title"`
	Severity model.Severity `json:"severity" yaml:"severity"`
	Pattern  string         `json:"pattern" yaml:"pattern"`
}

// Catalog lists the line rules of every detector in run order.
func (e *Engine) Catalog() []RuleInfo {
	var out []RuleInfo
	for _, d := range e.detectors {
		for _, r := range d.LineRules() {
			out = append(out, RuleInfo{
				Family:   d.Kind().String(),
				RuleID:   d.RuleID(),
				Title:    r.Title,
				Severity: r.Severity,
				Pattern:  r.Pattern.String(),
			})
		}
	}
	return out
}
