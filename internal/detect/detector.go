// Package detect implements the vulnerability detection engine: four rule
// families, each combining a structural pass over Python syntax trees with a
// language-agnostic line pattern pass.
package detect

import (
	"fmt"
	"regexp"
	"strings"
	"sync"

	"sentinelscan/internal/model"
	"sentinelscan/internal/pyast"
)

// Kind identifies a rule family.
type Kind int

const (
	KindSQLInjection Kind = iota
	KindSecrets
	KindXSS
	KindUnsafeFunctions
)

func (k Kind) String() string {
	switch k {
	case KindSQLInjection:
		return "sql-injection"
	case KindSecrets:
		return "secrets"
	case KindXSS:
		return "xss"
	case KindUnsafeFunctions:
		return "unsafe-functions"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Detector scans one file for a single rule family.
type Detector interface {
	Kind() Kind
	RuleID() string
	LineRules() []LineRule
	Detect(src *Source) []model.Finding
}

// LineRule is one Pattern Library entry. Description and Recommendation
// override the family defaults when set.
type LineRule struct {
	Pattern        *regexp.Regexp
	Title          string
	Severity       model.Severity
	Description    string
	Recommendation string
}

// Source is a file prepared for detection. Line endings are normalised to
// LF; the Python syntax tree is built at most once and shared by detectors.
type Source struct {
	Path  string
	Text  string
	Lines []string

	once    sync.Once
	outcome pyast.Outcome
}

// NewSource prepares content found at path (relative to the scan root).
// A leading byte order mark is dropped.
func NewSource(path, content string) *Source {
	text := strings.TrimPrefix(content, "\ufeff")
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	lines := strings.Split(text, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return &Source{Path: path, Text: text, Lines: lines}
}

// Python reports whether the structural pass applies to this file.
func (s *Source) Python() bool {
	return strings.HasSuffix(s.Path, ".py")
}

// Syntax parses the file as Python on first use.
func (s *Source) Syntax() pyast.Outcome {
	s.once.Do(func() {
		s.outcome = pyast.Parse([]byte(s.Text))
	})
	return s.outcome
}

// StructuralFallback returns the parse failure reason when a Python file
// could only be scanned line by line.
func (s *Source) StructuralFallback() (string, bool) {
	if !s.Python() {
		return "", false
	}
	if failed, ok := s.Syntax().(pyast.Failed); ok {
		return failed.Reason, true
	}
	return "", false
}

func (s *Source) snippet(line int) string {
	if line < 1 || line > len(s.Lines) {
		return ""
	}
	return strings.TrimSpace(s.Lines[line-1])
}

// family is the scaffolding shared by the four detectors.
type family struct {
	kind           Kind
	ruleID         string
	rules          []LineRule
	description    string
	recommendation string
	skipLine       func(trimmed string) bool
}

func (f *family) Kind() Kind            { return f.kind }
func (f *family) RuleID() string        { return f.ruleID }
func (f *family) LineRules() []LineRule { return append([]LineRule(nil), f.rules...) }

// collector accumulates findings of one family for one file and keeps at
// most one finding per line.
type collector struct {
	f        *family
	src      *Source
	seen     map[int]bool
	findings []model.Finding
}

func (c *collector) has(line int) bool { return c.seen[line] }

func (c *collector) add(fd model.Finding) {
	if fd.Line < 1 || fd.Line > len(c.src.Lines) || c.seen[fd.Line] {
		return
	}
	c.seen[fd.Line] = true
	fd.RuleID = c.f.ruleID
	fd.File = c.src.Path
	fd.Snippet = c.src.snippet(fd.Line)
	c.findings = append(c.findings, fd)
}

// node records a structural finding at the exact node position.
func (c *collector) node(n *pyast.Node, title string, sev model.Severity, desc, rec string) {
	c.add(model.Finding{
		Title:          title,
		Severity:       sev,
		Line:           n.Line,
		Column:         n.Column,
		Description:    desc,
		Recommendation: rec,
	})
}

// run executes the structural pass (Python files that parse) and then the
// line pass, which skips lines that already have a finding.
func (f *family) run(src *Source, visit func(n *pyast.Node, c *collector)) []model.Finding {
	c := &collector{f: f, src: src, seen: make(map[int]bool)}

	if visit != nil && src.Python() {
		switch out := src.Syntax().(type) {
		case pyast.Parsed:
			pyast.Walk(out.Root, func(n *pyast.Node) bool {
				visit(n, c)
				return true
			})
		case pyast.Failed:
			// line pass only
		}
	}

	for i, line := range src.Lines {
		lineno := i + 1
		if f.skipLine != nil && f.skipLine(strings.TrimSpace(line)) {
			continue
		}
		for _, rule := range f.rules {
			if c.has(lineno) {
				break
			}
			if !rule.Pattern.MatchString(line) {
				continue
			}
			desc, rec := rule.Description, rule.Recommendation
			if desc == "" {
				desc = f.description
			}
			if rec == "" {
				rec = f.recommendation
			}
			c.add(model.Finding{
				Title:          rule.Title,
				Severity:       rule.Severity,
				Line:           lineno,
				Description:    desc,
				Recommendation: rec,
			})
		}
	}
	return c.findings
}
