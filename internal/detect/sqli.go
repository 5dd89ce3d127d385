package detect

import (
	"regexp"
	"strings"

	"sentinelscan/internal/model"
	"sentinelscan/internal/pyast"
)

var sqlRules = []LineRule{
	{
		Pattern:  regexp.MustCompile(`(?i)(?:execute|query|cursor\.execute|\.raw|\.extra)\s*\(\s*(?:f['"]|['"].*%s|['"].*\+|.*\.format\()`),
		Title:    "Potential SQL Injection",
		Severity: model.SeverityHigh,
	},
	{
		Pattern:  regexp.MustCompile(`(?i)(?:SELECT|INSERT|UPDATE|DELETE|DROP)\s+.*(?:\+\s*[\w.]+|\$\{|%s|''\s*\+)`),
		Title:    "Potential SQL Injection",
		Severity: model.SeverityHigh,
	},
}

// query execution methods whose first argument is SQL text
var sqlExecCalls = map[string]bool{
	"execute":       true,
	"executemany":   true,
	"raw":           true,
	"extra":         true,
	"executescript": true,
}

var sqlKeywords = []string{"SELECT ", "INSERT ", "UPDATE ", "DELETE ", "DROP "}

const (
	sqlStructuralDescription = "User-controlled data appears to be concatenated or interpolated directly into a SQL query string."
	sqlStructuralAdvice      = "Use parameterized queries or an ORM's built-in escaping instead of string formatting for SQL statements."
)

// SQLInjectionDetector reports SQL text assembled from untrusted pieces.
type SQLInjectionDetector struct {
	family
}

func NewSQLInjectionDetector() *SQLInjectionDetector {
	return &SQLInjectionDetector{family{
		kind:           KindSQLInjection,
		ruleID:         model.RuleSQLInjection,
		rules:          sqlRules,
		description:    "SQL query appears to use string concatenation or interpolation.",
		recommendation: "Use parameterized queries instead of string formatting.",
	}}
}

func (d *SQLInjectionDetector) Detect(src *Source) []model.Finding {
	return d.run(src, d.visit)
}

func (d *SQLInjectionDetector) visit(n *pyast.Node, c *collector) {
	callee, ok := pyast.CalleeOf(n)
	if !ok || !sqlExecCalls[callee.Name] {
		return
	}
	arg := pyast.FirstArg(n)
	if arg == nil {
		return
	}
	if lit, ok := pyast.StringLiteral(arg); ok {
		if lit.Interpolated {
			c.node(n, "Potential SQL Injection", model.SeverityHigh, sqlStructuralDescription, sqlStructuralAdvice)
		}
		return
	}
	op, left, _, ok := pyast.BinaryOp(arg)
	if !ok || (op != "%" && op != "+") {
		return
	}
	if isSQLKeywordString(left) {
		c.node(n, "Potential SQL Injection", model.SeverityHigh, sqlStructuralDescription, sqlStructuralAdvice)
	}
}

func isSQLKeywordString(n *pyast.Node) bool {
	lit, ok := pyast.StringLiteral(n)
	if !ok || !lit.Constant() {
		return false
	}
	upper := strings.ToUpper(lit.Value)
	for _, kw := range sqlKeywords {
		if strings.Contains(upper, kw) {
			return true
		}
	}
	return false
}
