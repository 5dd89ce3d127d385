package detect

import (
	"fmt"
	"regexp"

	"sentinelscan/internal/model"
	"sentinelscan/internal/pyast"
)

const (
	xssTitle  = "Potential Cross-Site Scripting (XSS)"
	xssAdvice = "Escape user input before rendering in HTML."
)

// The template-injection entry is last: generic sinks on the same line win.
var xssRules = []LineRule{
	{Pattern: regexp.MustCompile(`(?i)innerHTML\s*=`), Title: xssTitle, Severity: model.SeverityMedium},
	{Pattern: regexp.MustCompile(`(?i)document\.write\s*\(`), Title: xssTitle, Severity: model.SeverityMedium},
	{Pattern: regexp.MustCompile(`(?i)\.html\s*\(`), Title: xssTitle, Severity: model.SeverityMedium},
	{Pattern: regexp.MustCompile(`(?i)dangerouslySetInnerHTML`), Title: xssTitle, Severity: model.SeverityMedium},
	{Pattern: regexp.MustCompile(`(?i)v-html\s*=`), Title: xssTitle, Severity: model.SeverityMedium},
	{Pattern: regexp.MustCompile(`\|\s*safe\b`), Title: xssTitle, Severity: model.SeverityMedium},
	{Pattern: regexp.MustCompile(`<%[-=]?\s*.*%>`), Title: xssTitle, Severity: model.SeverityMedium},
	{Pattern: regexp.MustCompile(`(?i)eval\s*\(\s*(?:request|params|query)`), Title: xssTitle, Severity: model.SeverityMedium},
	{
		Pattern:        regexp.MustCompile(`(?i)(?:render_template_string|Markup)\s*\(.*(?:\+|%|\.format|f['"])`),
		Title:          "Server-Side Template Injection / XSS",
		Severity:       model.SeverityHigh,
		Description:    "Dynamic content is interpolated into a template without escaping.",
		Recommendation: "Avoid passing user data to Markup() or render_template_string().",
	},
}

// helpers that emit their argument as trusted HTML
var xssSinks = map[string]bool{
	"Markup":                 true,
	"render_template_string": true,
	"mark_safe":              true,
}

// XSSDetector reports unescaped data reaching HTML output.
type XSSDetector struct {
	family
}

func NewXSSDetector() *XSSDetector {
	return &XSSDetector{family{
		kind:           KindXSS,
		ruleID:         model.RuleXSS,
		rules:          xssRules,
		description:    "This code may render unsanitized user input as HTML, enabling XSS attacks.",
		recommendation: xssAdvice,
	}}
}

func (d *XSSDetector) Detect(src *Source) []model.Finding {
	return d.run(src, d.visit)
}

func (d *XSSDetector) visit(n *pyast.Node, c *collector) {
	callee, ok := pyast.CalleeOf(n)
	if !ok || !xssSinks[callee.Name] {
		return
	}
	arg := pyast.FirstArg(n)
	if arg == nil {
		return
	}
	dynamic := arg.Kind == pyast.KindBinaryOperator
	if lit, ok := pyast.StringLiteral(arg); ok && lit.Interpolated {
		dynamic = true
	}
	if !dynamic {
		return
	}
	c.node(n, xssTitle, model.SeverityHigh,
		fmt.Sprintf("User data may be injected into HTML via %s().", callee.Name),
		"Sanitize and escape all user-controlled data before rendering it in HTML. Use framework-provided auto-escaping.")
}
