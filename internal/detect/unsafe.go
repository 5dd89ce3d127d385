package detect

import (
	"fmt"
	"regexp"

	"sentinelscan/internal/model"
	"sentinelscan/internal/pyast"
)

var unsafeRules = []LineRule{
	{
		Pattern:     regexp.MustCompile(`\beval\s*\(`),
		Title:       "Use of eval()",
		Severity:    model.SeverityHigh,
		Description: "eval() executes arbitrary code and should be avoided.",
	},
	{
		Pattern:     regexp.MustCompile(`\bexec\s*\(`),
		Title:       "Use of exec()",
		Severity:    model.SeverityHigh,
		Description: "exec() executes arbitrary code and should be avoided.",
	},
	{
		Pattern:     regexp.MustCompile(`\b(?:os\.system|subprocess\.call|subprocess\.Popen)\s*\(`),
		Title:       "Shell command execution",
		Severity:    model.SeverityMedium,
		Description: "Calling shell commands can lead to command injection if inputs are not validated.",
	},
	{
		Pattern:     regexp.MustCompile(`pickle\.loads?\s*\(`),
		Title:       "Unsafe deserialization (pickle)",
		Severity:    model.SeverityHigh,
		Description: "pickle.load() can execute arbitrary code during deserialization.",
	},
	{
		Pattern:     regexp.MustCompile(`yaml\.load\s*\([^)]*\)`),
		Title:       "Unsafe YAML loading",
		Severity:    model.SeverityMedium,
		Description: "yaml.load() without SafeLoader can execute arbitrary code.",
	},
	{
		Pattern:     regexp.MustCompile(`marshal\.loads?\s*\(`),
		Title:       "Unsafe deserialization (marshal)",
		Severity:    model.SeverityMedium,
		Description: "marshal.load() is not secure against malicious data.",
	},
	{
		Pattern:     regexp.MustCompile(`__import__\s*\(`),
		Title:       "Dynamic import",
		Severity:    model.SeverityMedium,
		Description: "__import__() with user input can load arbitrary modules.",
	},
	{
		Pattern:     regexp.MustCompile(`compile\s*\([^)]+,\s*['"]exec['"]`),
		Title:       "Dynamic code compilation",
		Severity:    model.SeverityMedium,
		Description: "compile() with exec mode can execute arbitrary code.",
	},
}

type unsafeCall struct {
	title    string
	severity model.Severity
}

var unsafeBuiltins = map[string]unsafeCall{
	"eval":       {"Use of eval()", model.SeverityHigh},
	"exec":       {"Use of exec()", model.SeverityHigh},
	"__import__": {"Dynamic import via __import__()", model.SeverityMedium},
}

// keyed by module + "." + function
var unsafeModuleCalls = map[string]unsafeCall{
	"os.system":        {"os.system() call", model.SeverityMedium},
	"os.popen":         {"os.popen() call", model.SeverityMedium},
	"subprocess.call":  {"subprocess.call()", model.SeverityMedium},
	"subprocess.Popen": {"subprocess.Popen()", model.SeverityMedium},
	"pickle.load":      {"pickle.load() deserialization", model.SeverityHigh},
	"pickle.loads":     {"pickle.loads() deserialization", model.SeverityHigh},
	"yaml.load":        {"yaml.load() without SafeLoader", model.SeverityMedium},
	"marshal.load":     {"marshal.load()", model.SeverityMedium},
	"marshal.loads":    {"marshal.loads()", model.SeverityMedium},
}

const unsafeAdvice = "Replace with a safer alternative or validate all inputs rigorously."

// UnsafeFunctionsDetector reports calls that run code, shell out, or deserialize untrusted data.
type UnsafeFunctionsDetector struct {
	family
}

func NewUnsafeFunctionsDetector() *UnsafeFunctionsDetector {
	return &UnsafeFunctionsDetector{family{
		kind:           KindUnsafeFunctions,
		ruleID:         model.RuleUnsafeFunction,
		rules:          unsafeRules,
		recommendation: "Replace with a safer alternative or validate all inputs.",
	}}
}

func (d *UnsafeFunctionsDetector) Detect(src *Source) []model.Finding {
	return d.run(src, d.visit)
}

func (d *UnsafeFunctionsDetector) visit(n *pyast.Node, c *collector) {
	callee, ok := pyast.CalleeOf(n)
	if !ok {
		return
	}
	if callee.Bare() {
		if call, ok := unsafeBuiltins[callee.Name]; ok {
			c.node(n, call.title, call.severity, fmt.Sprintf("%s() can execute arbitrary code.", callee.Name), unsafeAdvice)
		}
		return
	}
	if callee.Object.Kind != pyast.KindIdentifier {
		return
	}
	qualified := callee.Object.Text() + "." + callee.Name
	if call, ok := unsafeModuleCalls[qualified]; ok {
		c.node(n, call.title, call.severity, fmt.Sprintf("%s() is potentially unsafe.", qualified), unsafeAdvice)
	}
}
