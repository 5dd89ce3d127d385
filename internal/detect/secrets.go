package detect

import (
	"fmt"
	"regexp"
	"strings"

	"sentinelscan/internal/model"
	"sentinelscan/internal/pyast"
)

// Keyword entries are case-insensitive; fixed credential formats are not.
var secretRules = []LineRule{
	{
		Pattern:  regexp.MustCompile(`(?i)(?:password|passwd|pwd)\s*[=:]\s*['"][^'"]{4,}['"]`),
		Title:    "Hardcoded password",
		Severity: model.SeverityHigh,
	},
	{
		Pattern:  regexp.MustCompile(`(?i)(?:api[_-]?key|apikey|access[_-]?key)\s*[=:]\s*['"][^'"]{8,}['"]`),
		Title:    "Hardcoded API key",
		Severity: model.SeverityHigh,
	},
	{
		Pattern:  regexp.MustCompile(`(?i)(?:secret|token|auth[_-]?token)\s*[=:]\s*['"][^'"]{8,}['"]`),
		Title:    "Hardcoded secret or token",
		Severity: model.SeverityHigh,
	},
	{
		Pattern:  regexp.MustCompile(`(?i)(?:aws_access_key_id|aws_secret_access_key)\s*[=:]\s*['"][^'"]+['"]`),
		Title:    "Hardcoded AWS credential",
		Severity: model.SeverityHigh,
	},
	{
		Pattern:  regexp.MustCompile(`AKIA[0-9A-Z]{16}`),
		Title:    "AWS Access Key ID",
		Severity: model.SeverityHigh,
	},
	{
		Pattern:  regexp.MustCompile(`-----BEGIN (?:RSA |DSA |EC )?PRIVATE KEY-----`),
		Title:    "Embedded private key",
		Severity: model.SeverityHigh,
	},
	{
		Pattern:  regexp.MustCompile(`(?:ghp|gho|ghu|ghs|ghr)_[A-Za-z0-9_]{36,}`),
		Title:    "GitHub personal access token",
		Severity: model.SeverityHigh,
	},
}

var secretNames = map[string]bool{
	"password":    true,
	"passwd":      true,
	"pwd":         true,
	"secret":      true,
	"token":       true,
	"api_key":     true,
	"apikey":      true,
	"access_key":  true,
	"auth_token":  true,
	"private_key": true,
	"secret_key":  true,
}

const secretDescription = "A secret value appears to be hardcoded in the source code."

// SecretsDetector reports credentials committed to source.
type SecretsDetector struct {
	family
}

func NewSecretsDetector() *SecretsDetector {
	return &SecretsDetector{family{
		kind:           KindSecrets,
		ruleID:         model.RuleHardcodedSecret,
		rules:          secretRules,
		description:    secretDescription,
		recommendation: "Move secrets to environment variables or a secrets manager.",
		skipLine:       isDocumentationComment,
	}}
}

func (d *SecretsDetector) Detect(src *Source) []model.Finding {
	return d.run(src, d.visit)
}

func (d *SecretsDetector) visit(n *pyast.Node, c *collector) {
	assign, ok := pyast.AssignmentOf(n)
	if !ok {
		return
	}
	lit, ok := pyast.StringLiteral(assign.Value)
	if !ok || !lit.Constant() || lit.Len() < 4 {
		return
	}
	for _, target := range assign.Targets {
		name := pyast.TargetName(target)
		if !secretNames[strings.ToLower(name)] {
			continue
		}
		c.node(n, fmt.Sprintf("Hardcoded secret in '%s'", name), model.SeverityHigh, secretDescription,
			"Move secrets to environment variables or a dedicated secrets manager. Never commit credentials to source control.")
	}
}

// isDocumentationComment matches comment lines that mention "example".
func isDocumentationComment(trimmed string) bool {
	if !strings.HasPrefix(trimmed, "#") && !strings.HasPrefix(trimmed, "//") {
		return false
	}
	return strings.Contains(strings.ToLower(trimmed), "example")
}
