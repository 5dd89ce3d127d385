package report

import (
	"fmt"
	"strings"

	"sentinelscan/internal/model"

	"github.com/charmbracelet/glamour"
)

// Markdown renders r as a GitHub flavoured markdown document.
func Markdown(r *model.ScanReport) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# Scan %s\n\n", r.ScanID)
	fmt.Fprintf(&sb, "- **Source:** %s\n", r.Source)
	fmt.Fprintf(&sb, "- **Status:** %s\n", r.Status)
	fmt.Fprintf(&sb, "- **Files scanned:** %d\n", r.FilesScanned)
	if !r.CreatedAt.IsZero() {
		fmt.Fprintf(&sb, "- **Created:** %s\n", r.CreatedAt.Format("2006-01-02 15:04:05 MST"))
	}
	sb.WriteString("\n## Summary\n\n")
	sb.WriteString("| Total | High | Medium | Low |\n|---|---|---|---|\n")
	fmt.Fprintf(&sb, "| %d | %d | %d | %d |\n", r.Summary.Total, r.Summary.High, r.Summary.Medium, r.Summary.Low)

	if len(r.Vulnerabilities) == 0 {
		sb.WriteString("\nNo findings.\n")
		return sb.String()
	}

	sb.WriteString("\n## Findings\n")
	for _, sev := range model.Severities {
		var group []model.Finding
		for _, f := range r.Vulnerabilities {
			if f.Severity == sev {
				group = append(group, f)
			}
		}
		if len(group) == 0 {
			continue
		}
		fmt.Fprintf(&sb, "\n### %s (%d)\n", sev, len(group))
		for _, f := range group {
			fmt.Fprintf(&sb, "\n#### %s\n\n", f.Title)
			fmt.Fprintf(&sb, "`%s` · %s\n\n", f.Location(), f.RuleID)
			if f.Snippet != "" {
				fmt.Fprintf(&sb, "```\n%s\n```\n\n", f.Snippet)
			}
			if f.Description != "" {
				fmt.Fprintf(&sb, "%s\n\n", f.Description)
			}
			if f.Recommendation != "" {
				fmt.Fprintf(&sb, "**Recommendation:** %s\n", f.Recommendation)
			}
		}
	}
	return sb.String()
}

// RenderMarkdown formats markdown for a terminal of the given width.
func RenderMarkdown(md string, width int) (string, error) {
	if width <= 0 {
		width = 80
	}
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return "", err
	}
	return renderer.Render(md)
}
