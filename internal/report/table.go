package report

import (
	"fmt"
	"io"
	"text/tabwriter"

	"sentinelscan/internal/model"

	"github.com/charmbracelet/lipgloss"
)

var (
	severityStyles = map[model.Severity]lipgloss.Style{
		model.SeverityHigh:   lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true), // Red
		model.SeverityMedium: lipgloss.NewStyle().Foreground(lipgloss.Color("214")),            // Orange
		model.SeverityLow:    lipgloss.NewStyle().Foreground(lipgloss.Color("39")),             // Blue
	}
	headingStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
)

// Severity renders a severity label, coloured when color is set.
func Severity(s model.Severity, color bool) string {
	if !color {
		return string(s)
	}
	if style, ok := severityStyles[s]; ok {
		return style.Render(string(s))
	}
	return string(s)
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}

// WriteTable prints a summary line followed by one row per finding.
func WriteTable(w io.Writer, r *model.ScanReport, color bool) error {
	heading := fmt.Sprintf("Scan %s (%s)", r.ScanID, r.Source)
	if color {
		heading = headingStyle.Render(heading)
	}
	fmt.Fprintln(w, heading)

	if r.Failed() {
		fmt.Fprintln(w, "Status: error. The source could not be scanned.")
		return nil
	}

	s := r.Summary
	fmt.Fprintf(w, "Files scanned: %d  Findings: %d (High: %d, Medium: %d, Low: %d)\n",
		r.FilesScanned, s.Total, s.High, s.Medium, s.Low)

	if len(r.Vulnerabilities) == 0 {
		fmt.Fprintln(w, "No security issues found. Great job!")
		return nil
	}
	fmt.Fprintln(w)

	// Severity stays last: colour escapes would skew tabwriter's column widths.
	tw := tabwriter.NewWriter(w, 0, 0, 3, ' ', 0)
	fmt.Fprintln(tw, "LOCATION\tRULE\tTITLE\tSEVERITY")
	for _, f := range r.Vulnerabilities {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", f.Location(), f.RuleID, truncate(f.Title, 60), Severity(f.Severity, color))
	}
	return tw.Flush()
}

// WriteList prints one row per stored report.
func WriteList(w io.Writer, reports []*model.ScanReport) error {
	if len(reports) == 0 {
		fmt.Fprintln(w, "No reports stored.")
		return nil
	}
	tw := tabwriter.NewWriter(w, 0, 0, 3, ' ', 0)
	fmt.Fprintln(tw, "SCAN ID\tSTATUS\tSOURCE\tFILES\tTOTAL\tHIGH\tMEDIUM\tLOW\tCREATED")
	for _, r := range reports {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%d\t%d\t%d\t%s\n",
			r.ScanID, r.Status, truncate(r.Source, 50), r.FilesScanned,
			r.Summary.Total, r.Summary.High, r.Summary.Medium, r.Summary.Low,
			r.CreatedAt.Format("2006-01-02 15:04:05"))
	}
	return tw.Flush()
}
