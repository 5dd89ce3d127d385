package main

import (
	"fmt"
	"text/tabwriter"

	"sentinelscan/internal/detect"
	"sentinelscan/internal/report"

	"github.com/spf13/cobra"
)

var rulesFormat string

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "List the line rules of every detector",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		catalog := detect.NewEngine().Catalog()

		format, err := report.ParseFormat(rulesFormat)
		if err != nil {
			return err
		}
		switch format {
		case report.FormatJSON:
			return report.WriteJSON(cmd.OutOrStdout(), catalog)
		case report.FormatYAML:
			return report.WriteYAML(cmd.OutOrStdout(), catalog)
		case report.FormatMarkdown:
			return fmt.Errorf("format %s is not supported for rules", format)
		}

		color := report.IsTerminal(cmd.OutOrStdout())
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "FAMILY\tRULE\tTITLE\tSEVERITY")
		for _, r := range catalog {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", r.Family, r.RuleID, r.Title, report.Severity(r.Severity, color))
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(rulesCmd)
	rulesCmd.Flags().StringVarP(&rulesFormat, "format", "f", "table", "Output format: table, json or yaml")
}
