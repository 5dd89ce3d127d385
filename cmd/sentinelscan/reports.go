package main

import (
	"errors"
	"fmt"

	"sentinelscan/internal/report"
	"sentinelscan/internal/store"

	"github.com/spf13/cobra"
)

var (
	reportsListFormat string
	reportsShowOutput outputFlags
)

var reportsCmd = &cobra.Command{
	Use:   "reports",
	Short: "Inspect stored scan reports",
	Long:  `Reports outlive the process only with a durable store (store.type sqlite or postgres).`,
}

var reportsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored scan reports",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(nil, 0)
		if err != nil {
			return err
		}
		defer a.Close()

		reports, err := a.store.List(commandContext(cmd))
		if err != nil {
			return err
		}

		format, err := report.ParseFormat(reportsListFormat)
		if err != nil {
			return err
		}
		switch format {
		case report.FormatJSON:
			return report.WriteJSON(cmd.OutOrStdout(), reports)
		case report.FormatYAML:
			return report.WriteYAML(cmd.OutOrStdout(), reports)
		case report.FormatTable:
			return report.WriteList(cmd.OutOrStdout(), reports)
		}
		return fmt.Errorf("format %s is not supported for report lists", format)
	},
}

var reportsShowCmd = &cobra.Command{
	Use:   "show <scan-id>",
	Short: "Show one scan report",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(nil, 0)
		if err != nil {
			return err
		}
		defer a.Close()

		r, err := a.store.Get(commandContext(cmd), args[0])
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("report %s not found", args[0])
		}
		if err != nil {
			return err
		}
		return reportsShowOutput.writeReport(cmd.OutOrStdout(), r)
	},
}

func init() {
	rootCmd.AddCommand(reportsCmd)
	reportsCmd.AddCommand(reportsListCmd)
	reportsCmd.AddCommand(reportsShowCmd)
	reportsListCmd.Flags().StringVarP(&reportsListFormat, "format", "f", "table", "Output format: table, json or yaml")
	reportsShowOutput.register(reportsShowCmd)
}
