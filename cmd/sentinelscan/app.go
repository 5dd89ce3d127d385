package main

import (
	"fmt"
	"io"

	"sentinelscan/internal/config"
	"sentinelscan/internal/metrics"
	"sentinelscan/internal/model"
	"sentinelscan/internal/notify"
	"sentinelscan/internal/report"
	"sentinelscan/internal/scan"
	"sentinelscan/internal/store"

	"github.com/spf13/cobra"
)

// factory for opening the report store, allows mocking
var openStore = store.NewStore

// app wires the store, aggregator and notifications shared by every command.
type app struct {
	store      store.Store
	aggregator *scan.Aggregator
	filter     *scan.Filter
}

func newApp(m *metrics.Metrics, workers int) (*app, error) {
	ss := config.Store()
	st, err := openStore(store.StoreConfig{Type: ss.Type, ConnectionString: ss.DSN})
	if err != nil {
		return nil, fmt.Errorf("failed to open report store: %w", err)
	}

	settings := config.Scan()
	if workers <= 0 {
		workers = settings.Workers
	}
	opts := []scan.Option{scan.WithWorkers(workers)}
	if m != nil {
		opts = append(opts, scan.WithMetrics(m))
	}
	if n := notify.NewManager(notify.ConfigFromViper()); n.Enabled() {
		opts = append(opts, scan.WithNotifier(n))
	}

	return &app{
		store:      st,
		aggregator: scan.NewAggregator(st, opts...),
		filter:     scan.NewFilter(settings),
	}, nil
}

func (a *app) Close() error {
	return a.store.Close()
}

// outputFlags are shared by every command that prints a report.
type outputFlags struct {
	format string
}

func (o *outputFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&o.format, "format", "f", "table", "Output format: table, json, yaml or markdown")
}

func (o *outputFlags) writeReport(w io.Writer, r *model.ScanReport) error {
	format, err := report.ParseFormat(o.format)
	if err != nil {
		return err
	}
	return report.Write(w, r, format, report.Options{Color: report.IsTerminal(w)})
}
