package main

import (
	"os/signal"
	"syscall"

	"sentinelscan/internal/config"
	"sentinelscan/internal/metrics"
	"sentinelscan/internal/scan"
	"sentinelscan/internal/web"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the scan HTTP API",
	Long: `Serves the scan API:

  POST /api/scan/upload      multipart form, field "files"
  POST /api/scan/repo        {"repo_url": "https://github.com/owner/repo"}
  GET  /api/reports          all stored reports
  GET  /api/reports/{id}     one report
  GET  /api/health           liveness
  GET  /metrics              Prometheus metrics`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default: server.addr)")
}

// factory for starting the server, allows mocking
var startServer = func(cmd *cobra.Command, s *web.Server) error {
	ctx, stop := signal.NotifyContext(commandContext(cmd), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return s.Start(ctx)
}

func runServe(cmd *cobra.Command, args []string) error {
	if serveAddr != "" {
		viper.Set("server.addr", serveAddr)
	}

	m := metrics.NewMetrics(nil)
	a, err := newApp(m, 0)
	if err != nil {
		return err
	}
	defer a.Close()

	fetcher := scan.NewRepoFetcher(config.Repo(), a.filter, nil)
	s := web.NewServer(a.aggregator, a.store, fetcher, a.filter, m, config.Server())
	cmd.Printf("Starting SentinelScan API at http://%s\n", config.Server().Addr)
	return startServer(cmd, s)
}
