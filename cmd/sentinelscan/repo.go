package main

import (
	"errors"
	"net/http"

	"sentinelscan/internal/config"
	"sentinelscan/internal/scan"

	"github.com/spf13/cobra"
)

var (
	repoOutput outputFlags
	repoFail   bool
)

// httpClient used for archive downloads, nil means the fetcher default
var repoHTTPClient *http.Client

var repoCmd = &cobra.Command{
	Use:   "repo <url>",
	Short: "Scan a public GitHub repository",
	Long: `Downloads the repository archive (main branch, falling back to master),
extracts it in memory and scans it. No git installation is needed.`,
	Args: cobra.ExactArgs(1),
	RunE: runRepo,
}

func init() {
	rootCmd.AddCommand(repoCmd)
	repoOutput.register(repoCmd)
	repoCmd.Flags().BoolVar(&repoFail, "fail", false, "Exit with error code if findings are detected")
}

func runRepo(cmd *cobra.Command, args []string) error {
	a, err := newApp(nil, 0)
	if err != nil {
		return err
	}
	defer a.Close()

	fetcher := scan.NewRepoFetcher(config.Repo(), a.filter, repoHTTPClient)
	r, err := a.aggregator.ScanRepository(commandContext(cmd), fetcher, args[0])
	if err != nil {
		return err
	}
	if r.Failed() {
		return errors.New("could not fetch repository, ensure the URL is a valid public GitHub repo")
	}

	if err := repoOutput.writeReport(cmd.OutOrStdout(), r); err != nil {
		return err
	}
	if repoFail && r.Summary.Total > 0 {
		return errors.New("security scan found issues")
	}
	return nil
}
