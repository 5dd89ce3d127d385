package main

import (
	"context"
	"fmt"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"sentinelscan/internal/model"
	"sentinelscan/internal/scan"
	"sentinelscan/internal/telemetry"
	"sentinelscan/internal/ui"

	"github.com/spf13/cobra"
)

var (
	scanOutput      outputFlags
	scanFail        bool
	scanWatch       bool
	scanInteractive bool
	scanWorkers     int
	scanDebounce    time.Duration
)

// factory for creating watcher, allows mocking
var watcherFactory = func() (scan.FileWatcher, error) {
	return scan.NewFSNotifyWatcher()
}

var scanCmd = &cobra.Command{
	Use:   "scan [path]",
	Short: "Scan a file or directory for security vulnerabilities",
	Long: `Scans the given path (default: current directory) recursively. Hidden
directories, dependency folders and files outside the extension allow-list
are skipped.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)
	scanOutput.register(scanCmd)
	scanCmd.Flags().BoolVar(&scanFail, "fail", false, "Exit with error code if findings are detected")
	scanCmd.Flags().BoolVarP(&scanWatch, "watch", "w", false, "Re-scan whenever a scannable file changes")
	scanCmd.Flags().BoolVarP(&scanInteractive, "interactive", "i", false, "Browse findings in a terminal UI")
	scanCmd.Flags().IntVar(&scanWorkers, "workers", 0, "Number of files scanned in parallel (default: scan.workers)")
	scanCmd.Flags().DurationVar(&scanDebounce, "debounce", 500*time.Millisecond, "Quiet period before a watch re-scan")
}

func runScan(cmd *cobra.Command, args []string) error {
	root := "."
	if len(args) > 0 {
		root = args[0]
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return fmt.Errorf("invalid path: %w", err)
	}

	a, err := newApp(nil, scanWorkers)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := commandContext(cmd)
	scanOnce := func() (*model.ScanReport, error) {
		files, err := scan.CollectDir(absRoot, a.filter)
		if err != nil {
			return nil, err
		}
		return a.aggregator.Scan(ctx, absRoot, files)
	}

	r, err := scanOnce()
	if err != nil {
		return err
	}

	if scanWatch {
		if err := scanOutput.writeReport(cmd.OutOrStdout(), r); err != nil {
			return err
		}
		return watchAndRescan(cmd, absRoot, a.filter, func() {
			r, err := scanOnce()
			if err != nil {
				telemetry.LogError("Re-scan failed", err, "path", absRoot)
				return
			}
			fmt.Fprintf(cmd.OutOrStdout(), "\n--- %s ---\n", time.Now().Format("15:04:05"))
			if err := scanOutput.writeReport(cmd.OutOrStdout(), r); err != nil {
				telemetry.LogError("Failed to print report", err)
			}
		})
	}

	if scanInteractive {
		if err := ui.StartBrowser(r); err != nil {
			return err
		}
	} else if err := scanOutput.writeReport(cmd.OutOrStdout(), r); err != nil {
		return err
	}

	if scanFail && r.Summary.Total > 0 {
		return fmt.Errorf("security scan failed with %d findings", r.Summary.Total)
	}
	return nil
}

func watchAndRescan(cmd *cobra.Command, root string, filter *scan.Filter, rescan func()) error {
	fw, err := watcherFactory()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}

	ctx, stop := signal.NotifyContext(commandContext(cmd), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fmt.Fprintf(cmd.ErrOrStderr(), "Watching %s for changes...\n", root)
	w := scan.NewWatcher(root, filter, fw, scanDebounce)
	if err := w.Run(ctx, func(_ context.Context) { rescan() }); err != nil {
		return fmt.Errorf("failed to watch path: %w", err)
	}
	return nil
}
