package main

import (
	"context"
	"fmt"
	"os"

	"sentinelscan/internal/config"
	"sentinelscan/internal/telemetry"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var exit = os.Exit
var cfgFile string

// closes the log file opened by initConfig
var closeLog = func() error { return nil }

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "sentinelscan",
	Short: "Scan source code for security vulnerabilities",
	Long: `SentinelScan detects SQL injection, hardcoded secrets, cross-site scripting
and unsafe function calls in source trees, uploads and public repositories.
Python files are analysed structurally; every other file type is matched
line by line against the rule catalog.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "\n=== CRITICAL ERROR: Command Execution Panic ===\n")
			fmt.Fprintf(os.Stderr, "Error: %v\n", r)
			exit(1)
		}
	}()

	err := rootCmd.Execute()
	closeLog()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./sentinelscan.yaml)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose/debug logging")
	rootCmd.PersistentFlags().String("log-file", "", "Also write logs to this file")
	rootCmd.PersistentFlags().String("store", "", "Report store: memory, sqlite or postgres")
	rootCmd.PersistentFlags().String("store-dsn", "", "SQLite path or Postgres DSN for the report store")
}

var persistentBindings = map[string]string{
	"verbose":    "verbose",
	"log_file":   "log-file",
	"store.type": "store",
	"store.dsn":  "store-dsn",
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if err := config.Load(cfgFile); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		exit(1)
		return
	}

	for key, flag := range persistentBindings {
		if f := rootCmd.PersistentFlags().Lookup(flag); f != nil && f.Changed {
			viper.Set(key, f.Value.String())
		}
	}

	// Validate configuration values
	if err := config.ValidateConfig(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		exit(1)
		return
	}

	closeLog = telemetry.InitLogger(viper.GetBool("verbose"), viper.GetString("log_file"), os.Stderr)
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
