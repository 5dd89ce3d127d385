package config

import (
	"fmt"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// DefaultExtensions is the allow-list of file extensions worth scanning.
var DefaultExtensions = []string{
	".py", ".js", ".ts", ".jsx", ".tsx", ".html", ".htm", ".php", ".rb", ".java",
	".go", ".rs", ".c", ".cpp", ".cs", ".yml", ".yaml", ".json", ".xml", ".env",
	".cfg", ".ini", ".toml", ".sh", ".bash", ".sql",
}

// DefaultExcludeDirs are skipped in addition to any hidden directory.
var DefaultExcludeDirs = []string{"node_modules", "__pycache__", "venv", ".git"}

// Load initializes the configuration from file and environment variables.
// A missing config file is not an error; a malformed one is.
func Load(cfgFile string) error {
	// .env is optional
	_ = godotenv.Load()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName("sentinelscan")
	}

	viper.SetEnvPrefix("SENTINEL")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	SetDefaults()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok && cfgFile == "" {
			return nil
		}
		return fmt.Errorf("failed to read config: %w", err)
	}
	fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	return nil
}

// SetDefaults registers every default value.
func SetDefaults() {
	viper.SetDefault("verbose", false)
	viper.SetDefault("log_file", "")

	viper.SetDefault("server.addr", "127.0.0.1:8000")
	viper.SetDefault("server.cors_origins", []string{"http://localhost:3000", "http://localhost:5173"})
	viper.SetDefault("server.max_upload_bytes", 50<<20)

	viper.SetDefault("scan.workers", runtime.NumCPU())
	viper.SetDefault("scan.max_file_size", 1_000_000)
	viper.SetDefault("scan.extensions", DefaultExtensions)
	viper.SetDefault("scan.exclude_dirs", DefaultExcludeDirs)

	viper.SetDefault("repo.timeout", 60*time.Second)
	viper.SetDefault("repo.max_archive_bytes", 200<<20)
	viper.SetDefault("repo.branches", []string{"main", "master"})

	viper.SetDefault("store.type", "memory")
	viper.SetDefault("store.dsn", "")

	slackEnabled := os.Getenv("SLACK_BOT_USER_TOKEN") != ""
	viper.SetDefault("notifications.slack.enabled", slackEnabled)
	viper.SetDefault("notifications.slack.channel", "#security")
	viper.SetDefault("notifications.slack.webhook_url", "")
	viper.SetDefault("notifications.discord.webhook_url", "")
	viper.SetDefault("notifications.min_severity", "High")
}

// ScanSettings control file selection and the worker pool.
type ScanSettings struct {
	Workers     int
	MaxFileSize int64
	Extensions  []string
	ExcludeDirs []string
}

// RepoSettings control repository archive downloads.
type RepoSettings struct {
	Timeout         time.Duration
	MaxArchiveBytes int64
	Branches        []string
}

// ServerSettings control the HTTP API.
type ServerSettings struct {
	Addr           string
	CORSOrigins    []string
	MaxUploadBytes int64
}

// StoreSettings select the report store backend.
type StoreSettings struct {
	Type string
	DSN  string
}

func Scan() ScanSettings {
	return ScanSettings{
		Workers:     viper.GetInt("scan.workers"),
		MaxFileSize: viper.GetInt64("scan.max_file_size"),
		Extensions:  viper.GetStringSlice("scan.extensions"),
		ExcludeDirs: viper.GetStringSlice("scan.exclude_dirs"),
	}
}

func Repo() RepoSettings {
	return RepoSettings{
		Timeout:         durationOrSeconds("repo.timeout"),
		MaxArchiveBytes: viper.GetInt64("repo.max_archive_bytes"),
		Branches:        viper.GetStringSlice("repo.branches"),
	}
}

func Server() ServerSettings {
	return ServerSettings{
		Addr:           viper.GetString("server.addr"),
		CORSOrigins:    viper.GetStringSlice("server.cors_origins"),
		MaxUploadBytes: viper.GetInt64("server.max_upload_bytes"),
	}
}

func Store() StoreSettings {
	return StoreSettings{
		Type: viper.GetString("store.type"),
		DSN:  viper.GetString("store.dsn"),
	}
}

// durationOrSeconds accepts "90s" style durations or a bare number of seconds.
func durationOrSeconds(key string) time.Duration {
	if d := viper.GetDuration(key); d != 0 {
		if d < time.Microsecond {
			return time.Duration(viper.GetInt64(key)) * time.Second
		}
		return d
	}
	return time.Duration(viper.GetInt64(key)) * time.Second
}
