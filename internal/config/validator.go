package config

import (
	"fmt"
	"strings"

	"sentinelscan/internal/model"

	"github.com/spf13/viper"
)

// ValidateConfig validates configuration values and returns an error if any are invalid.
// This function should be called after viper has loaded the configuration.
func ValidateConfig() error {
	var errors []string

	if w := viper.GetInt("scan.workers"); w <= 0 {
		errors = append(errors, fmt.Sprintf("scan.workers must be positive, got: %d", w))
	}
	if size := viper.GetInt64("scan.max_file_size"); size <= 0 {
		errors = append(errors, fmt.Sprintf("scan.max_file_size must be positive, got: %d", size))
	}
	if len(viper.GetStringSlice("scan.extensions")) == 0 {
		errors = append(errors, "scan.extensions must not be empty")
	}
	if timeout := durationOrSeconds("repo.timeout"); timeout <= 0 {
		errors = append(errors, fmt.Sprintf("repo.timeout must be positive, got: %v", timeout))
	}
	if size := viper.GetInt64("repo.max_archive_bytes"); size <= 0 {
		errors = append(errors, fmt.Sprintf("repo.max_archive_bytes must be positive, got: %d", size))
	}
	if len(viper.GetStringSlice("repo.branches")) == 0 {
		errors = append(errors, "repo.branches must not be empty")
	}
	if size := viper.GetInt64("server.max_upload_bytes"); size <= 0 {
		errors = append(errors, fmt.Sprintf("server.max_upload_bytes must be positive, got: %d", size))
	}

	switch strings.ToLower(viper.GetString("store.type")) {
	case "", "memory", "sqlite", "sqlite3":
	case "postgres", "postgresql":
		if viper.GetString("store.dsn") == "" {
			errors = append(errors, "store.dsn is required for postgres")
		}
	default:
		errors = append(errors, fmt.Sprintf("store.type must be memory, sqlite or postgres, got: %s", viper.GetString("store.type")))
	}

	if _, err := model.ParseSeverity(viper.GetString("notifications.min_severity")); err != nil {
		errors = append(errors, fmt.Sprintf("notifications.min_severity: %v", err))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errors, "\n  - "))
	}

	return nil
}
