// Package store keeps scan reports. Reports are written once and read by id.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"sentinelscan/internal/model"
)

var (
	// ErrNotFound is returned by Get for unknown scan ids.
	ErrNotFound = errors.New("report not found")
	// ErrDuplicate is returned by Put when the scan id is already stored.
	ErrDuplicate = errors.New("report already stored")
)

// Store holds scan reports keyed by scan id.
type Store interface {
	Put(ctx context.Context, report *model.ScanReport) error
	Get(ctx context.Context, id string) (*model.ScanReport, error)
	List(ctx context.Context) ([]*model.ScanReport, error)
	Close() error
}

// StoreConfig holds configuration for the storage backend
type StoreConfig struct {
	Type             string // "memory", "sqlite" or "postgres"
	ConnectionString string // File path for SQLite, DSN for Postgres
}

const defaultSQLitePath = ".sentinelscan.db"

// NewStore creates a Store for the configured backend. Memory is the default.
func NewStore(config StoreConfig) (Store, error) {
	switch strings.ToLower(config.Type) {
	case "", "memory":
		return NewMemoryStore(), nil
	case "sqlite", "sqlite3":
		if config.ConnectionString == "" {
			config.ConnectionString = defaultSQLitePath
		}
		return NewSQLiteStore(config.ConnectionString)
	case "postgres", "postgresql":
		if config.ConnectionString == "" {
			return nil, fmt.Errorf("postgres connection string is required")
		}
		return NewPostgresStore(config.ConnectionString)
	default:
		return nil, fmt.Errorf("unsupported store type: %s", config.Type)
	}
}
