package store

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
)

// PostgresStore persists reports in PostgreSQL.
type PostgresStore struct {
	sqlReports
}

// NewPostgresStore connects to dsn and applies migrations.
func NewPostgresStore(dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	query := `CREATE TABLE IF NOT EXISTS scan_reports (
		seq BIGSERIAL PRIMARY KEY,
		scan_id TEXT NOT NULL UNIQUE,
		status TEXT NOT NULL,
		source TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL,
		body TEXT NOT NULL
	);`
	if _, err := db.Exec(query); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &PostgresStore{sqlReports{
		db:          db,
		placeholder: func(n int) string { return fmt.Sprintf("$%d", n) },
	}}, nil
}
