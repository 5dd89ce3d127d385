package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"sentinelscan/internal/model"
)

// sqlReports implements Store over database/sql. Reports are kept as JSON
// documents next to a few indexed columns.
type sqlReports struct {
	db *sql.DB
	// placeholder renders the n-th (1-based) bind parameter
	placeholder func(n int) string
}

func (s *sqlReports) Put(ctx context.Context, report *model.ScanReport) error {
	body, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	query := fmt.Sprintf(
		`INSERT INTO scan_reports (scan_id, status, source, created_at, body) VALUES (%s, %s, %s, %s, %s) ON CONFLICT (scan_id) DO NOTHING`,
		s.placeholder(1), s.placeholder(2), s.placeholder(3), s.placeholder(4), s.placeholder(5),
	)
	res, err := s.db.ExecContext(ctx, query, report.ScanID, report.Status, report.Source, report.CreatedAt.UTC(), string(body))
	if err != nil {
		return fmt.Errorf("failed to save report: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to save report: %w", err)
	}
	if n == 0 {
		return ErrDuplicate
	}
	return nil
}

func (s *sqlReports) Get(ctx context.Context, id string) (*model.ScanReport, error) {
	query := fmt.Sprintf(`SELECT body FROM scan_reports WHERE scan_id = %s`, s.placeholder(1))
	var body string
	err := s.db.QueryRowContext(ctx, query, id).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load report: %w", err)
	}
	return decodeReport(body)
}

func (s *sqlReports) List(ctx context.Context) ([]*model.ScanReport, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT body FROM scan_reports ORDER BY seq ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	defer rows.Close()

	reports := []*model.ScanReport{}
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return nil, err
		}
		r, err := decodeReport(body)
		if err != nil {
			return nil, err
		}
		reports = append(reports, r)
	}
	return reports, rows.Err()
}

func (s *sqlReports) Close() error {
	return s.db.Close()
}

func decodeReport(body string) (*model.ScanReport, error) {
	var r model.ScanReport
	if err := json.Unmarshal([]byte(body), &r); err != nil {
		return nil, fmt.Errorf("failed to decode report: %w", err)
	}
	return &r, nil
}
