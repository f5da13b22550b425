// Package sqlite provides a single-file report store using mattn/go-sqlite3.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/smallnest/deepresearch/store"
)

// DefaultTableName is used when Options.TableName is empty.
const DefaultTableName = "reports"

// Options configures the SQLite database.
type Options struct {
	Path      string
	TableName string
}

// ReportStore implements store.ReportStore using SQLite.
type ReportStore struct {
	db        *sql.DB
	tableName string
}

var _ store.ReportStore = (*ReportStore)(nil)

// New opens the database at opts.Path and creates the reports table.
func New(opts Options) (*ReportStore, error) {
	db, err := sql.Open("sqlite3", opts.Path)
	if err != nil {
		return nil, fmt.Errorf("unable to open database: %w", err)
	}

	tableName := opts.TableName
	if tableName == "" {
		tableName = DefaultTableName
	}

	s := &ReportStore{db: db, tableName: tableName}
	if err := s.InitSchema(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// InitSchema creates the reports table if it doesn't exist.
func (s *ReportStore) InitSchema(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id TEXT PRIMARY KEY,
			topic TEXT NOT NULL,
			plan TEXT NOT NULL,
			markdown TEXT NOT NULL,
			created_at DATETIME NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_%s_created_at ON %s (created_at);
	`, s.tableName, s.tableName, s.tableName)

	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *ReportStore) Close() error {
	return s.db.Close()
}

// Save upserts a report.
func (s *ReportStore) Save(ctx context.Context, report *store.Report) error {
	planJSON, err := json.Marshal(report.Plan)
	if err != nil {
		return fmt.Errorf("failed to marshal plan: %w", err)
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (id, topic, plan, markdown, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			topic = excluded.topic,
			plan = excluded.plan,
			markdown = excluded.markdown,
			created_at = excluded.created_at
	`, s.tableName)

	_, err = s.db.ExecContext(ctx, query,
		report.ID,
		report.Topic,
		string(planJSON),
		report.Markdown,
		report.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to save report: %w", err)
	}
	return nil
}

// Load retrieves a report by ID.
func (s *ReportStore) Load(ctx context.Context, id string) (*store.Report, error) {
	query := fmt.Sprintf(`
		SELECT id, topic, plan, markdown, created_at
		FROM %s
		WHERE id = ?
	`, s.tableName)

	r, err := scanReport(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", store.ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to load report: %w", err)
	}
	return r, nil
}

// List returns reports newest first.
func (s *ReportStore) List(ctx context.Context, limit int) ([]*store.Report, error) {
	if limit <= 0 {
		limit = -1 // SQLite treats a negative LIMIT as unbounded
	}
	query := fmt.Sprintf(`
		SELECT id, topic, plan, markdown, created_at
		FROM %s
		ORDER BY created_at DESC, id ASC
		LIMIT ?
	`, s.tableName)

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	defer rows.Close()

	var reports []*store.Report
	for rows.Next() {
		r, err := scanReport(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan report row: %w", err)
		}
		reports = append(reports, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating report rows: %w", err)
	}
	return reports, nil
}

// Delete removes a report.
func (s *ReportStore) Delete(ctx context.Context, id string) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE id = ?", s.tableName)
	res, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete report: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", store.ErrNotFound, id)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanReport(row scanner) (*store.Report, error) {
	var r store.Report
	var planJSON string
	if err := row.Scan(&r.ID, &r.Topic, &planJSON, &r.Markdown, &r.CreatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(planJSON), &r.Plan); err != nil {
		return nil, fmt.Errorf("failed to unmarshal plan: %w", err)
	}
	r.CreatedAt = r.CreatedAt.UTC()
	return &r, nil
}
