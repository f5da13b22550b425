// Package postgres provides a report store backed by PostgreSQL via pgx.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/smallnest/deepresearch/store"
)

// DefaultTableName is used when Options.TableName is empty.
const DefaultTableName = "reports"

// DBPool is the subset of *pgxpool.Pool the store needs.
type DBPool interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// Options configures the Postgres connection.
type Options struct {
	ConnString string
	TableName  string
}

// ReportStore implements store.ReportStore using PostgreSQL.
type ReportStore struct {
	pool      DBPool
	tableName string
}

var _ store.ReportStore = (*ReportStore)(nil)

// New connects to Postgres and creates the reports table if needed.
func New(ctx context.Context, opts Options) (*ReportStore, error) {
	pool, err := pgxpool.New(ctx, opts.ConnString)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}

	s := NewWithPool(pool, opts.TableName)
	if err := s.InitSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// NewWithPool wraps an existing pool. Useful for testing with mocks.
func NewWithPool(pool DBPool, tableName string) *ReportStore {
	if tableName == "" {
		tableName = DefaultTableName
	}
	return &ReportStore{pool: pool, tableName: tableName}
}

// InitSchema creates the reports table if it doesn't exist.
func (s *ReportStore) InitSchema(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id TEXT PRIMARY KEY,
			topic TEXT NOT NULL,
			plan JSONB NOT NULL,
			markdown TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_%s_created_at ON %s (created_at DESC);
	`, s.tableName, s.tableName, s.tableName)

	if _, err := s.pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Close closes the connection pool.
func (s *ReportStore) Close() error {
	s.pool.Close()
	return nil
}

// Save upserts a report.
func (s *ReportStore) Save(ctx context.Context, report *store.Report) error {
	planJSON, err := json.Marshal(report.Plan)
	if err != nil {
		return fmt.Errorf("failed to marshal plan: %w", err)
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (id, topic, plan, markdown, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			topic = EXCLUDED.topic,
			plan = EXCLUDED.plan,
			markdown = EXCLUDED.markdown,
			created_at = EXCLUDED.created_at
	`, s.tableName)

	_, err = s.pool.Exec(ctx, query,
		report.ID,
		report.Topic,
		planJSON,
		report.Markdown,
		report.CreatedAt,
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
		WHERE id = $1
	`, s.tableName)

	r, err := scanReport(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", store.ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to load report: %w", err)
	}
	return r, nil
}

// List returns reports newest first.
func (s *ReportStore) List(ctx context.Context, limit int) ([]*store.Report, error) {
	query := fmt.Sprintf(`
		SELECT id, topic, plan, markdown, created_at
		FROM %s
		ORDER BY created_at DESC, id ASC
	`, s.tableName)

	var (
		rows pgx.Rows
		err  error
	)
	if limit > 0 {
		rows, err = s.pool.Query(ctx, query+" LIMIT $1", limit)
	} else {
		rows, err = s.pool.Query(ctx, query)
	}
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
	query := fmt.Sprintf("DELETE FROM %s WHERE id = $1", s.tableName)
	tag, err := s.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete report: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", store.ErrNotFound, id)
	}
	return nil
}

func scanReport(row pgx.Row) (*store.Report, error) {
	var r store.Report
	var planJSON []byte
	if err := row.Scan(&r.ID, &r.Topic, &planJSON, &r.Markdown, &r.CreatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(planJSON, &r.Plan); err != nil {
		return nil, fmt.Errorf("failed to unmarshal plan: %w", err)
	}
	return &r, nil
}
