// Package store archives completed research reports.
//
// Archived reports are presentation history: what a user asked about and
// what the pipeline answered. Intermediate workflow state is never stored.
//
// Backends live in subpackages:
//   - memory: process-local map, the default
//   - sqlite: single-file database via mattn/go-sqlite3
//   - postgres: pgx connection pool
//   - redis: go-redis with a sorted-set index by creation time
package store

import (
	"context"
	"errors"
	"slices"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a report ID is unknown to the store.
var ErrNotFound = errors.New("report not found")

// Report is an archived research result.
type Report struct {
	ID        string    `json:"id"`
	Topic     string    `json:"topic"`
	Plan      []string  `json:"plan"`
	Markdown  string    `json:"markdown"`
	CreatedAt time.Time `json:"created_at"`
}

// NewReport creates a report with a fresh ID and the current time.
func NewReport(topic string, plan []string, markdown string) *Report {
	return &Report{
		ID:        uuid.NewString(),
		Topic:     topic,
		Plan:      slices.Clone(plan),
		Markdown:  markdown,
		CreatedAt: time.Now().UTC().Truncate(time.Microsecond),
	}
}

// ReportStore persists reports.
type ReportStore interface {
	// Save stores a report, replacing any report with the same ID.
	Save(ctx context.Context, report *Report) error

	// Load retrieves a report by ID. Unknown IDs return ErrNotFound.
	Load(ctx context.Context, id string) (*Report, error)

	// List returns up to limit reports, newest first. A non-positive limit
	// returns every report.
	List(ctx context.Context, limit int) ([]*Report, error)

	// Delete removes a report. Unknown IDs return ErrNotFound.
	Delete(ctx context.Context, id string) error

	// Close releases the store's resources.
	Close() error
}
