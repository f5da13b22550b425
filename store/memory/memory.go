// Package memory provides an in-process report store.
package memory

import (
	"cmp"
	"context"
	"slices"
	"sync"

	"github.com/smallnest/deepresearch/store"
)

// ReportStore keeps reports in a map guarded by a mutex.
type ReportStore struct {
	mu      sync.RWMutex
	reports map[string]store.Report
}

var _ store.ReportStore = (*ReportStore)(nil)

// NewReportStore creates an empty store.
func NewReportStore() *ReportStore {
	return &ReportStore{reports: make(map[string]store.Report)}
}

// Save stores a copy of the report.
func (s *ReportStore) Save(_ context.Context, report *store.Report) error {
	r := *report
	r.Plan = slices.Clone(report.Plan)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.reports[r.ID] = r
	return nil
}

// Load returns a copy of the stored report.
func (s *ReportStore) Load(_ context.Context, id string) (*store.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.reports[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	r.Plan = slices.Clone(r.Plan)
	return &r, nil
}

// List returns reports newest first.
func (s *ReportStore) List(_ context.Context, limit int) ([]*store.Report, error) {
	s.mu.RLock()
	out := make([]*store.Report, 0, len(s.reports))
	for _, r := range s.reports {
		r.Plan = slices.Clone(r.Plan)
		out = append(out, &r)
	}
	s.mu.RUnlock()

	slices.SortFunc(out, func(a, b *store.Report) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Delete removes a report.
func (s *ReportStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.reports[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.reports, id)
	return nil
}

// Close is a no-op.
func (s *ReportStore) Close() error { return nil }
