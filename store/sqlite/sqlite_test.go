package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smallnest/deepresearch/store"
)

func newTestStore(t *testing.T) *ReportStore {
	t.Helper()
	s, err := New(Options{Path: filepath.Join(t.TempDir(), "reports.db")})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestReportStore_SaveLoad(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	r := store.NewReport("solar", []string{"q1", "q2"}, "# Solar\n\nbody")
	require.NoError(t, s.Save(ctx, r))

	loaded, err := s.Load(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, r.Topic, loaded.Topic)
	assert.Equal(t, r.Plan, loaded.Plan)
	assert.Equal(t, r.Markdown, loaded.Markdown)
	assert.True(t, r.CreatedAt.Equal(loaded.CreatedAt))

	r.Markdown = "# Updated"
	require.NoError(t, s.Save(ctx, r))
	loaded, err = s.Load(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, "# Updated", loaded.Markdown)
}

func TestReportStore_ListAndDelete(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	var ids []string
	for i, topic := range []string{"old", "mid", "new"} {
		r := store.NewReport(topic, []string{topic}, "md")
		r.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, s.Save(ctx, r))
		ids = append(ids, r.ID)
	}

	all, err := s.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "new", all[0].Topic)

	limited, err := s.List(ctx, 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, "new", limited[0].Topic)

	require.NoError(t, s.Delete(ctx, ids[0]))
	assert.ErrorIs(t, s.Delete(ctx, ids[0]), store.ErrNotFound)
	_, err = s.Load(ctx, ids[0])
	assert.ErrorIs(t, err, store.ErrNotFound)
}
