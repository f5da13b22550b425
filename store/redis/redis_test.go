package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smallnest/deepresearch/store"
)

func TestReportStore(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	s := New(Options{Addr: mr.Addr()})
	defer s.Close()
	ctx := context.Background()

	r := store.NewReport("solar", []string{"q1"}, "# Solar")
	require.NoError(t, s.Save(ctx, r))
	assert.True(t, mr.Exists("deepresearch:report:"+r.ID))

	loaded, err := s.Load(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, r.Topic, loaded.Topic)
	assert.Equal(t, r.Plan, loaded.Plan)
	assert.True(t, r.CreatedAt.Equal(loaded.CreatedAt))

	list, err := s.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, r.ID, list[0].ID)

	require.NoError(t, s.Delete(ctx, r.ID))
	_, err = s.Load(ctx, r.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.ErrorIs(t, s.Delete(ctx, r.ID), store.ErrNotFound)

	list, err = s.List(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestReportStore_ListOrderAndLimit(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	s := New(Options{Addr: mr.Addr(), Prefix: "test:"})
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	for i, topic := range []string{"old", "mid", "new"} {
		r := store.NewReport(topic, nil, "md")
		r.CreatedAt = base.Add(time.Duration(i) * time.Hour)
		require.NoError(t, s.Save(ctx, r))
	}

	list, err := s.List(ctx, 2)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "new", list[0].Topic)
	assert.Equal(t, "mid", list[1].Topic)
}

func TestReportStore_TTLSkipsExpired(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	s := New(Options{Addr: mr.Addr(), TTL: time.Minute})
	ctx := context.Background()

	r := store.NewReport("ephemeral", nil, "md")
	require.NoError(t, s.Save(ctx, r))

	mr.FastForward(2 * time.Minute)

	_, err = s.Load(ctx, r.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)

	list, err := s.List(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestNewFromURL(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	s, err := NewFromURL("redis://"+mr.Addr()+"/0", "")
	require.NoError(t, err)
	require.NoError(t, s.Save(context.Background(), store.NewReport("t", nil, "m")))

	_, err = NewFromURL("://bad", "")
	assert.Error(t, err)
}
