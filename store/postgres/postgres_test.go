package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smallnest/deepresearch/store"
)

var columns = []string{"id", "topic", "plan", "markdown", "created_at"}

func TestReportStore_InitSchema(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	s := NewWithPool(mock, "")
	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS reports")).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	assert.NoError(t, s.InitSchema(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReportStore_Save(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	s := NewWithPool(mock, "reports")
	r := store.NewReport("solar", []string{"q1", "q2"}, "# Solar")
	planJSON, _ := json.Marshal(r.Plan)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO reports")).
		WithArgs(r.ID, r.Topic, planJSON, r.Markdown, r.CreatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	assert.NoError(t, s.Save(context.Background(), r))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReportStore_SaveError(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	s := NewWithPool(mock, "reports")
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO reports")).
		WillReturnError(errors.New("connection reset"))

	err = s.Save(context.Background(), store.NewReport("t", nil, "m"))
	assert.ErrorContains(t, err, "failed to save report")
}

func TestReportStore_Load(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	s := NewWithPool(mock, "reports")
	created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	planJSON, _ := json.Marshal([]string{"q1"})

	rows := pgxmock.NewRows(columns).AddRow("r-1", "solar", planJSON, "# Solar", created)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, topic, plan, markdown, created_at FROM reports WHERE id = $1")).
		WithArgs("r-1").
		WillReturnRows(rows)

	loaded, err := s.Load(context.Background(), "r-1")
	require.NoError(t, err)
	assert.Equal(t, "solar", loaded.Topic)
	assert.Equal(t, []string{"q1"}, loaded.Plan)
	assert.Equal(t, created, loaded.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReportStore_LoadNotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	s := NewWithPool(mock, "reports")
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, topic, plan, markdown, created_at FROM reports")).
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)

	_, err = s.Load(context.Background(), "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestReportStore_List(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	s := NewWithPool(mock, "reports")
	now := time.Now().UTC()
	planJSON, _ := json.Marshal([]string{"q"})

	rows := pgxmock.NewRows(columns).
		AddRow("r-2", "newer", planJSON, "b", now).
		AddRow("r-1", "older", planJSON, "a", now.Add(-time.Hour))
	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY created_at DESC, id ASC LIMIT $1")).
		WithArgs(2).
		WillReturnRows(rows)

	list, err := s.List(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "newer", list[0].Topic)
	assert.Equal(t, "older", list[1].Topic)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReportStore_Delete(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	s := NewWithPool(mock, "reports")
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM reports WHERE id = $1")).
		WithArgs("r-1").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM reports WHERE id = $1")).
		WithArgs("r-1").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	assert.NoError(t, s.Delete(context.Background(), "r-1"))
	assert.ErrorIs(t, s.Delete(context.Background(), "r-1"), store.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
