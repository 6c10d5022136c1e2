package postgres

import (
	"regexp"
	"testing"
	"time"

	"geoenrich/internal/model"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return db, mock
}

func TestSaveRun(t *testing.T) {
	db, mock := newMockDB(t)
	started := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "enrichment_runs"`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := SaveRun(db, &model.EnrichmentRunPG{
		ID:         "run-1",
		Collection: "positions",
		Polygons:   5570,
		Processed:  10,
		Resolved:   8,
		Unresolved: 1,
		Failed:     1,
		StartedAt:  started,
		FinishedAt: started.Add(time.Minute),
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveRunError(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "enrichment_runs"`)).
		WillReturnError(assert.AnError)
	mock.ExpectRollback()

	err := SaveRun(db, &model.EnrichmentRunPG{ID: "run-2", Collection: "positions"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "run-2")
	assert.ErrorIs(t, err, assert.AnError)
}

func TestRecentRuns(t *testing.T) {
	db, mock := newMockDB(t)
	started := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows([]string{"id", "collection", "processed", "resolved", "started_at"}).
		AddRow("run-2", "positions", 4, 3, started.Add(time.Hour)).
		AddRow("run-1", "positions", 10, 8, started)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "enrichment_runs" ORDER BY started_at DESC LIMIT`)).
		WillReturnRows(rows)

	runs, err := RecentRuns(db, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "run-2", runs[0].ID)
	assert.Equal(t, int64(3), runs[0].Resolved)
	assert.Equal(t, "run-1", runs[1].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
