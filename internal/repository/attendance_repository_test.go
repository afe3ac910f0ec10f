package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stainespoir/parent-portal-api/internal/models"
)

func TestAttendanceRepositoryMapForDay(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	dayStart := time.Date(2025, time.November, 8, 0, 0, 0, 0, time.UTC)
	dayEnd := dayStart.AddDate(0, 0, 1)
	noon := dayStart.Add(12 * time.Hour)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, child_id, date, status, notes, created_at, updated_at FROM attendance WHERE date >= $1 AND date < $2")).
		WithArgs(dayStart, dayEnd).
		WillReturnRows(sqlmock.NewRows([]string{"id", "child_id", "date", "status", "notes", "created_at", "updated_at"}).
			AddRow("att-1", "c1", noon, "present", nil, noon, noon).
			AddRow("att-2", "c2", noon, "absent", nil, noon, noon))
	mock.ExpectCommit()

	err := repo.WithinTx(context.Background(), func(tx *sqlx.Tx) error {
		byChild, err := repo.MapForDay(context.Background(), tx, dayStart, dayEnd)
		if err != nil {
			return err
		}
		require.Len(t, byChild, 2)
		assert.Equal(t, models.AttendancePresent, byChild["c1"].Status)
		assert.Equal(t, models.AttendanceAbsent, byChild["c2"].Status)
		return nil
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositoryReconcileWrites(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	noon := time.Date(2025, time.November, 8, 12, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO attendance").
		WithArgs(sqlmock.AnyArg(), "c1", noon, "present", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE attendance SET status = $2, updated_at = $3 WHERE id = $1")).
		WithArgs("att-2", "absent", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM attendance WHERE id = $1")).
		WithArgs("att-3").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.WithinTx(context.Background(), func(tx *sqlx.Tx) error {
		if err := repo.Create(context.Background(), tx, "c1", noon, models.AttendancePresent); err != nil {
			return err
		}
		if err := repo.UpdateStatus(context.Background(), tx, "att-2", models.AttendanceAbsent); err != nil {
			return err
		}
		return repo.Delete(context.Background(), tx, "att-3")
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositoryPresenceStats(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	from := time.Date(2025, time.October, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, time.November, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery("SELECT status, COUNT(.+) AS cnt FROM attendance").
		WithArgs("c1", from, to).
		WillReturnRows(sqlmock.NewRows([]string{"status", "cnt"}).
			AddRow("present", 3).
			AddRow("absent", 1).
			AddRow("excused", 2))

	stats, err := repo.PresenceStats(context.Background(), "c1", from, to)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Present)
	assert.Equal(t, 1, stats.Absent)
	// Excused rows are legacy data and stay out of the ratio.
	assert.Equal(t, 4, stats.Total)
	assert.NoError(t, mock.ExpectationsWereMet())
}
