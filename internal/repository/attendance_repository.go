package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/stainespoir/parent-portal-api/internal/models"
)

const attendanceColumns = `id, child_id, date, status, notes, created_at, updated_at`

// AttendanceRepository handles persistence for daily attendance rows.
type AttendanceRepository struct {
	db *sqlx.DB
}

// NewAttendanceRepository constructs the repository.
func NewAttendanceRepository(db *sqlx.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

// WithinTx runs fn inside a transaction, rolling back on error. A roster
// submission is one transaction: either every change lands or none does.
func (r *AttendanceRepository) WithinTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin attendance tx: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit attendance tx: %w", err)
	}
	return nil
}

// MapForDay returns childID -> attendance for rows falling inside [dayStart, dayEnd).
func (r *AttendanceRepository) MapForDay(ctx context.Context, tx *sqlx.Tx, dayStart, dayEnd time.Time) (map[string]models.Attendance, error) {
	var rows []models.Attendance
	query := fmt.Sprintf(`SELECT %s FROM attendance WHERE date >= $1 AND date < $2`, attendanceColumns)
	if err := tx.SelectContext(ctx, &rows, query, dayStart, dayEnd); err != nil {
		return nil, fmt.Errorf("attendance for day: %w", err)
	}
	result := make(map[string]models.Attendance, len(rows))
	for _, row := range rows {
		result[row.ChildID] = row
	}
	return result, nil
}

// Create inserts a new attendance row.
func (r *AttendanceRepository) Create(ctx context.Context, tx *sqlx.Tx, childID string, date time.Time, status models.AttendanceStatus) error {
	now := time.Now().UTC()
	query := `INSERT INTO attendance (id, child_id, date, status, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6)`
	if _, err := tx.ExecContext(ctx, query, uuid.NewString(), childID, date, status, now, now); err != nil {
		return fmt.Errorf("create attendance: %w", err)
	}
	return nil
}

// UpdateStatus rewrites the status of an existing row.
func (r *AttendanceRepository) UpdateStatus(ctx context.Context, tx *sqlx.Tx, id string, status models.AttendanceStatus) error {
	query := `UPDATE attendance SET status = $2, updated_at = $3 WHERE id = $1`
	if _, err := tx.ExecContext(ctx, query, id, status, time.Now().UTC()); err != nil {
		return fmt.Errorf("update attendance: %w", err)
	}
	return nil
}

// Delete removes a row; the absent row means "unset".
func (r *AttendanceRepository) Delete(ctx context.Context, tx *sqlx.Tx, id string) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM attendance WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete attendance: %w", err)
	}
	return nil
}

// ListForChildBetween returns one child's rows inside [from, to].
func (r *AttendanceRepository) ListForChildBetween(ctx context.Context, childID string, from, to time.Time) ([]models.Attendance, error) {
	var rows []models.Attendance
	query := fmt.Sprintf(`SELECT %s FROM attendance WHERE child_id = $1 AND date >= $2 AND date <= $3 ORDER BY date`, attendanceColumns)
	if err := r.db.SelectContext(ctx, &rows, query, childID, from, to); err != nil {
		return nil, fmt.Errorf("attendance for child: %w", err)
	}
	return rows, nil
}

// PresenceStats aggregates present/absent counts for a child over a period.
func (r *AttendanceRepository) PresenceStats(ctx context.Context, childID string, from, to time.Time) (models.PresenceStats, error) {
	rows := []struct {
		Status string `db:"status"`
		Count  int    `db:"cnt"`
	}{}
	query := `SELECT status, COUNT(*) AS cnt FROM attendance
WHERE child_id = $1 AND date >= $2 AND date <= $3
GROUP BY status`
	if err := r.db.SelectContext(ctx, &rows, query, childID, from, to); err != nil {
		return models.PresenceStats{}, fmt.Errorf("presence stats: %w", err)
	}
	var stats models.PresenceStats
	for _, row := range rows {
		switch models.AttendanceStatus(row.Status) {
		case models.AttendancePresent:
			stats.Present += row.Count
			stats.Total += row.Count
		case models.AttendanceAbsent:
			stats.Absent += row.Count
			stats.Total += row.Count
		}
	}
	return stats, nil
}
