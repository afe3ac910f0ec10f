package service

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/stainespoir/parent-portal-api/internal/models"
	appErrors "github.com/stainespoir/parent-portal-api/pkg/errors"
)

type attendanceRepository interface {
	WithinTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error
	MapForDay(ctx context.Context, tx *sqlx.Tx, dayStart, dayEnd time.Time) (map[string]models.Attendance, error)
	Create(ctx context.Context, tx *sqlx.Tx, childID string, date time.Time, status models.AttendanceStatus) error
	UpdateStatus(ctx context.Context, tx *sqlx.Tx, id string, status models.AttendanceStatus) error
	Delete(ctx context.Context, tx *sqlx.Tx, id string) error
	ListForChildBetween(ctx context.Context, childID string, from, to time.Time) ([]models.Attendance, error)
	PresenceStats(ctx context.Context, childID string, from, to time.Time) (models.PresenceStats, error)
}

type rosterChildRepository interface {
	ListValidated(ctx context.Context, filter models.ChildFilter) ([]models.Child, error)
}

// AttendanceService reconciles roster submissions and serves the parent
// calendar views built from stored attendance.
type AttendanceService struct {
	repo      attendanceRepository
	childRepo rosterChildRepository
	calendar  *CalendarService
	logger    *zap.Logger
}

// NewAttendanceService constructs the attendance service.
func NewAttendanceService(repo attendanceRepository, childRepo rosterChildRepository, calendar *CalendarService, logger *zap.Logger) *AttendanceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AttendanceService{repo: repo, childRepo: childRepo, calendar: calendar, logger: logger}
}

// RosterEntry pairs a child with its current status for the roster form.
type RosterEntry struct {
	Child  models.Child            `json:"child"`
	Status models.AttendanceStatus `json:"status"`
}

// RosterForDay returns the eligible roster and each child's recorded status
// for one day; children without a row report "unset".
func (s *AttendanceService) RosterForDay(ctx context.Context, day time.Time) ([]RosterEntry, error) {
	children, err := s.childRepo.ListValidated(ctx, models.ChildFilter{})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load roster")
	}
	dayStart, dayEnd := s.calendar.DayBounds(day)
	var existing map[string]models.Attendance
	err = s.repo.WithinTx(ctx, func(tx *sqlx.Tx) error {
		var txErr error
		existing, txErr = s.repo.MapForDay(ctx, tx, dayStart, dayEnd)
		return txErr
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendance")
	}
	entries := make([]RosterEntry, len(children))
	for i, child := range children {
		entry := RosterEntry{Child: child, Status: models.AttendanceUnset}
		if rec, ok := existing[child.ID]; ok {
			entry.Status = rec.Status
		}
		entries[i] = entry
	}
	return entries, nil
}

// SaveRoster reconciles one day's full roster submission in a single
// transaction. Children missing from statuses are treated as unset. Unset
// deletes an existing row, present/absent updates or creates one.
func (s *AttendanceService) SaveRoster(ctx context.Context, day time.Time, statuses map[string]models.AttendanceStatus) (*models.RosterResult, error) {
	for childID, status := range statuses {
		if status != models.AttendanceUnset && !status.Writable() {
			return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported status for child "+childID)
		}
	}
	children, err := s.childRepo.ListValidated(ctx, models.ChildFilter{})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load roster")
	}

	normalized := s.calendar.NormalizeDay(day)
	dayStart, dayEnd := s.calendar.DayBounds(day)

	result := &models.RosterResult{}
	err = s.repo.WithinTx(ctx, func(tx *sqlx.Tx) error {
		existing, txErr := s.repo.MapForDay(ctx, tx, dayStart, dayEnd)
		if txErr != nil {
			return txErr
		}
		for _, child := range children {
			status, ok := statuses[child.ID]
			if !ok {
				status = models.AttendanceUnset
			}
			record, has := existing[child.ID]
			switch {
			case status == models.AttendanceUnset && has:
				if txErr := s.repo.Delete(ctx, tx, record.ID); txErr != nil {
					return txErr
				}
				result.Deleted++
			case status.Writable() && has:
				if record.Status != status {
					if txErr := s.repo.UpdateStatus(ctx, tx, record.ID, status); txErr != nil {
						return txErr
					}
				}
				result.Updated++
			case status.Writable() && !has:
				if txErr := s.repo.Create(ctx, tx, child.ID, normalized, status); txErr != nil {
					return txErr
				}
				result.Created++
			}
		}
		return nil
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "roster save failed")
	}
	s.logger.Info("roster saved",
		zap.String("day", normalized.Format("2006-01-02")),
		zap.Int("created", result.Created),
		zap.Int("updated", result.Updated),
		zap.Int("deleted", result.Deleted))
	return result, nil
}

// MonthForChild renders the calendar month view for one child. An empty
// monthKey selects the current month, clamped into the school year of the
// reference date.
func (s *AttendanceService) MonthForChild(ctx context.Context, childID, monthKey string, now time.Time) (*models.MonthView, error) {
	syStart, syEnd := s.calendar.SchoolYearRange(s.calendar.DefaultSchoolStartYear(now))

	month := now
	if monthKey != "" {
		parsed, err := s.calendar.ParseMonthKey(monthKey)
		if err != nil {
			return nil, err
		}
		month = parsed
	}
	month = s.calendar.ClampMonth(month, syStart, syEnd)

	monthEnd := month.AddDate(0, 1, 0)
	records, err := s.repo.ListForChildBetween(ctx, childID, month, monthEnd)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load month attendance")
	}
	return s.calendar.BuildMonthView(month, records, syStart, syEnd), nil
}

// PresenceStats aggregates present/absent counts for a child over the last
// given number of days.
func (s *AttendanceService) PresenceStats(ctx context.Context, childID string, now time.Time, days int) (models.PresenceStats, error) {
	if days <= 0 {
		days = 30
	}
	stats, err := s.repo.PresenceStats(ctx, childID, now.AddDate(0, 0, -days), now)
	if err != nil {
		return models.PresenceStats{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to compute presence stats")
	}
	return stats, nil
}
