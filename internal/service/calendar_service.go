package service

import (
	"fmt"
	"time"

	"github.com/stainespoir/parent-portal-api/internal/models"
	appErrors "github.com/stainespoir/parent-portal-api/pkg/errors"
)

// frMonths holds the month labels shown to parents. The portal audience is
// francophone, so the calendar renders French labels server-side.
var frMonths = [12]string{
	"janvier", "février", "mars", "avril", "mai", "juin",
	"juillet", "août", "septembre", "octobre", "novembre", "décembre",
}

// CalendarService computes school-year windows and month grids. It is pure:
// all date arithmetic happens in the configured civil time zone, never UTC,
// so day boundaries line up with what parents see locally.
type CalendarService struct {
	loc *time.Location
}

// NewCalendarService constructs the calendar service for one time zone.
func NewCalendarService(loc *time.Location) *CalendarService {
	if loc == nil {
		loc = time.UTC
	}
	return &CalendarService{loc: loc}
}

// Location exposes the zone all calendar math runs in.
func (s *CalendarService) Location() *time.Location {
	return s.loc
}

// SchoolYearRange returns the inclusive bounds of the school year starting
// in startYear: Sept 1 00:00:00 through Aug 31 23:59:59 of the next year.
func (s *CalendarService) SchoolYearRange(startYear int) (time.Time, time.Time) {
	start := time.Date(startYear, time.September, 1, 0, 0, 0, 0, s.loc)
	end := time.Date(startYear+1, time.August, 31, 23, 59, 59, 0, s.loc)
	return start, end
}

// DefaultSchoolStartYear picks the school year a date falls in: the current
// year from September onwards, the previous one before.
func (s *CalendarService) DefaultSchoolStartYear(today time.Time) int {
	today = today.In(s.loc)
	if today.Month() >= time.September {
		return today.Year()
	}
	return today.Year() - 1
}

// ParseMonthKey turns a "YYYY-MM" key into the first day of that month.
func (s *CalendarService) ParseMonthKey(key string) (time.Time, error) {
	parsed, err := time.ParseInLocation("2006-01", key, s.loc)
	if err != nil {
		return time.Time{}, appErrors.Clone(appErrors.ErrValidation, "invalid month, expected YYYY-MM")
	}
	return parsed, nil
}

// MonthKey renders a date as its "YYYY-MM" key.
func (s *CalendarService) MonthKey(t time.Time) string {
	return t.In(s.loc).Format("2006-01")
}

// ClampMonth snaps a month into the school year [start, end]. Months before
// September map to September, months after August of the next year map to
// August.
func (s *CalendarService) ClampMonth(month, syStart, syEnd time.Time) time.Time {
	month = time.Date(month.Year(), month.Month(), 1, 0, 0, 0, 0, s.loc)
	if month.Before(syStart) {
		return syStart
	}
	lastMonth := time.Date(syEnd.Year(), syEnd.Month(), 1, 0, 0, 0, 0, s.loc)
	if month.After(lastMonth) {
		return lastMonth
	}
	return month
}

// BuildMonthView renders one month of the attendance calendar. Only
// Saturdays carry a real status; other days render "off". Records on
// non-Saturday dates are ignored for display. Prev/Next are nil at the
// school-year boundaries.
func (s *CalendarService) BuildMonthView(monthStart time.Time, records []models.Attendance, syStart, syEnd time.Time) *models.MonthView {
	monthStart = time.Date(monthStart.Year(), monthStart.Month(), 1, 0, 0, 0, 0, s.loc)

	byDate := make(map[string]models.AttendanceStatus, len(records))
	for _, rec := range records {
		byDate[rec.Date.In(s.loc).Format("2006-01-02")] = rec.Status
	}

	daysInMonth := time.Date(monthStart.Year(), monthStart.Month()+1, 0, 0, 0, 0, 0, s.loc).Day()
	days := make([]models.MonthDay, 0, daysInMonth)
	for d := 1; d <= daysInMonth; d++ {
		date := time.Date(monthStart.Year(), monthStart.Month(), d, 0, 0, 0, 0, s.loc)
		day := models.MonthDay{Day: d, Status: models.DayOff}
		if date.Weekday() == time.Saturday {
			day.IsSaturday = true
			day.Status = models.DayNone
			if status, ok := byDate[date.Format("2006-01-02")]; ok {
				day.Status = models.DayStatus(status)
			}
		}
		days = append(days, day)
	}

	view := &models.MonthView{
		Label:    fmt.Sprintf("%s %d", frMonths[monthStart.Month()-1], monthStart.Year()),
		MonthKey: s.MonthKey(monthStart),
		StartPad: (int(monthStart.Weekday()) + 6) % 7,
		Days:     days,
	}

	prev := monthStart.AddDate(0, -1, 0)
	if !prev.Before(time.Date(syStart.Year(), syStart.Month(), 1, 0, 0, 0, 0, s.loc)) {
		key := s.MonthKey(prev)
		view.Prev = &key
	}
	next := monthStart.AddDate(0, 1, 0)
	if !next.After(time.Date(syEnd.Year(), syEnd.Month(), 1, 0, 0, 0, 0, s.loc)) {
		key := s.MonthKey(next)
		view.Next = &key
	}
	return view
}

// NormalizeDay anchors a calendar day at noon local time before storage.
// Storing midnight shifts the civil date when the driver round-trips
// through UTC; noon keeps the date stable in either direction.
func (s *CalendarService) NormalizeDay(t time.Time) time.Time {
	t = t.In(s.loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 12, 0, 0, 0, s.loc)
}

// DayBounds returns the [start, end) window of a civil day.
func (s *CalendarService) DayBounds(t time.Time) (time.Time, time.Time) {
	t = t.In(s.loc)
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, s.loc)
	return start, start.AddDate(0, 0, 1)
}
