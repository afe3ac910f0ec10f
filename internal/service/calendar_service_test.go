package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stainespoir/parent-portal-api/internal/models"
)

func parisLocation(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Europe/Paris")
	require.NoError(t, err)
	return loc
}

func TestCalendarServiceSchoolYearRange(t *testing.T) {
	loc := parisLocation(t)
	service := NewCalendarService(loc)

	start, end := service.SchoolYearRange(2025)
	assert.Equal(t, time.Date(2025, time.September, 1, 0, 0, 0, 0, loc), start)
	assert.Equal(t, time.Date(2026, time.August, 31, 23, 59, 59, 0, loc), end)
}

func TestCalendarServiceDefaultSchoolStartYear(t *testing.T) {
	loc := parisLocation(t)
	service := NewCalendarService(loc)

	assert.Equal(t, 2025, service.DefaultSchoolStartYear(time.Date(2025, time.September, 1, 0, 0, 0, 0, loc)))
	assert.Equal(t, 2025, service.DefaultSchoolStartYear(time.Date(2026, time.March, 15, 10, 0, 0, 0, loc)))
	assert.Equal(t, 2025, service.DefaultSchoolStartYear(time.Date(2026, time.August, 31, 23, 0, 0, 0, loc)))
	assert.Equal(t, 2026, service.DefaultSchoolStartYear(time.Date(2026, time.September, 2, 0, 0, 0, 0, loc)))
}

func TestCalendarServiceParseMonthKey(t *testing.T) {
	loc := parisLocation(t)
	service := NewCalendarService(loc)

	month, err := service.ParseMonthKey("2025-11")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, time.November, 1, 0, 0, 0, 0, loc), month)

	_, err = service.ParseMonthKey("november-2025")
	require.Error(t, err)
}

func TestCalendarServiceClampMonth(t *testing.T) {
	loc := parisLocation(t)
	service := NewCalendarService(loc)
	syStart, syEnd := service.SchoolYearRange(2025)

	clamped := service.ClampMonth(time.Date(2025, time.June, 1, 0, 0, 0, 0, loc), syStart, syEnd)
	assert.Equal(t, "2025-09", service.MonthKey(clamped))

	clamped = service.ClampMonth(time.Date(2026, time.October, 1, 0, 0, 0, 0, loc), syStart, syEnd)
	assert.Equal(t, "2026-08", service.MonthKey(clamped))

	clamped = service.ClampMonth(time.Date(2026, time.January, 1, 0, 0, 0, 0, loc), syStart, syEnd)
	assert.Equal(t, "2026-01", service.MonthKey(clamped))
}

func TestCalendarServiceBuildMonthView(t *testing.T) {
	loc := parisLocation(t)
	service := NewCalendarService(loc)
	syStart, syEnd := service.SchoolYearRange(2025)

	// November 2025 starts on a Saturday and has 30 days.
	records := []models.Attendance{
		{ChildID: "c1", Date: time.Date(2025, time.November, 8, 12, 0, 0, 0, loc), Status: models.AttendancePresent},
		{ChildID: "c1", Date: time.Date(2025, time.November, 15, 12, 0, 0, 0, loc), Status: models.AttendanceAbsent},
		// Not a Saturday, ignored for display.
		{ChildID: "c1", Date: time.Date(2025, time.November, 12, 12, 0, 0, 0, loc), Status: models.AttendancePresent},
	}
	view := service.BuildMonthView(time.Date(2025, time.November, 1, 0, 0, 0, 0, loc), records, syStart, syEnd)

	assert.Equal(t, "novembre 2025", view.Label)
	assert.Equal(t, "2025-11", view.MonthKey)
	assert.Equal(t, 5, view.StartPad)
	require.Len(t, view.Days, 30)

	first := view.Days[0]
	assert.True(t, first.IsSaturday)
	assert.Equal(t, models.DayNone, first.Status)

	assert.Equal(t, models.DayStatus(models.AttendancePresent), view.Days[7].Status)
	assert.Equal(t, models.DayStatus(models.AttendanceAbsent), view.Days[14].Status)

	// Wednesday the 12th stays off even though a record exists.
	assert.False(t, view.Days[11].IsSaturday)
	assert.Equal(t, models.DayOff, view.Days[11].Status)

	require.NotNil(t, view.Prev)
	require.NotNil(t, view.Next)
	assert.Equal(t, "2025-10", *view.Prev)
	assert.Equal(t, "2025-12", *view.Next)
}

func TestCalendarServiceBuildMonthViewYearBounds(t *testing.T) {
	loc := parisLocation(t)
	service := NewCalendarService(loc)
	syStart, syEnd := service.SchoolYearRange(2025)

	september := service.BuildMonthView(syStart, nil, syStart, syEnd)
	assert.Nil(t, september.Prev)
	require.NotNil(t, september.Next)
	assert.Equal(t, "2025-10", *september.Next)

	august := service.BuildMonthView(time.Date(2026, time.August, 1, 0, 0, 0, 0, loc), nil, syStart, syEnd)
	assert.Nil(t, august.Next)
	require.NotNil(t, august.Prev)
	assert.Equal(t, "2026-07", *august.Prev)
}

func TestCalendarServiceNormalizeDay(t *testing.T) {
	loc := parisLocation(t)
	service := NewCalendarService(loc)

	// 23:30 UTC on Friday is already Saturday in Paris.
	normalized := service.NormalizeDay(time.Date(2025, time.November, 7, 23, 30, 0, 0, time.UTC))
	assert.Equal(t, time.Date(2025, time.November, 8, 12, 0, 0, 0, loc), normalized)

	// Round-tripping through UTC keeps the civil date.
	assert.Equal(t, 8, normalized.UTC().In(loc).Day())
}

func TestCalendarServiceDayBounds(t *testing.T) {
	loc := parisLocation(t)
	service := NewCalendarService(loc)

	start, end := service.DayBounds(time.Date(2025, time.November, 8, 15, 4, 5, 0, loc))
	assert.Equal(t, time.Date(2025, time.November, 8, 0, 0, 0, 0, loc), start)
	assert.Equal(t, time.Date(2025, time.November, 9, 0, 0, 0, 0, loc), end)
}
