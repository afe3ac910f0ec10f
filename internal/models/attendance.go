package models

import "time"

// AttendanceStatus is the recorded state for a child on one activity day.
// The roster form only writes present/absent; late and excused may exist in
// older rows and are accepted for display.
type AttendanceStatus string

const (
	AttendancePresent AttendanceStatus = "present"
	AttendanceAbsent  AttendanceStatus = "absent"
	AttendanceLate    AttendanceStatus = "late"
	AttendanceExcused AttendanceStatus = "excused"

	// AttendanceUnset is a form value only, never stored: it clears the row.
	AttendanceUnset AttendanceStatus = "unset"
)

// Writable reports whether the roster form may persist this status.
func (s AttendanceStatus) Writable() bool {
	return s == AttendancePresent || s == AttendanceAbsent
}

// Attendance is one child's record for one day, unique on (child, date).
// No row means "unset".
type Attendance struct {
	ID        string           `db:"id" json:"id"`
	ChildID   string           `db:"child_id" json:"child_id"`
	Date      time.Time        `db:"date" json:"date"`
	Status    AttendanceStatus `db:"status" json:"status"`
	Notes     *string          `db:"notes" json:"notes,omitempty"`
	CreatedAt time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt time.Time        `db:"updated_at" json:"updated_at"`
}

// RosterResult reports what a roster submission changed.
type RosterResult struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
	Deleted int `json:"deleted"`
}

// PresenceStats aggregates present/absent counts over a period.
type PresenceStats struct {
	Present int `json:"present"`
	Absent  int `json:"absent"`
	Total   int `json:"total"`
}

// PresencePercent returns the present share in percent, 0 when empty.
func (s PresenceStats) PresencePercent() int {
	if s.Total == 0 {
		return 0
	}
	return int(float64(s.Present)*100/float64(s.Total) + 0.5)
}
