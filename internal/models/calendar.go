package models

// DayStatus is the display state of a single calendar cell. Saturdays show
// the stored attendance status or "none"; every other weekday is "off".
type DayStatus string

const (
	DayOff  DayStatus = "off"
	DayNone DayStatus = "none"
)

// MonthDay is one cell of the month grid.
type MonthDay struct {
	Day        int       `json:"day"`
	IsSaturday bool      `json:"is_saturday"`
	Status     DayStatus `json:"status"`
}

// MonthView is the server-rendered calendar for one month of a school year.
// Prev/Next are "YYYY-MM" keys, nil when navigation would leave the school
// year.
type MonthView struct {
	Label    string     `json:"label"`
	MonthKey string     `json:"month_key"`
	StartPad int        `json:"start_pad"`
	Days     []MonthDay `json:"days"`
	Prev     *string    `json:"prev"`
	Next     *string    `json:"next"`
}
