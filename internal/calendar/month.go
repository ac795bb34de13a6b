package calendar

import (
	"time"

	"github.com/goalcal/goalcal/internal/types"
)

// Weekdays are the column headers of a Sunday-first month grid
var Weekdays = [7]string{"日", "一", "二", "三", "四", "五", "六"}

// Day is one cell of a month grid. Blank cells pad the first and last week.
type Day struct {
	Date      string `json:"date,omitempty"`
	Day       int    `json:"day,omitempty"`
	Blank     bool   `json:"blank,omitempty"`
	IsToday   bool   `json:"isToday,omitempty"`
	HasEvents bool   `json:"hasEvents"`
	Entries   int    `json:"entries"`
	Completed int    `json:"completed"`
}

// Week is seven consecutive cells, Sunday first.
type Week struct {
	Days [7]Day `json:"days"`
}

// CalendarMonth is the grid for one month.
type CalendarMonth struct {
	Year  int        `json:"year"`
	Month time.Month `json:"month"`
	Weeks []Week     `json:"weeks"`
}

// Month lays out year/month as Sunday-first weeks, marking days that have
// entries in idx and the day equal to today's date.
func Month(year int, month time.Month, idx Index, today time.Time) CalendarMonth {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	daysInMonth := first.AddDate(0, 1, -1).Day()
	todayKey := today.Format(types.DateLayout)

	cells := make([]Day, 0, 42)
	for i := 0; i < int(first.Weekday()); i++ {
		cells = append(cells, Day{Blank: true})
	}
	for d := 1; d <= daysInMonth; d++ {
		date := time.Date(year, month, d, 0, 0, 0, 0, time.UTC).Format(types.DateLayout)
		day := Day{Date: date, Day: d, IsToday: date == todayKey}
		for _, e := range idx[date] {
			day.Entries++
			if e.Completed {
				day.Completed++
			}
		}
		day.HasEvents = day.Entries > 0
		cells = append(cells, day)
	}
	for len(cells)%7 != 0 {
		cells = append(cells, Day{Blank: true})
	}

	cm := CalendarMonth{Year: year, Month: month, Weeks: make([]Week, 0, len(cells)/7)}
	for i := 0; i < len(cells); i += 7 {
		var w Week
		copy(w.Days[:], cells[i:i+7])
		cm.Weeks = append(cm.Weeks, w)
	}
	return cm
}

// Next returns the following month.
func (m CalendarMonth) Next() (int, time.Month) {
	t := time.Date(m.Year, m.Month+1, 1, 0, 0, 0, 0, time.UTC)
	return t.Year(), t.Month()
}

// Prev returns the preceding month.
func (m CalendarMonth) Prev() (int, time.Month) {
	t := time.Date(m.Year, m.Month-1, 1, 0, 0, 0, 0, time.UTC)
	return t.Year(), t.Month()
}
