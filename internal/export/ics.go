// Package export converts a plan's schedule into an iCalendar file and
// delivers it to a sink.
package export

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/goalcal/goalcal/internal/types"
)

const (
	// ProdID identifies the generator in the VCALENDAR header
	ProdID = "-//Goal Calendar//Goal Calendar App//CN"

	// DefaultTimezone is the zone schedule times are interpreted in
	DefaultTimezone = "Asia/Shanghai"

	calendarDescription = "由Goal日历生成的学习计划"
	uidDomain           = "goalcalendar.com"
	utcBasicLayout      = "20060102T150405Z"
	maxLineOctets       = 75
)

// Event is one calendar event derived from a schedule entry.
type Event struct {
	Title       string
	Start       time.Time
	End         time.Time
	Description string
}

// Events converts every schedule entry, in plan order, to an Event. Dates
// and time slots are read as wall-clock times in loc. An entry whose end is
// not after its start is an error; overnight slots are not supported. An
// end of 24:00 is midnight of the following day.
func Events(plan *types.GoalPlan, loc *time.Location) ([]Event, error) {
	if loc == nil {
		loc = time.UTC
	}
	events := make([]Event, 0, plan.ScheduleCount())
	for p, phase := range plan.Phases {
		for t, task := range phase.Tasks {
			for e, entry := range task.DailySchedule {
				ref := types.ScheduleRef{Phase: p, Task: t, Entry: e}

				day, err := types.ParseDate(entry.Date)
				if err != nil {
					return nil, fmt.Errorf("entry %s: invalid date %q: %w", ref, entry.Date, err)
				}
				start, end, err := types.ParseTimeSlot(entry.TimeSlot)
				if err != nil {
					return nil, fmt.Errorf("entry %s: %w", ref, err)
				}

				events = append(events, Event{
					Title: entry.Content,
					Start: wallClock(day, start, loc),
					End:   wallClock(day, end, loc),
					Description: fmt.Sprintf("目标: %s\n阶段: %s\n任务类型: %s\n预计时长: %d分钟",
						plan.GoalTitle, phase.PhaseName, entry.Type.Label(), entry.Duration),
				})
			}
		}
	}
	return events, nil
}

// wallClock builds the instant from calendar fields so days with a DST
// transition keep the written hour.
func wallClock(day time.Time, c types.Clock, loc *time.Location) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), c.Hour(), c.Minute(), 0, 0, loc)
}

// ICSOptions controls header fields and the generation timestamp.
type ICSOptions struct {
	// Timezone is advertised in X-WR-TIMEZONE (default: Asia/Shanghai).
	// Event times are always written in UTC.
	Timezone string

	// Now stamps DTSTAMP (default: time.Now())
	Now time.Time

	// NewUID returns the local part of each event UID (default: uuid.NewString)
	NewUID func() string
}

// ICS renders events as an RFC 5545 calendar with CRLF line endings.
func ICS(events []Event, calendarName string, opts ICSOptions) string {
	tz := opts.Timezone
	if tz == "" {
		tz = DefaultTimezone
	}
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}
	stamp := formatUTC(now)
	newUID := opts.NewUID
	if newUID == nil {
		newUID = uuid.NewString
	}

	lines := []string{
		"BEGIN:VCALENDAR",
		"VERSION:2.0",
		"PRODID:" + ProdID,
		"CALSCALE:GREGORIAN",
		"METHOD:PUBLISH",
		"X-WR-CALNAME:" + escapeText(calendarName),
		"X-WR-TIMEZONE:" + tz,
		"X-WR-CALDESC:" + calendarDescription,
	}

	for _, ev := range events {
		lines = append(lines,
			"BEGIN:VEVENT",
			"UID:"+newUID()+"@"+uidDomain,
			"DTSTAMP:"+stamp,
			"DTSTART:"+formatUTC(ev.Start),
			"DTEND:"+formatUTC(ev.End),
			"SUMMARY:"+escapeText(ev.Title),
			"DESCRIPTION:"+escapeText(ev.Description),
			"STATUS:CONFIRMED",
			"TRANSP:OPAQUE",
			"END:VEVENT",
		)
	}
	lines = append(lines, "END:VCALENDAR")

	var b strings.Builder
	for i, line := range lines {
		if i > 0 {
			b.WriteString("\r\n")
		}
		b.WriteString(foldLine(line))
	}
	return b.String()
}

func formatUTC(t time.Time) string {
	return t.UTC().Format(utcBasicLayout)
}

var textEscaper = strings.NewReplacer(
	`\`, `\\`,
	`,`, `\,`,
	`;`, `\;`,
	"\r\n", `\n`,
	"\n", `\n`,
	"\r", `\n`,
)

// escapeText escapes a TEXT property value.
func escapeText(s string) string {
	return textEscaper.Replace(s)
}

// foldLine splits lines longer than 75 octets, continuing each with a CRLF
// and a single space. Cuts never land inside a UTF-8 sequence.
func foldLine(line string) string {
	if len(line) <= maxLineOctets {
		return line
	}
	var b strings.Builder
	limit := maxLineOctets
	for len(line) > limit {
		cut := limit
		for cut > 0 && !utf8.RuneStart(line[cut]) {
			cut--
		}
		b.WriteString(line[:cut])
		b.WriteString("\r\n ")
		line = line[cut:]
		// Continuation lines lose one octet to the leading space
		limit = maxLineOctets - 1
	}
	b.WriteString(line)
	return b.String()
}
