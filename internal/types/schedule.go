package types

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the wire format of every date field in a plan
const DateLayout = "2006-01-02"

var clockRegex = regexp.MustCompile(`^(\d{1,2}):(\d{2})$`)

// ErrScheduleNotFound is returned when a ScheduleRef does not address an entry
var ErrScheduleNotFound = errors.New("schedule entry not found")

// ParseDate parses a YYYY-MM-DD date in UTC
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("date %q is not YYYY-MM-DD", s)
	}
	return t, nil
}

// Clock is a time of day in minutes since midnight
type Clock int

// Hour returns the hour component
func (c Clock) Hour() int { return int(c) / 60 }

// Minute returns the minute component
func (c Clock) Minute() int { return int(c) % 60 }

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour(), c.Minute())
}

// ParseTimeSlot parses "HH:MM-HH:MM". The start must be strictly before the
// end; slots spanning midnight are rejected.
func ParseTimeSlot(slot string) (start, end Clock, err error) {
	parts := strings.Split(slot, "-")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("time slot %q is not HH:MM-HH:MM", slot)
	}
	start, err = parseClock(parts[0])
	if err != nil {
		return 0, 0, fmt.Errorf("time slot %q: %w", slot, err)
	}
	end, err = parseClock(parts[1])
	if err != nil {
		return 0, 0, fmt.Errorf("time slot %q: %w", slot, err)
	}
	if start >= end {
		return 0, 0, fmt.Errorf("time slot %q: start must be before end", slot)
	}
	return start, end, nil
}

func parseClock(s string) (Clock, error) {
	m := clockRegex.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return 0, fmt.Errorf("invalid time %q", s)
	}
	h, _ := strconv.Atoi(m[1])
	mins, _ := strconv.Atoi(m[2])
	// 24:00 is allowed as an end-of-day marker
	if h > 24 || mins > 59 || (h == 24 && mins != 0) {
		return 0, fmt.Errorf("invalid time %q", s)
	}
	return Clock(h*60 + mins), nil
}

// Validate checks a single schedule entry
func (s *DailySchedule) Validate() error {
	if _, err := ParseDate(s.Date); err != nil {
		return err
	}
	if strings.TrimSpace(s.Content) == "" {
		return fmt.Errorf("content is required")
	}
	if _, _, err := ParseTimeSlot(s.TimeSlot); err != nil {
		return err
	}
	if !s.Type.IsValid() {
		return fmt.Errorf("invalid schedule type: %q", s.Type)
	}
	if s.Duration <= 0 {
		return fmt.Errorf("duration must be positive (got %d)", s.Duration)
	}
	return nil
}

// ScheduleRef addresses one entry by its position in the plan hierarchy
type ScheduleRef struct {
	Phase int `json:"phase"`
	Task  int `json:"task"`
	Entry int `json:"entry"`
}

func (r ScheduleRef) String() string {
	return fmt.Sprintf("%d/%d/%d", r.Phase, r.Task, r.Entry)
}

// Locate returns a pointer to the addressed entry
func (p *GoalPlan) Locate(ref ScheduleRef) (*DailySchedule, error) {
	if ref.Phase < 0 || ref.Phase >= len(p.Phases) {
		return nil, fmt.Errorf("%w: phase %d", ErrScheduleNotFound, ref.Phase)
	}
	phase := &p.Phases[ref.Phase]
	if ref.Task < 0 || ref.Task >= len(phase.Tasks) {
		return nil, fmt.Errorf("%w: task %d in phase %d", ErrScheduleNotFound, ref.Task, ref.Phase)
	}
	task := &phase.Tasks[ref.Task]
	if ref.Entry < 0 || ref.Entry >= len(task.DailySchedule) {
		return nil, fmt.Errorf("%w: entry %s", ErrScheduleNotFound, ref)
	}
	return &task.DailySchedule[ref.Entry], nil
}

// ScheduleEdit carries the editable fields of a schedule entry. Nil fields
// are left unchanged. The date is not editable.
type ScheduleEdit struct {
	Content  *string       `json:"content,omitempty"`
	TimeSlot *string       `json:"timeSlot,omitempty"`
	Type     *ScheduleType `json:"type,omitempty"`
	Duration *int          `json:"duration,omitempty"`
}

// IsEmpty reports whether the edit changes nothing
func (e ScheduleEdit) IsEmpty() bool {
	return e.Content == nil && e.TimeSlot == nil && e.Type == nil && e.Duration == nil
}

// EditSchedule applies an edit to one entry. The edited entry is validated
// as a whole and the plan is left untouched if it is invalid.
func (p *GoalPlan) EditSchedule(ref ScheduleRef, edit ScheduleEdit) error {
	entry, err := p.Locate(ref)
	if err != nil {
		return err
	}

	updated := *entry
	if edit.Content != nil {
		updated.Content = *edit.Content
	}
	if edit.TimeSlot != nil {
		updated.TimeSlot = strings.TrimSpace(*edit.TimeSlot)
	}
	if edit.Type != nil {
		updated.Type = *edit.Type
	}
	if edit.Duration != nil {
		updated.Duration = *edit.Duration
	}

	if err := updated.Validate(); err != nil {
		return err
	}

	*entry = updated
	return nil
}

// SetCompleted marks one entry done or not done
func (p *GoalPlan) SetCompleted(ref ScheduleRef, completed bool) error {
	entry, err := p.Locate(ref)
	if err != nil {
		return err
	}
	entry.Completed = completed
	return nil
}

// SetProgress sets overallProgress manually, clamped to 0..100.
// Progress is never derived from completion flags.
func (p *GoalPlan) SetProgress(progress int) {
	if progress < 0 {
		progress = 0
	}
	if progress > 100 {
		progress = 100
	}
	p.OverallProgress = progress
}
