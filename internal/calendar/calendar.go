// Package calendar derives date-keyed views of a goal plan for rendering.
// Nothing here mutates the plan.
package calendar

import (
	"sort"

	"github.com/goalcal/goalcal/internal/types"
)

// Entry is a schedule entry together with where it sits in the plan.
type Entry struct {
	types.DailySchedule
	Ref       types.ScheduleRef `json:"ref"`
	PhaseName string            `json:"phaseName"`
	TaskTitle string            `json:"taskTitle"`
}

// Index maps a YYYY-MM-DD date to the entries scheduled on it, in plan order
// (phase, then task, then schedule position).
type Index map[string][]Entry

// IndexByDate flattens the plan into an Index in one pass.
func IndexByDate(plan *types.GoalPlan) Index {
	idx := make(Index)
	if plan == nil {
		return idx
	}
	for p, phase := range plan.Phases {
		for t, task := range phase.Tasks {
			for e, entry := range task.DailySchedule {
				idx[entry.Date] = append(idx[entry.Date], Entry{
					DailySchedule: entry,
					Ref:           types.ScheduleRef{Phase: p, Task: t, Entry: e},
					PhaseName:     phase.PhaseName,
					TaskTitle:     task.Title,
				})
			}
		}
	}
	return idx
}

// TasksOn returns the schedule entries on date. Dates with nothing scheduled
// yield an empty, non-nil slice.
func (idx Index) TasksOn(date string) []types.DailySchedule {
	entries := idx[date]
	out := make([]types.DailySchedule, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.DailySchedule)
	}
	return out
}

// EntriesOn is TasksOn with plan positions, for callers that edit entries.
func (idx Index) EntriesOn(date string) []Entry {
	entries := idx[date]
	out := make([]Entry, len(entries))
	copy(out, entries)
	return out
}

// Dates returns every date with at least one entry, ascending.
func (idx Index) Dates() []string {
	dates := make([]string, 0, len(idx))
	for d := range idx {
		dates = append(dates, d)
	}
	sort.Strings(dates)
	return dates
}
