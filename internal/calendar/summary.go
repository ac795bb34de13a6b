package calendar

import "github.com/goalcal/goalcal/internal/types"

// Tally counts schedule entries and their planned minutes.
type Tally struct {
	Entries          int `json:"entries"`
	CompletedEntries int `json:"completedEntries"`
	Minutes          int `json:"minutes"`
	CompletedMinutes int `json:"completedMinutes"`
}

// Percent is the share of completed entries, rounded down, 0 when empty.
func (t Tally) Percent() int {
	if t.Entries == 0 {
		return 0
	}
	return t.CompletedEntries * 100 / t.Entries
}

func (t *Tally) add(e types.DailySchedule) {
	t.Entries++
	t.Minutes += e.Duration
	if e.Completed {
		t.CompletedEntries++
		t.CompletedMinutes += e.Duration
	}
}

// PhaseSummary is the tally for one phase.
type PhaseSummary struct {
	PhaseID   string `json:"phaseId"`
	PhaseName string `json:"phaseName"`
	Tally
}

// Summary aggregates completion across a plan. It is informational only:
// the plan's overallProgress is set by the user, not derived from this.
type Summary struct {
	Tally
	Milestones          int            `json:"milestones"`
	CompletedMilestones int            `json:"completedMilestones"`
	FirstDate           string         `json:"firstDate,omitempty"`
	LastDate            string         `json:"lastDate,omitempty"`
	Phases              []PhaseSummary `json:"phases"`
}

// Summarize walks the plan once.
func Summarize(plan *types.GoalPlan) Summary {
	s := Summary{Phases: []PhaseSummary{}}
	if plan == nil {
		return s
	}

	for _, phase := range plan.Phases {
		ps := PhaseSummary{PhaseID: phase.PhaseID, PhaseName: phase.PhaseName}
		for _, task := range phase.Tasks {
			for _, e := range task.DailySchedule {
				ps.add(e)
				s.add(e)
				if s.FirstDate == "" || e.Date < s.FirstDate {
					s.FirstDate = e.Date
				}
				if e.Date > s.LastDate {
					s.LastDate = e.Date
				}
			}
		}
		s.Phases = append(s.Phases, ps)
	}

	for _, m := range plan.Milestones {
		s.Milestones++
		if m.Completed {
			s.CompletedMilestones++
		}
	}
	return s
}
