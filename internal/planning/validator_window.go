package planning

import (
	"context"
	"fmt"

	"github.com/goalcal/goalcal/internal/types"
)

// WindowValidator warns about entries scheduled outside the plan's
// [startDate, endDate] window. Entries with unparseable dates are left to
// ScheduleValidator.
type WindowValidator struct{}

// Name returns the validator identifier.
func (v *WindowValidator) Name() string {
	return "window"
}

// Priority returns 10 (advisory).
func (v *WindowValidator) Priority() int {
	return 10
}

// Validate compares entry dates against the plan window.
func (v *WindowValidator) Validate(ctx context.Context, plan *types.GoalPlan, vctx *ValidationContext) ValidationResult {
	result := ValidationResult{
		Errors:   make([]ValidationError, 0),
		Warnings: make([]ValidationWarning, 0),
	}

	start, err := types.ParseDate(plan.StartDate)
	if err != nil {
		return result
	}
	end, endErr := types.ParseDate(plan.EndDate)

	for p, phase := range plan.Phases {
		for t, task := range phase.Tasks {
			for e, entry := range task.DailySchedule {
				d, err := types.ParseDate(entry.Date)
				if err != nil {
					continue
				}
				if d.Before(start) {
					result.Warnings = append(result.Warnings, ValidationWarning{
						Code:     "BEFORE_START",
						Message:  fmt.Sprintf("entry on %s is before the plan starts (%s)", entry.Date, plan.StartDate),
						Location: entryLoc(p, t, e),
						Severity: WarningSeverityMedium,
					})
				} else if endErr == nil && d.After(end) {
					result.Warnings = append(result.Warnings, ValidationWarning{
						Code:     "AFTER_END",
						Message:  fmt.Sprintf("entry on %s is after the plan ends (%s)", entry.Date, plan.EndDate),
						Location: entryLoc(p, t, e),
						Severity: WarningSeverityLow,
					})
				}
			}
		}
	}

	return result
}
