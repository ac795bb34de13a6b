package planning

import (
	"context"
	"fmt"
	"sort"

	"github.com/goalcal/goalcal/internal/types"
)

// DailyBudgetValidator warns when the minutes scheduled on a single day
// exceed the daily time the user said they have.
type DailyBudgetValidator struct{}

// Name returns the validator identifier.
func (v *DailyBudgetValidator) Name() string {
	return "daily_budget"
}

// Priority returns 20 (advisory).
func (v *DailyBudgetValidator) Priority() int {
	return 20
}

// Validate sums durations per date and compares against the input budget.
// It is a no-op when no input is available or its daily time is unparseable.
func (v *DailyBudgetValidator) Validate(ctx context.Context, plan *types.GoalPlan, vctx *ValidationContext) ValidationResult {
	result := ValidationResult{
		Errors:   make([]ValidationError, 0),
		Warnings: make([]ValidationWarning, 0),
	}
	if vctx == nil || vctx.Input == nil {
		return result
	}
	budget, ok := vctx.Input.DailyMinutes()
	if !ok {
		return result
	}

	perDay := make(map[string]int)
	for _, phase := range plan.Phases {
		for _, task := range phase.Tasks {
			for _, entry := range task.DailySchedule {
				perDay[entry.Date] += entry.Duration
			}
		}
	}

	dates := make([]string, 0, len(perDay))
	for d := range perDay {
		dates = append(dates, d)
	}
	sort.Strings(dates)

	for _, d := range dates {
		if perDay[d] > budget {
			result.Warnings = append(result.Warnings, ValidationWarning{
				Code:     "OVER_DAILY_BUDGET",
				Message:  fmt.Sprintf("%d minutes scheduled on %s, daily budget is %d", perDay[d], d, budget),
				Location: d,
				Severity: WarningSeverityMedium,
			})
		}
	}

	return result
}
