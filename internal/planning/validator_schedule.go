package planning

import (
	"context"
	"fmt"
	"strings"

	"github.com/goalcal/goalcal/internal/types"
)

// ScheduleValidator checks every schedule entry against the plan schema:
// parseable date, HH:MM-HH:MM slot with start before end, a known type,
// a positive duration and some content.
type ScheduleValidator struct{}

// Name returns the validator identifier.
func (v *ScheduleValidator) Name() string {
	return "schedule"
}

// Priority returns 2 (structural).
func (v *ScheduleValidator) Priority() int {
	return 2
}

// Validate checks each entry independently so every bad entry is reported.
func (v *ScheduleValidator) Validate(ctx context.Context, plan *types.GoalPlan, vctx *ValidationContext) ValidationResult {
	result := ValidationResult{
		Errors:   make([]ValidationError, 0),
		Warnings: make([]ValidationWarning, 0),
	}

	for p, phase := range plan.Phases {
		for t, task := range phase.Tasks {
			for e, entry := range task.DailySchedule {
				loc := entryLoc(p, t, e)

				if _, err := types.ParseDate(entry.Date); err != nil {
					result.Errors = append(result.Errors, ValidationError{
						Code:     "INVALID_DATE",
						Message:  err.Error(),
						Location: loc,
					})
				}
				if _, _, err := types.ParseTimeSlot(entry.TimeSlot); err != nil {
					result.Errors = append(result.Errors, ValidationError{
						Code:     "INVALID_TIME_SLOT",
						Message:  err.Error(),
						Location: loc,
					})
				}
				if !entry.Type.IsValid() {
					result.Errors = append(result.Errors, ValidationError{
						Code:     "INVALID_TYPE",
						Message:  fmt.Sprintf("type %q is not one of study, practice, review, project, milestone", entry.Type),
						Location: loc,
					})
				}
				if entry.Duration <= 0 {
					result.Errors = append(result.Errors, ValidationError{
						Code:     "INVALID_DURATION",
						Message:  fmt.Sprintf("duration must be a positive number of minutes (got %d)", entry.Duration),
						Location: loc,
					})
				}
				if strings.TrimSpace(entry.Content) == "" {
					result.Errors = append(result.Errors, ValidationError{
						Code:     "CONTENT_MISSING",
						Message:  "content is required",
						Location: loc,
					})
				}
			}
		}
	}

	return result
}
