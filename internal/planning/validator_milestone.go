package planning

import (
	"context"
	"fmt"
	"strings"

	"github.com/goalcal/goalcal/internal/types"
)

// MilestoneValidator checks milestone dates and titles.
type MilestoneValidator struct{}

// Name returns the validator identifier.
func (v *MilestoneValidator) Name() string {
	return "milestones"
}

// Priority returns 3 (structural).
func (v *MilestoneValidator) Priority() int {
	return 3
}

// Validate checks each milestone.
func (v *MilestoneValidator) Validate(ctx context.Context, plan *types.GoalPlan, vctx *ValidationContext) ValidationResult {
	result := ValidationResult{
		Errors:   make([]ValidationError, 0),
		Warnings: make([]ValidationWarning, 0),
	}

	for i, m := range plan.Milestones {
		loc := fmt.Sprintf("milestones[%d]", i)
		if _, err := types.ParseDate(m.Date); err != nil {
			result.Errors = append(result.Errors, ValidationError{
				Code:     "INVALID_DATE",
				Message:  err.Error(),
				Location: loc,
			})
		}
		if strings.TrimSpace(m.Title) == "" {
			result.Errors = append(result.Errors, ValidationError{
				Code:     "MILESTONE_TITLE_MISSING",
				Message:  "milestone title is required",
				Location: loc,
			})
		}
	}

	return result
}
