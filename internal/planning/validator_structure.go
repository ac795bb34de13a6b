package planning

import (
	"context"
	"fmt"
	"strings"

	"github.com/goalcal/goalcal/internal/types"
)

// StructureValidator checks the required descriptive fields of a plan.
type StructureValidator struct{}

// Name returns the validator identifier.
func (v *StructureValidator) Name() string {
	return "structure"
}

// Priority returns 1 (structural).
func (v *StructureValidator) Priority() int {
	return 1
}

// Validate checks that the plan, its phases and tasks are named and that
// no phase is empty.
func (v *StructureValidator) Validate(ctx context.Context, plan *types.GoalPlan, vctx *ValidationContext) ValidationResult {
	result := ValidationResult{
		Errors:   make([]ValidationError, 0),
		Warnings: make([]ValidationWarning, 0),
	}

	if strings.TrimSpace(plan.GoalTitle) == "" {
		result.Errors = append(result.Errors, ValidationError{
			Code:     "GOAL_TITLE_MISSING",
			Message:  "goalTitle is required",
			Location: "plan",
		})
	}

	if len(plan.Phases) == 0 {
		result.Errors = append(result.Errors, ValidationError{
			Code:     "NO_PHASES",
			Message:  "plan must contain at least one phase",
			Location: "plan",
		})
	}

	for p, phase := range plan.Phases {
		if strings.TrimSpace(phase.PhaseName) == "" {
			result.Errors = append(result.Errors, ValidationError{
				Code:     "PHASE_NAME_MISSING",
				Message:  "phaseName is required",
				Location: phaseLoc(p),
			})
		}
		if len(phase.Tasks) == 0 {
			result.Warnings = append(result.Warnings, ValidationWarning{
				Code:     "PHASE_EMPTY",
				Message:  fmt.Sprintf("Phase '%s' has no tasks", phase.PhaseName),
				Location: phaseLoc(p),
				Severity: WarningSeverityMedium,
			})
		}
		for t, task := range phase.Tasks {
			if strings.TrimSpace(task.Title) == "" {
				result.Errors = append(result.Errors, ValidationError{
					Code:     "TASK_TITLE_MISSING",
					Message:  "task title is required",
					Location: taskLoc(p, t),
				})
			}
			if task.EstimatedHours < 0 {
				result.Errors = append(result.Errors, ValidationError{
					Code:     "TASK_ESTIMATE_NEGATIVE",
					Message:  fmt.Sprintf("estimatedHours must be non-negative (got %g)", task.EstimatedHours),
					Location: taskLoc(p, t),
				})
			}
		}
	}

	return result
}
