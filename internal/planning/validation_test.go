package planning

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goalcal/goalcal/internal/types"
)

// brokenPlan trips one check in each built-in validator. Its mutations are
// listed in validator priority order.
func brokenPlan() *types.GoalPlan {
	plan := validPlan()
	plan.GoalTitle = ""                                          // structure
	plan.Phases[0].Tasks[0].DailySchedule[1].Type = "nap"        // schedule
	plan.Milestones[0].Title = ""                                // milestone
	plan.Phases[0].Tasks[0].DailySchedule[0].Date = "2023-12-31" // window
	return plan
}

func TestDefaultRegistry_CollectsAcrossValidators(t *testing.T) {
	// 30 minutes a day puts both scheduled days over budget
	input := &types.GoalInput{DailyTimeAvailable: "30分钟"}
	result := DefaultRegistry().ValidateAll(context.Background(), brokenPlan(), &ValidationContext{Input: input})

	assert.Equal(t, []string{"GOAL_TITLE_MISSING", "INVALID_TYPE", "MILESTONE_TITLE_MISSING"}, codes(result.Errors),
		"errors come back in validator priority order")
	assert.Equal(t, []string{"BEFORE_START", "OVER_DAILY_BUDGET", "OVER_DAILY_BUDGET"}, warningCodes(result.Warnings),
		"window warnings precede budget warnings")

	assert.False(t, result.IsValid())
	assert.True(t, result.HasWarnings())
	assert.Equal(t, "phases[0].tasks[0].dailySchedule[1]", result.Errors[1].Location)
	assert.Equal(t, []string{"2023-12-31", "2024-01-01"},
		[]string{result.Warnings[1].Location, result.Warnings[2].Location})
}

func TestDefaultRegistry_WarningsOnlyPlanIsAccepted(t *testing.T) {
	plan := validPlan()
	plan.Phases[0].Tasks[0].DailySchedule[1].Date = "2024-06-01"

	result := DefaultRegistry().ValidateAll(context.Background(), plan, nil)

	assert.True(t, result.IsValid())
	assert.NoError(t, result.Err())
	require.Len(t, result.Warnings, 1)
	assert.Equal(t, "AFTER_END", result.Warnings[0].Code)
	assert.Equal(t, "LOW", result.Warnings[0].Severity.String())
}

func TestDefaultRegistry_BudgetNeedsInput(t *testing.T) {
	// Without the user's input there is nothing to compare durations against
	result := DefaultRegistry().ValidateAll(context.Background(), brokenPlan(), nil)
	assert.NotContains(t, warningCodes(result.Warnings), "OVER_DAILY_BUDGET")
	assert.Len(t, result.Errors, 3)
}

// recordingValidator notes when it ran so ordering is observable.
type recordingValidator struct {
	name     string
	priority int
	trace    *[]string
}

func (v *recordingValidator) Name() string  { return v.name }
func (v *recordingValidator) Priority() int { return v.priority }
func (v *recordingValidator) Validate(ctx context.Context, plan *types.GoalPlan, vctx *ValidationContext) ValidationResult {
	*v.trace = append(*v.trace, v.name)
	return ValidationResult{}
}

func TestRegister_CustomValidatorRunsByPriority(t *testing.T) {
	var trace []string
	registry := DefaultRegistry()
	registry.Register(&recordingValidator{name: "between_milestone_and_window", priority: 5, trace: &trace})
	registry.Register(&recordingValidator{name: "last", priority: 99, trace: &trace})
	registry.Register(&recordingValidator{name: "first", priority: 0, trace: &trace})

	names := make([]string, 0, len(registry.validators))
	for _, v := range registry.validators {
		names = append(names, v.Name())
	}
	assert.Equal(t, []string{
		"first", "structure", "schedule", "milestones", "between_milestone_and_window",
		"window", "daily_budget", "last",
	}, names)

	result := registry.ValidateAll(context.Background(), validPlan(), nil)
	assert.True(t, result.IsValid())
	assert.Equal(t, []string{"first", "between_milestone_and_window", "last"}, trace)
}

func TestValidationResult_Err(t *testing.T) {
	plan := validPlan()
	for i := range plan.Phases[0].Tasks[0].DailySchedule {
		plan.Phases[0].Tasks[0].DailySchedule[i].Duration = 0
		plan.Phases[0].Tasks[0].DailySchedule[i].Content = ""
	}
	plan.Milestones = append(plan.Milestones, types.Milestone{Date: "later", Title: "Ship"})

	result := DefaultRegistry().ValidateAll(context.Background(), plan, nil)
	require.Len(t, result.Errors, 5)

	err := result.Err()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "INVALID_DURATION at phases[0].tasks[0].dailySchedule[0]")
	assert.NotContains(t, err.Error(), "more")

	plan.GoalTitle = ""
	result = DefaultRegistry().ValidateAll(context.Background(), plan, nil)
	require.Len(t, result.Errors, 6)
	assert.Contains(t, result.Err().Error(), "and 1 more")
}
