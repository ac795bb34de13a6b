package planning

import (
	"context"
	"testing"

	"github.com/goalcal/goalcal/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validPlan() *types.GoalPlan {
	return &types.GoalPlan{
		GoalID:    "g1",
		GoalTitle: "Learn Go",
		StartDate: "2024-01-01",
		EndDate:   "2024-04-01",
		Phases: []types.Phase{
			{
				PhaseID:   "phase_1",
				PhaseName: "Basics",
				Tasks: []types.Task{
					{
						TaskID:         "task_1",
						Title:          "Syntax",
						EstimatedHours: 4,
						DailySchedule: []types.DailySchedule{
							{Date: "2024-01-01", TimeSlot: "09:00-10:00", Content: "Tour", Type: types.TypeStudy, Duration: 60},
							{Date: "2024-01-01", TimeSlot: "19:00-20:00", Content: "Drills", Type: types.TypePractice, Duration: 60},
						},
					},
				},
			},
		},
		Milestones: []types.Milestone{{Date: "2024-02-01", Title: "First program"}},
	}
}

func codes(errs []ValidationError) []string {
	out := make([]string, 0, len(errs))
	for _, e := range errs {
		out = append(out, e.Code)
	}
	return out
}

func warningCodes(ws []ValidationWarning) []string {
	out := make([]string, 0, len(ws))
	for _, w := range ws {
		out = append(out, w.Code)
	}
	return out
}

func TestDefaultRegistry_ValidPlan(t *testing.T) {
	input := &types.GoalInput{DailyTimeAvailable: "2小时"}
	result := DefaultRegistry().ValidateAll(context.Background(), validPlan(), &ValidationContext{Input: input})

	assert.True(t, result.IsValid(), "unexpected errors: %v", result.Errors)
	assert.Empty(t, result.Warnings)
}

func TestStructureValidator(t *testing.T) {
	plan := validPlan()
	plan.GoalTitle = " "
	plan.Phases[0].PhaseName = ""
	plan.Phases[0].Tasks[0].Title = ""
	plan.Phases[0].Tasks[0].EstimatedHours = -1
	plan.Phases = append(plan.Phases, types.Phase{PhaseID: "phase_2", PhaseName: "Empty"})

	result := (&StructureValidator{}).Validate(context.Background(), plan, &ValidationContext{})

	assert.ElementsMatch(t,
		[]string{"GOAL_TITLE_MISSING", "PHASE_NAME_MISSING", "TASK_TITLE_MISSING", "TASK_ESTIMATE_NEGATIVE"},
		codes(result.Errors))
	assert.Equal(t, []string{"PHASE_EMPTY"}, warningCodes(result.Warnings))
}

func TestStructureValidator_NoPhases(t *testing.T) {
	plan := validPlan()
	plan.Phases = nil

	result := (&StructureValidator{}).Validate(context.Background(), plan, nil)
	assert.Equal(t, []string{"NO_PHASES"}, codes(result.Errors))
}

func TestScheduleValidator(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(e *types.DailySchedule)
		wantCode string
	}{
		{"bad date", func(e *types.DailySchedule) { e.Date = "2024-13-01" }, "INVALID_DATE"},
		{"reversed slot", func(e *types.DailySchedule) { e.TimeSlot = "10:00-09:00" }, "INVALID_TIME_SLOT"},
		{"unknown type", func(e *types.DailySchedule) { e.Type = "nap" }, "INVALID_TYPE"},
		{"zero duration", func(e *types.DailySchedule) { e.Duration = 0 }, "INVALID_DURATION"},
		{"empty content", func(e *types.DailySchedule) { e.Content = "" }, "CONTENT_MISSING"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan := validPlan()
			tt.mutate(&plan.Phases[0].Tasks[0].DailySchedule[1])

			result := (&ScheduleValidator{}).Validate(context.Background(), plan, &ValidationContext{})
			require.Len(t, result.Errors, 1)
			assert.Equal(t, tt.wantCode, result.Errors[0].Code)
			assert.Equal(t, "phases[0].tasks[0].dailySchedule[1]", result.Errors[0].Location)
		})
	}
}

func TestMilestoneValidator(t *testing.T) {
	plan := validPlan()
	plan.Milestones = append(plan.Milestones, types.Milestone{Date: "soon", Title: ""})

	result := (&MilestoneValidator{}).Validate(context.Background(), plan, &ValidationContext{})
	assert.ElementsMatch(t, []string{"INVALID_DATE", "MILESTONE_TITLE_MISSING"}, codes(result.Errors))
}

func TestWindowValidator(t *testing.T) {
	plan := validPlan()
	plan.Phases[0].Tasks[0].DailySchedule[0].Date = "2023-12-31"
	plan.Phases[0].Tasks[0].DailySchedule[1].Date = "2024-05-01"

	result := (&WindowValidator{}).Validate(context.Background(), plan, &ValidationContext{})
	assert.Empty(t, result.Errors)
	assert.Equal(t, []string{"BEFORE_START", "AFTER_END"}, warningCodes(result.Warnings))
}

func TestDailyBudgetValidator(t *testing.T) {
	plan := validPlan()

	tight := &types.GoalInput{DailyTimeAvailable: "1小时"}
	result := (&DailyBudgetValidator{}).Validate(context.Background(), plan, &ValidationContext{Input: tight})
	require.Len(t, result.Warnings, 1)
	assert.Equal(t, "OVER_DAILY_BUDGET", result.Warnings[0].Code)
	assert.Equal(t, "2024-01-01", result.Warnings[0].Location)

	minutes := &types.GoalInput{DailyTimeAvailable: "150分钟"}
	result = (&DailyBudgetValidator{}).Validate(context.Background(), plan, &ValidationContext{Input: minutes})
	assert.Empty(t, result.Warnings)

	unparseable := &types.GoalInput{DailyTimeAvailable: "evenings"}
	result = (&DailyBudgetValidator{}).Validate(context.Background(), plan, &ValidationContext{Input: unparseable})
	assert.Empty(t, result.Warnings)
}
