package ai

import (
	"time"

	"github.com/goalcal/goalcal/internal/types"
)

const (
	// defaultTimeframeMonths applies when the timeframe names no number
	defaultTimeframeMonths = 3

	// defaultFallbackHours applies when dailyTimeAvailable has no leading number
	defaultFallbackHours = 2
)

// EndDate adds the first integer found in timeframe, read as months, to
// startDate. Day overflow normalizes forward (01-31 plus one month is 03-02
// or 03-03). Returns "" if startDate is not a calendar date.
func EndDate(startDate, timeframe string) string {
	start, err := types.ParseDate(startDate)
	if err != nil {
		return ""
	}
	months, ok := types.FirstInteger(timeframe)
	if !ok {
		months = defaultTimeframeMonths
	}
	return start.AddDate(0, months, 0).Format(types.DateLayout)
}

// FallbackPlan is the minimal one-phase plan used whenever generation fails.
// It passes validation whenever the input itself does.
func FallbackPlan(input *types.GoalInput, goalID string, now time.Time) *types.GoalPlan {
	hours, ok := types.LeadingNumber(input.DailyTimeAvailable)
	if !ok || hours == 0 {
		hours = defaultFallbackHours
	}

	plan := &types.GoalPlan{
		GoalID:        goalID,
		GoalTitle:     input.Goal,
		TotalDuration: input.Timeframe,
		StartDate:     input.StartDate,
		EndDate:       EndDate(input.StartDate, input.Timeframe),
		Phases: []types.Phase{
			{
				PhaseID:   "phase_1",
				PhaseName: "基础学习阶段",
				Duration:  "1周",
				Tasks: []types.Task{
					{
						TaskID:         "task_1",
						Title:          "开始学习",
						Description:    "制定详细的学习计划并开始执行",
						EstimatedHours: hours,
						DailySchedule: []types.DailySchedule{
							{
								Date:     input.StartDate,
								TimeSlot: "19:00-21:00",
								Content:  "制定学习计划",
								Type:     types.TypeStudy,
								Duration: 120,
							},
						},
					},
				},
			},
		},
		Milestones: []types.Milestone{
			{
				Date:        input.StartDate,
				Title:       "开始执行目标",
				Description: "正式开始目标执行计划",
			},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
	plan.Normalize()
	return plan
}
