package ai

import (
	"fmt"
	"strings"

	"github.com/goalcal/goalcal/internal/types"
)

// systemPrompt sets the planner persona. Plans are produced in Chinese to
// match the calendar labels and export text.
const systemPrompt = `你是一位经验丰富的学习规划师和时间管理顾问。你擅长把一个长期目标拆解为循序渐进的阶段和任务，并为每个任务安排具体到日期和时间段的日程。你只输出符合要求的JSON，不输出任何解释文字。`

// buildPlanningPrompt embeds every input field and the exact JSON shape the
// reply must follow.
func buildPlanningPrompt(input *types.GoalInput) string {
	description := strings.TrimSpace(input.Description)
	if description == "" {
		description = "无"
	}
	priority := string(input.Priority)
	if priority == "" {
		priority = string(types.PriorityMedium)
	}

	return fmt.Sprintf(`请为下面的目标制定一份详细的执行计划。

目标：%s
时间范围：%s
开始日期：%s
每天可用时间：%s
优先级：%s
补充说明：%s

要求：
1. 把计划分为若干阶段，每个阶段包含具体任务。
2. 每个任务给出每日日程，日期使用 YYYY-MM-DD 格式，不早于开始日期，且不超出时间范围。
3. 时间段使用 HH:MM-HH:MM 格式，每天安排的总时长不超过每天可用时间。
4. type 只能是 study、practice、review、project、milestone 之一。
5. duration 为分钟数（整数），应与时间段长度一致。
6. 设置若干里程碑用于检查进度。

请只返回如下结构的JSON：
{
  "goalTitle": "目标标题",
  "totalDuration": "总时长，例如3个月",
  "phases": [
    {
      "phaseId": "phase_1",
      "phaseName": "阶段名称",
      "duration": "阶段时长，例如2周",
      "tasks": [
        {
          "taskId": "task_1_1",
          "title": "任务标题",
          "description": "任务描述",
          "estimatedHours": 10,
          "dailySchedule": [
            {
              "date": "YYYY-MM-DD",
              "timeSlot": "19:00-21:00",
              "content": "当天具体内容",
              "type": "study",
              "duration": 120,
              "completed": false
            }
          ]
        }
      ]
    }
  ],
  "milestones": [
    {
      "date": "YYYY-MM-DD",
      "title": "里程碑标题",
      "description": "里程碑描述",
      "completed": false
    }
  ]
}`,
		input.Goal,
		input.Timeframe,
		input.StartDate,
		input.DailyTimeAvailable,
		priority,
		description,
	)
}
