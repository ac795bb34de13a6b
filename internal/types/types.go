package types

import (
	"fmt"
	"strings"
	"time"
)

// GoalInput is what the user submits to get a plan generated
type GoalInput struct {
	Goal               string   `json:"goal"`
	Timeframe          string   `json:"timeframe"`
	StartDate          string   `json:"startDate"`
	DailyTimeAvailable string   `json:"dailyTimeAvailable"`
	Priority           Priority `json:"priority"`
	Description        string   `json:"description,omitempty"`
}

// Validate checks the fields the input form requires before generation
func (in *GoalInput) Validate() error {
	if strings.TrimSpace(in.Goal) == "" {
		return fmt.Errorf("goal is required")
	}
	if strings.TrimSpace(in.Timeframe) == "" {
		return fmt.Errorf("timeframe is required")
	}
	if strings.TrimSpace(in.DailyTimeAvailable) == "" {
		return fmt.Errorf("daily time available is required")
	}
	if _, err := ParseDate(in.StartDate); err != nil {
		return fmt.Errorf("invalid start date: %w", err)
	}
	if in.Priority != "" && !in.Priority.IsValid() {
		return fmt.Errorf("invalid priority: %s", in.Priority)
	}
	return nil
}

// Priority is the user's stated importance of a goal
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// IsValid checks if the priority value is valid
func (p Priority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// GoalPlan is the root aggregate: a goal decomposed into phases, tasks and
// dated schedule entries, plus milestones that sit outside that hierarchy.
type GoalPlan struct {
	GoalID          string      `json:"goalId"`
	GoalTitle       string      `json:"goalTitle"`
	TotalDuration   string      `json:"totalDuration"`
	StartDate       string      `json:"startDate"`
	EndDate         string      `json:"endDate,omitempty"`
	Phases          []Phase     `json:"phases"`
	Milestones      []Milestone `json:"milestones"`
	CreatedAt       time.Time   `json:"createdAt"`
	UpdatedAt       time.Time   `json:"updatedAt"`
	OverallProgress int         `json:"overallProgress"`
}

// Phase is a chronological segment of a plan
type Phase struct {
	PhaseID   string `json:"phaseId"`
	PhaseName string `json:"phaseName"`
	Duration  string `json:"duration"`
	Tasks     []Task `json:"tasks"`
}

// Task groups the schedule entries that work towards one outcome
type Task struct {
	TaskID         string          `json:"taskId"`
	Title          string          `json:"title"`
	Description    string          `json:"description"`
	EstimatedHours float64         `json:"estimatedHours"`
	DailySchedule  []DailySchedule `json:"dailySchedule"`
}

// DailySchedule is one dated, timed activity occurrence
type DailySchedule struct {
	Date      string       `json:"date"`
	TimeSlot  string       `json:"timeSlot"`
	Content   string       `json:"content"`
	Type      ScheduleType `json:"type"`
	Duration  int          `json:"duration"` // minutes
	Completed bool         `json:"completed"`
}

// Milestone is a dated checkpoint, not linked to any phase or task
type Milestone struct {
	Date        string `json:"date"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Completed   bool   `json:"completed"`
}

// ScheduleType classifies a schedule entry
type ScheduleType string

const (
	TypeStudy     ScheduleType = "study"
	TypePractice  ScheduleType = "practice"
	TypeReview    ScheduleType = "review"
	TypeProject   ScheduleType = "project"
	TypeMilestone ScheduleType = "milestone"
)

// ScheduleTypes lists the closed set of schedule types in display order
var ScheduleTypes = []ScheduleType{TypeStudy, TypePractice, TypeReview, TypeProject, TypeMilestone}

// IsValid checks if the schedule type value is valid
func (t ScheduleType) IsValid() bool {
	switch t {
	case TypeStudy, TypePractice, TypeReview, TypeProject, TypeMilestone:
		return true
	}
	return false
}

// Label returns the localized label shown in calendars and exports.
// Unknown types are returned verbatim.
func (t ScheduleType) Label() string {
	switch t {
	case TypeStudy:
		return "学习"
	case TypePractice:
		return "练习"
	case TypeReview:
		return "复习"
	case TypeProject:
		return "项目"
	case TypeMilestone:
		return "里程碑"
	default:
		return string(t)
	}
}

// Normalize replaces nil slices with empty ones at every level so the plan
// always serializes with [] instead of null.
func (p *GoalPlan) Normalize() {
	if p.Phases == nil {
		p.Phases = []Phase{}
	}
	if p.Milestones == nil {
		p.Milestones = []Milestone{}
	}
	for i := range p.Phases {
		if p.Phases[i].Tasks == nil {
			p.Phases[i].Tasks = []Task{}
		}
		for j := range p.Phases[i].Tasks {
			if p.Phases[i].Tasks[j].DailySchedule == nil {
				p.Phases[i].Tasks[j].DailySchedule = []DailySchedule{}
			}
		}
	}
}

// ScheduleCount returns the number of schedule entries across all tasks
func (p *GoalPlan) ScheduleCount() int {
	n := 0
	for _, phase := range p.Phases {
		for _, task := range phase.Tasks {
			n += len(task.DailySchedule)
		}
	}
	return n
}

// Clone returns a deep copy of the plan
func (p *GoalPlan) Clone() *GoalPlan {
	if p == nil {
		return nil
	}
	out := *p
	out.Phases = make([]Phase, len(p.Phases))
	for i, phase := range p.Phases {
		phase.Tasks = append([]Task(nil), phase.Tasks...)
		for j, task := range phase.Tasks {
			task.DailySchedule = append([]DailySchedule(nil), task.DailySchedule...)
			phase.Tasks[j] = task
		}
		out.Phases[i] = phase
	}
	out.Milestones = append([]Milestone(nil), p.Milestones...)
	out.Normalize()
	return &out
}
