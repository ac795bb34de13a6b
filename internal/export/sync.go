package export

import (
	"context"
	"fmt"
	"log/slog"
	"time"
	_ "time/tzdata" // Asia/Shanghai must resolve on hosts without zoneinfo

	"github.com/goalcal/goalcal/internal/types"
)

// Options configures Sync
type Options struct {
	// Timezone names the zone schedule times are read in (default: Asia/Shanghai)
	Timezone string

	// Now stamps the file (default: time.Now)
	Now func() time.Time
}

// Outcome is the user-facing result of an export.
type Outcome struct {
	Success  bool   `json:"success"`
	Message  string `json:"message"`
	Filename string `json:"filename,omitempty"`
	Events   int    `json:"events"`
}

// Render builds the calendar file for plan. It returns a nil content and no
// error when the plan has nothing scheduled.
func Render(plan *types.GoalPlan, opts Options) (filename string, content []byte, events int, err error) {
	tz := opts.Timezone
	if tz == "" {
		tz = DefaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return "", nil, 0, fmt.Errorf("unknown timezone %q: %w", tz, err)
	}
	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}

	evs, err := Events(plan, loc)
	if err != nil {
		return "", nil, 0, err
	}
	if len(evs) == 0 {
		return "", nil, 0, nil
	}

	ics := ICS(evs, plan.GoalTitle, ICSOptions{Timezone: tz, Now: now()})
	return Filename(plan.GoalTitle), []byte(ics), len(evs), nil
}

// Sync renders plan and hands the file to sink. Every failure is reported in
// the Outcome; nothing is delivered unless the whole file rendered.
func Sync(ctx context.Context, plan *types.GoalPlan, sink Sink, opts Options) Outcome {
	if plan == nil {
		return Outcome{Message: "没有可导出的计划"}
	}

	filename, content, events, err := Render(plan, opts)
	if err != nil {
		slog.Error("failed to render calendar file", "goalId", plan.GoalID, "error", err)
		return Outcome{Message: err.Error()}
	}
	if content == nil {
		return Outcome{Message: "计划中没有可同步的任务"}
	}

	if err := sink.Deliver(ctx, filename, content); err != nil {
		slog.Error("failed to deliver calendar file", "goalId", plan.GoalID, "filename", filename, "error", err)
		return Outcome{Message: err.Error(), Filename: filename, Events: events}
	}

	slog.Info("calendar file exported", "goalId", plan.GoalID, "filename", filename, "events", events)
	return Outcome{
		Success:  true,
		Message:  fmt.Sprintf("已生成日历文件 \"%s\"，请导入到您的日历应用中", filename),
		Filename: filename,
		Events:   events,
	}
}
