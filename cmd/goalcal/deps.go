package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/fatih/color"
	"golang.org/x/time/rate"

	"github.com/goalcal/goalcal/internal/ai"
	"github.com/goalcal/goalcal/internal/config"
	"github.com/goalcal/goalcal/internal/storage"
	"github.com/goalcal/goalcal/internal/types"
)

var (
	cyan   = color.New(color.FgCyan, color.Bold).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	green  = color.New(color.FgGreen).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	gray   = color.New(color.FgHiBlack).SprintFunc()
)

// newGenerator builds the configured completion provider and wraps it in a
// Generator.
func newGenerator(c *config.Config) (*ai.Generator, error) {
	if c.APIKey == "" {
		return nil, fmt.Errorf("no API key configured (set GOALCAL_API_KEY, DEEPSEEK_API_KEY or ANTHROPIC_API_KEY)")
	}

	var completer ai.Completer
	var err error
	switch c.Provider {
	case config.ProviderAnthropic:
		completer, err = ai.NewAnthropicClient(c.APIKey, c.Model)
	default:
		completer, err = ai.NewChatCompletionsClient(c.Endpoint, c.APIKey, c.Model, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create %s client: %w", c.Provider, err)
	}

	retry := ai.DefaultRetryConfig()
	retry.MaxRetries = c.MaxRetries
	retry.Timeout = c.RequestTimeout

	var limit rate.Limit
	if c.RateLimitPerMinute > 0 {
		limit = rate.Every(time.Minute / time.Duration(c.RateLimitPerMinute))
	}

	return ai.NewGenerator(&ai.Config{
		Completer:   completer,
		Temperature: c.Temperature,
		MaxTokens:   c.MaxTokens,
		Retry:       &retry,
		RateLimit:   limit,
	})
}

// resolvePlan finds a stored plan by full id or unique id prefix.
func resolvePlan(ctx context.Context, s *storage.PlanStore, idOrPrefix string) (*types.GoalPlan, error) {
	idOrPrefix = strings.TrimSpace(idOrPrefix)
	if idOrPrefix == "" {
		return nil, fmt.Errorf("plan id is required")
	}
	if plan, ok := s.Get(ctx, idOrPrefix); ok {
		return plan, nil
	}

	var matches []*types.GoalPlan
	for _, plan := range s.List(ctx) {
		if strings.HasPrefix(plan.GoalID, idOrPrefix) {
			matches = append(matches, plan)
		}
	}
	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("%w: %s", storage.ErrPlanNotFound, idOrPrefix)
	case 1:
		return matches[0], nil
	default:
		ids := make([]string, 0, len(matches))
		for _, m := range matches {
			ids = append(ids, shortID(m.GoalID))
		}
		return nil, fmt.Errorf("plan id %q is ambiguous (matches %s)", idOrPrefix, strings.Join(ids, ", "))
	}
}

// parseRef accepts either "phase/task/entry" or three separate indices.
func parseRef(args []string) (types.ScheduleRef, error) {
	parts := args
	if len(args) == 1 {
		parts = strings.Split(args[0], "/")
	}
	if len(parts) != 3 {
		return types.ScheduleRef{}, fmt.Errorf("schedule entry must be given as <phase>/<task>/<entry> or <phase> <task> <entry>")
	}

	var nums [3]int
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || n < 0 {
			return types.ScheduleRef{}, fmt.Errorf("invalid index %q", p)
		}
		nums[i] = n
	}
	return types.ScheduleRef{Phase: nums[0], Task: nums[1], Entry: nums[2]}, nil
}

// shortID is the display form of a goal id
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func checkMark(done bool) string {
	if done {
		return green("✓")
	}
	return gray("○")
}
