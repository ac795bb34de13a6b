package ai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"github.com/goalcal/goalcal/internal/planning"
	"github.com/goalcal/goalcal/internal/types"
)

const (
	DefaultTemperature = 0.7
	DefaultMaxTokens   = 6000
)

// Status says whether a Result holds a generated plan or the fallback.
type Status string

const (
	StatusOK       Status = "ok"
	StatusDegraded Status = "degraded"
)

// Result is the outcome of one generation. Plan is never nil.
type Result struct {
	Plan   *types.GoalPlan
	Status Status

	// Reason wraps one of the Err* kinds when Status is StatusDegraded
	Reason error

	// Warnings are advisory validation findings on an accepted plan
	Warnings []planning.ValidationWarning

	InputTokens  int64
	OutputTokens int64
	Duration     time.Duration
}

// Degraded reports whether the plan is the fallback plan.
func (r *Result) Degraded() bool {
	return r.Status == StatusDegraded
}

// Config holds generator configuration
type Config struct {
	Completer   Completer // required
	Temperature float64   // default: 0.7
	MaxTokens   int       // default: 6000

	// Retry uses DefaultRetryConfig when nil
	Retry *RetryConfig

	// RateLimit caps requests per second to the endpoint; 0 means unlimited
	RateLimit rate.Limit

	// Validators defaults to planning.DefaultRegistry()
	Validators *planning.ValidatorRegistry

	// Now and NewID are overridable for tests
	Now   func() time.Time
	NewID func() string
}

// Generator produces goal plans. At most one generation runs at a time.
type Generator struct {
	completer      Completer
	temperature    float64
	maxTokens      int
	retry          RetryConfig
	circuitBreaker *CircuitBreaker
	limiter        *rate.Limiter
	validators     *planning.ValidatorRegistry
	busy           *semaphore.Weighted
	now            func() time.Time
	newID          func() string
}

// NewGenerator creates a generator
func NewGenerator(cfg *Config) (*Generator, error) {
	if cfg == nil || cfg.Completer == nil {
		return nil, fmt.Errorf("completer is required")
	}

	temperature := cfg.Temperature
	if temperature == 0 {
		temperature = DefaultTemperature
	}
	maxTokens := cfg.MaxTokens
	if maxTokens == 0 {
		maxTokens = DefaultMaxTokens
	}

	retry := DefaultRetryConfig()
	if cfg.Retry != nil {
		retry = *cfg.Retry
	}
	if retry.Timeout <= 0 {
		return nil, fmt.Errorf("retry timeout must be positive")
	}

	var circuitBreaker *CircuitBreaker
	if retry.CircuitBreakerEnabled {
		circuitBreaker = NewCircuitBreaker(retry.FailureThreshold, retry.SuccessThreshold, retry.OpenTimeout)
	}

	var limiter *rate.Limiter
	if cfg.RateLimit > 0 {
		limiter = rate.NewLimiter(cfg.RateLimit, 1)
	}

	validators := cfg.Validators
	if validators == nil {
		validators = planning.DefaultRegistry()
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	newID := cfg.NewID
	if newID == nil {
		newID = uuid.NewString
	}

	return &Generator{
		completer:      cfg.Completer,
		temperature:    temperature,
		maxTokens:      maxTokens,
		retry:          retry,
		circuitBreaker: circuitBreaker,
		limiter:        limiter,
		validators:     validators,
		busy:           semaphore.NewWeighted(1),
		now:            now,
		newID:          newID,
	}, nil
}

// Generate asks the model for a plan and always returns one. Every failure
// (transport, empty reply, unparseable JSON, invalid plan, cancellation)
// yields the fallback plan with Status degraded. Concurrent callers wait
// their turn.
func (g *Generator) Generate(ctx context.Context, input types.GoalInput) *Result {
	if err := g.busy.Acquire(ctx, 1); err != nil {
		return g.fallback(&input, fmt.Errorf("%w: %w", ErrCanceled, err), time.Time{})
	}
	defer g.busy.Release(1)
	return g.generate(ctx, &input)
}

// TryGenerate is Generate, except that it returns ErrBusy instead of waiting
// when another generation is in progress.
func (g *Generator) TryGenerate(ctx context.Context, input types.GoalInput) (*Result, error) {
	if !g.busy.TryAcquire(1) {
		return nil, ErrBusy
	}
	defer g.busy.Release(1)
	return g.generate(ctx, &input), nil
}

// CircuitState exposes the breaker state for health reporting.
func (g *Generator) CircuitState() CircuitState {
	if g.circuitBreaker == nil {
		return CircuitClosed
	}
	return g.circuitBreaker.GetState()
}

// aiPlan is the reply shape. Phases is a pointer so a missing array can be
// told apart from an empty one.
type aiPlan struct {
	GoalTitle     string            `json:"goalTitle"`
	TotalDuration string            `json:"totalDuration"`
	Phases        *[]types.Phase    `json:"phases"`
	Milestones    []types.Milestone `json:"milestones"`
}

func (g *Generator) generate(ctx context.Context, input *types.GoalInput) *Result {
	startTime := g.now()

	resp, err := g.callModel(ctx, "planning", CompletionRequest{
		System:      systemPrompt,
		Prompt:      buildPlanningPrompt(input),
		Temperature: g.temperature,
		MaxTokens:   g.maxTokens,
	})
	if err != nil {
		kind := ErrTransport
		if ctx.Err() != nil || errors.Is(err, context.Canceled) {
			kind = ErrCanceled
		}
		return g.fallback(input, fmt.Errorf("%w: %w", kind, err), startTime)
	}

	if strings.TrimSpace(resp.Text) == "" {
		return g.fallback(input, fmt.Errorf("%w (finish reason %q)", ErrEmptyResponse, resp.FinishReason), startTime)
	}

	reply, err := decodePlan(resp.Text)
	if err != nil {
		slog.Debug("unusable plan response", "preview", truncate(resp.Text, 200))
		return g.fallback(input, err, startTime)
	}

	now := g.now()
	plan := &types.GoalPlan{
		GoalID:        g.newID(),
		GoalTitle:     strings.TrimSpace(reply.GoalTitle),
		TotalDuration: reply.TotalDuration,
		StartDate:     input.StartDate,
		EndDate:       EndDate(input.StartDate, input.Timeframe),
		Phases:        *reply.Phases,
		Milestones:    reply.Milestones,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if plan.TotalDuration == "" {
		plan.TotalDuration = input.Timeframe
	}
	assignMissingIDs(plan)
	plan.Normalize()

	result := g.validators.ValidateAll(ctx, plan, &planning.ValidationContext{Input: input})
	if result.HasErrors() {
		return g.fallback(input, fmt.Errorf("%w: %w", ErrInvalidPlan, result.Err()), startTime)
	}
	for _, w := range result.Warnings {
		slog.Warn("generated plan warning", "code", w.Code, "location", w.Location, "message", w.Message)
	}

	duration := g.now().Sub(startTime)
	slog.Info("plan generated",
		"goalId", plan.GoalID,
		"provider", g.completer.Name(),
		"phases", len(plan.Phases),
		"entries", plan.ScheduleCount(),
		"inputTokens", resp.InputTokens,
		"outputTokens", resp.OutputTokens,
		"duration", duration)

	return &Result{
		Plan:         plan,
		Status:       StatusOK,
		Warnings:     result.Warnings,
		InputTokens:  resp.InputTokens,
		OutputTokens: resp.OutputTokens,
		Duration:     duration,
	}
}

// decodePlan parses the model reply. A reply with no goalTitle or no phases
// array is treated as malformed.
func decodePlan(text string) (*aiPlan, error) {
	parsed := Parse[aiPlan](text, ParseOptions{Context: "goal plan response"})
	if !parsed.Success {
		return nil, fmt.Errorf("%w: %s", ErrMalformedResponse, parsed.Error)
	}
	reply := parsed.Data
	if strings.TrimSpace(reply.GoalTitle) == "" {
		return nil, fmt.Errorf("%w: missing goalTitle", ErrMalformedResponse)
	}
	if reply.Phases == nil {
		return nil, fmt.Errorf("%w: missing phases array", ErrMalformedResponse)
	}
	return &reply, nil
}

// assignMissingIDs fills blank phase and task ids with positional ones.
func assignMissingIDs(plan *types.GoalPlan) {
	for i := range plan.Phases {
		phase := &plan.Phases[i]
		if strings.TrimSpace(phase.PhaseID) == "" {
			phase.PhaseID = fmt.Sprintf("phase_%d", i+1)
		}
		for j := range phase.Tasks {
			task := &phase.Tasks[j]
			if strings.TrimSpace(task.TaskID) == "" {
				task.TaskID = fmt.Sprintf("task_%d_%d", i+1, j+1)
			}
		}
	}
}

func (g *Generator) fallback(input *types.GoalInput, reason error, startTime time.Time) *Result {
	slog.Warn("plan generation failed, using fallback plan",
		"kind", kindOf(reason),
		"provider", g.completer.Name(),
		"error", reason)

	now := g.now()
	result := &Result{
		Plan:   FallbackPlan(input, g.newID(), now),
		Status: StatusDegraded,
		Reason: reason,
	}
	if !startTime.IsZero() {
		result.Duration = now.Sub(startTime)
	}
	return result
}
