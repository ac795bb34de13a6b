// Package planning validates generated goal plans before they are accepted.
package planning

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/goalcal/goalcal/internal/types"
)

// Validator is the interface for pluggable plan validation.
type Validator interface {
	// Name returns a unique identifier for this validator.
	Name() string

	// Priority determines execution order (lower values run first).
	//   1-9:   structural checks (required fields, formats)
	//   10-99: advisory checks that only produce warnings
	Priority() int

	// Validate checks the plan and returns any errors or warnings found.
	Validate(ctx context.Context, plan *types.GoalPlan, vctx *ValidationContext) ValidationResult
}

// ValidationContext carries what the user asked for, so validators can
// compare the plan against it.
type ValidationContext struct {
	// Input is the goal input the plan was generated from. May be nil.
	Input *types.GoalInput
}

// ValidationResult contains errors and warnings from validation.
type ValidationResult struct {
	// Errors reject the plan.
	Errors []ValidationError

	// Warnings are reported but the plan is still accepted.
	Warnings []ValidationWarning
}

// ValidationError represents a blocking validation failure.
type ValidationError struct {
	// Code is a machine-readable error identifier (e.g., "INVALID_TIME_SLOT").
	Code string

	// Message is a human-readable error description.
	Message string

	// Location indicates where in the plan the error occurs (e.g., "phases[1].tasks[0]").
	Location string
}

func (e ValidationError) String() string {
	if e.Location == "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("%s at %s: %s", e.Code, e.Location, e.Message)
}

// ValidationWarning represents a problem that doesn't reject the plan.
type ValidationWarning struct {
	Code     string          `json:"code"`
	Message  string          `json:"message"`
	Location string          `json:"location,omitempty"`
	Severity WarningSeverity `json:"severity"`
}

// WarningSeverity indicates the importance of a warning.
type WarningSeverity int

const (
	WarningSeverityLow WarningSeverity = iota
	WarningSeverityMedium
	WarningSeverityHigh
)

// String returns the string representation of the severity.
func (s WarningSeverity) String() string {
	switch s {
	case WarningSeverityLow:
		return "LOW"
	case WarningSeverityMedium:
		return "MEDIUM"
	case WarningSeverityHigh:
		return "HIGH"
	default:
		return "UNKNOWN"
	}
}

// ValidatorRegistry manages a collection of validators and orchestrates validation.
type ValidatorRegistry struct {
	validators []Validator
}

// NewValidatorRegistry creates a new empty registry.
func NewValidatorRegistry() *ValidatorRegistry {
	return &ValidatorRegistry{
		validators: make([]Validator, 0),
	}
}

// DefaultRegistry returns a registry with every built-in validator.
func DefaultRegistry() *ValidatorRegistry {
	r := NewValidatorRegistry()
	r.Register(&StructureValidator{})
	r.Register(&ScheduleValidator{})
	r.Register(&MilestoneValidator{})
	r.Register(&WindowValidator{})
	r.Register(&DailyBudgetValidator{})
	return r
}

// Register adds a validator to the registry.
// Validators are automatically sorted by priority after registration.
func (r *ValidatorRegistry) Register(v Validator) {
	r.validators = append(r.validators, v)
	sort.SliceStable(r.validators, func(i, j int) bool {
		return r.validators[i].Priority() < r.validators[j].Priority()
	})
}

// ValidateAll runs all registered validators against the plan.
// All validators run even if earlier ones fail (collect all issues).
func (r *ValidatorRegistry) ValidateAll(ctx context.Context, plan *types.GoalPlan, vctx *ValidationContext) ValidationResult {
	result := ValidationResult{
		Errors:   make([]ValidationError, 0),
		Warnings: make([]ValidationWarning, 0),
	}
	if vctx == nil {
		vctx = &ValidationContext{}
	}

	for _, v := range r.validators {
		vr := v.Validate(ctx, plan, vctx)
		result.Errors = append(result.Errors, vr.Errors...)
		result.Warnings = append(result.Warnings, vr.Warnings...)
	}

	return result
}

// HasErrors returns true if the validation result contains any errors.
func (r ValidationResult) HasErrors() bool {
	return len(r.Errors) > 0
}

// HasWarnings returns true if the validation result contains any warnings.
func (r ValidationResult) HasWarnings() bool {
	return len(r.Warnings) > 0
}

// IsValid returns true if there are no errors (warnings are acceptable).
func (r ValidationResult) IsValid() bool {
	return !r.HasErrors()
}

// Err joins all errors into one, or returns nil when the plan is valid.
// At most the first five are spelled out.
func (r ValidationResult) Err() error {
	if !r.HasErrors() {
		return nil
	}
	const maxShown = 5
	msgs := make([]string, 0, maxShown)
	for i, e := range r.Errors {
		if i == maxShown {
			msgs = append(msgs, fmt.Sprintf("and %d more", len(r.Errors)-maxShown))
			break
		}
		msgs = append(msgs, e.String())
	}
	return errors.New(strings.Join(msgs, "; "))
}

func phaseLoc(p int) string {
	return fmt.Sprintf("phases[%d]", p)
}

func taskLoc(p, t int) string {
	return fmt.Sprintf("phases[%d].tasks[%d]", p, t)
}

func entryLoc(p, t, e int) string {
	return fmt.Sprintf("phases[%d].tasks[%d].dailySchedule[%d]", p, t, e)
}
