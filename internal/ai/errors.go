package ai

import (
	"errors"
	"fmt"
)

// Failure kinds carried in a degraded Result's Reason. Callers test them with
// errors.Is; they are never returned from Generate itself.
var (
	ErrTransport         = errors.New("generation endpoint request failed")
	ErrEmptyResponse     = errors.New("generation endpoint returned empty content")
	ErrMalformedResponse = errors.New("generation response is not a usable plan")
	ErrInvalidPlan       = errors.New("generated plan failed validation")
	ErrCanceled          = errors.New("generation canceled")
)

// ErrBusy is returned by TryGenerate while another generation is outstanding.
var ErrBusy = errors.New("a plan generation is already in progress")

// APIError is a non-2xx response from a chat completions endpoint.
type APIError struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *APIError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("chat completions request failed: %s", e.Status)
	}
	return fmt.Sprintf("chat completions request failed: %s: %s", e.Status, e.Body)
}

// kindOf returns the failure kind wrapped in err, for logging.
func kindOf(err error) string {
	switch {
	case err == nil:
		return "none"
	case errors.Is(err, ErrCanceled):
		return "canceled"
	case errors.Is(err, ErrTransport):
		return "transport"
	case errors.Is(err, ErrEmptyResponse):
		return "empty_response"
	case errors.Is(err, ErrMalformedResponse):
		return "malformed_response"
	case errors.Is(err, ErrInvalidPlan):
		return "invalid_plan"
	default:
		return "unknown"
	}
}
