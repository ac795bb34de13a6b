package ai

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsRetriableError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"deadline", context.DeadlineExceeded, true},
		{"wrapped deadline", fmt.Errorf("attempt: %w", context.DeadlineExceeded), true},
		{"rate limited", &APIError{StatusCode: http.StatusTooManyRequests}, true},
		{"server error", &APIError{StatusCode: http.StatusInternalServerError}, true},
		{"bad gateway", fmt.Errorf("wrapped: %w", &APIError{StatusCode: http.StatusBadGateway}), true},
		{"unauthorized", &APIError{StatusCode: http.StatusUnauthorized}, false},
		{"bad request", &APIError{StatusCode: http.StatusBadRequest}, false},
		{"anthropic overloaded", &anthropic.Error{StatusCode: 529}, true},
		{"anthropic forbidden", &anthropic.Error{StatusCode: http.StatusForbidden}, false},
		{"network", &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}, true},
		{"unknown", errors.New("something odd"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isRetriableError(tt.err))
		})
	}
}

func TestCircuitBreaker_OpensAfterThreshold(t *testing.T) {
	cb := NewCircuitBreaker(3, 1, time.Minute)

	for i := 0; i < 2; i++ {
		require.NoError(t, cb.Allow())
		cb.RecordFailure()
	}
	assert.Equal(t, CircuitClosed, cb.GetState())

	cb.RecordFailure()
	assert.Equal(t, CircuitOpen, cb.GetState())
	assert.ErrorIs(t, cb.Allow(), ErrCircuitOpen)
}

func TestCircuitBreaker_SuccessResetsFailures(t *testing.T) {
	cb := NewCircuitBreaker(2, 1, time.Minute)

	cb.RecordFailure()
	cb.RecordSuccess()
	cb.RecordFailure()

	state, failures, _ := cb.GetMetrics()
	assert.Equal(t, CircuitClosed, state)
	assert.Equal(t, 1, failures)
}

func TestCircuitBreaker_HalfOpenRecovery(t *testing.T) {
	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	cb := NewCircuitBreaker(1, 1, 30*time.Second)
	cb.now = func() time.Time { return clock }

	cb.RecordFailure()
	require.Equal(t, CircuitOpen, cb.GetState())

	clock = clock.Add(31 * time.Second)
	require.NoError(t, cb.Allow())
	assert.Equal(t, CircuitHalfOpen, cb.GetState())

	cb.RecordSuccess()
	assert.Equal(t, CircuitClosed, cb.GetState())
}

func TestCircuitBreaker_HalfOpenFailureReopens(t *testing.T) {
	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	cb := NewCircuitBreaker(1, 1, 30*time.Second)
	cb.now = func() time.Time { return clock }

	cb.RecordFailure()
	clock = clock.Add(time.Minute)
	require.NoError(t, cb.Allow())

	cb.RecordFailure()
	assert.Equal(t, CircuitOpen, cb.GetState())
}

func TestGenerate_CircuitOpenFallsBackWithoutCalling(t *testing.T) {
	fc := &fakeCompleter{replies: []fakeReply{{err: &APIError{StatusCode: http.StatusServiceUnavailable}}}}
	g := newTestGenerator(t, fc, &RetryConfig{
		Timeout:               time.Second,
		InitialBackoff:        time.Millisecond,
		MaxBackoff:            time.Millisecond,
		BackoffMultiplier:     2,
		CircuitBreakerEnabled: true,
		FailureThreshold:      1,
		SuccessThreshold:      1,
		OpenTimeout:           time.Hour,
	})

	first := g.Generate(context.Background(), testInput())
	assert.ErrorIs(t, first.Reason, ErrTransport)
	assert.Equal(t, CircuitOpen, g.CircuitState())

	second := g.Generate(context.Background(), testInput())
	assert.ErrorIs(t, second.Reason, ErrCircuitOpen)
	assert.Equal(t, 1, fc.callCount())
}

func TestGenerate_NonRetriableDoesNotTripBreaker(t *testing.T) {
	fc := &fakeCompleter{replies: []fakeReply{{err: &APIError{StatusCode: http.StatusUnauthorized}}}}
	g := newTestGenerator(t, fc, &RetryConfig{
		MaxRetries:            3,
		Timeout:               time.Second,
		InitialBackoff:        time.Millisecond,
		MaxBackoff:            time.Millisecond,
		BackoffMultiplier:     2,
		CircuitBreakerEnabled: true,
		FailureThreshold:      1,
		SuccessThreshold:      1,
		OpenTimeout:           time.Hour,
	})

	g.Generate(context.Background(), testInput())
	assert.Equal(t, CircuitClosed, g.CircuitState())
	assert.Equal(t, 1, fc.callCount())
}
