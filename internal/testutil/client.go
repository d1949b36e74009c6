package testutil

import (
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/require"

	"github.com/prilive-com/notigo/notify"
)

// CircuitBreakerNeverTrip returns settings where breaker never opens.
// Use for retry tests that need to verify retry behavior without breaker interference.
func CircuitBreakerNeverTrip() notify.CircuitBreakerSettings {
	return notify.CircuitBreakerSettings{
		MaxRequests: 100,
		Interval:    0,
		Timeout:     time.Hour,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return false // Never trip
		},
	}
}

// CircuitBreakerAggressiveTrip returns settings for testing breaker behavior.
// Trips after just 2 consecutive failures.
func CircuitBreakerAggressiveTrip() notify.CircuitBreakerSettings {
	return notify.CircuitBreakerSettings{
		MaxRequests: 1,
		Interval:    0,
		Timeout:     2 * time.Second, // Long enough to stay open during test assertions
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 2
		},
	}
}

// NewRetryTestClient creates a client for testing retry behavior.
// Circuit breaker never trips, backoff jitter is disabled so tests can
// assert exact schedules, and the rate limiter never blocks.
func NewRetryTestClient(t *testing.T, baseURL string, sleeper *FakeSleeper, opts ...notify.Option) *notify.Client {
	t.Helper()

	defaultOpts := []notify.Option{
		notify.WithBaseURL(baseURL),
		notify.WithCircuitBreakerSettings(CircuitBreakerNeverTrip()),
		notify.WithJitter(0),
		notify.WithRateLimit(1000, 1000),
	}

	if sleeper != nil {
		defaultOpts = append(defaultOpts, notify.WithSleeper(sleeper))
	}

	client, err := notify.New(TestToken, append(defaultOpts, opts...)...)
	require.NoError(t, err)

	t.Cleanup(func() { client.Close() })
	return client
}

// NewBreakerTestClient creates a client for testing circuit breaker behavior.
// Circuit breaker trips aggressively for fast testing.
func NewBreakerTestClient(t *testing.T, baseURL string, opts ...notify.Option) *notify.Client {
	t.Helper()

	defaultOpts := []notify.Option{
		notify.WithBaseURL(baseURL),
		notify.WithCircuitBreakerSettings(CircuitBreakerAggressiveTrip()),
		notify.WithRetries(0), // No retries - test breaker directly
		notify.WithRateLimit(1000, 1000),
	}

	client, err := notify.New(TestToken, append(defaultOpts, opts...)...)
	require.NoError(t, err)

	t.Cleanup(func() { client.Close() })
	return client
}

// NewTestClient creates a standard test client with sensible defaults.
func NewTestClient(t *testing.T, baseURL string, opts ...notify.Option) *notify.Client {
	t.Helper()

	defaultOpts := []notify.Option{
		notify.WithBaseURL(baseURL),
		notify.WithRetries(0), // No retries by default for simple tests
		notify.WithRateLimit(1000, 1000),
	}

	client, err := notify.New(TestToken, append(defaultOpts, opts...)...)
	require.NoError(t, err)

	t.Cleanup(func() { client.Close() })
	return client
}
