package notify_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prilive-com/notigo/internal/testutil"
	"github.com/prilive-com/notigo/notify"
	"github.com/prilive-com/notigo/tg"
)

func sendPath(method string) string {
	return "/bot" + testutil.TestToken + "/" + method
}

func TestRetry_429WithRetryAfter(t *testing.T) {
	var attempts atomic.Int32

	server := testutil.NewMockServer(t)
	server.On(sendPath("sendMessage"), func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) == 1 {
			// First attempt: rate limited
			testutil.ReplyRateLimit(w, 5)
			return
		}
		// Second attempt: success
		testutil.ReplyMessage(w, 123)
	})

	sleeper := &testutil.FakeSleeper{}
	client := testutil.NewRetryTestClient(t, server.BaseURL(), sleeper, notify.WithRetries(3))

	msg, err := client.SendText(context.Background(), notify.SendTextRequest{
		ChatID: testutil.TestChatID,
		Text:   "Hello",
	})

	require.NoError(t, err)
	assert.Equal(t, 123, msg.MessageID)
	assert.Equal(t, int32(2), attempts.Load(), "should have made 2 attempts")
	assert.Equal(t, 1, sleeper.CallCount(), "should have slept once")
	assert.Equal(t, 5*time.Second, sleeper.LastCall(), "should sleep for retry_after duration, not the exponential schedule")
}

func TestRetry_429WithRetryAfterHTTPHeaderFallback(t *testing.T) {
	var attempts atomic.Int32

	server := testutil.NewMockServer(t)
	server.On(sendPath("sendMessage"), func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) == 1 {
			// Rate limited with retry_after only in the HTTP header
			testutil.ReplyRateLimitHeaderOnly(w, 3)
			return
		}
		testutil.ReplyMessage(w, 456)
	})

	sleeper := &testutil.FakeSleeper{}
	client := testutil.NewRetryTestClient(t, server.BaseURL(), sleeper, notify.WithRetries(3))

	msg, err := client.SendText(context.Background(), notify.SendTextRequest{
		ChatID: testutil.TestChatID,
		Text:   "Hello",
	})

	require.NoError(t, err)
	assert.Equal(t, 456, msg.MessageID)
	assert.Equal(t, int32(2), attempts.Load())
	assert.Equal(t, 3*time.Second, sleeper.LastCall())
}

func TestRetry_ExhaustedRateLimitBudget(t *testing.T) {
	var attempts atomic.Int32

	server := testutil.NewMockServer(t)
	server.On(sendPath("sendMessage"), func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		testutil.ReplyRateLimit(w, 1)
	})

	sleeper := &testutil.FakeSleeper{}
	client := testutil.NewRetryTestClient(t, server.BaseURL(), sleeper, notify.WithRetries(2))

	_, err := client.SendText(context.Background(), notify.SendTextRequest{
		ChatID: testutil.TestChatID,
		Text:   "Hello",
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, tg.ErrMaxRetries)
	assert.ErrorIs(t, err, tg.ErrTooManyRequests)
	assert.Equal(t, int32(3), attempts.Load(), "retries=2 means 3 attempts total")
	assert.Equal(t, 2, sleeper.CallCount())
}

func TestRetry_BackoffScheduleIsCapped(t *testing.T) {
	var attempts atomic.Int32

	server := testutil.NewMockServer(t)
	server.On(sendPath("sendMessage"), func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		testutil.ReplyServerError(w, 503, "Service Unavailable")
	})

	sleeper := &testutil.FakeSleeper{}
	client := testutil.NewRetryTestClient(t, server.BaseURL(), sleeper,
		notify.WithRetries(6),
		notify.WithBackoff(time.Second, 2.0, 10*time.Second),
	)

	_, err := client.SendText(context.Background(), notify.SendTextRequest{
		ChatID: testutil.TestChatID,
		Text:   "Hello",
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, tg.ErrMaxRetries)
	assert.Equal(t, int32(7), attempts.Load())

	want := []time.Duration{
		1 * time.Second,
		2 * time.Second,
		4 * time.Second,
		8 * time.Second,
		10 * time.Second,
		10 * time.Second,
	}
	assert.Equal(t, want, sleeper.Calls())
}

func TestRetry_5xxThenSuccess(t *testing.T) {
	var attempts atomic.Int32

	server := testutil.NewMockServer(t)
	server.On(sendPath("sendMessage"), func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) <= 2 {
			testutil.ReplyServerError(w, 502, "Bad Gateway")
			return
		}
		testutil.ReplyMessage(w, 789)
	})

	sleeper := &testutil.FakeSleeper{}
	client := testutil.NewRetryTestClient(t, server.BaseURL(), sleeper, notify.WithRetries(3))

	msg, err := client.SendText(context.Background(), notify.SendTextRequest{
		ChatID: testutil.TestChatID,
		Text:   "Hello",
	})

	require.NoError(t, err)
	assert.Equal(t, 789, msg.MessageID)
	assert.Equal(t, int32(3), attempts.Load())
	assert.Equal(t, 2, sleeper.CallCount())
	assert.Equal(t, 1*time.Second, sleeper.CallAt(0))
	assert.Equal(t, 2*time.Second, sleeper.CallAt(1))
}

func TestRetry_400FailsAfterSingleAttempt(t *testing.T) {
	var attempts atomic.Int32

	server := testutil.NewMockServer(t)
	server.On(sendPath("sendMessage"), func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		testutil.ReplyBadRequest(w, "chat not found")
	})

	sleeper := &testutil.FakeSleeper{}
	client := testutil.NewRetryTestClient(t, server.BaseURL(), sleeper, notify.WithRetries(5))

	_, err := client.SendText(context.Background(), notify.SendTextRequest{
		ChatID: testutil.TestChatID,
		Text:   "Hello",
	})

	require.Error(t, err)
	assert.NotErrorIs(t, err, tg.ErrMaxRetries, "client errors are not wrapped in ErrMaxRetries")
	assert.ErrorIs(t, err, tg.ErrChatNotFound)

	var apiErr *tg.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 400, apiErr.Code)

	assert.Equal(t, int32(1), attempts.Load(), "400 must not be retried")
	assert.Equal(t, 0, sleeper.CallCount())
}

func TestRetry_LogicalFailureOn2xxNotRetried(t *testing.T) {
	var attempts atomic.Int32

	server := testutil.NewMockServer(t)
	server.On(sendPath("sendMessage"), func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		// HTTP 200 but ok=false: API-level rejection
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":false,"error_code":400,"description":"Bad Request: message text is empty"}`))
	})

	sleeper := &testutil.FakeSleeper{}
	client := testutil.NewRetryTestClient(t, server.BaseURL(), sleeper, notify.WithRetries(3))

	_, err := client.SendText(context.Background(), notify.SendTextRequest{
		ChatID: testutil.TestChatID,
		Text:   "Hello",
	})

	require.Error(t, err)
	var apiErr *tg.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 400, apiErr.Code)
	assert.Contains(t, apiErr.Description, "message text is empty")
	assert.Equal(t, int32(1), attempts.Load())
}

func TestRetry_TransportErrorExhaustsBudget(t *testing.T) {
	// A server that is immediately closed produces connection errors.
	dead := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	dead.Close()

	sleeper := &testutil.FakeSleeper{}
	client := testutil.NewRetryTestClient(t, dead.URL, sleeper, notify.WithRetries(2))

	_, err := client.SendText(context.Background(), notify.SendTextRequest{
		ChatID: testutil.TestChatID,
		Text:   "Hello",
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, tg.ErrMaxRetries)

	var transportErr *tg.TransportError
	assert.ErrorAs(t, err, &transportErr)
	assert.Equal(t, 2, sleeper.CallCount())
}

func TestRetry_ContextCancelledDuringBackoff(t *testing.T) {
	server := testutil.NewMockServer(t)
	server.On(sendPath("sendMessage"), func(w http.ResponseWriter, r *http.Request) {
		testutil.ReplyServerError(w, 500, "Internal Server Error")
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := testutil.NewRetryTestClient(t, server.BaseURL(), nil, notify.WithRetries(3))

	_, err := client.SendText(ctx, notify.SendTextRequest{
		ChatID: testutil.TestChatID,
		Text:   "Hello",
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, tg.ErrMaxRetries)
}

func TestRetry_NonJSON5xxIsRetryable(t *testing.T) {
	var attempts atomic.Int32

	server := testutil.NewMockServer(t)
	server.On(sendPath("sendMessage"), func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) == 1 {
			// A proxy answering with a plain-text 502
			w.WriteHeader(http.StatusBadGateway)
			_, _ = w.Write([]byte("Bad Gateway"))
			return
		}
		testutil.ReplyMessage(w, 42)
	})

	sleeper := &testutil.FakeSleeper{}
	client := testutil.NewRetryTestClient(t, server.BaseURL(), sleeper, notify.WithRetries(3))

	msg, err := client.SendText(context.Background(), notify.SendTextRequest{
		ChatID: testutil.TestChatID,
		Text:   "Hello",
	})

	require.NoError(t, err)
	assert.Equal(t, 42, msg.MessageID)
	assert.Equal(t, int32(2), attempts.Load())
}

func TestRetry_ErrorChainKeepsLastCause(t *testing.T) {
	server := testutil.NewMockServer(t)
	server.On(sendPath("sendMessage"), func(w http.ResponseWriter, r *http.Request) {
		testutil.ReplyServerError(w, 503, "Service Unavailable")
	})

	client := testutil.NewRetryTestClient(t, server.BaseURL(), &testutil.FakeSleeper{}, notify.WithRetries(1))

	_, err := client.SendText(context.Background(), notify.SendTextRequest{
		ChatID: testutil.TestChatID,
		Text:   "Hello",
	})

	require.Error(t, err)
	var apiErr *tg.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, 503, apiErr.Code)
}
