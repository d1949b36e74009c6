package notify

import (
	"bytes"
	"context"
	"crypto/rand"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"math/big"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/prilive-com/notigo/internal/scrub"
	"github.com/prilive-com/notigo/tg"
)

const (
	maxResponseSize = 10 << 20 // 10MB
)

// Sleeper abstracts time-based waiting for testing.
type Sleeper interface {
	Sleep(ctx context.Context, d time.Duration) error
}

// realSleeper uses actual time.
type realSleeper struct{}

func (realSleeper) Sleep(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

// CircuitBreakerSettings configures the circuit breaker behavior.
type CircuitBreakerSettings struct {
	// MaxRequests is the maximum number of requests allowed in half-open state.
	MaxRequests uint32

	// Interval is the cyclic period of the closed state.
	// If 0, internal counts never reset in closed state.
	Interval time.Duration

	// Timeout is the duration of the open state before transitioning to half-open.
	Timeout time.Duration

	// ReadyToTrip determines if breaker should trip based on failure counts.
	// If nil, uses default (50% failure rate after 3 requests).
	ReadyToTrip func(counts gobreaker.Counts) bool
}

// DefaultCircuitBreakerSettings returns production-ready defaults.
func DefaultCircuitBreakerSettings() CircuitBreakerSettings {
	return CircuitBreakerSettings{
		MaxRequests: 5,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 3 {
				return false
			}
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			return ratio >= 0.5
		},
	}
}

// Client dispatches notification requests to the Telegram Bot API with
// bounded retry, exponential backoff, 429 rate-limit handling, outbound
// rate limiting, and a circuit breaker.
type Client struct {
	config          Config
	httpClient      *http.Client
	logger          *slog.Logger
	limiter         *rate.Limiter
	breaker         *gobreaker.CircuitBreaker[*apiResponse]
	breakerSettings CircuitBreakerSettings
	sleeper         Sleeper // For testing retry logic
}

type apiResponse struct {
	OK          bool                   `json:"ok"`
	Result      json.RawMessage        `json:"result,omitempty"`
	ErrorCode   int                    `json:"error_code,omitempty"`
	Description string                 `json:"description,omitempty"`
	Parameters  *tg.ResponseParameters `json:"parameters,omitempty"` // carries retry_after
}

// Option configures the Client.
type Option func(*Client)

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithRateLimit sets outbound rate limiting parameters.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		c.config.RateRPS = rps
		c.config.RateBurst = burst
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithRetries sets the retry budget (number of retries after the first attempt).
func WithRetries(max int) Option {
	return func(c *Client) {
		c.config.MaxRetries = max
	}
}

// WithBackoff sets the exponential backoff schedule.
func WithBackoff(base time.Duration, factor float64, max time.Duration) Option {
	return func(c *Client) {
		c.config.RetryBaseWait = base
		c.config.RetryFactor = factor
		c.config.RetryMaxWait = max
	}
}

// WithJitter sets the backoff jitter factor (0.0-1.0, 0 disables jitter).
func WithJitter(jitter float64) Option {
	return func(c *Client) {
		c.config.RetryJitter = jitter
	}
}

// WithTimeout sets the per-attempt HTTP timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.config.RequestTimeout = d
	}
}

// WithBaseURL sets the API base URL (useful for testing).
func WithBaseURL(url string) Option {
	return func(c *Client) {
		c.config.BaseURL = url
	}
}

// WithSleeper sets a custom sleeper for retry timing (useful for testing).
func WithSleeper(s Sleeper) Option {
	return func(c *Client) {
		c.sleeper = s
	}
}

// WithCircuitBreakerSettings configures the circuit breaker.
func WithCircuitBreakerSettings(settings CircuitBreakerSettings) Option {
	return func(c *Client) {
		c.breakerSettings = settings
	}
}

func createHTTPClient(cfg Config) *http.Client {
	return &http.Client{
		Timeout: cfg.RequestTimeout,
		Transport: &http.Transport{
			DialContext: (&net.Dialer{
				Timeout:   10 * time.Second,
				KeepAlive: cfg.KeepAlive,
			}).DialContext,
			MaxIdleConns:          cfg.MaxIdleConns,
			IdleConnTimeout:       cfg.IdleTimeout,
			TLSHandshakeTimeout:   10 * time.Second,
			ResponseHeaderTimeout: 10 * time.Second, // Time to receive response headers; shorter than total timeout
			ForceAttemptHTTP2:     true,
			TLSClientConfig: &tls.Config{
				MinVersion: tls.VersionTLS12,
			},
		},
	}
}

// New creates a new Client with the given token and options.
func New(token string, opts ...Option) (*Client, error) {
	cfg := DefaultConfig()
	cfg.Token = tg.SecretToken(token)
	return NewFromConfig(cfg, opts...)
}

// NewFromConfig creates a Client from a Config.
func NewFromConfig(cfg Config, opts ...Option) (*Client, error) {
	if cfg.Token.IsEmpty() {
		return nil, tg.NewConfigErrorWithCause(EnvToken,
			"set "+EnvToken+" or pass an explicit token", tg.ErrMissingToken)
	}

	c := &Client{
		config: cfg,
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.logger == nil {
		c.logger = slog.Default()
	}

	if c.httpClient == nil {
		c.httpClient = createHTTPClient(c.config)
	}

	if c.limiter == nil {
		c.limiter = rate.NewLimiter(rate.Limit(c.config.RateRPS), c.config.RateBurst)
	}

	if c.sleeper == nil {
		c.sleeper = realSleeper{}
	}

	if c.breakerSettings.ReadyToTrip == nil {
		c.breakerSettings = CircuitBreakerSettings{
			MaxRequests: c.config.BreakerMaxRequests,
			Interval:    c.config.BreakerInterval,
			Timeout:     c.config.BreakerTimeout,
			ReadyToTrip: DefaultCircuitBreakerSettings().ReadyToTrip,
		}
	}

	c.breaker = gobreaker.NewCircuitBreaker[*apiResponse](gobreaker.Settings{
		Name:         "notigo-dispatch",
		MaxRequests:  c.breakerSettings.MaxRequests,
		Interval:     c.breakerSettings.Interval,
		Timeout:      c.breakerSettings.Timeout,
		ReadyToTrip:  c.breakerSettings.ReadyToTrip,
		IsSuccessful: isBreakerSuccess,
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.logger.Info("circuit breaker state changed",
				"name", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
	})

	return c, nil
}

// Close releases resources used by the client.
// It is safe to call Close concurrently with other methods;
// in-flight requests will complete normally or with context errors.
func (c *Client) Close() error {
	if t, ok := c.httpClient.Transport.(*http.Transport); ok {
		t.CloseIdleConnections()
	}
	return nil
}

// SendText sends a text message.
func (c *Client) SendText(ctx context.Context, req SendTextRequest) (*tg.Message, error) {
	if err := validateChatID(req.ChatID); err != nil {
		return nil, err
	}
	if err := validateText(req.Text, c.config.MaxTextLength); err != nil {
		return nil, err
	}
	if err := validateParseMode(req.ParseMode); err != nil {
		return nil, err
	}
	return withRetry(c, ctx, "sendMessage", func() (*tg.Message, error) {
		return c.sendOnce(ctx, "sendMessage", req)
	})
}

// SendPhoto sends a photo from a path, URL, byte buffer, or stream.
func (c *Client) SendPhoto(ctx context.Context, req SendPhotoRequest) (*tg.Message, error) {
	if err := validateChatID(req.ChatID); err != nil {
		return nil, err
	}
	if err := validateCaption(req.Caption, c.config.MaxCaptionLength); err != nil {
		return nil, err
	}
	if err := validateParseMode(req.ParseMode); err != nil {
		return nil, err
	}
	if err := validateSource("photo", req.Photo, MaxPhotoSize); err != nil {
		return nil, err
	}
	if req.Photo.IsUpload() && req.Photo.FileName == "" {
		req.Photo.FileName = "photo.jpg"
	}
	return withRetry(c, ctx, "sendPhoto", func() (*tg.Message, error) {
		return c.sendOnce(ctx, "sendPhoto", req)
	})
}

// SendDocument sends a general file from a path, URL, byte buffer, or stream.
func (c *Client) SendDocument(ctx context.Context, req SendDocumentRequest) (*tg.Message, error) {
	if err := validateChatID(req.ChatID); err != nil {
		return nil, err
	}
	if err := validateCaption(req.Caption, c.config.MaxCaptionLength); err != nil {
		return nil, err
	}
	if err := validateParseMode(req.ParseMode); err != nil {
		return nil, err
	}
	if err := validateSource("document", req.Document, MaxUploadSize); err != nil {
		return nil, err
	}
	if req.Document.IsUpload() && req.Document.FileName == "" {
		req.Document.FileName = "document.bin"
	}
	return withRetry(c, ctx, "sendDocument", func() (*tg.Message, error) {
		return c.sendOnce(ctx, "sendDocument", req)
	})
}

// Internal methods

func (c *Client) sendOnce(ctx context.Context, method string, req any) (*tg.Message, error) {
	resp, err := c.executeRequest(ctx, method, req)
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: %w", tg.ErrCircuitOpen, err)
		}
		return nil, err
	}
	return parseMessage(resp)
}

func (c *Client) executeRequest(ctx context.Context, method string, payload any) (*apiResponse, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return c.breaker.Execute(func() (*apiResponse, error) {
		return c.doRequest(ctx, method, payload)
	})
}

func (c *Client) doRequest(ctx context.Context, method string, payload any) (*apiResponse, error) {
	url := fmt.Sprintf("%s/bot%s/%s", c.config.BaseURL, c.config.Token.Value(), method)

	// BuildMultipartRequest opens path-based sources fresh for this attempt.
	multipartReq, err := BuildMultipartRequest(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	var req *http.Request

	if multipartReq.HasUploads() {
		// Use multipart/form-data for file uploads — streamed via io.Pipe
		pr, pw := io.Pipe()
		encoder := NewMultipartEncoder(pw)
		contentType := encoder.ContentType()

		// Encode in a goroutine so the HTTP request streams as data is written
		go func() {
			if encErr := encoder.Encode(multipartReq); encErr != nil {
				multipartReq.Close()
				pw.CloseWithError(fmt.Errorf("failed to encode multipart request: %w", encErr))
				return
			}
			if encErr := encoder.Close(); encErr != nil {
				pw.CloseWithError(fmt.Errorf("failed to close multipart encoder: %w", encErr))
				return
			}
			pw.Close()
		}()

		req, err = http.NewRequestWithContext(ctx, http.MethodPost, url, pr)
		if err != nil {
			pr.Close() // aborts the encode goroutine and releases file handles
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Content-Type", contentType)
	} else {
		// Use JSON for simple requests (no file uploads)
		jsonData, marshalErr := json.Marshal(payload)
		if marshalErr != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", marshalErr)
		}

		req, err = http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonData))
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
	}

	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, tg.NewTransportError(method, scrub.TokenFromError(err, c.config.Token))
	}
	defer resp.Body.Close()

	// Read maxResponseSize+1 to detect overflow without false positive
	limitedReader := io.LimitReader(resp.Body, maxResponseSize+1)
	body, err := io.ReadAll(limitedReader)
	if err != nil {
		return nil, tg.NewTransportError(method, scrub.TokenFromError(err, c.config.Token))
	}

	if int64(len(body)) > maxResponseSize {
		return nil, tg.ErrResponseTooLarge
	}

	var apiResp apiResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		// A proxy or load balancer may answer 5xx with a non-JSON body;
		// that is still a retryable server failure.
		if resp.StatusCode >= 500 {
			return nil, tg.NewAPIError(method, resp.StatusCode, http.StatusText(resp.StatusCode))
		}
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	if !apiResp.OK {
		code := apiResp.ErrorCode
		if code == 0 {
			code = resp.StatusCode
		}
		retryAfter := parseRetryAfter(&apiResp, resp)
		if retryAfter > 0 {
			return nil, tg.NewAPIErrorWithRetry(method, code, apiResp.Description, retryAfter)
		}
		return nil, tg.NewAPIError(method, code, apiResp.Description)
	}

	return &apiResp, nil
}

func withRetry[T any](c *Client, ctx context.Context, method string, fn func() (T, error)) (T, error) {
	var zero T
	var lastErr error

	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		result, err := fn()
		if err == nil {
			return result, nil
		}

		// Non-retryable errors return immediately (not wrapped in ErrMaxRetries).
		// A breaker that opened mid-retry ends the budget early: keep the
		// last classified failure in the chain so callers still match it.
		if !isRetryable(err) {
			if errors.Is(err, tg.ErrCircuitOpen) && lastErr != nil {
				return zero, fmt.Errorf("%w: %w; last error: %w", tg.ErrMaxRetries, err, lastErr)
			}
			return zero, err
		}

		lastErr = err

		if ctx.Err() != nil {
			return zero, ctx.Err()
		}

		// Check if we've exhausted retries
		if attempt >= c.config.MaxRetries {
			break
		}

		backoff := calculateBackoff(c.config, attempt+1, err)

		c.logger.Debug("retrying request",
			"method", method,
			"attempt", attempt+1,
			"wait", backoff,
			"error", err,
		)

		// Use sleeper for testable timing
		if err := c.sleeper.Sleep(ctx, backoff); err != nil {
			return zero, err
		}
	}

	return zero, fmt.Errorf("%w: %w", tg.ErrMaxRetries, lastErr)
}

func isRetryable(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}

	// Circuit breaker rejections are not retryable
	if errors.Is(err, tg.ErrCircuitOpen) ||
		errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return false
	}

	// Network failures and per-attempt timeouts may succeed on retry
	var transportErr *tg.TransportError
	if errors.As(err, &transportErr) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	var apiErr *tg.APIError
	if errors.As(err, &apiErr) {
		return apiErr.IsRetryable()
	}

	return false
}

func calculateBackoff(cfg Config, attempt int, err error) time.Duration {
	// A 429 response's retry_after replaces the exponential schedule
	// for this one retry.
	var apiErr *tg.APIError
	if errors.As(err, &apiErr) && apiErr.RetryAfter > 0 {
		return apiErr.RetryAfter
	}

	backoff := float64(cfg.RetryBaseWait) * math.Pow(cfg.RetryFactor, float64(attempt-1))
	if backoff > float64(cfg.RetryMaxWait) {
		backoff = float64(cfg.RetryMaxWait)
	}

	if cfg.RetryJitter > 0 {
		jitterRange := int64(backoff * cfg.RetryJitter)
		if jitterRange > 0 {
			jitter, err := rand.Int(rand.Reader, big.NewInt(jitterRange*2))
			if err == nil {
				backoff += float64(jitter.Int64()) - float64(jitterRange)
			}
		}
	}

	return time.Duration(backoff)
}

func parseMessage(resp *apiResponse) (*tg.Message, error) {
	var msg tg.Message
	if err := json.Unmarshal(resp.Result, &msg); err != nil {
		return nil, fmt.Errorf("failed to parse message: %w", err)
	}
	return &msg, nil
}

// isBreakerSuccess determines if an error should count as a circuit breaker failure.
// Only server errors (5xx) and network errors trip the breaker.
// Client errors (4xx) including 429 are NOT breaker failures.
// 429 is rate pressure (self-inflicted), not service degradation — handle via retry_after.
func isBreakerSuccess(err error) bool {
	if err == nil {
		return true
	}
	var apiErr *tg.APIError
	if errors.As(err, &apiErr) {
		// All 4xx = client-side issues, don't trip breaker.
		// 5xx = server failure → trip breaker.
		return apiErr.Code >= 400 && apiErr.Code < 500
	}
	// Context cancellation is not a service failure
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	// Network errors, timeouts → breaker failure
	return false
}

// parseRetryAfter extracts retry_after from JSON body (primary) or HTTP header (fallback).
func parseRetryAfter(apiResp *apiResponse, httpResp *http.Response) time.Duration {
	if apiResp.Parameters != nil && apiResp.Parameters.RetryAfter > 0 {
		return time.Duration(apiResp.Parameters.RetryAfter) * time.Second
	}

	if httpResp != nil {
		if retryHeader := httpResp.Header.Get("Retry-After"); retryHeader != "" {
			if seconds, err := strconv.Atoi(retryHeader); err == nil && seconds > 0 {
				return time.Duration(seconds) * time.Second
			}
		}
	}

	return 0
}
