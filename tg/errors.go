package tg

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Sentinel errors - use with errors.Is()
var (
	// API errors
	ErrUnauthorized    = errors.New("notigo: unauthorized (invalid token)")
	ErrForbidden       = errors.New("notigo: forbidden")
	ErrNotFound        = errors.New("notigo: not found")
	ErrTooManyRequests = errors.New("notigo: too many requests")

	// Chat errors
	ErrBotBlocked   = errors.New("notigo: bot blocked by user")
	ErrBotKicked    = errors.New("notigo: bot kicked from chat")
	ErrChatNotFound = errors.New("notigo: chat not found")

	// Client errors
	ErrMaxRetries       = errors.New("notigo: max retries exceeded")
	ErrCircuitOpen      = errors.New("notigo: circuit breaker open")
	ErrResponseTooLarge = errors.New("notigo: response too large")

	// Configuration errors
	ErrMissingToken  = errors.New("notigo: missing bot token")
	ErrMissingChatID = errors.New("notigo: missing chat id")
)

// APIError represents an error response from Telegram API.
// Use errors.As() to extract details, errors.Is() to match sentinels.
type APIError struct {
	Code        int
	Description string
	RetryAfter  time.Duration
	Method      string              // API method that failed
	Parameters  *ResponseParameters // Additional response parameters
	cause       error               // Underlying sentinel for errors.Is()
}

func (e *APIError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("notigo: %s failed: %s (code=%d, retry_after=%s)",
			e.Method, e.Description, e.Code, e.RetryAfter)
	}
	return fmt.Sprintf("notigo: %s failed: %s (code=%d)", e.Method, e.Description, e.Code)
}

// Unwrap returns the underlying sentinel error for errors.Is() support.
func (e *APIError) Unwrap() error { return e.cause }

// IsRetryable returns true if the error is temporary and may succeed on retry.
func (e *APIError) IsRetryable() bool {
	return e.Code == 429 || (e.Code >= 500 && e.Code <= 504)
}

// NewAPIError creates an APIError with automatic sentinel detection.
func NewAPIError(method string, code int, description string) *APIError {
	return &APIError{
		Code:        code,
		Description: description,
		Method:      method,
		cause:       DetectSentinel(code, description),
	}
}

// NewAPIErrorWithRetry creates an APIError with retry information.
func NewAPIErrorWithRetry(method string, code int, description string, retryAfter time.Duration) *APIError {
	return &APIError{
		Code:        code,
		Description: description,
		Method:      method,
		RetryAfter:  retryAfter,
		cause:       DetectSentinel(code, description),
	}
}

// DetectSentinel maps Telegram error codes/descriptions to sentinel errors.
// Description-based detection is prioritized over HTTP status codes for more specific errors.
func DetectSentinel(code int, desc string) error {
	descLower := strings.ToLower(desc)
	switch {
	case strings.Contains(descLower, "bot was blocked"):
		return ErrBotBlocked
	case strings.Contains(descLower, "bot was kicked"):
		return ErrBotKicked
	case strings.Contains(descLower, "chat not found"):
		return ErrChatNotFound
	}

	switch code {
	case 401:
		return ErrUnauthorized
	case 403:
		return ErrForbidden
	case 404:
		return ErrNotFound
	case 429:
		return ErrTooManyRequests
	}

	return nil
}

// TransportError represents a network-level failure (connection error,
// timeout) while talking to the API. The HTTP layer never responded with
// a Telegram envelope, so there is no error code or description.
type TransportError struct {
	Method string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("notigo: %s transport failure: %v", e.Method, e.Err)
}

// Unwrap preserves the underlying error for errors.Is/As.
func (e *TransportError) Unwrap() error { return e.Err }

// NewTransportError wraps a network error for the given method.
func NewTransportError(method string, err error) *TransportError {
	return &TransportError{Method: method, Err: err}
}

// ValidationError represents a request validation error.
// Validation happens before any network attempt and is never retried.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("notigo: validation: %s - %s", e.Field, e.Message)
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// ConfigError represents a configuration error raised at construction.
type ConfigError struct {
	Key     string
	Message string
	cause   error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("notigo: config: %s - %s", e.Key, e.Message)
}

// Unwrap returns the underlying sentinel error for errors.Is() support.
func (e *ConfigError) Unwrap() error { return e.cause }

// NewConfigError creates a new ConfigError.
func NewConfigError(key, message string) *ConfigError {
	return &ConfigError{Key: key, Message: message}
}

// NewConfigErrorWithCause creates a ConfigError wrapping a sentinel.
func NewConfigErrorWithCause(key, message string, cause error) *ConfigError {
	return &ConfigError{Key: key, Message: message, cause: cause}
}
