package notify

import (
	"os"
	"strconv"
	"time"

	"github.com/prilive-com/notigo/tg"
)

// Environment variables read by LoadConfig.
const (
	EnvToken  = "TELEGRAM_BOT_TOKEN"
	EnvChatID = "TELEGRAM_CHAT_ID"
)

// Config holds client configuration. A Config is immutable for the
// lifetime of the Client built from it.
type Config struct {
	// Bot token
	Token tg.SecretToken

	// API settings
	BaseURL        string
	RequestTimeout time.Duration
	KeepAlive      time.Duration
	MaxIdleConns   int
	IdleTimeout    time.Duration

	// Outbound rate limiting
	RateRPS   float64
	RateBurst int

	// Circuit breaker
	BreakerMaxRequests uint32
	BreakerInterval    time.Duration
	BreakerTimeout     time.Duration

	// Retry settings
	MaxRetries    int
	RetryBaseWait time.Duration
	RetryMaxWait  time.Duration
	RetryFactor   float64
	RetryJitter   float64 // jitter factor 0.0-1.0; 0 disables jitter

	// Content limits
	MaxTextLength    int
	MaxCaptionLength int
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		BaseURL:            "https://api.telegram.org",
		RequestTimeout:     30 * time.Second,
		KeepAlive:          30 * time.Second,
		MaxIdleConns:       100,
		IdleTimeout:        90 * time.Second,
		RateRPS:            1, // 1 msg/s per chat recommended by Telegram
		RateBurst:          3,
		BreakerMaxRequests: 5,
		BreakerInterval:    60 * time.Second,
		BreakerTimeout:     30 * time.Second,
		MaxRetries:         3,
		RetryBaseWait:      time.Second,
		RetryMaxWait:       30 * time.Second,
		RetryFactor:        2.0,
		RetryJitter:        0.2,
		MaxTextLength:      4096,
		MaxCaptionLength:   1024,
	}
}

// LoadConfig loads configuration from environment variables.
// The token comes from TELEGRAM_BOT_TOKEN; policy knobs are optional
// and fall back to DefaultConfig values.
func LoadConfig() (*Config, error) {
	cfg := DefaultConfig()

	cfg.Token = tg.SecretToken(getEnv(EnvToken, ""))

	if url := getEnv("TELEGRAM_API_BASE_URL", ""); url != "" {
		cfg.BaseURL = url
	}

	if d, err := time.ParseDuration(getEnv("REQUEST_TIMEOUT", "30s")); err == nil {
		cfg.RequestTimeout = d
	}

	if f, err := strconv.ParseFloat(getEnv("RATE_LIMIT_REQUESTS", "1"), 64); err == nil {
		cfg.RateRPS = f
	}

	if i, err := strconv.Atoi(getEnv("RATE_LIMIT_BURST", "3")); err == nil {
		cfg.RateBurst = i
	}

	if i, err := strconv.ParseUint(getEnv("BREAKER_MAX_REQUESTS", "5"), 10, 32); err == nil {
		cfg.BreakerMaxRequests = uint32(i)
	}

	if d, err := time.ParseDuration(getEnv("BREAKER_INTERVAL", "60s")); err == nil {
		cfg.BreakerInterval = d
	}

	if d, err := time.ParseDuration(getEnv("BREAKER_TIMEOUT", "30s")); err == nil {
		cfg.BreakerTimeout = d
	}

	if i, err := strconv.Atoi(getEnv("MAX_RETRIES", "3")); err == nil {
		cfg.MaxRetries = i
	}

	if d, err := time.ParseDuration(getEnv("RETRY_BASE_WAIT", "1s")); err == nil {
		cfg.RetryBaseWait = d
	}

	if d, err := time.ParseDuration(getEnv("RETRY_MAX_WAIT", "30s")); err == nil {
		cfg.RetryMaxWait = d
	}

	if f, err := strconv.ParseFloat(getEnv("RETRY_FACTOR", "2.0"), 64); err == nil {
		cfg.RetryFactor = f
	}

	if f, err := strconv.ParseFloat(getEnv("RETRY_JITTER", "0.2"), 64); err == nil {
		cfg.RetryJitter = f
	}

	if i, err := strconv.Atoi(getEnv("MAX_TEXT_LENGTH", "4096")); err == nil {
		cfg.MaxTextLength = i
	}

	if i, err := strconv.Atoi(getEnv("MAX_CAPTION_LENGTH", "1024")); err == nil {
		cfg.MaxCaptionLength = i
	}

	return &cfg, nil
}

// ChatIDFromEnv reads the default destination chat from TELEGRAM_CHAT_ID.
// Numeric values are returned as int64, "@channelusername" values as string.
// Returns nil if the variable is unset.
func ChatIDFromEnv() tg.ChatID {
	return NormalizeChatID(os.Getenv(EnvChatID))
}

// NormalizeChatID converts a string chat identifier to its canonical form:
// int64 for numeric IDs, string otherwise. Empty input yields nil.
func NormalizeChatID(raw string) tg.ChatID {
	if raw == "" {
		return nil
	}
	if id, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return id
	}
	return raw
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}
