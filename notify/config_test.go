package notify

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "https://api.telegram.org", cfg.BaseURL)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
	assert.Equal(t, float64(1), cfg.RateRPS)
	assert.Equal(t, 3, cfg.RateBurst)
	assert.Equal(t, 3, cfg.MaxRetries)
	assert.Equal(t, time.Second, cfg.RetryBaseWait)
	assert.Equal(t, 30*time.Second, cfg.RetryMaxWait)
	assert.Equal(t, 2.0, cfg.RetryFactor)
	assert.Equal(t, 0.2, cfg.RetryJitter)
	assert.Equal(t, 4096, cfg.MaxTextLength)
	assert.Equal(t, 1024, cfg.MaxCaptionLength)
	assert.True(t, cfg.Token.IsEmpty())
}

func TestLoadConfig_FromEnvironment(t *testing.T) {
	t.Setenv(EnvToken, "123456789:ABCdefGHI")
	t.Setenv("TELEGRAM_API_BASE_URL", "http://localhost:8081")
	t.Setenv("MAX_RETRIES", "7")
	t.Setenv("RETRY_BASE_WAIT", "250ms")
	t.Setenv("RETRY_JITTER", "0")
	t.Setenv("RATE_LIMIT_REQUESTS", "5")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "123456789:ABCdefGHI", cfg.Token.Value())
	assert.Equal(t, "http://localhost:8081", cfg.BaseURL)
	assert.Equal(t, 7, cfg.MaxRetries)
	assert.Equal(t, 250*time.Millisecond, cfg.RetryBaseWait)
	assert.Zero(t, cfg.RetryJitter)
	assert.Equal(t, float64(5), cfg.RateRPS)
}

func TestLoadConfig_DefaultsWhenUnset(t *testing.T) {
	t.Setenv(EnvToken, "")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.True(t, cfg.Token.IsEmpty())
	assert.Equal(t, 3, cfg.MaxRetries)
	assert.Equal(t, "https://api.telegram.org", cfg.BaseURL)
}

func TestNormalizeChatID(t *testing.T) {
	assert.Equal(t, int64(123456789), NormalizeChatID("123456789"))
	assert.Equal(t, int64(-1001234567890), NormalizeChatID("-1001234567890"))
	assert.Equal(t, "@mychannel", NormalizeChatID("@mychannel"))
	assert.Nil(t, NormalizeChatID(""))
}

func TestChatIDFromEnv(t *testing.T) {
	t.Setenv(EnvChatID, "987654321")
	assert.Equal(t, int64(987654321), ChatIDFromEnv())

	t.Setenv(EnvChatID, "@alerts")
	assert.Equal(t, "@alerts", ChatIDFromEnv())

	t.Setenv(EnvChatID, "")
	assert.Nil(t, ChatIDFromEnv())
}
