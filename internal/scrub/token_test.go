package scrub

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prilive-com/notigo/tg"
)

func TestTokenFromError_ReplacesToken(t *testing.T) {
	token := tg.SecretToken("123456789:ABCdef")
	orig := fmt.Errorf(`Post "https://api.telegram.org/bot123456789:ABCdef/sendMessage": connection refused`)

	scrubbed := TokenFromError(orig, token)
	require.Error(t, scrubbed)

	assert.NotContains(t, scrubbed.Error(), "123456789:ABCdef")
	assert.Contains(t, scrubbed.Error(), "[REDACTED]")
	assert.Contains(t, scrubbed.Error(), "connection refused")
}

func TestTokenFromError_PreservesErrorChain(t *testing.T) {
	token := tg.SecretToken("123456789:ABCdef")
	orig := fmt.Errorf("request to /bot123456789:ABCdef failed: %w", context.DeadlineExceeded)

	scrubbed := TokenFromError(orig, token)

	assert.ErrorIs(t, scrubbed, context.DeadlineExceeded)
	assert.NotContains(t, scrubbed.Error(), token.Value())
}

func TestTokenFromError_PassThrough(t *testing.T) {
	token := tg.SecretToken("123456789:ABCdef")

	assert.NoError(t, TokenFromError(nil, token))

	clean := errors.New("dial tcp: connection refused")
	assert.Same(t, clean, TokenFromError(clean, token), "errors without the token are returned unchanged")

	withToken := errors.New("url contains 123456789:ABCdef")
	assert.Same(t, withToken, TokenFromError(withToken, tg.SecretToken("")), "empty token scrubs nothing")
}
