// Package notify implements the resilient dispatch core: it turns a send
// request into an HTTP call against the Telegram Bot API and owns the
// retry, backoff, and rate-limit policy around it.
//
// Requests are validated before any network attempt; validation failures
// (tg.ValidationError) are never retried. Transport failures, 5xx
// responses, and 429 rate limits are retried up to the configured budget,
// with 429 honoring the server's retry_after instead of the exponential
// schedule. Any other 4xx, or an ok=false body on a 2xx response, fails
// the call after a single attempt.
//
//	client, err := notify.New(token, notify.WithRetries(5))
//	if err != nil { ... }
//	msg, err := client.SendText(ctx, notify.SendTextRequest{
//	    ChatID: chatID,
//	    Text:   "deploy finished",
//	})
//
// File-backed payloads are modeled by InputFile; local paths are re-opened
// on every attempt so retries never stream from an exhausted reader.
package notify
