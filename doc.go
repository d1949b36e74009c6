// Package notigo sends status notifications (text, photos, documents) to
// a single Telegram chat, with HTTP resilience handled by the library:
// bounded retries with exponential backoff, 429 retry_after handling,
// outbound rate limiting, and a circuit breaker.
//
// # Quick Start
//
//	// Reads TELEGRAM_BOT_TOKEN and TELEGRAM_CHAT_ID
//	n, err := notigo.NewFromEnv()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer n.Close()
//
//	n.SendText(ctx, "training finished")
//	n.SendPhoto(ctx, "/tmp/loss.png", notigo.WithCaption("loss curve"))
//	n.SendDocument(ctx, reportBytes, notigo.WithFilename("report.pdf"))
//
// # Dispatch core
//
// The retry and classification logic lives in the notify subpackage;
// use it directly to target arbitrary chats or tune the full policy:
//
//	import "github.com/prilive-com/notigo/notify"
//	client, _ := notify.New(token, notify.WithRetries(5))
//
// # Shared types
//
// Wire types and the error taxonomy are in the tg subpackage:
// tg.Message, tg.APIError, tg.ValidationError, tg.ConfigError,
// tg.TransportError, and sentinels like tg.ErrMaxRetries for errors.Is.
//
// # Failure semantics
//
// Validation failures and non-429 4xx responses fail after a single
// attempt. Transport errors, 5xx, and 429 are retried up to the budget;
// when the budget runs out the last classified error is returned wrapped
// in tg.ErrMaxRetries. No partial success is possible per call.
package notigo
