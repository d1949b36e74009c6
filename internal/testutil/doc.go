// Package testutil provides test helpers: a mock Telegram API server
// with request capture, canned API replies, a FakeSleeper for
// deterministic retry-timing assertions, and preconfigured test clients.
package testutil
