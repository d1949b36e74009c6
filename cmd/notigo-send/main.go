// notigo-send sends a one-off Telegram notification from the command line.
//
// Credentials come from TELEGRAM_BOT_TOKEN and TELEGRAM_CHAT_ID (a .env
// file in the working directory is honored). Exactly one of -text,
// -photo, or -document must be given.
//
//	notigo-send -text "deploy finished"
//	notigo-send -photo ./chart.png -caption "daily metrics"
//	notigo-send -document https://example.com/report.pdf
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prilive-com/notigo"
	"github.com/prilive-com/notigo/tg"
)

var (
	text      = flag.String("text", "", "Text message to send")
	photo     = flag.String("photo", "", "Photo to send: local path or http(s) URL")
	document  = flag.String("document", "", "Document to send: local path or http(s) URL")
	caption   = flag.String("caption", "", "Caption for photo or document")
	parseMode = flag.String("parse-mode", "", "Formatting: HTML, Markdown, or MarkdownV2")
	silent    = flag.Bool("silent", false, "Deliver without notification sound")
	retries   = flag.Int("retries", 3, "Retry budget after the first attempt")
	timeout   = flag.Duration("timeout", 30*time.Second, "Per-attempt HTTP timeout")
)

func main() {
	flag.Parse()

	// Load .env if present (doesn't override existing env vars)
	_ = loadDotEnv(".env")

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	sources := 0
	for _, v := range []string{*text, *photo, *document} {
		if v != "" {
			sources++
		}
	}
	if sources != 1 {
		logger.Error("exactly one of -text, -photo, or -document is required")
		flag.Usage()
		os.Exit(2)
	}

	n, err := notigo.NewFromEnv(
		notigo.WithLogger(logger),
		notigo.WithRetries(*retries),
		notigo.WithTimeout(*timeout),
	)
	if err != nil {
		logger.Error("configuration error", "error", err)
		os.Exit(1)
	}
	defer n.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	opts := []notigo.MessageOption{}
	if *parseMode != "" {
		opts = append(opts, notigo.WithParseMode(tg.ParseMode(*parseMode)))
	}
	if *caption != "" {
		opts = append(opts, notigo.WithCaption(*caption))
	}
	if *silent {
		opts = append(opts, notigo.Silent())
	}

	var msg *tg.Message
	switch {
	case *text != "":
		msg, err = n.SendText(ctx, *text, opts...)
	case *photo != "":
		msg, err = n.SendPhoto(ctx, *photo, opts...)
	default:
		msg, err = n.SendDocument(ctx, *document, opts...)
	}
	if err != nil {
		logger.Error("send failed", "error", err)
		os.Exit(1)
	}

	logger.Info("sent", "message_id", msg.MessageID, "chat_id", n.ChatID())
}
