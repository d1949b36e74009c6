package notigo

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/prilive-com/notigo/notify"
	"github.com/prilive-com/notigo/tg"
)

// Notifier is a notification client bound to a single destination chat.
// It wraps notify.Client with the chat id fixed at construction, so
// calling code only supplies the payload.
type Notifier struct {
	client *notify.Client
	chatID tg.ChatID
}

type notifierConfig struct {
	clientOpts []notify.Option
}

// Option configures the Notifier.
type Option func(*notifierConfig)

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *notifierConfig) {
		c.clientOpts = append(c.clientOpts, notify.WithLogger(logger))
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *notifierConfig) {
		c.clientOpts = append(c.clientOpts, notify.WithHTTPClient(client))
	}
}

// WithTimeout sets the per-attempt HTTP timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *notifierConfig) {
		c.clientOpts = append(c.clientOpts, notify.WithTimeout(d))
	}
}

// WithRetries sets the retry budget (retries after the first attempt).
func WithRetries(max int) Option {
	return func(c *notifierConfig) {
		c.clientOpts = append(c.clientOpts, notify.WithRetries(max))
	}
}

// WithBackoff sets the exponential backoff schedule.
func WithBackoff(base time.Duration, factor float64, max time.Duration) Option {
	return func(c *notifierConfig) {
		c.clientOpts = append(c.clientOpts, notify.WithBackoff(base, factor, max))
	}
}

// WithRateLimit sets outbound rate limiting.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *notifierConfig) {
		c.clientOpts = append(c.clientOpts, notify.WithRateLimit(rps, burst))
	}
}

// WithBaseURL sets the API base URL (useful for testing).
func WithBaseURL(url string) Option {
	return func(c *notifierConfig) {
		c.clientOpts = append(c.clientOpts, notify.WithBaseURL(url))
	}
}

// New creates a Notifier for the given bot token and chat id.
// Empty arguments fall back to the TELEGRAM_BOT_TOKEN and
// TELEGRAM_CHAT_ID environment variables; explicit arguments take
// precedence. Both credentials are required — missing ones are a
// configuration error at construction, never at send time.
func New(token, chatID string, opts ...Option) (*Notifier, error) {
	if token == "" {
		token = os.Getenv(notify.EnvToken)
	}
	if token == "" {
		return nil, tg.NewConfigErrorWithCause(notify.EnvToken,
			"set "+notify.EnvToken+" or pass an explicit token", tg.ErrMissingToken)
	}

	var id tg.ChatID
	if chatID != "" {
		id = notify.NormalizeChatID(chatID)
	} else {
		id = notify.ChatIDFromEnv()
	}
	if id == nil {
		return nil, tg.NewConfigErrorWithCause(notify.EnvChatID,
			"set "+notify.EnvChatID+" or pass an explicit chat id", tg.ErrMissingChatID)
	}

	cfg := notifierConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	client, err := notify.New(token, cfg.clientOpts...)
	if err != nil {
		return nil, err
	}

	return &Notifier{client: client, chatID: id}, nil
}

// NewFromEnv creates a Notifier from TELEGRAM_BOT_TOKEN and TELEGRAM_CHAT_ID.
func NewFromEnv(opts ...Option) (*Notifier, error) {
	return New("", "", opts...)
}

// Close releases resources used by the underlying client.
func (n *Notifier) Close() error {
	return n.client.Close()
}

// ChatID returns the bound destination chat id.
func (n *Notifier) ChatID() tg.ChatID {
	return n.chatID
}

// Client returns the underlying dispatch client.
func (n *Notifier) Client() *notify.Client {
	return n.client
}

// MessageOption configures a single send call.
type MessageOption func(*messageOptions)

type messageOptions struct {
	parseMode           tg.ParseMode
	caption             string
	filename            string
	disableNotification bool
	replyToMessageID    int
}

// WithParseMode sets the formatting mode (tg.ParseModeHTML,
// tg.ParseModeMarkdownV2, ...) for the text or caption.
func WithParseMode(mode tg.ParseMode) MessageOption {
	return func(o *messageOptions) {
		o.parseMode = mode
	}
}

// WithCaption sets the caption for a photo or document.
func WithCaption(caption string) MessageOption {
	return func(o *messageOptions) {
		o.caption = caption
	}
}

// WithFilename sets the upload filename for byte- and stream-backed sources.
func WithFilename(name string) MessageOption {
	return func(o *messageOptions) {
		o.filename = name
	}
}

// Silent sends the message without sound.
func Silent() MessageOption {
	return func(o *messageOptions) {
		o.disableNotification = true
	}
}

// WithReplyTo makes the message a reply to an earlier message.
func WithReplyTo(messageID int) MessageOption {
	return func(o *messageOptions) {
		o.replyToMessageID = messageID
	}
}

// SendText sends a text message to the bound chat.
func (n *Notifier) SendText(ctx context.Context, text string, opts ...MessageOption) (*tg.Message, error) {
	var o messageOptions
	for _, opt := range opts {
		opt(&o)
	}
	return n.client.SendText(ctx, notify.SendTextRequest{
		ChatID:              n.chatID,
		Text:                text,
		ParseMode:           o.parseMode,
		DisableNotification: o.disableNotification,
		ReplyToMessageID:    o.replyToMessageID,
	})
}

// SendPhoto sends a photo to the bound chat. The source may be a local
// file path, an http(s) URL, a []byte buffer, an io.Reader, or a
// notify.InputFile.
func (n *Notifier) SendPhoto(ctx context.Context, source any, opts ...MessageOption) (*tg.Message, error) {
	var o messageOptions
	for _, opt := range opts {
		opt(&o)
	}
	photo, err := notify.ResolveSource(source)
	if err != nil {
		return nil, tg.NewValidationError("photo", err.Error())
	}
	if o.filename != "" {
		photo.FileName = o.filename
	}
	return n.client.SendPhoto(ctx, notify.SendPhotoRequest{
		ChatID:              n.chatID,
		Photo:               photo,
		Caption:             o.caption,
		ParseMode:           o.parseMode,
		DisableNotification: o.disableNotification,
		ReplyToMessageID:    o.replyToMessageID,
	})
}

// SendDocument sends a general file to the bound chat. Sources resolve
// the same way as SendPhoto.
func (n *Notifier) SendDocument(ctx context.Context, source any, opts ...MessageOption) (*tg.Message, error) {
	var o messageOptions
	for _, opt := range opts {
		opt(&o)
	}
	doc, err := notify.ResolveSource(source)
	if err != nil {
		return nil, tg.NewValidationError("document", err.Error())
	}
	if o.filename != "" {
		doc.FileName = o.filename
	}
	return n.client.SendDocument(ctx, notify.SendDocumentRequest{
		ChatID:              n.chatID,
		Document:            doc,
		Caption:             o.caption,
		ParseMode:           o.parseMode,
		DisableNotification: o.disableNotification,
		ReplyToMessageID:    o.replyToMessageID,
	})
}
