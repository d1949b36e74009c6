package notify

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/prilive-com/notigo/tg"
)

// validateChatID validates a ChatID value.
// Returns nil if valid, error if invalid.
func validateChatID(id tg.ChatID) error {
	if id == nil {
		return tg.NewValidationError("chat_id", "is required")
	}
	switch v := id.(type) {
	case int64:
		if v == 0 {
			return tg.NewValidationError("chat_id", "cannot be zero")
		}
		return nil
	case int:
		if v == 0 {
			return tg.NewValidationError("chat_id", "cannot be zero")
		}
		return nil
	case string:
		if v == "" {
			return tg.NewValidationError("chat_id", "cannot be empty string")
		}
		return nil
	default:
		return tg.NewValidationError("chat_id", fmt.Sprintf("must be int64, int, or string, got %T", id))
	}
}

// validateText checks message text constraints.
func validateText(text string, maxLen int) error {
	if strings.TrimSpace(text) == "" {
		return tg.NewValidationError("text", "cannot be empty")
	}
	if len([]rune(text)) > maxLen {
		return tg.NewValidationError("text", fmt.Sprintf("exceeds %d characters", maxLen))
	}
	return nil
}

// validateCaption checks caption length. Empty captions are allowed.
func validateCaption(caption string, maxLen int) error {
	if len([]rune(caption)) > maxLen {
		return tg.NewValidationError("caption", fmt.Sprintf("exceeds %d characters", maxLen))
	}
	return nil
}

// validateParseMode rejects unrecognized formatting modes.
func validateParseMode(mode tg.ParseMode) error {
	if !mode.IsValid() {
		return tg.NewValidationError("parse_mode", fmt.Sprintf("unsupported mode %q", mode))
	}
	return nil
}

// validateSource checks an InputFile before any network attempt:
// local paths must be readable regular files within the upload size
// limit, URLs must parse, byte buffers must be non-empty and within
// the limit. Stream and file_id sources are accepted as-is since their
// content is only known at send time.
func validateSource(field string, f InputFile, maxSize int64) error {
	if f.IsEmpty() {
		return tg.NewValidationError(field, "is required (path, URL, bytes, or reader)")
	}

	switch {
	case f.Path != "":
		info, err := os.Stat(f.Path)
		if err != nil {
			return tg.NewValidationError(field, fmt.Sprintf("file not found or unreadable: %s", f.Path))
		}
		if info.IsDir() {
			return tg.NewValidationError(field, fmt.Sprintf("path is a directory: %s", f.Path))
		}
		if info.Size() > maxSize {
			return tg.NewValidationError(field, fmt.Sprintf("file exceeds %d bytes: %s", maxSize, f.Path))
		}

	case f.URL != "":
		u, err := url.Parse(f.URL)
		if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
			return tg.NewValidationError(field, fmt.Sprintf("malformed URL: %s", f.URL))
		}

	case f.Data != nil:
		if len(f.Data) == 0 {
			return tg.NewValidationError(field, "byte buffer cannot be empty")
		}
		if int64(len(f.Data)) > maxSize {
			return tg.NewValidationError(field, fmt.Sprintf("byte buffer exceeds %d bytes", maxSize))
		}
	}

	return nil
}
