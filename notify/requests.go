package notify

import (
	"github.com/prilive-com/notigo/tg"
)

// SendTextRequest represents a request to send a text message.
type SendTextRequest struct {
	ChatID                tg.ChatID    `json:"chat_id"`
	Text                  string       `json:"text"`
	ParseMode             tg.ParseMode `json:"parse_mode,omitempty"`
	DisableWebPagePreview bool         `json:"disable_web_page_preview,omitempty"`
	DisableNotification   bool         `json:"disable_notification,omitempty"`
	ProtectContent        bool         `json:"protect_content,omitempty"`
	ReplyToMessageID      int          `json:"reply_to_message_id,omitempty"`
}

// SendPhotoRequest represents a request to send a photo.
type SendPhotoRequest struct {
	ChatID              tg.ChatID    `json:"chat_id"`
	Photo               InputFile    `json:"photo"`
	Caption             string       `json:"caption,omitempty"`
	ParseMode           tg.ParseMode `json:"parse_mode,omitempty"`
	DisableNotification bool         `json:"disable_notification,omitempty"`
	ProtectContent      bool         `json:"protect_content,omitempty"`
	ReplyToMessageID    int          `json:"reply_to_message_id,omitempty"`
}

// SendDocumentRequest represents a request to send a document/general file.
type SendDocumentRequest struct {
	ChatID              tg.ChatID    `json:"chat_id"`
	Document            InputFile    `json:"document"`
	Caption             string       `json:"caption,omitempty"`
	ParseMode           tg.ParseMode `json:"parse_mode,omitempty"`
	DisableNotification bool         `json:"disable_notification,omitempty"`
	ProtectContent      bool         `json:"protect_content,omitempty"`
	ReplyToMessageID    int          `json:"reply_to_message_id,omitempty"`
}
