package tg

// ChatID represents a Telegram chat identifier.
// Valid types: int64 (numeric ID) or string (channel username like "@channelusername")
type ChatID = any

// Message represents a Telegram message as returned by the send methods.
// Only the fields a notification sender receives back are modeled.
type Message struct {
	MessageID           int         `json:"message_id"`
	From                *User       `json:"from,omitempty"`
	Date                int64       `json:"date"`
	Chat                *Chat       `json:"chat"`
	ReplyToMessage      *Message    `json:"reply_to_message,omitempty"`
	HasProtectedContent bool        `json:"has_protected_content,omitempty"`
	Text                string      `json:"text,omitempty"`
	Caption             string      `json:"caption,omitempty"`
	Photo               []PhotoSize `json:"photo,omitempty"`
	Document            *Document   `json:"document,omitempty"`
}

// User represents a Telegram user or bot.
type User struct {
	ID        int64  `json:"id"`
	IsBot     bool   `json:"is_bot"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name,omitempty"`
	Username  string `json:"username,omitempty"`
}

// Chat represents a Telegram chat.
type Chat struct {
	ID        int64  `json:"id"`
	Type      string `json:"type"`
	Title     string `json:"title,omitempty"`
	Username  string `json:"username,omitempty"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
}

// PhotoSize represents one size of a photo.
type PhotoSize struct {
	FileID       string `json:"file_id"`
	FileUniqueID string `json:"file_unique_id"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	FileSize     int64  `json:"file_size,omitempty"`
}

// Document represents a general file.
type Document struct {
	FileID       string     `json:"file_id"`
	FileUniqueID string     `json:"file_unique_id"`
	Thumbnail    *PhotoSize `json:"thumb,omitempty"`
	FileName     string     `json:"file_name,omitempty"`
	MimeType     string     `json:"mime_type,omitempty"`
	FileSize     int64      `json:"file_size,omitempty"`
}

// ResponseParameters contains information about why a request was unsuccessful.
type ResponseParameters struct {
	MigrateToChatID int64 `json:"migrate_to_chat_id,omitempty"`
	RetryAfter      int   `json:"retry_after,omitempty"`
}
