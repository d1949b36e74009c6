package testutil

import (
	"encoding/json"
	"net/http"
	"strconv"
)

// Envelope is the standard Telegram API response format.
type Envelope struct {
	OK          bool        `json:"ok"`
	Result      any         `json:"result,omitempty"`
	ErrorCode   int         `json:"error_code,omitempty"`
	Description string      `json:"description,omitempty"`
	Parameters  *Parameters `json:"parameters,omitempty"`
}

// Parameters contains optional error parameters (e.g., retry_after).
type Parameters struct {
	RetryAfter      int   `json:"retry_after,omitempty"`
	MigrateToChatID int64 `json:"migrate_to_chat_id,omitempty"`
}

// ReplyOK writes a successful Telegram API response.
func ReplyOK(w http.ResponseWriter, result any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(Envelope{
		OK:     true,
		Result: result,
	})
}

// ReplyError writes a Telegram API error response.
func ReplyError(w http.ResponseWriter, code int, description string, params *Parameters) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(Envelope{
		OK:          false,
		ErrorCode:   code,
		Description: description,
		Parameters:  params,
	})
}

// ReplyRateLimit writes a 429 rate limit response with retry_after in both JSON and HTTP header.
func ReplyRateLimit(w http.ResponseWriter, retryAfter int) {
	w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
	ReplyError(w, 429, "Too Many Requests: retry after "+strconv.Itoa(retryAfter), &Parameters{
		RetryAfter: retryAfter,
	})
}

// ReplyRateLimitHeaderOnly writes a 429 rate limit response with retry_after ONLY in HTTP header.
// Useful for testing HTTP header fallback parsing.
func ReplyRateLimitHeaderOnly(w http.ResponseWriter, retryAfter int) {
	w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
	ReplyError(w, 429, "Too Many Requests: retry after "+strconv.Itoa(retryAfter), nil)
}

// ReplyServerError writes a 5xx server error response.
func ReplyServerError(w http.ResponseWriter, code int, description string) {
	ReplyError(w, code, description, nil)
}

// ReplyBadRequest writes a 400 bad request error.
func ReplyBadRequest(w http.ResponseWriter, description string) {
	ReplyError(w, 400, "Bad Request: "+description, nil)
}

// ReplyForbidden writes a 403 forbidden error (e.g., bot blocked).
func ReplyForbidden(w http.ResponseWriter, description string) {
	ReplyError(w, 403, "Forbidden: "+description, nil)
}

// ReplyMessage writes a successful text message response.
func ReplyMessage(w http.ResponseWriter, messageID int) {
	ReplyOK(w, map[string]any{
		"message_id": messageID,
		"date":       1234567890,
		"chat": map[string]any{
			"id":   TestChatID,
			"type": "private",
		},
		"text": "Test message",
	})
}

// ReplyPhotoMessage writes a successful sendPhoto response.
func ReplyPhotoMessage(w http.ResponseWriter, messageID int, caption string) {
	ReplyOK(w, map[string]any{
		"message_id": messageID,
		"date":       1234567890,
		"chat": map[string]any{
			"id":   TestChatID,
			"type": "private",
		},
		"caption": caption,
		"photo": []map[string]any{
			{"file_id": "photo-file-id", "file_unique_id": "u1", "width": 100, "height": 100},
		},
	})
}

// ReplyDocumentMessage writes a successful sendDocument response.
func ReplyDocumentMessage(w http.ResponseWriter, messageID int, fileName string) {
	ReplyOK(w, map[string]any{
		"message_id": messageID,
		"date":       1234567890,
		"chat": map[string]any{
			"id":   TestChatID,
			"type": "private",
		},
		"document": map[string]any{
			"file_id":        "doc-file-id",
			"file_unique_id": "u2",
			"file_name":      fileName,
		},
	})
}
