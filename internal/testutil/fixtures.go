package testutil

import "github.com/prilive-com/notigo/tg"

// Test constants for consistent test data.
const (
	// TestToken is a valid-format bot token for testing.
	TestToken = "123456789:ABCdefGHIjklMNOpqrsTUVwxyz"

	// TestChatID is a test chat ID.
	TestChatID = int64(123456789)
)

// TestChat returns a test private chat fixture.
func TestChat() *tg.Chat {
	return &tg.Chat{
		ID:        TestChatID,
		Type:      "private",
		FirstName: "Test",
		LastName:  "User",
	}
}

// TestMessage returns a test message fixture.
func TestMessage(messageID int, text string) *tg.Message {
	return &tg.Message{
		MessageID: messageID,
		Date:      1234567890,
		Chat:      TestChat(),
		Text:      text,
	}
}
