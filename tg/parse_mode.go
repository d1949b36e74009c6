package tg

// ParseMode defines the text formatting mode for messages and captions.
type ParseMode string

// Supported parse modes.
const (
	ParseModeHTML       ParseMode = "HTML"
	ParseModeMarkdown   ParseMode = "Markdown"
	ParseModeMarkdownV2 ParseMode = "MarkdownV2"
)

// String returns the parse mode string value.
func (p ParseMode) String() string {
	return string(p)
}

// IsValid returns true if the parse mode is supported by Telegram.
// The empty mode means plain text.
func (p ParseMode) IsValid() bool {
	switch p {
	case ParseModeHTML, ParseModeMarkdown, ParseModeMarkdownV2, "":
		return true
	default:
		return false
	}
}
