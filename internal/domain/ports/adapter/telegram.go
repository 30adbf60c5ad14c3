package adapter

import "context"

type InlineButton struct {
	Text string
	Data string
	URL  string
}

// ReplyButton is a reply-keyboard caption; RequestContact asks Telegram
// to attach the user's phone number.
type ReplyButton struct {
	Text           string
	RequestContact bool
}

// ChatTransport is the outbound side of the chat collaborator. Chat ids
// are the domain's string form of the Telegram chat id.
type ChatTransport interface {
	SendMessage(ctx context.Context, chatID string, text string) error
	SendButtons(ctx context.Context, chatID string, text string, rows [][]InlineButton) error
	SendReplyKeyboard(ctx context.Context, chatID string, text string, rows [][]ReplyButton, oneTime bool) error
	RemoveReplyKeyboard(ctx context.Context, chatID string, text string) error
	SendPhoto(ctx context.Context, chatID string, fileID, caption string, rows [][]InlineButton) error
	EditMessagePhoto(ctx context.Context, chatID string, messageID int, fileID, caption string, rows [][]InlineButton) error
}
