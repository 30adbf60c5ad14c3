package model

import (
	"time"

	"telegram-marketplace/internal/domain"
)

const MaxMessageLen = 1000

// Message is a user-to-user chat message, optionally about a product.
type Message struct {
	ID        string
	FromID    string
	ToID      string
	ProductID string
	Text      string
	IsRead    bool
	CreatedAt time.Time
}

func NewMessage(id, fromID, toID, text string) (*Message, error) {
	if id == "" || fromID == "" || toID == "" {
		return nil, domain.ErrInvalidArgument
	}
	if text == "" || len(text) > MaxMessageLen {
		return nil, domain.ErrValidation
	}
	return &Message{
		ID:        id,
		FromID:    fromID,
		ToID:      toID,
		Text:      text,
		CreatedAt: time.Now(),
	}, nil
}

// Conversation is the per-chat escalation marker: while
// InAdminConversation is set, free text is forwarded to the admin
// instead of triggering bot prompts.
type Conversation struct {
	ChatID              string
	InAdminConversation bool
	UpdatedAt           time.Time
}
