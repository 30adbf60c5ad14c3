package repository

import (
	"context"

	"telegram-marketplace/internal/domain/model"
)

type MessageRepository interface {
	Save(ctx context.Context, tx Tx, m *model.Message) error
	ListBetween(ctx context.Context, tx Tx, a, b string, offset, limit int) ([]*model.Message, error)
	MarkRead(ctx context.Context, tx Tx, fromID, toID string) error
}

// ConversationRepository persists the per-chat admin-escalation marker.
type ConversationRepository interface {
	SetInAdminConversation(ctx context.Context, tx Tx, chatID string, in bool) error
	InAdminConversation(ctx context.Context, tx Tx, chatID string) (bool, error)
}
