package usecase

import (
	"context"

	"telegram-marketplace/internal/domain"
	"telegram-marketplace/internal/domain/model"
	"telegram-marketplace/internal/domain/ports/adapter"
	"telegram-marketplace/internal/domain/ports/repository"

	"github.com/rs/zerolog"
)

var _ ChatUseCase = (*chatUC)(nil)

// ChatUseCase relays direct messages between users and tracks the
// per-chat "talking to support" marker that diverts a user's plain
// messages to the admin.
type ChatUseCase interface {
	Send(ctx context.Context, fromID, toID, text string) (*model.Message, error)
	History(ctx context.Context, a, b string, offset, limit int) ([]*model.Message, error)
	MarkRead(ctx context.Context, fromID, toID string) error
	EnterAdminConversation(ctx context.Context, chatID string) error
	LeaveAdminConversation(ctx context.Context, chatID string) error
	InAdminConversation(ctx context.Context, chatID string) (bool, error)
}

type chatUC struct {
	messages      repository.MessageRepository
	conversations repository.ConversationRepository
	users         repository.UserRepository
	notify        adapter.NotificationPublisher
	log           *zerolog.Logger
}

func NewChatUseCase(messages repository.MessageRepository, conversations repository.ConversationRepository, users repository.UserRepository, notify adapter.NotificationPublisher, logger *zerolog.Logger) *chatUC {
	return &chatUC{messages: messages, conversations: conversations, users: users, notify: notify, log: logger}
}

// Send persists the message and publishes it to the recipient's
// notification channel. Text is sanitized before storage.
func (c *chatUC) Send(ctx context.Context, fromID, toID, text string) (*model.Message, error) {
	if fromID == toID {
		return nil, domain.ErrInvalidArgument
	}
	if _, err := c.users.FindByTelegramID(ctx, repository.NoTX, toID); err != nil {
		return nil, err
	}
	msg, err := model.NewMessage(newID(), fromID, toID, SanitizeText(text, model.MaxMessageLen))
	if err != nil {
		return nil, err
	}
	if err := c.messages.Save(ctx, repository.NoTX, msg); err != nil {
		return nil, err
	}
	_ = c.notify.Publish(ctx, toID, "message", map[string]string{"from": fromID, "text": msg.Text})
	return msg, nil
}

func (c *chatUC) History(ctx context.Context, a, b string, offset, limit int) ([]*model.Message, error) {
	return c.messages.ListBetween(ctx, repository.NoTX, a, b, offset, limit)
}

func (c *chatUC) MarkRead(ctx context.Context, fromID, toID string) error {
	return c.messages.MarkRead(ctx, repository.NoTX, fromID, toID)
}

func (c *chatUC) EnterAdminConversation(ctx context.Context, chatID string) error {
	return c.conversations.SetInAdminConversation(ctx, repository.NoTX, chatID, true)
}

func (c *chatUC) LeaveAdminConversation(ctx context.Context, chatID string) error {
	return c.conversations.SetInAdminConversation(ctx, repository.NoTX, chatID, false)
}

func (c *chatUC) InAdminConversation(ctx context.Context, chatID string) (bool, error) {
	return c.conversations.InAdminConversation(ctx, repository.NoTX, chatID)
}
