package telegram

import (
	"context"
	"errors"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"telegram-marketplace/internal/domain"
	"telegram-marketplace/internal/domain/flow"
	"telegram-marketplace/internal/domain/model"
	"telegram-marketplace/internal/domain/ports/adapter"
	"telegram-marketplace/internal/infra/metrics"
)

type commandHandler func(ctx context.Context, message *tgbotapi.Message) error

func (b *Bot) commandRoutes() map[string]commandHandler {
	return map[string]commandHandler{
		"start": b.handleStartCommand,
		"done":  b.handleDoneCommand,
		"help":  b.handleHelpCommand,
	}
}

// handleStartCommand abandons any wizard in progress and restarts from
// the greeting, asking for a contact share when the chat is unknown.
func (b *Bot) handleStartCommand(ctx context.Context, message *tgbotapi.Message) error {
	chatID := chatIDString(message.Chat.ID)

	for _, kind := range []flow.Kind{flow.KindSeller, flow.KindEditProduct, flow.KindAdmin, flow.KindChat, flow.KindRating, flow.KindFilter, flow.KindOrderFilter} {
		_ = b.states.Clear(ctx, kind, chatID)
	}
	_ = b.chat.LeaveAdminConversation(ctx, chatID)

	user := b.currentUser(ctx, chatID)
	if user == nil {
		if err := b.states.Set(ctx, flow.KindContact, chatID, &flow.State{Step: flow.StepAwaitingContact}); err != nil {
			b.log.Warn().Err(err).Msg("contact state")
		}
		rows := [][]adapter.ReplyButton{{{Text: "📱 Share my contact", RequestContact: true}}}
		return b.send.SendReplyKeyboard(ctx, chatID,
			"Welcome to the marketplace! Share your contact to register.", rows, true)
	}
	return b.sendMainMenu(ctx, user, "Welcome back, "+user.DisplayName()+"!")
}

// handleDoneCommand closes whichever open-ended flow the chat is in:
// the image-collection steps or a peer chat.
func (b *Bot) handleDoneCommand(ctx context.Context, message *tgbotapi.Message) error {
	chatID := chatIDString(message.Chat.ID)

	if st, err := b.states.Get(ctx, flow.KindSeller, chatID); err == nil && st != nil && st.Step == flow.StepImage {
		if st.Draft == nil || len(st.Draft.Images) == 0 {
			return b.send.SendMessage(ctx, chatID, "Send at least one photo first.")
		}
		return b.finalizeDraft(ctx, chatID, st)
	}
	if st, err := b.states.Get(ctx, flow.KindEditProduct, chatID); err == nil && st != nil && st.Step == flow.StepImages {
		_ = b.states.Clear(ctx, flow.KindEditProduct, chatID)
		return b.send.SendMessage(ctx, chatID, "Photos updated. ✅")
	}
	if st, err := b.states.Get(ctx, flow.KindChat, chatID); err == nil && st != nil {
		_ = b.states.Clear(ctx, flow.KindChat, chatID)
		return b.send.SendMessage(ctx, chatID, "Chat closed.")
	}
	return b.send.SendMessage(ctx, chatID, "Nothing to finish right now.")
}

func (b *Bot) handleHelpCommand(ctx context.Context, message *tgbotapi.Message) error {
	chatID := chatIDString(message.Chat.ID)
	help := "Commands:\n" +
		"/start — register or show the main menu\n" +
		"/done — finish sending photos or close a chat\n" +
		"/help — this message\n\n" +
		"Use the menu buttons below for everything else."
	return b.send.SendMessage(ctx, chatID, help)
}

// handleContact finishes registration. The phone decides the role: a
// match against the configured admin list grants admin, everyone else
// starts as a client.
func (b *Bot) handleContact(ctx context.Context, message *tgbotapi.Message) error {
	chatID := chatIDString(message.Chat.ID)
	contact := message.Contact

	if contact.UserID != 0 && contact.UserID != message.From.ID {
		return b.send.SendMessage(ctx, chatID, "Please share your own contact.")
	}

	role := model.RoleClient
	if b.matchesAdmin(message.From.UserName, contact.PhoneNumber) {
		role = model.RoleAdmin
	}

	user, err := b.users.Register(ctx, chatID, message.From.UserName, message.From.FirstName, contact.PhoneNumber, role)
	if err != nil {
		if errors.Is(err, domain.ErrAlreadyExists) {
			return b.send.SendMessage(ctx, chatID, "This phone number is already registered to another account.")
		}
		b.log.Error().Err(err).Str("chat_id", chatID).Msg("register failed")
		return b.send.SendMessage(ctx, chatID, "Registration failed, please try again.")
	}
	metrics.IncUsersRegistered()

	_ = b.states.Clear(ctx, flow.KindContact, chatID)
	if err := b.send.RemoveReplyKeyboard(ctx, chatID, "You're registered! 🎉"); err != nil {
		return err
	}
	return b.sendMainMenu(ctx, user, "What would you like to do?")
}

// handlePhoto feeds the image-collection steps; any other chat state
// gets a polite refusal.
func (b *Bot) handlePhoto(ctx context.Context, message *tgbotapi.Message) error {
	chatID := chatIDString(message.Chat.ID)
	// The last size is the largest rendition.
	fileID := message.Photo[len(message.Photo)-1].FileID

	if st, err := b.states.Get(ctx, flow.KindSeller, chatID); err == nil && st != nil && st.Step == flow.StepImage {
		return b.handleDraftPhoto(ctx, chatID, st, fileID)
	}
	if st, err := b.states.Get(ctx, flow.KindEditProduct, chatID); err == nil && st != nil && st.Step == flow.StepImages {
		return b.handleEditPhoto(ctx, chatID, st, fileID)
	}
	return b.send.SendMessage(ctx, chatID, "I wasn't expecting a photo right now.")
}

func (b *Bot) matchesAdmin(username, phone string) bool {
	phone = normalizePhone(phone)
	for _, admin := range b.cfg.Admins {
		if admin.Username != "" && strings.EqualFold(admin.Username, username) {
			return true
		}
		for _, p := range admin.Phones {
			if phone != "" && normalizePhone(p) == phone {
				return true
			}
		}
	}
	return false
}

func normalizePhone(s string) string {
	var sb strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}
