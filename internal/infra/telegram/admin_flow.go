package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"telegram-marketplace/internal/domain"
	"telegram-marketplace/internal/domain/flow"
	"telegram-marketplace/internal/domain/model"
	"telegram-marketplace/internal/domain/ports/adapter"
	"telegram-marketplace/internal/domain/ports/repository"
	"telegram-marketplace/internal/usecase"
)

// handleRejectReason consumes the free-text reason an admin types
// after pressing reject. The reason is relayed to the requester and
// their wizard state is cleared by the use case.
func (b *Bot) handleRejectReason(ctx context.Context, chatID string, st *flow.State, text string) error {
	if st.Reject == nil {
		_ = b.states.Clear(ctx, flow.KindAdmin, chatID)
		return b.send.SendMessage(ctx, chatID, "The rejection prompt was lost, press reject again.")
	}
	reason := usecase.SanitizeText(text, 500)

	err := b.categories.Reject(ctx, chatID, st.Reject.CategoryName, st.Reject.RequesterChatID, reason)
	if err != nil {
		if errors.Is(err, domain.ErrPermissionDenied) {
			_ = b.states.Clear(ctx, flow.KindAdmin, chatID)
			return b.send.SendMessage(ctx, chatID, "Admins only.")
		}
		b.log.Error().Err(err).Msg("reject category")
		return b.send.SendMessage(ctx, chatID, "Could not send the rejection, please resend the reason.")
	}
	_ = b.states.Clear(ctx, flow.KindAdmin, chatID)
	return b.send.SendMessage(ctx, chatID,
		fmt.Sprintf("Rejected %q and told the requester why.", st.Reject.CategoryName))
}

// handleFreeText is the router's last rung: comment prompts, one-shot
// filters, peer chat relays and finally the admin-conversation
// fallback.
func (b *Bot) handleFreeText(ctx context.Context, message *tgbotapi.Message) error {
	chatID := chatIDString(message.Chat.ID)
	text := message.Text

	if st, err := b.states.Get(ctx, flow.KindRating, chatID); err == nil && st != nil && st.Step == "comment" {
		return b.handleCommentInput(ctx, chatID, st, text)
	}
	if st, err := b.states.Get(ctx, flow.KindFilter, chatID); err == nil && st != nil && st.Step == "query" {
		return b.handleFilterInput(ctx, chatID, text)
	}
	if st, err := b.states.Get(ctx, flow.KindOrderFilter, chatID); err == nil && st != nil && st.Step == "status_input" {
		return b.handleOrderFilterInput(ctx, chatID, text)
	}
	if st, err := b.states.Get(ctx, flow.KindChat, chatID); err == nil && st != nil && st.Peer != nil {
		return b.relayChatMessage(ctx, chatID, st.Peer.PeerID, text)
	}

	inAdmin, err := b.chat.InAdminConversation(ctx, chatID)
	if err != nil {
		b.log.Warn().Err(err).Msg("admin conversation lookup")
	}
	if inAdmin {
		return b.forwardToAdmins(ctx, chatID, text)
	}

	rows := [][]adapter.InlineButton{{{Text: "🛟 Contact admins", Data: "adm:start"}}}
	return b.send.SendButtons(ctx, chatID,
		"I didn't catch that. Use the menu below, or reach out to the admins.", rows)
}

func (b *Bot) handleCommentInput(ctx context.Context, chatID string, st *flow.State, text string) error {
	if st.Edit == nil {
		_ = b.states.Clear(ctx, flow.KindRating, chatID)
		return b.send.SendMessage(ctx, chatID, "The comment prompt was lost, press 💬 Comment again.")
	}
	if _, err := b.products.AddComment(ctx, chatID, st.Edit.ProductID, text); err != nil {
		if errors.Is(err, domain.ErrValidation) || errors.Is(err, domain.ErrInvalidArgument) {
			return b.send.SendMessage(ctx, chatID, "That comment won't work, try a shorter one.")
		}
		_ = b.states.Clear(ctx, flow.KindRating, chatID)
		return b.send.SendMessage(ctx, chatID, "That product is gone.")
	}
	_ = b.states.Clear(ctx, flow.KindRating, chatID)
	return b.send.SendMessage(ctx, chatID, "Comment posted. 💬")
}

// handleFilterInput parses "category | min | max" with * as a wildcard
// and shows one filtered listing.
func (b *Bot) handleFilterInput(ctx context.Context, chatID, text string) error {
	parts := strings.Split(text, "|")
	var filter repository.ProductFilter
	for i, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" || part == "*" {
			continue
		}
		switch i {
		case 0:
			filter.Category = part
		case 1:
			v, err := usecase.ParsePrice(part)
			if err != nil {
				return b.send.SendMessage(ctx, chatID, "The minimum price must be a positive number. Resend the filter.")
			}
			filter.MinPrice = v
		case 2:
			v, err := usecase.ParsePrice(part)
			if err != nil {
				return b.send.SendMessage(ctx, chatID, "The maximum price must be a positive number. Resend the filter.")
			}
			filter.MaxPrice = v
		}
	}
	_ = b.states.Clear(ctx, flow.KindFilter, chatID)
	return b.sendProductsPage(ctx, chatID, filter, 0)
}

// handleOrderFilterInput shows recent orders in one status. Orders are
// not indexed by status, so this scans the newest page and filters.
func (b *Bot) handleOrderFilterInput(ctx context.Context, chatID, text string) error {
	status, err := model.ParseOrderStatus(strings.ToLower(strings.TrimSpace(text)))
	if err != nil {
		return b.send.SendMessage(ctx, chatID, "Send one of: pending, processing, completed, cancelled.")
	}
	_ = b.states.Clear(ctx, flow.KindOrderFilter, chatID)

	orders, err := b.orders.ListAll(ctx, 0, 100)
	if err != nil {
		b.log.Error().Err(err).Msg("list orders")
		return b.send.SendMessage(ctx, chatID, "Could not load orders right now.")
	}
	var sb strings.Builder
	count := 0
	for _, o := range orders {
		if o.Status != status {
			continue
		}
		count++
		fmt.Fprintf(&sb, "🧾 #%s — %s (%d items)\n", o.ShortID(), formatPrice(o.TotalPrice), len(o.ProductIDs))
		if count == ordersPageSize*2 {
			break
		}
	}
	if count == 0 {
		return b.send.SendMessage(ctx, chatID, fmt.Sprintf("No %s orders among the recent ones.", status))
	}
	return b.send.SendMessage(ctx, chatID,
		fmt.Sprintf("Recent %s orders:\n%s", status.Label(), sb.String()))
}

// relayChatMessage persists the message; delivery to the peer rides
// the notification fan-out.
func (b *Bot) relayChatMessage(ctx context.Context, chatID, peerID, text string) error {
	if _, err := b.chat.Send(ctx, chatID, peerID, text); err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			_ = b.states.Clear(ctx, flow.KindChat, chatID)
			return b.send.SendMessage(ctx, chatID, "They are no longer reachable. Chat closed.")
		case errors.Is(err, domain.ErrValidation), errors.Is(err, domain.ErrInvalidArgument):
			return b.send.SendMessage(ctx, chatID, "That message won't go through, try a shorter one.")
		default:
			b.log.Error().Err(err).Msg("chat send")
			return b.send.SendMessage(ctx, chatID, "Could not send that, please try again.")
		}
	}
	return nil
}

// forwardToAdmins mirrors the user's message into the shared admin
// chat. This is a best-effort forward, not a persisted conversation.
func (b *Bot) forwardToAdmins(ctx context.Context, chatID, text string) error {
	from := chatID
	if user := b.currentUser(ctx, chatID); user != nil {
		from = fmt.Sprintf("%s (%s)", user.DisplayName(), chatID)
	}
	if err := b.send.SendMessage(ctx, b.cfg.AdminChatID, fmt.Sprintf("📨 %s: %s", from, text)); err != nil {
		b.log.Error().Err(err).Msg("forward to admin chat")
		return b.send.SendMessage(ctx, chatID, "Could not reach the admins right now.")
	}
	rows := [][]adapter.InlineButton{{
		{Text: "✔️ End conversation", Data: "adm:end"},
		{Text: "✍️ Keep writing", Data: "adm:start"},
	}}
	return b.send.SendButtons(ctx, chatID, "Passed on to the admins.", rows)
}
