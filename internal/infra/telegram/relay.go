package telegram

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"

	"telegram-marketplace/internal/domain/model"
	"telegram-marketplace/internal/domain/ports/adapter"
	red "telegram-marketplace/internal/infra/redis"
	"telegram-marketplace/internal/infra/worker"
)

// Relay subscribes to the notification channels and forwards rendered
// events to Telegram chats. Delivery is best effort: rendering happens
// on the worker pool so a slow send never blocks the subscriber.
type Relay struct {
	notifier *red.Notifier
	pool     *worker.Pool
	send     adapter.ChatTransport
	log      *zerolog.Logger
}

func NewRelay(notifier *red.Notifier, pool *worker.Pool, send adapter.ChatTransport, logger *zerolog.Logger) *Relay {
	return &Relay{notifier: notifier, pool: pool, send: send, log: logger}
}

// Transport exposes the bot's outbound side for the relay.
func (b *Bot) Transport() adapter.ChatTransport { return b.send }

// Run blocks until ctx ends.
func (r *Relay) Run(ctx context.Context) {
	r.notifier.Listen(ctx, func(ev red.Event) {
		text := renderEvent(ev)
		if text == "" {
			return
		}
		chatID := ev.UserID
		if err := r.pool.Submit(func(ctx context.Context) error {
			return r.send.SendMessage(ctx, chatID, text)
		}); err != nil {
			r.log.Warn().Err(err).Str("event", ev.Name).Msg("notification dropped")
		}
	})
}

// renderEvent turns an envelope into user-facing text; unknown events
// render empty and are dropped.
func renderEvent(ev red.Event) string {
	var p map[string]string
	if len(ev.Payload) > 0 {
		if err := json.Unmarshal(ev.Payload, &p); err != nil {
			return ""
		}
	}

	switch ev.Name {
	case "message":
		return fmt.Sprintf("💬 New message:\n%s", p["text"])
	case "order_placed":
		return fmt.Sprintf("✅ Your order is placed! Total: %s.", formatPrice(atoi64(p["total"])))
	case "order_received":
		return "🛎 One of your products was just ordered!"
	case "order_status_changed":
		st := model.OrderStatus(p["status"])
		return fmt.Sprintf("📦 Your order is now %s.", st.Label())
	case "product_created":
		return fmt.Sprintf("🎉 %q is live on the marketplace.", p["title"])
	case "product_updated":
		return ""
	case "product_commented":
		return "💬 Someone commented on one of your products."
	case "product_rated":
		return "⭐ Someone rated one of your products."
	case "category_exists":
		return fmt.Sprintf("⚠️ Category %q already exists!", p["name"])
	case "category_approved":
		return fmt.Sprintf("✅ Your category %q was approved.", p["name"])
	case "category_rejected":
		if p["reason"] != "" {
			return fmt.Sprintf("❌ Your category %q was rejected: %s", p["name"], p["reason"])
		}
		return fmt.Sprintf("❌ Your category %q was rejected.", p["name"])
	case "category_request_expired":
		return fmt.Sprintf("⌛ Your category request %q expired without an answer. You can start over.", p["name"])
	case "role_changed":
		return fmt.Sprintf("🔑 Your account is now a %s.", p["role"])
	default:
		return ""
	}
}

func atoi64(s string) int64 {
	var v int64
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0
		}
		v = v*10 + int64(r-'0')
	}
	return v
}
