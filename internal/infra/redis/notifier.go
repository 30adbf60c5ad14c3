package redis

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"telegram-marketplace/internal/domain/ports/adapter"
	"telegram-marketplace/internal/infra/metrics"
)

const notifyChannelPrefix = "notify:"

var _ adapter.NotificationPublisher = (*Notifier)(nil)

// Notifier publishes user events to per-user Redis channels so any
// subscribed surface (the bot relay, future websockets) can deliver
// them. Best effort: a publish with no subscriber is silently dropped
// by Redis, which is the semantics we want.
type Notifier struct {
	client RedisClient
	log    *zerolog.Logger
}

func NewNotifier(client RedisClient, logger *zerolog.Logger) *Notifier {
	return &Notifier{client: client, log: logger}
}

// Event is the envelope on the notify channels.
type Event struct {
	UserID  string          `json:"user_id"`
	Name    string          `json:"name"`
	Payload json.RawMessage `json:"payload,omitempty"`
	At      time.Time       `json:"at"`
}

func (n *Notifier) Publish(ctx context.Context, userID, event string, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	env, err := json.Marshal(Event{UserID: userID, Name: event, Payload: raw, At: time.Now()})
	if err != nil {
		return err
	}
	if err := n.client.Publish(ctx, notifyChannelPrefix+userID, env); err != nil {
		n.log.Error().Err(err).Str("user_id", userID).Str("event", event).Msg("notification publish failed")
		return err
	}
	metrics.IncNotificationPublished(event)
	return nil
}

// Listen subscribes to every user channel and hands decoded events to
// fn until ctx ends. Malformed envelopes are logged and skipped.
func (n *Notifier) Listen(ctx context.Context, fn func(Event)) {
	ch := n.client.Subscribe(ctx, notifyChannelPrefix+"*")
	for msg := range ch {
		var ev Event
		if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
			n.log.Error().Err(err).Str("channel", msg.Channel).Msg("bad notification envelope")
			continue
		}
		if ev.UserID == "" {
			ev.UserID = strings.TrimPrefix(msg.Channel, notifyChannelPrefix)
		}
		fn(ev)
	}
}
