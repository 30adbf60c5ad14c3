//go:build !integration

package telegram

import (
	"encoding/json"
	"strings"
	"testing"

	red "telegram-marketplace/internal/infra/redis"
)

func TestRenderEvent(t *testing.T) {
	payload := func(m map[string]string) json.RawMessage {
		raw, _ := json.Marshal(m)
		return raw
	}

	t.Run("should render known events with their payload", func(t *testing.T) {
		cases := []struct {
			name    string
			payload map[string]string
			want    string
		}{
			{"message", map[string]string{"from": "100", "text": "hello"}, "hello"},
			{"order_placed", map[string]string{"order_id": "o1", "total": "2000"}, "$2,000"},
			{"order_status_changed", map[string]string{"order_id": "o1", "status": "processing"}, "Processing"},
			{"category_rejected", map[string]string{"name": "Junk", "reason": "too vague"}, "too vague"},
			{"category_request_expired", map[string]string{"name": "Slowpoke"}, "expired"},
			{"role_changed", map[string]string{"role": "seller"}, "seller"},
		}
		for _, c := range cases {
			got := renderEvent(red.Event{UserID: "100", Name: c.name, Payload: payload(c.payload)})
			if !strings.Contains(got, c.want) {
				t.Errorf("renderEvent(%s): %q does not contain %q", c.name, got, c.want)
			}
		}
	})

	t.Run("should drop unknown and noisy events", func(t *testing.T) {
		for _, name := range []string{"product_updated", "something_else"} {
			if got := renderEvent(red.Event{UserID: "100", Name: name}); got != "" {
				t.Errorf("expected %s to render empty, got %q", name, got)
			}
		}
	})
}
