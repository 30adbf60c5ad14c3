package adapter

import "context"

// NotificationPublisher fans out an event to one user's channel. The
// same port serves the bot flows and the REST layer; delivery is best
// effort with no ordering or exactly-once guarantee.
type NotificationPublisher interface {
	Publish(ctx context.Context, userID, event string, payload any) error
}
