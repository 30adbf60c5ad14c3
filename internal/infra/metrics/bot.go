package metrics

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(
		usersRegisteredTotal,
		botUpdatesTotal,
		botCommandsTotal,
		botRateLimitTriggeredTotal,
	)
}

var (
	usersRegisteredTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "users_registered_total",
			Help: "Total number of new users registered.",
		},
	)

	botUpdatesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_updates_total",
			Help: "Incoming Telegram updates by type (message/callback/contact/photo).",
		},
		[]string{"type"},
	)

	botCommandsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_commands_total",
			Help: "Counts incoming slash commands from users.",
		},
		[]string{"command"},
	)

	botRateLimitTriggeredTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "bot_rate_limit_triggered_total",
			Help: "Total number of times users have been rate-limited.",
		},
	)
)

func norm(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

func IncUsersRegistered() { usersRegisteredTotal.Inc() }

func IncBotUpdate(kind string) { botUpdatesTotal.WithLabelValues(norm(kind)).Inc() }

func IncBotCommand(command string) { botCommandsTotal.WithLabelValues(norm(command)).Inc() }

func IncRateLimitTriggered() { botRateLimitTriggeredTotal.Inc() }
