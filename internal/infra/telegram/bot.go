// Package telegram is the inbound conversational surface: it polls
// updates, routes them through an ordered guard list and talks back
// through the ChatTransport port.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"telegram-marketplace/internal/config"
	"telegram-marketplace/internal/domain/flow"
	"telegram-marketplace/internal/domain/model"
	"telegram-marketplace/internal/domain/ports/adapter"
	"telegram-marketplace/internal/domain/ports/repository"
	"telegram-marketplace/internal/infra/metrics"
	red "telegram-marketplace/internal/infra/redis"
	"telegram-marketplace/internal/usecase"
)

// Bot polls Telegram updates and dispatches them against flow state.
// Outbound traffic goes through the send port so tests can swap in a
// recording transport.
type Bot struct {
	api  *tgbotapi.BotAPI
	cfg  *config.BotConfig
	send adapter.ChatTransport

	users      usecase.UserUseCase
	products   usecase.ProductUseCase
	cart       usecase.CartUseCase
	orders     usecase.OrderUseCase
	categories usecase.CategoryUseCase
	chat       usecase.ChatUseCase
	states     repository.StateStore
	limiter    *red.RateLimiter
	log        *zerolog.Logger

	workers       int
	cancelPolling context.CancelFunc
}

// Deps bundles the collaborators a Bot needs; all fields are required
// except Limiter.
type Deps struct {
	Users      usecase.UserUseCase
	Products   usecase.ProductUseCase
	Cart       usecase.CartUseCase
	Orders     usecase.OrderUseCase
	Categories usecase.CategoryUseCase
	Chat       usecase.ChatUseCase
	States     repository.StateStore
	Limiter    *red.RateLimiter
}

func NewBot(cfg *config.BotConfig, deps Deps, logger *zerolog.Logger) (*Bot, error) {
	if cfg == nil {
		return nil, errors.New("bot config is nil")
	}
	if deps.Users == nil || deps.Products == nil || deps.Cart == nil ||
		deps.Orders == nil || deps.Categories == nil || deps.Chat == nil || deps.States == nil {
		return nil, errors.New("bot deps incomplete")
	}

	api, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, err
	}

	workers := cfg.Workers
	if workers <= 0 {
		workers = 5
	}

	return &Bot{
		api:        api,
		cfg:        cfg,
		send:       newAPITransport(api),
		users:      deps.Users,
		products:   deps.Products,
		cart:       deps.Cart,
		orders:     deps.Orders,
		categories: deps.Categories,
		chat:       deps.Chat,
		states:     deps.States,
		limiter:    deps.Limiter,
		log:        logger,
		workers:    workers,
	}, nil
}

func (b *Bot) StartPolling(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := b.api.GetUpdatesChan(u)

	ctx, cancel := context.WithCancel(ctx)
	b.cancelPolling = cancel

	var wg sync.WaitGroup
	updateChan := make(chan tgbotapi.Update, 100)

	for i := 0; i < b.workers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case up := <-updateChan:
					if err := b.safeHandle(ctx, up); err != nil {
						b.log.Warn().Int("worker", id).Err(err).Msg("update failed")
					}
				}
			}
		}(i)
	}

	for {
		select {
		case <-ctx.Done():
			close(updateChan)
			wg.Wait()
			return ctx.Err()
		case up := <-updates:
			updateChan <- up
		}
	}
}

func (b *Bot) StopPolling() {
	if b.cancelPolling != nil {
		b.cancelPolling()
	}
}

// safeHandle keeps one panicking handler from taking the worker down.
func (b *Bot) safeHandle(ctx context.Context, update tgbotapi.Update) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return b.handleUpdate(ctx, update)
}

// handleUpdate is the single router. Rules are checked in order and the
// first match wins; flow state is read here and mutated only by the
// handler the rule dispatches to.
func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) error {
	if update.CallbackQuery != nil {
		metrics.IncBotUpdate("callback")
		return b.handleQuery(ctx, update.CallbackQuery)
	}

	msg := update.Message
	if msg == nil || msg.From == nil {
		return nil
	}
	metrics.IncBotUpdate("message")
	chatID := chatIDString(msg.Chat.ID)

	command := "message"
	if msg.IsCommand() {
		command = "/" + msg.Command()
	}
	if !b.allow(ctx, chatID, command) {
		return b.send.SendMessage(ctx, chatID, "Slow down a little — try again in a minute.")
	}

	// 1. Commands cut through any pending prompt.
	if msg.IsCommand() {
		metrics.IncBotCommand(command)
		if fn, ok := b.commandRoutes()[msg.Command()]; ok {
			return fn(ctx, msg)
		}
		return b.send.SendMessage(ctx, chatID, "Unknown command. Try /help.")
	}

	// 2. Structural events.
	if msg.Contact != nil {
		return b.handleContact(ctx, msg)
	}
	if len(msg.Photo) > 0 {
		return b.handlePhoto(ctx, msg)
	}

	// 3. Menu captions bypass pending prompts.
	if fn, ok := b.menuRoutes()[strings.TrimSpace(msg.Text)]; ok {
		return fn(ctx, msg)
	}

	// 4. Admin typing a category rejection reason.
	if st, err := b.states.Get(ctx, flow.KindAdmin, chatID); err == nil && st != nil && st.Step == flow.StepRejectReason {
		return b.handleRejectReason(ctx, chatID, st, msg.Text)
	}

	// 5. Product-creation wizard.
	if st, err := b.states.Get(ctx, flow.KindSeller, chatID); err == nil && st != nil {
		return b.handleSellerInput(ctx, chatID, st, msg.Text)
	}

	// 6. Edit wizard.
	if st, err := b.states.Get(ctx, flow.KindEditProduct, chatID); err == nil && st != nil {
		return b.handleEditInput(ctx, chatID, st, msg.Text)
	}

	// 7. Free text: comment prompts, filters, peer chat, then the
	// admin-conversation fallback.
	return b.handleFreeText(ctx, msg)
}

func (b *Bot) allow(ctx context.Context, chatID, command string) bool {
	if b.limiter == nil {
		return true
	}
	allowed, err := b.limiter.Allow(ctx, red.ChatCommandKey(chatID, command), 20, time.Minute)
	if err != nil {
		b.log.Warn().Err(err).Msg("rate limiter unavailable")
		return true
	}
	if !allowed {
		metrics.IncRateLimitTriggered()
	}
	return allowed
}

func (b *Bot) handleQuery(ctx context.Context, query *tgbotapi.CallbackQuery) error {
	if query == nil || query.From == nil {
		return errors.New("invalid callback query")
	}

	// Stop the Telegram spinner no matter how dispatch ends.
	if b.api != nil {
		defer func() { _, _ = b.api.Request(tgbotapi.NewCallback(query.ID, "")) }()
	}

	chatID := chatIDString(query.From.ID)
	if query.Message != nil && query.Message.Chat != nil {
		chatID = chatIDString(query.Message.Chat.ID)
	}
	messageID := 0
	if query.Message != nil {
		messageID = query.Message.MessageID
	}

	data := strings.TrimSpace(query.Data)
	if !b.allow(ctx, chatID, "cb") {
		return b.send.SendMessage(ctx, chatID, "Slow down a little — try again in a minute.")
	}

	cb := &callback{chatID: chatID, actorID: chatIDString(query.From.ID), messageID: messageID, data: data}

	if fn, ok := b.cbRoutes()[data]; ok {
		return fn(ctx, cb)
	}
	for _, pr := range b.cbPrefixRoutes() {
		if strings.HasPrefix(data, pr.Prefix) {
			return pr.Fn(ctx, cb)
		}
	}
	b.log.Debug().Str("data", data).Msg("unknown callback")
	return nil
}

// currentUser resolves the sender; nil means not registered yet.
func (b *Bot) currentUser(ctx context.Context, chatID string) *model.User {
	user, err := b.users.GetByTelegramID(ctx, chatID)
	if err != nil {
		return nil
	}
	return user
}

func (b *Bot) isAdmin(ctx context.Context, chatID string) bool {
	user := b.currentUser(ctx, chatID)
	return user != nil && user.Role == model.RoleAdmin
}
