//go:build !integration

package telegram

import (
	"context"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"telegram-marketplace/internal/config"
	"telegram-marketplace/internal/domain"
	"telegram-marketplace/internal/domain/flow"
	"telegram-marketplace/internal/domain/model"
	"telegram-marketplace/internal/domain/ports/adapter"
	"telegram-marketplace/internal/domain/ports/repository"
)

// fakeTransport records everything the bot tries to send.
type sent struct {
	Kind   string // message, buttons, reply_keyboard, remove_keyboard, photo, edit_photo
	ChatID string
	Text   string
	Rows   [][]adapter.InlineButton
	Reply  [][]adapter.ReplyButton
	FileID string
}

type fakeTransport struct {
	mu   sync.Mutex
	Sent []sent
}

func (f *fakeTransport) record(s sent) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Sent = append(f.Sent, s)
}

func (f *fakeTransport) SendMessage(ctx context.Context, chatID, text string) error {
	f.record(sent{Kind: "message", ChatID: chatID, Text: text})
	return nil
}

func (f *fakeTransport) SendButtons(ctx context.Context, chatID, text string, rows [][]adapter.InlineButton) error {
	f.record(sent{Kind: "buttons", ChatID: chatID, Text: text, Rows: rows})
	return nil
}

func (f *fakeTransport) SendReplyKeyboard(ctx context.Context, chatID, text string, rows [][]adapter.ReplyButton, oneTime bool) error {
	f.record(sent{Kind: "reply_keyboard", ChatID: chatID, Text: text, Reply: rows})
	return nil
}

func (f *fakeTransport) RemoveReplyKeyboard(ctx context.Context, chatID, text string) error {
	f.record(sent{Kind: "remove_keyboard", ChatID: chatID, Text: text})
	return nil
}

func (f *fakeTransport) SendPhoto(ctx context.Context, chatID, fileID, caption string, rows [][]adapter.InlineButton) error {
	f.record(sent{Kind: "photo", ChatID: chatID, Text: caption, FileID: fileID, Rows: rows})
	return nil
}

func (f *fakeTransport) EditMessagePhoto(ctx context.Context, chatID string, messageID int, fileID, caption string, rows [][]adapter.InlineButton) error {
	f.record(sent{Kind: "edit_photo", ChatID: chatID, Text: caption, FileID: fileID, Rows: rows})
	return nil
}

func (f *fakeTransport) last() sent {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.Sent) == 0 {
		return sent{}
	}
	return f.Sent[len(f.Sent)-1]
}

func (f *fakeTransport) textsFor(chatID string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, s := range f.Sent {
		if s.ChatID == chatID {
			out = append(out, s.Text)
		}
	}
	return out
}

// memStateStore is an in-memory StateStore for router tests.
type memStateStore struct {
	mu     sync.Mutex
	states map[string]*flow.State
}

func newMemStateStore() *memStateStore {
	return &memStateStore{states: map[string]*flow.State{}}
}

func memKey(kind flow.Kind, chatID string) string { return string(kind) + ":" + chatID }

func (m *memStateStore) Get(ctx context.Context, kind flow.Kind, chatID string) (*flow.State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.states[memKey(kind, chatID)].Clone(), nil
}

func (m *memStateStore) Set(ctx context.Context, kind flow.Kind, chatID string, st *flow.State) error {
	if !flow.ValidKind(kind) || chatID == "" || st == nil {
		return domain.ErrInvalidArgument
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.states[memKey(kind, chatID)] = st.Clone()
	return nil
}

func (m *memStateStore) Clear(ctx context.Context, kind flow.Kind, chatID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.states, memKey(kind, chatID))
	return nil
}

func (m *memStateStore) All(ctx context.Context, kind flow.Kind) (map[string]*flow.State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := map[string]*flow.State{}
	for k, v := range m.states {
		if strings.HasPrefix(k, string(kind)+":") {
			out[strings.TrimPrefix(k, string(kind)+":")] = v.Clone()
		}
	}
	return out, nil
}

// ---- usecase stubs: function fields, ErrNotFound by default ----

type stubUsers struct {
	RegisterFunc      func(ctx context.Context, telegramID, username, firstName, phone string, role model.Role) (*model.User, error)
	GetFunc           func(ctx context.Context, telegramID string) (*model.User, error)
	ChangeRoleFunc    func(ctx context.Context, actorID, targetID string, role model.Role) (*model.User, error)
	ListActiveFunc    func(ctx context.Context) ([]*model.User, error)
	ListChatPeersFunc func(ctx context.Context, forRole model.Role) ([]*model.User, error)
}

func (s *stubUsers) Register(ctx context.Context, telegramID, username, firstName, phone string, role model.Role) (*model.User, error) {
	if s.RegisterFunc != nil {
		return s.RegisterFunc(ctx, telegramID, username, firstName, phone, role)
	}
	return nil, domain.ErrNotFound
}

func (s *stubUsers) GetByTelegramID(ctx context.Context, telegramID string) (*model.User, error) {
	if s.GetFunc != nil {
		return s.GetFunc(ctx, telegramID)
	}
	return nil, domain.ErrNotFound
}

func (s *stubUsers) ChangeRole(ctx context.Context, actorID, targetID string, role model.Role) (*model.User, error) {
	if s.ChangeRoleFunc != nil {
		return s.ChangeRoleFunc(ctx, actorID, targetID, role)
	}
	return nil, domain.ErrNotFound
}

func (s *stubUsers) ListActive(ctx context.Context) ([]*model.User, error) {
	if s.ListActiveFunc != nil {
		return s.ListActiveFunc(ctx)
	}
	return nil, nil
}

func (s *stubUsers) ListChatPeers(ctx context.Context, forRole model.Role) ([]*model.User, error) {
	if s.ListChatPeersFunc != nil {
		return s.ListChatPeersFunc(ctx, forRole)
	}
	return nil, nil
}

func (s *stubUsers) CountByRole(ctx context.Context) (map[model.Role]int, error) {
	return map[model.Role]int{}, nil
}

type stubProducts struct {
	CreateFromDraftFunc func(ctx context.Context, sellerID string, draft flow.ProductDraft) (*model.Product, error)
	GetByIDFunc         func(ctx context.Context, id string) (*model.Product, error)
	UpdateFieldFunc     func(ctx context.Context, actorID, productID, field, value string) (*model.Product, error)
	SetImagesFunc       func(ctx context.Context, actorID, productID string, images []string) (*model.Product, error)
	DeleteFunc          func(ctx context.Context, actorID, productID string) error
	ToggleLikeFunc      func(ctx context.Context, userID, productID string) (bool, error)
	ListFunc            func(ctx context.Context, filter repository.ProductFilter) ([]*model.Product, error)
	CountFunc           func(ctx context.Context, filter repository.ProductFilter) (int, error)
	AddCommentFunc      func(ctx context.Context, userID, productID, text string) (*model.Product, error)
	RateFunc            func(ctx context.Context, userID, productID string, stars int) (*model.Product, error)
}

func (s *stubProducts) CreateFromDraft(ctx context.Context, sellerID string, draft flow.ProductDraft) (*model.Product, error) {
	if s.CreateFromDraftFunc != nil {
		return s.CreateFromDraftFunc(ctx, sellerID, draft)
	}
	return nil, domain.ErrNotFound
}

func (s *stubProducts) GetByID(ctx context.Context, id string) (*model.Product, error) {
	if s.GetByIDFunc != nil {
		return s.GetByIDFunc(ctx, id)
	}
	return nil, domain.ErrNotFound
}

func (s *stubProducts) UpdateField(ctx context.Context, actorID, productID, field, value string) (*model.Product, error) {
	if s.UpdateFieldFunc != nil {
		return s.UpdateFieldFunc(ctx, actorID, productID, field, value)
	}
	return nil, domain.ErrNotFound
}

func (s *stubProducts) SetImages(ctx context.Context, actorID, productID string, images []string) (*model.Product, error) {
	if s.SetImagesFunc != nil {
		return s.SetImagesFunc(ctx, actorID, productID, images)
	}
	return nil, domain.ErrNotFound
}

func (s *stubProducts) Delete(ctx context.Context, actorID, productID string) error {
	if s.DeleteFunc != nil {
		return s.DeleteFunc(ctx, actorID, productID)
	}
	return domain.ErrNotFound
}

func (s *stubProducts) ToggleLike(ctx context.Context, userID, productID string) (bool, error) {
	if s.ToggleLikeFunc != nil {
		return s.ToggleLikeFunc(ctx, userID, productID)
	}
	return false, domain.ErrNotFound
}

func (s *stubProducts) List(ctx context.Context, filter repository.ProductFilter) ([]*model.Product, error) {
	if s.ListFunc != nil {
		return s.ListFunc(ctx, filter)
	}
	return nil, nil
}

func (s *stubProducts) Count(ctx context.Context, filter repository.ProductFilter) (int, error) {
	if s.CountFunc != nil {
		return s.CountFunc(ctx, filter)
	}
	return 0, nil
}

func (s *stubProducts) AddComment(ctx context.Context, userID, productID, text string) (*model.Product, error) {
	if s.AddCommentFunc != nil {
		return s.AddCommentFunc(ctx, userID, productID, text)
	}
	return nil, domain.ErrNotFound
}

func (s *stubProducts) Rate(ctx context.Context, userID, productID string, stars int) (*model.Product, error) {
	if s.RateFunc != nil {
		return s.RateFunc(ctx, userID, productID, stars)
	}
	return nil, domain.ErrNotFound
}

type stubCart struct {
	AddFunc    func(ctx context.Context, userID, productID string) (bool, error)
	RemoveFunc func(ctx context.Context, userID, productID string) error
	ClearFunc  func(ctx context.Context, userID string) error
	ViewFunc   func(ctx context.Context, userID string) ([]*model.Product, int64, error)
}

func (s *stubCart) Add(ctx context.Context, userID, productID string) (bool, error) {
	if s.AddFunc != nil {
		return s.AddFunc(ctx, userID, productID)
	}
	return false, domain.ErrNotFound
}

func (s *stubCart) Remove(ctx context.Context, userID, productID string) error {
	if s.RemoveFunc != nil {
		return s.RemoveFunc(ctx, userID, productID)
	}
	return nil
}

func (s *stubCart) Clear(ctx context.Context, userID string) error {
	if s.ClearFunc != nil {
		return s.ClearFunc(ctx, userID)
	}
	return nil
}

func (s *stubCart) View(ctx context.Context, userID string) ([]*model.Product, int64, error) {
	if s.ViewFunc != nil {
		return s.ViewFunc(ctx, userID)
	}
	return nil, 0, nil
}

type stubOrders struct {
	CheckoutFunc     func(ctx context.Context, userID string) (*model.Order, error)
	ChangeStatusFunc func(ctx context.Context, actorID, orderID string, next model.OrderStatus) (*model.Order, error)
	ListByClientFunc func(ctx context.Context, clientID string, offset, limit int) ([]*model.Order, error)
	ListAllFunc      func(ctx context.Context, offset, limit int) ([]*model.Order, error)
}

func (s *stubOrders) Checkout(ctx context.Context, userID string) (*model.Order, error) {
	if s.CheckoutFunc != nil {
		return s.CheckoutFunc(ctx, userID)
	}
	return nil, domain.ErrEmptyCart
}

func (s *stubOrders) ChangeStatus(ctx context.Context, actorID, orderID string, next model.OrderStatus) (*model.Order, error) {
	if s.ChangeStatusFunc != nil {
		return s.ChangeStatusFunc(ctx, actorID, orderID, next)
	}
	return nil, domain.ErrNotFound
}

func (s *stubOrders) GetByID(ctx context.Context, id string) (*model.Order, error) {
	return nil, domain.ErrNotFound
}

func (s *stubOrders) ListByClient(ctx context.Context, clientID string, offset, limit int) ([]*model.Order, error) {
	if s.ListByClientFunc != nil {
		return s.ListByClientFunc(ctx, clientID, offset, limit)
	}
	return nil, nil
}

func (s *stubOrders) ListAll(ctx context.Context, offset, limit int) ([]*model.Order, error) {
	if s.ListAllFunc != nil {
		return s.ListAllFunc(ctx, offset, limit)
	}
	return nil, nil
}

func (s *stubOrders) CountByStatus(ctx context.Context) (map[model.OrderStatus]int, error) {
	return map[model.OrderStatus]int{}, nil
}

type stubCategories struct {
	ListAllFunc func(ctx context.Context) ([]*model.Category, error)
	ExistsFunc  func(ctx context.Context, name string) (bool, error)
	RequestFunc func(ctx context.Context, kind flow.Kind, chatID, name string) (bool, error)
	ApproveFunc func(ctx context.Context, adminID, name, requesterChatID string) error
	RejectFunc  func(ctx context.Context, adminID, name, requesterChatID, reason string) error
}

func (s *stubCategories) ListAll(ctx context.Context) ([]*model.Category, error) {
	if s.ListAllFunc != nil {
		return s.ListAllFunc(ctx)
	}
	return nil, nil
}

func (s *stubCategories) Exists(ctx context.Context, name string) (bool, error) {
	if s.ExistsFunc != nil {
		return s.ExistsFunc(ctx, name)
	}
	return false, nil
}

func (s *stubCategories) Request(ctx context.Context, kind flow.Kind, chatID, name string) (bool, error) {
	if s.RequestFunc != nil {
		return s.RequestFunc(ctx, kind, chatID, name)
	}
	return false, nil
}

func (s *stubCategories) Approve(ctx context.Context, adminID, name, requesterChatID string) error {
	if s.ApproveFunc != nil {
		return s.ApproveFunc(ctx, adminID, name, requesterChatID)
	}
	return nil
}

func (s *stubCategories) Reject(ctx context.Context, adminID, name, requesterChatID, reason string) error {
	if s.RejectFunc != nil {
		return s.RejectFunc(ctx, adminID, name, requesterChatID, reason)
	}
	return nil
}

func (s *stubCategories) SweepExpired(ctx context.Context, ttl time.Duration) (int, error) {
	return 0, nil
}

type stubChat struct {
	SendFunc    func(ctx context.Context, fromID, toID, text string) (*model.Message, error)
	InAdminFunc func(ctx context.Context, chatID string) (bool, error)
	EnterFunc   func(ctx context.Context, chatID string) error
	LeaveFunc   func(ctx context.Context, chatID string) error
	HistoryFunc func(ctx context.Context, a, b string, offset, limit int) ([]*model.Message, error)
}

func (s *stubChat) Send(ctx context.Context, fromID, toID, text string) (*model.Message, error) {
	if s.SendFunc != nil {
		return s.SendFunc(ctx, fromID, toID, text)
	}
	return &model.Message{FromID: fromID, ToID: toID, Text: text}, nil
}

func (s *stubChat) History(ctx context.Context, a, b string, offset, limit int) ([]*model.Message, error) {
	if s.HistoryFunc != nil {
		return s.HistoryFunc(ctx, a, b, offset, limit)
	}
	return nil, nil
}

func (s *stubChat) MarkRead(ctx context.Context, fromID, toID string) error { return nil }

func (s *stubChat) EnterAdminConversation(ctx context.Context, chatID string) error {
	if s.EnterFunc != nil {
		return s.EnterFunc(ctx, chatID)
	}
	return nil
}

func (s *stubChat) LeaveAdminConversation(ctx context.Context, chatID string) error {
	if s.LeaveFunc != nil {
		return s.LeaveFunc(ctx, chatID)
	}
	return nil
}

func (s *stubChat) InAdminConversation(ctx context.Context, chatID string) (bool, error) {
	if s.InAdminFunc != nil {
		return s.InAdminFunc(ctx, chatID)
	}
	return false, nil
}

// testBot wires a Bot with the fake transport and all stubs.
type testBot struct {
	bot        *Bot
	transport  *fakeTransport
	states     *memStateStore
	users      *stubUsers
	products   *stubProducts
	cart       *stubCart
	orders     *stubOrders
	categories *stubCategories
	chat       *stubChat
}

func newTestBot() *testBot {
	logger := zerolog.Nop()
	tb := &testBot{
		transport:  &fakeTransport{},
		states:     newMemStateStore(),
		users:      &stubUsers{},
		products:   &stubProducts{},
		cart:       &stubCart{},
		orders:     &stubOrders{},
		categories: &stubCategories{},
		chat:       &stubChat{},
	}
	tb.bot = &Bot{
		cfg: &config.BotConfig{
			AdminChatID: "999",
			Admins:      []config.AdminIdentity{{Username: "boss", Phones: []string{"+1 555 0100"}}},
		},
		send:       tb.transport,
		users:      tb.users,
		products:   tb.products,
		cart:       tb.cart,
		orders:     tb.orders,
		categories: tb.categories,
		chat:       tb.chat,
		states:     tb.states,
		log:        &logger,
		workers:    1,
	}
	return tb
}

func (tb *testBot) knownUser(u *model.User) {
	tb.users.GetFunc = func(ctx context.Context, telegramID string) (*model.User, error) {
		if telegramID == u.TelegramID {
			return u, nil
		}
		return nil, domain.ErrNotFound
	}
}

func textUpdate(chatID int64, text string) tgbotapi.Update {
	msg := &tgbotapi.Message{
		Text: text,
		From: &tgbotapi.User{ID: chatID, UserName: "someone"},
		Chat: &tgbotapi.Chat{ID: chatID},
	}
	if strings.HasPrefix(text, "/") {
		cmd := strings.Fields(text)[0]
		msg.Entities = []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(cmd)}}
	}
	return tgbotapi.Update{Message: msg}
}

func contactUpdate(chatID int64, phone string) tgbotapi.Update {
	return tgbotapi.Update{Message: &tgbotapi.Message{
		From:    &tgbotapi.User{ID: chatID, UserName: "someone", FirstName: "Some"},
		Chat:    &tgbotapi.Chat{ID: chatID},
		Contact: &tgbotapi.Contact{PhoneNumber: phone, UserID: chatID},
	}}
}

func photoUpdate(chatID int64, fileID string) tgbotapi.Update {
	return tgbotapi.Update{Message: &tgbotapi.Message{
		From:  &tgbotapi.User{ID: chatID},
		Chat:  &tgbotapi.Chat{ID: chatID},
		Photo: []tgbotapi.PhotoSize{{FileID: "small-" + fileID}, {FileID: fileID}},
	}}
}

func callbackUpdate(chatID int64, data string) tgbotapi.Update {
	return tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
		ID:      "cb-1",
		From:    &tgbotapi.User{ID: chatID},
		Message: &tgbotapi.Message{MessageID: 42, Chat: &tgbotapi.Chat{ID: chatID}},
		Data:    data,
	}}
}
