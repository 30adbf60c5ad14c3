//go:build !integration

package usecase_test

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"telegram-marketplace/internal/domain"
	"telegram-marketplace/internal/domain/flow"
	"telegram-marketplace/internal/domain/model"
	"telegram-marketplace/internal/domain/ports/adapter"
	"telegram-marketplace/internal/domain/ports/repository"
)

func newTestLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

// -----------------------------
// Transaction manager
// -----------------------------

// fakeTxManager runs fn directly against the pool handle; the mocks
// ignore tx anyway.
type fakeTxManager struct{}

var _ repository.TransactionManager = (*fakeTxManager)(nil)

func (fakeTxManager) WithTx(ctx context.Context, fn func(ctx context.Context, tx repository.Tx) error) error {
	return fn(ctx, repository.NoTX)
}

// -----------------------------
// Notification publisher
// -----------------------------

type mockNotifier struct {
	mu     sync.Mutex
	Events []notification
}

type notification struct {
	UserID string
	Event  string
}

var _ adapter.NotificationPublisher = (*mockNotifier)(nil)

func (m *mockNotifier) Publish(ctx context.Context, userID, event string, payload any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Events = append(m.Events, notification{UserID: userID, Event: event})
	return nil
}

func (m *mockNotifier) has(userID, event string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, n := range m.Events {
		if n.UserID == userID && n.Event == event {
			return true
		}
	}
	return false
}

// =============================
// Repositories
// =============================

// ---- Mock UserRepository ----

type MockUserRepo struct {
	mu   sync.Mutex
	byID map[string]*model.User

	SaveFunc func(ctx context.Context, tx repository.Tx, u *model.User) error
}

var _ repository.UserRepository = (*MockUserRepo)(nil)

func NewMockUserRepo() *MockUserRepo {
	return &MockUserRepo{byID: map[string]*model.User{}}
}

func (r *MockUserRepo) Save(ctx context.Context, tx repository.Tx, u *model.User) error {
	if r.SaveFunc != nil {
		return r.SaveFunc(ctx, tx, u)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *u
	cp.Cart = append([]string(nil), u.Cart...)
	r.byID[cp.TelegramID] = &cp
	return nil
}

func (r *MockUserRepo) FindByTelegramID(ctx context.Context, tx repository.Tx, telegramID string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[telegramID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *u
	cp.Cart = append([]string(nil), u.Cart...)
	return &cp, nil
}

func (r *MockUserRepo) FindByPhone(ctx context.Context, tx repository.Tx, phone string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.byID {
		if u.Phone == phone {
			cp := *u
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *MockUserRepo) ListActive(ctx context.Context, tx repository.Tx) ([]*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*model.User, 0, len(r.byID))
	for _, u := range r.byID {
		if u.IsActive {
			cp := *u
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TelegramID < out[j].TelegramID })
	return out, nil
}

func (r *MockUserRepo) ListByRoles(ctx context.Context, tx repository.Tx, roles ...model.Role) ([]*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.User
	for _, u := range r.byID {
		for _, role := range roles {
			if u.Role == role {
				cp := *u
				out = append(out, &cp)
				break
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TelegramID < out[j].TelegramID })
	return out, nil
}

func (r *MockUserRepo) CountByRole(ctx context.Context, tx repository.Tx) (map[model.Role]int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := map[model.Role]int{}
	for _, u := range r.byID {
		out[u.Role]++
	}
	return out, nil
}

// ---- Mock ProductRepository ----

type MockProductRepo struct {
	mu   sync.Mutex
	data map[string]*model.Product

	SaveFunc func(ctx context.Context, tx repository.Tx, p *model.Product) error
}

var _ repository.ProductRepository = (*MockProductRepo)(nil)

func NewMockProductRepo() *MockProductRepo {
	return &MockProductRepo{data: map[string]*model.Product{}}
}

func cloneProduct(p *model.Product) *model.Product {
	cp := *p
	cp.Images = append([]string(nil), p.Images...)
	cp.Likes = append([]string(nil), p.Likes...)
	cp.Comments = append([]model.Comment(nil), p.Comments...)
	return &cp
}

func (r *MockProductRepo) Save(ctx context.Context, tx repository.Tx, p *model.Product) error {
	if r.SaveFunc != nil {
		return r.SaveFunc(ctx, tx, p)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[p.ID] = cloneProduct(p)
	return nil
}

func (r *MockProductRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.data[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return cloneProduct(p), nil
}

func (r *MockProductRepo) FindByIDs(ctx context.Context, tx repository.Tx, ids []string) ([]*model.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Product
	for _, id := range ids {
		if p, ok := r.data[id]; ok {
			out = append(out, cloneProduct(p))
		}
	}
	return out, nil
}

func (r *MockProductRepo) ListActive(ctx context.Context, tx repository.Tx, f repository.ProductFilter) ([]*model.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Product
	for _, p := range r.data {
		if matchesFilter(p, f) {
			out = append(out, cloneProduct(p))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if f.Offset > 0 {
		if f.Offset >= len(out) {
			return nil, nil
		}
		out = out[f.Offset:]
	}
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (r *MockProductRepo) CountActive(ctx context.Context, tx repository.Tx, f repository.ProductFilter) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, p := range r.data {
		if matchesFilter(p, f) {
			n++
		}
	}
	return n, nil
}

func matchesFilter(p *model.Product, f repository.ProductFilter) bool {
	if !p.IsActive {
		return false
	}
	if f.Category != "" && p.Category != f.Category {
		return false
	}
	if f.SellerID != "" && p.SellerID != f.SellerID {
		return false
	}
	price := p.DiscountedPrice()
	if f.MinPrice > 0 && price < f.MinPrice {
		return false
	}
	if f.MaxPrice > 0 && price > f.MaxPrice {
		return false
	}
	return true
}

// ---- Mock OrderRepository ----

type MockOrderRepo struct {
	mu   sync.Mutex
	data map[string]*model.Order
}

var _ repository.OrderRepository = (*MockOrderRepo)(nil)

func NewMockOrderRepo() *MockOrderRepo {
	return &MockOrderRepo{data: map[string]*model.Order{}}
}

func (r *MockOrderRepo) Save(ctx context.Context, tx repository.Tx, o *model.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *o
	cp.ProductIDs = append([]string(nil), o.ProductIDs...)
	r.data[o.ID] = &cp
	return nil
}

func (r *MockOrderRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.data[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (r *MockOrderRepo) ListByClient(ctx context.Context, tx repository.Tx, clientID string, offset, limit int) ([]*model.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Order
	for _, o := range r.data {
		if o.ClientID == clientID {
			cp := *o
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return page(out, offset, limit), nil
}

func (r *MockOrderRepo) ListAll(ctx context.Context, tx repository.Tx, offset, limit int) ([]*model.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*model.Order, 0, len(r.data))
	for _, o := range r.data {
		cp := *o
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return page(out, offset, limit), nil
}

func (r *MockOrderRepo) CountByStatus(ctx context.Context, tx repository.Tx) (map[model.OrderStatus]int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := map[model.OrderStatus]int{}
	for _, o := range r.data {
		out[o.Status]++
	}
	return out, nil
}

func page(in []*model.Order, offset, limit int) []*model.Order {
	if offset > 0 {
		if offset >= len(in) {
			return nil
		}
		in = in[offset:]
	}
	if limit > 0 && len(in) > limit {
		in = in[:limit]
	}
	return in
}

// ---- Mock CategoryRepository ----

type MockCategoryRepo struct {
	mu     sync.Mutex
	byName map[string]*model.Category

	CreateFunc func(ctx context.Context, tx repository.Tx, c *model.Category) error
}

var _ repository.CategoryRepository = (*MockCategoryRepo)(nil)

func NewMockCategoryRepo() *MockCategoryRepo {
	return &MockCategoryRepo{byName: map[string]*model.Category{}}
}

func (r *MockCategoryRepo) Create(ctx context.Context, tx repository.Tx, c *model.Category) error {
	if r.CreateFunc != nil {
		return r.CreateFunc(ctx, tx, c)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byName[c.Name]; ok {
		return domain.ErrAlreadyExists
	}
	cp := *c
	r.byName[c.Name] = &cp
	return nil
}

func (r *MockCategoryRepo) FindByName(ctx context.Context, tx repository.Tx, name string) (*model.Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.byName[name]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *MockCategoryRepo) ListAll(ctx context.Context, tx repository.Tx) ([]*model.Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*model.Category, 0, len(r.byName))
	for _, c := range r.byName {
		cp := *c
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// ---- Mock MessageRepository / ConversationRepository ----

type MockMessageRepo struct {
	mu   sync.Mutex
	data []*model.Message
}

var _ repository.MessageRepository = (*MockMessageRepo)(nil)

func NewMockMessageRepo() *MockMessageRepo { return &MockMessageRepo{} }

func (r *MockMessageRepo) Save(ctx context.Context, tx repository.Tx, m *model.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *m
	r.data = append(r.data, &cp)
	return nil
}

func (r *MockMessageRepo) ListBetween(ctx context.Context, tx repository.Tx, a, b string, offset, limit int) ([]*model.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Message
	for _, m := range r.data {
		if (m.FromID == a && m.ToID == b) || (m.FromID == b && m.ToID == a) {
			cp := *m
			out = append(out, &cp)
		}
	}
	if offset > 0 {
		if offset >= len(out) {
			return nil, nil
		}
		out = out[offset:]
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *MockMessageRepo) MarkRead(ctx context.Context, tx repository.Tx, fromID, toID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.data {
		if m.FromID == fromID && m.ToID == toID {
			m.IsRead = true
		}
	}
	return nil
}

type MockConversationRepo struct {
	mu   sync.Mutex
	data map[string]bool
}

var _ repository.ConversationRepository = (*MockConversationRepo)(nil)

func NewMockConversationRepo() *MockConversationRepo {
	return &MockConversationRepo{data: map[string]bool{}}
}

func (r *MockConversationRepo) SetInAdminConversation(ctx context.Context, tx repository.Tx, chatID string, in bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[chatID] = in
	return nil
}

func (r *MockConversationRepo) InAdminConversation(ctx context.Context, tx repository.Tx, chatID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.data[chatID], nil
}

// ---- Mock StateStore ----

// MockStateStore mirrors the store contract: invalid kinds are a
// silent miss on Get/Clear and an error on Set.
type MockStateStore struct {
	mu   sync.Mutex
	data map[string]*flow.State
}

var _ repository.StateStore = (*MockStateStore)(nil)

func NewMockStateStore() *MockStateStore {
	return &MockStateStore{data: map[string]*flow.State{}}
}

func stateKey(kind flow.Kind, chatID string) string {
	return string(kind) + ":" + chatID
}

func (s *MockStateStore) Get(ctx context.Context, kind flow.Kind, chatID string) (*flow.State, error) {
	if !flow.ValidKind(kind) || chatID == "" {
		return nil, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data[stateKey(kind, chatID)].Clone(), nil
}

func (s *MockStateStore) Set(ctx context.Context, kind flow.Kind, chatID string, st *flow.State) error {
	if !flow.ValidKind(kind) || chatID == "" || st == nil {
		return domain.ErrInvalidArgument
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[stateKey(kind, chatID)] = st.Clone()
	return nil
}

func (s *MockStateStore) Clear(ctx context.Context, kind flow.Kind, chatID string) error {
	if !flow.ValidKind(kind) || chatID == "" {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, stateKey(kind, chatID))
	return nil
}

func (s *MockStateStore) All(ctx context.Context, kind flow.Kind) (map[string]*flow.State, error) {
	if !flow.ValidKind(kind) {
		return nil, domain.ErrInvalidArgument
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := map[string]*flow.State{}
	prefix := string(kind) + ":"
	for k, st := range s.data {
		if strings.HasPrefix(k, prefix) {
			out[strings.TrimPrefix(k, prefix)] = st.Clone()
		}
	}
	return out, nil
}

// -----------------------------
// Seeding helpers
// -----------------------------

func seedUser(r *MockUserRepo, id string, role model.Role) *model.User {
	u := &model.User{
		TelegramID: id,
		Username:   "user_" + id,
		FirstName:  "User " + id,
		Phone:      "+100" + id,
		Role:       role,
		IsActive:   true,
		CreatedAt:  time.Now(),
	}
	_ = r.Save(context.Background(), repository.NoTX, u)
	return u
}

func seedProduct(r *MockProductRepo, id, sellerID string, price int64, discount, stock int) *model.Product {
	p := &model.Product{
		ID:        id,
		SellerID:  sellerID,
		Title:     "Product " + id,
		Price:     price,
		Discount:  discount,
		Category:  "General",
		Stock:     stock,
		Images:    []string{"file-" + id},
		IsActive:  true,
		CreatedAt: time.Now(),
	}
	_ = r.Save(context.Background(), repository.NoTX, p)
	return p
}
