//go:build !integration

package web

import (
	"context"
	"time"

	"telegram-marketplace/internal/domain"
	"telegram-marketplace/internal/domain/flow"
	"telegram-marketplace/internal/domain/model"
	"telegram-marketplace/internal/domain/ports/repository"
)

// Use-case stubs with per-method hooks. Unhooked methods fail with
// ErrNotFound so a test that wanders off its path surfaces loudly.

type stubUsers struct {
	RegisterFunc      func(ctx context.Context, telegramID, username, firstName, phone string, role model.Role) (*model.User, error)
	GetByTelegramIDFn func(ctx context.Context, telegramID string) (*model.User, error)
	ChangeRoleFunc    func(ctx context.Context, actorID, targetID string, role model.Role) (*model.User, error)
	ListActiveFunc    func(ctx context.Context) ([]*model.User, error)
	ListChatPeersFunc func(ctx context.Context, forRole model.Role) ([]*model.User, error)
	CountByRoleFunc   func(ctx context.Context) (map[model.Role]int, error)
}

func (s *stubUsers) Register(ctx context.Context, telegramID, username, firstName, phone string, role model.Role) (*model.User, error) {
	if s.RegisterFunc != nil {
		return s.RegisterFunc(ctx, telegramID, username, firstName, phone, role)
	}
	return nil, domain.ErrNotFound
}

func (s *stubUsers) GetByTelegramID(ctx context.Context, telegramID string) (*model.User, error) {
	if s.GetByTelegramIDFn != nil {
		return s.GetByTelegramIDFn(ctx, telegramID)
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
	if s.CountByRoleFunc != nil {
		return s.CountByRoleFunc(ctx)
	}
	return nil, nil
}

type stubProducts struct {
	CreateFromDraftFunc func(ctx context.Context, sellerID string, draft flow.ProductDraft) (*model.Product, error)
	GetByIDFunc         func(ctx context.Context, id string) (*model.Product, error)
	UpdateFieldFunc     func(ctx context.Context, actorID, productID, field, value string) (*model.Product, error)
	DeleteFunc          func(ctx context.Context, actorID, productID string) error
	ListFunc            func(ctx context.Context, filter repository.ProductFilter) ([]*model.Product, error)
	CountFunc           func(ctx context.Context, filter repository.ProductFilter) (int, error)
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

func (s *stubProducts) SetImages(context.Context, string, string, []string) (*model.Product, error) {
	return nil, domain.ErrNotFound
}

func (s *stubProducts) Delete(ctx context.Context, actorID, productID string) error {
	if s.DeleteFunc != nil {
		return s.DeleteFunc(ctx, actorID, productID)
	}
	return domain.ErrNotFound
}

func (s *stubProducts) ToggleLike(context.Context, string, string) (bool, error) {
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

func (s *stubProducts) AddComment(context.Context, string, string, string) (*model.Product, error) {
	return nil, domain.ErrNotFound
}

func (s *stubProducts) Rate(context.Context, string, string, int) (*model.Product, error) {
	return nil, domain.ErrNotFound
}

type stubCart struct {
	AddFunc    func(ctx context.Context, userID, productID string) (bool, error)
	RemoveFunc func(ctx context.Context, userID, productID string) error
}

func (s *stubCart) Add(ctx context.Context, userID, productID string) (bool, error) {
	if s.AddFunc != nil {
		return s.AddFunc(ctx, userID, productID)
	}
	return true, nil
}

func (s *stubCart) Remove(ctx context.Context, userID, productID string) error {
	if s.RemoveFunc != nil {
		return s.RemoveFunc(ctx, userID, productID)
	}
	return nil
}

func (s *stubCart) Clear(context.Context, string) error { return nil }

func (s *stubCart) View(context.Context, string) ([]*model.Product, int64, error) {
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

func (s *stubOrders) GetByID(context.Context, string) (*model.Order, error) {
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

func (s *stubOrders) CountByStatus(context.Context) (map[model.OrderStatus]int, error) {
	return nil, nil
}

type stubCategories struct {
	ListAllFunc func(ctx context.Context) ([]*model.Category, error)
	ApproveFunc func(ctx context.Context, adminID, name, requesterChatID string) error
}

func (s *stubCategories) ListAll(ctx context.Context) ([]*model.Category, error) {
	if s.ListAllFunc != nil {
		return s.ListAllFunc(ctx)
	}
	return nil, nil
}

func (s *stubCategories) Exists(context.Context, string) (bool, error) { return false, nil }

func (s *stubCategories) Request(context.Context, flow.Kind, string, string) (bool, error) {
	return false, domain.ErrNotFound
}

func (s *stubCategories) Approve(ctx context.Context, adminID, name, requesterChatID string) error {
	if s.ApproveFunc != nil {
		return s.ApproveFunc(ctx, adminID, name, requesterChatID)
	}
	return domain.ErrNotFound
}

func (s *stubCategories) Reject(context.Context, string, string, string, string) error {
	return domain.ErrNotFound
}

func (s *stubCategories) SweepExpired(context.Context, time.Duration) (int, error) {
	return 0, nil
}

type stubChat struct {
	SendFunc    func(ctx context.Context, fromID, toID, text string) (*model.Message, error)
	HistoryFunc func(ctx context.Context, a, b string, offset, limit int) ([]*model.Message, error)
}

func (s *stubChat) Send(ctx context.Context, fromID, toID, text string) (*model.Message, error) {
	if s.SendFunc != nil {
		return s.SendFunc(ctx, fromID, toID, text)
	}
	return nil, domain.ErrNotFound
}

func (s *stubChat) History(ctx context.Context, a, b string, offset, limit int) ([]*model.Message, error) {
	if s.HistoryFunc != nil {
		return s.HistoryFunc(ctx, a, b, offset, limit)
	}
	return nil, nil
}

func (s *stubChat) MarkRead(context.Context, string, string) error            { return nil }
func (s *stubChat) EnterAdminConversation(context.Context, string) error      { return nil }
func (s *stubChat) LeaveAdminConversation(context.Context, string) error      { return nil }
func (s *stubChat) InAdminConversation(context.Context, string) (bool, error) { return false, nil }
