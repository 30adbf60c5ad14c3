package usecase

import (
	"context"
	"strconv"

	"telegram-marketplace/internal/domain"
	"telegram-marketplace/internal/domain/model"
	"telegram-marketplace/internal/domain/ports/adapter"
	"telegram-marketplace/internal/domain/ports/repository"
	"telegram-marketplace/internal/infra/logging"
	"telegram-marketplace/internal/infra/metrics"

	"github.com/rs/zerolog"
)

var _ OrderUseCase = (*orderUC)(nil)

// OrderUseCase covers checkout and the order status lifecycle.
type OrderUseCase interface {
	Checkout(ctx context.Context, userID string) (*model.Order, error)
	ChangeStatus(ctx context.Context, actorID, orderID string, next model.OrderStatus) (*model.Order, error)
	GetByID(ctx context.Context, id string) (*model.Order, error)
	ListByClient(ctx context.Context, clientID string, offset, limit int) ([]*model.Order, error)
	ListAll(ctx context.Context, offset, limit int) ([]*model.Order, error)
	CountByStatus(ctx context.Context) (map[model.OrderStatus]int, error)
}

type orderUC struct {
	orders   repository.OrderRepository
	users    repository.UserRepository
	products repository.ProductRepository
	tm       repository.TransactionManager
	notify   adapter.NotificationPublisher
	log      *zerolog.Logger
}

func NewOrderUseCase(orders repository.OrderRepository, users repository.UserRepository, products repository.ProductRepository, tm repository.TransactionManager, notify adapter.NotificationPublisher, logger *zerolog.Logger) *orderUC {
	return &orderUC{orders: orders, users: users, products: products, tm: tm, notify: notify, log: logger}
}

// Checkout converts the whole cart into one pending order, atomically:
// every cart item must be active and in stock or the checkout fails and
// nothing changes. On success each item's stock drops by one, the cart
// empties and the order is stored.
func (o *orderUC) Checkout(ctx context.Context, userID string) (*model.Order, error) {
	defer logging.TraceDuration(o.log, "OrderUC.Checkout")()

	var order *model.Order
	sellerIDs := make(map[string]struct{})
	err := o.tm.WithTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		user, err := o.users.FindByTelegramID(ctx, tx, userID)
		if err != nil {
			return err
		}
		if len(user.Cart) == 0 {
			return domain.ErrEmptyCart
		}

		prods := make([]*model.Product, 0, len(user.Cart))
		var total int64
		for _, pid := range user.Cart {
			prod, err := o.products.FindByID(ctx, tx, pid)
			if err != nil {
				return err
			}
			if !prod.IsActive {
				return domain.ErrNotFound
			}
			if prod.Stock <= 0 {
				return domain.ErrOutOfStock
			}
			total += prod.DiscountedPrice()
			prods = append(prods, prod)
		}

		ids := make([]string, 0, len(prods))
		for _, prod := range prods {
			prod.Stock--
			if err := o.products.Save(ctx, tx, prod); err != nil {
				return err
			}
			ids = append(ids, prod.ID)
			sellerIDs[prod.SellerID] = struct{}{}
		}

		ord, err := model.NewOrder(newID(), userID, ids, total)
		if err != nil {
			return err
		}
		if err := o.orders.Save(ctx, tx, ord); err != nil {
			return err
		}

		user.ClearCart()
		if err := o.users.Save(ctx, tx, user); err != nil {
			return err
		}
		order = ord
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.IncOrderPlaced()
	o.log.Info().Str("order_id", order.ID).Str("client_id", userID).Int64("total", order.TotalPrice).Msg("order placed")
	_ = o.notify.Publish(ctx, userID, "order_placed", map[string]string{
		"order_id": order.ID,
		"total":    strconv.FormatInt(order.TotalPrice, 10),
	})
	for sellerID := range sellerIDs {
		_ = o.notify.Publish(ctx, sellerID, "order_received", map[string]string{"order_id": order.ID})
	}
	return order, nil
}

// ChangeStatus applies one transition of the order state machine.
// Admins may apply any legal transition; the ordering client may only
// cancel their own pending or processing order.
func (o *orderUC) ChangeStatus(ctx context.Context, actorID, orderID string, next model.OrderStatus) (*model.Order, error) {
	defer logging.TraceDuration(o.log, "OrderUC.ChangeStatus")()

	if _, err := model.ParseOrderStatus(string(next)); err != nil {
		return nil, err
	}

	var order *model.Order
	err := o.tm.WithTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		ord, err := o.orders.FindByID(ctx, tx, orderID)
		if err != nil {
			return err
		}
		actor, err := o.users.FindByTelegramID(ctx, tx, actorID)
		if err != nil {
			return err
		}
		if err := o.authorizeTransition(ctx, tx, actor, ord, next); err != nil {
			return err
		}
		if !ord.Status.CanTransitionTo(next) {
			return domain.ErrInvalidTransition
		}
		ord.Status = next
		if err := o.orders.Save(ctx, tx, ord); err != nil {
			return err
		}
		order = ord
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.IncOrderTransition(string(order.Status))
	_ = o.notify.Publish(ctx, order.ClientID, "order_status_changed", map[string]string{
		"order_id": order.ID,
		"status":   string(order.Status),
	})
	return order, nil
}

// authorizeTransition: admins may apply any legal transition; a seller
// may when the order contains one of their products. Clients never
// transition orders, not even their own.
func (o *orderUC) authorizeTransition(ctx context.Context, tx repository.Tx, actor *model.User, ord *model.Order, next model.OrderStatus) error {
	if actor.Role == model.RoleAdmin {
		return nil
	}
	if actor.Role == model.RoleSeller {
		prods, err := o.products.FindByIDs(ctx, tx, ord.ProductIDs)
		if err != nil {
			return err
		}
		for _, p := range prods {
			if p.SellerID == actor.TelegramID {
				return nil
			}
		}
	}
	return domain.ErrPermissionDenied
}

func (o *orderUC) GetByID(ctx context.Context, id string) (*model.Order, error) {
	return o.orders.FindByID(ctx, repository.NoTX, id)
}

func (o *orderUC) ListByClient(ctx context.Context, clientID string, offset, limit int) ([]*model.Order, error) {
	return o.orders.ListByClient(ctx, repository.NoTX, clientID, offset, limit)
}

func (o *orderUC) ListAll(ctx context.Context, offset, limit int) ([]*model.Order, error) {
	return o.orders.ListAll(ctx, repository.NoTX, offset, limit)
}

func (o *orderUC) CountByStatus(ctx context.Context) (map[model.OrderStatus]int, error) {
	return o.orders.CountByStatus(ctx, repository.NoTX)
}
