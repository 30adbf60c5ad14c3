package usecase

import (
	"context"

	"telegram-marketplace/internal/domain"
	"telegram-marketplace/internal/domain/model"
	"telegram-marketplace/internal/domain/ports/repository"

	"github.com/rs/zerolog"
)

var _ CartUseCase = (*cartUC)(nil)

// CartUseCase manages the per-user cart. The cart holds product IDs,
// one unit each; adding an already-present product is a no-op.
type CartUseCase interface {
	Add(ctx context.Context, userID, productID string) (added bool, err error)
	Remove(ctx context.Context, userID, productID string) error
	Clear(ctx context.Context, userID string) error
	View(ctx context.Context, userID string) ([]*model.Product, int64, error)
}

type cartUC struct {
	users    repository.UserRepository
	products repository.ProductRepository
	tm       repository.TransactionManager
	log      *zerolog.Logger
}

func NewCartUseCase(users repository.UserRepository, products repository.ProductRepository, tm repository.TransactionManager, logger *zerolog.Logger) *cartUC {
	return &cartUC{users: users, products: products, tm: tm, log: logger}
}

// Add puts the product in the cart. Returns false without error when
// it is already there. Inactive or out-of-stock products are refused.
func (c *cartUC) Add(ctx context.Context, userID, productID string) (bool, error) {
	var added bool
	err := c.tm.WithTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		prod, err := c.products.FindByID(ctx, tx, productID)
		if err != nil {
			return err
		}
		if !prod.IsActive {
			return domain.ErrNotFound
		}
		if prod.Stock <= 0 {
			return domain.ErrOutOfStock
		}
		user, err := c.users.FindByTelegramID(ctx, tx, userID)
		if err != nil {
			return err
		}
		added = user.AddToCart(productID)
		if !added {
			return nil
		}
		return c.users.Save(ctx, tx, user)
	})
	return added, err
}

func (c *cartUC) Remove(ctx context.Context, userID, productID string) error {
	return c.tm.WithTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		user, err := c.users.FindByTelegramID(ctx, tx, userID)
		if err != nil {
			return err
		}
		if !user.RemoveFromCart(productID) {
			return domain.ErrNotFound
		}
		return c.users.Save(ctx, tx, user)
	})
}

func (c *cartUC) Clear(ctx context.Context, userID string) error {
	return c.tm.WithTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		user, err := c.users.FindByTelegramID(ctx, tx, userID)
		if err != nil {
			return err
		}
		user.ClearCart()
		return c.users.Save(ctx, tx, user)
	})
}

// View resolves cart entries to products and totals the discounted
// prices. Products deleted since they were added are skipped.
func (c *cartUC) View(ctx context.Context, userID string) ([]*model.Product, int64, error) {
	user, err := c.users.FindByTelegramID(ctx, repository.NoTX, userID)
	if err != nil {
		return nil, 0, err
	}
	if len(user.Cart) == 0 {
		return nil, 0, nil
	}
	prods, err := c.products.FindByIDs(ctx, repository.NoTX, user.Cart)
	if err != nil {
		return nil, 0, err
	}
	var total int64
	out := prods[:0]
	for _, p := range prods {
		if !p.IsActive {
			continue
		}
		total += p.DiscountedPrice()
		out = append(out, p)
	}
	return out, total, nil
}
