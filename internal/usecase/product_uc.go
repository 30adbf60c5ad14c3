package usecase

import (
	"context"
	"strings"

	"telegram-marketplace/internal/domain"
	"telegram-marketplace/internal/domain/flow"
	"telegram-marketplace/internal/domain/model"
	"telegram-marketplace/internal/domain/ports/adapter"
	"telegram-marketplace/internal/domain/ports/repository"
	"telegram-marketplace/internal/infra/logging"
	"telegram-marketplace/internal/infra/metrics"

	"github.com/rs/zerolog"
)

var _ ProductUseCase = (*productUC)(nil)

// ProductUseCase covers product lifecycle: creation from a completed
// wizard draft, single-field edits, soft delete, likes and browsing.
type ProductUseCase interface {
	CreateFromDraft(ctx context.Context, sellerID string, draft flow.ProductDraft) (*model.Product, error)
	GetByID(ctx context.Context, id string) (*model.Product, error)
	UpdateField(ctx context.Context, actorID, productID, field, value string) (*model.Product, error)
	SetImages(ctx context.Context, actorID, productID string, images []string) (*model.Product, error)
	Delete(ctx context.Context, actorID, productID string) error
	ToggleLike(ctx context.Context, userID, productID string) (liked bool, err error)
	List(ctx context.Context, filter repository.ProductFilter) ([]*model.Product, error)
	Count(ctx context.Context, filter repository.ProductFilter) (int, error)
	AddComment(ctx context.Context, userID, productID, text string) (*model.Product, error)
	Rate(ctx context.Context, userID, productID string, stars int) (*model.Product, error)
}

type productUC struct {
	products repository.ProductRepository
	users    repository.UserRepository
	tm       repository.TransactionManager
	notify   adapter.NotificationPublisher
	log      *zerolog.Logger
}

func NewProductUseCase(products repository.ProductRepository, users repository.UserRepository, tm repository.TransactionManager, notify adapter.NotificationPublisher, logger *zerolog.Logger) *productUC {
	return &productUC{products: products, users: users, tm: tm, notify: notify, log: logger}
}

// CreateFromDraft materializes the wizard draft into a stored product.
// The draft is assumed step-validated; NewProduct re-checks invariants.
func (p *productUC) CreateFromDraft(ctx context.Context, sellerID string, draft flow.ProductDraft) (*model.Product, error) {
	defer logging.TraceDuration(p.log, "ProductUC.CreateFromDraft")()

	prod, err := model.NewProduct(newID(), sellerID, draft.Title, draft.Price, draft.Discount, draft.Description, draft.Category, draft.Stock, draft.Images)
	if err != nil {
		return nil, err
	}
	if err := p.products.Save(ctx, repository.NoTX, prod); err != nil {
		return nil, err
	}
	metrics.IncProductCreated()
	p.log.Info().Str("product_id", prod.ID).Str("seller_id", sellerID).Msg("product created")
	_ = p.notify.Publish(ctx, sellerID, "product_created", map[string]string{"product_id": prod.ID, "title": prod.Title})
	return prod, nil
}

func (p *productUC) GetByID(ctx context.Context, id string) (*model.Product, error) {
	return p.products.FindByID(ctx, repository.NoTX, id)
}

// UpdateField applies a single-field edit after an ownership check.
// Admins may edit any product; sellers only their own.
func (p *productUC) UpdateField(ctx context.Context, actorID, productID, field, value string) (*model.Product, error) {
	defer logging.TraceDuration(p.log, "ProductUC.UpdateField")()

	var updated *model.Product
	err := p.tm.WithTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		prod, err := p.products.FindByID(ctx, tx, productID)
		if err != nil {
			return err
		}
		if err := p.authorize(ctx, tx, actorID, prod); err != nil {
			return err
		}
		if err := applyField(prod, field, value); err != nil {
			return err
		}
		if err := p.products.Save(ctx, tx, prod); err != nil {
			return err
		}
		updated = prod
		return nil
	})
	if err != nil {
		return nil, err
	}
	_ = p.notify.Publish(ctx, updated.SellerID, "product_updated", map[string]string{"product_id": updated.ID, "field": field})
	return updated, nil
}

// SetImages replaces the product's image set, capped at MaxImages.
func (p *productUC) SetImages(ctx context.Context, actorID, productID string, images []string) (*model.Product, error) {
	if len(images) == 0 || len(images) > model.MaxImages {
		return nil, domain.ErrValidation
	}
	var updated *model.Product
	err := p.tm.WithTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		prod, err := p.products.FindByID(ctx, tx, productID)
		if err != nil {
			return err
		}
		if err := p.authorize(ctx, tx, actorID, prod); err != nil {
			return err
		}
		prod.Images = images
		if err := p.products.Save(ctx, tx, prod); err != nil {
			return err
		}
		updated = prod
		return nil
	})
	return updated, err
}

// Delete soft-deletes by flipping IsActive off; order history keeps
// referencing the row.
func (p *productUC) Delete(ctx context.Context, actorID, productID string) error {
	defer logging.TraceDuration(p.log, "ProductUC.Delete")()

	return p.tm.WithTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		prod, err := p.products.FindByID(ctx, tx, productID)
		if err != nil {
			return err
		}
		if err := p.authorize(ctx, tx, actorID, prod); err != nil {
			return err
		}
		prod.IsActive = false
		return p.products.Save(ctx, tx, prod)
	})
}

// ToggleLike flips the caller's like on the product and reports the
// resulting state.
func (p *productUC) ToggleLike(ctx context.Context, userID, productID string) (bool, error) {
	var liked bool
	err := p.tm.WithTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		prod, err := p.products.FindByID(ctx, tx, productID)
		if err != nil {
			return err
		}
		liked = prod.ToggleLike(userID)
		return p.products.Save(ctx, tx, prod)
	})
	return liked, err
}

func (p *productUC) List(ctx context.Context, filter repository.ProductFilter) ([]*model.Product, error) {
	return p.products.ListActive(ctx, repository.NoTX, filter)
}

func (p *productUC) Count(ctx context.Context, filter repository.ProductFilter) (int, error) {
	return p.products.CountActive(ctx, repository.NoTX, filter)
}

func (p *productUC) AddComment(ctx context.Context, userID, productID, text string) (*model.Product, error) {
	text = strings.TrimSpace(text)
	if text == "" || len(text) > model.MaxMessageLen {
		return nil, domain.ErrValidation
	}
	var updated *model.Product
	err := p.tm.WithTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		author, err := p.users.FindByTelegramID(ctx, tx, userID)
		if err != nil {
			return err
		}
		prod, err := p.products.FindByID(ctx, tx, productID)
		if err != nil {
			return err
		}
		prod.AddComment(userID, author.DisplayName(), text)
		if err := p.products.Save(ctx, tx, prod); err != nil {
			return err
		}
		updated = prod
		return nil
	})
	if err != nil {
		return nil, err
	}
	_ = p.notify.Publish(ctx, updated.SellerID, "product_commented", map[string]string{"product_id": updated.ID})
	return updated, nil
}

// Rate folds one 1..5 star vote into the product's running average.
func (p *productUC) Rate(ctx context.Context, userID, productID string, stars int) (*model.Product, error) {
	if stars < 1 || stars > 5 {
		return nil, domain.ErrValidation
	}
	var updated *model.Product
	err := p.tm.WithTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		prod, err := p.products.FindByID(ctx, tx, productID)
		if err != nil {
			return err
		}
		sum := prod.Rating*float64(prod.RatingCount) + float64(stars)
		prod.RatingCount++
		prod.Rating = sum / float64(prod.RatingCount)
		if err := p.products.Save(ctx, tx, prod); err != nil {
			return err
		}
		updated = prod
		return nil
	})
	if err != nil {
		return nil, err
	}
	_ = p.notify.Publish(ctx, updated.SellerID, "product_rated", map[string]string{"product_id": updated.ID})
	return updated, nil
}

func (p *productUC) authorize(ctx context.Context, tx repository.Tx, actorID string, prod *model.Product) error {
	if prod.SellerID == actorID {
		return nil
	}
	actor, err := p.users.FindByTelegramID(ctx, tx, actorID)
	if err != nil {
		return err
	}
	if actor.Role != model.RoleAdmin {
		return domain.ErrPermissionDenied
	}
	return nil
}

// applyField mutates one editable product field from its text form.
// Numeric fields arrive pre-parsed as canonical decimal strings.
func applyField(prod *model.Product, field, value string) error {
	switch field {
	case "title":
		if l := len(strings.TrimSpace(value)); l < model.MinTitleLen || l > model.MaxTitleLen {
			return domain.ErrValidation
		}
		prod.Title = strings.TrimSpace(value)
	case "description":
		prod.Description = strings.TrimSpace(value)
	case "category":
		prod.Category = value
	case "price":
		n, err := ParsePrice(value)
		if err != nil {
			return err
		}
		prod.Price = n
	case "discount":
		n, err := ParseDiscount(value)
		if err != nil {
			return err
		}
		prod.Discount = n
	case "stock":
		n, err := ParseStock(value)
		if err != nil {
			return err
		}
		prod.Stock = n
	default:
		return domain.ErrInvalidArgument
	}
	return nil
}
