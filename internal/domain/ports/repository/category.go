package repository

import (
	"context"

	"telegram-marketplace/internal/domain/model"
)

// CategoryRepository. Create must surface the unique-name constraint as
// domain.ErrAlreadyExists so the approval flow can resolve the race.
type CategoryRepository interface {
	Create(ctx context.Context, tx Tx, c *model.Category) error
	FindByName(ctx context.Context, tx Tx, name string) (*model.Category, error)
	ListAll(ctx context.Context, tx Tx) ([]*model.Category, error)
}
