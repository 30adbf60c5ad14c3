package repository

import (
	"context"

	"telegram-marketplace/internal/domain/model"
)

// ProductFilter narrows ListActive; zero values mean "no constraint".
type ProductFilter struct {
	Category string
	MinPrice int64
	MaxPrice int64
	SellerID string
	Offset   int
	Limit    int
}

type ProductRepository interface {
	Save(ctx context.Context, tx Tx, p *model.Product) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Product, error)
	FindByIDs(ctx context.Context, tx Tx, ids []string) ([]*model.Product, error)
	ListActive(ctx context.Context, tx Tx, f ProductFilter) ([]*model.Product, error)
	CountActive(ctx context.Context, tx Tx, f ProductFilter) (int, error)
}
