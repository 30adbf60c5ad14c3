package repository

import (
	"context"

	"telegram-marketplace/internal/domain/model"
)

type OrderRepository interface {
	Save(ctx context.Context, tx Tx, o *model.Order) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Order, error)
	ListByClient(ctx context.Context, tx Tx, clientID string, offset, limit int) ([]*model.Order, error)
	ListAll(ctx context.Context, tx Tx, offset, limit int) ([]*model.Order, error)
	CountByStatus(ctx context.Context, tx Tx) (map[model.OrderStatus]int, error)
}
