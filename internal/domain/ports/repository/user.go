package repository

import (
	"context"

	"telegram-marketplace/internal/domain/model"
)

type UserRepository interface {
	Save(ctx context.Context, tx Tx, u *model.User) error
	FindByTelegramID(ctx context.Context, tx Tx, telegramID string) (*model.User, error)
	FindByPhone(ctx context.Context, tx Tx, phone string) (*model.User, error)
	ListActive(ctx context.Context, tx Tx) ([]*model.User, error)
	ListByRoles(ctx context.Context, tx Tx, roles ...model.Role) ([]*model.User, error)
	CountByRole(ctx context.Context, tx Tx) (map[model.Role]int, error)
}
