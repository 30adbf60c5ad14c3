package usecase

import (
	"context"
	"errors"

	"telegram-marketplace/internal/domain"
	"telegram-marketplace/internal/domain/model"
	"telegram-marketplace/internal/domain/ports/adapter"
	"telegram-marketplace/internal/domain/ports/repository"
	"telegram-marketplace/internal/infra/logging"

	"github.com/rs/zerolog"
)

// Compile-time check
var _ UserUseCase = (*userUC)(nil)

// UserUseCase exposes user-related operations used by bot/admin flows.
type UserUseCase interface {
	Register(ctx context.Context, telegramID, username, firstName, phone string, role model.Role) (*model.User, error)
	GetByTelegramID(ctx context.Context, telegramID string) (*model.User, error)
	ChangeRole(ctx context.Context, actorID, targetID string, role model.Role) (*model.User, error)
	ListActive(ctx context.Context) ([]*model.User, error)
	ListChatPeers(ctx context.Context, forRole model.Role) ([]*model.User, error)
	CountByRole(ctx context.Context) (map[model.Role]int, error)
}

type userUC struct {
	users  repository.UserRepository
	tm     repository.TransactionManager
	notify adapter.NotificationPublisher
	log    *zerolog.Logger
}

func NewUserUseCase(users repository.UserRepository, tm repository.TransactionManager, notify adapter.NotificationPublisher, logger *zerolog.Logger) *userUC {
	return &userUC{users: users, tm: tm, notify: notify, log: logger}
}

// Register creates the user after contact share, or refreshes an
// existing record. A phone already registered to another chat surfaces
// as domain.ErrAlreadyExists.
func (u *userUC) Register(ctx context.Context, telegramID, username, firstName, phone string, role model.Role) (*model.User, error) {
	defer logging.TraceDuration(u.log, "UserUC.Register")()

	var user *model.User
	err := u.tm.WithTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		existing, err := u.users.FindByTelegramID(ctx, tx, telegramID)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return err
		}
		if existing != nil {
			existing.Username = username
			existing.FirstName = firstName
			existing.Phone = phone
			existing.Role = role
			if err := u.users.Save(ctx, tx, existing); err != nil {
				return err
			}
			user = existing
			return nil
		}
		nu, err := model.NewUser(telegramID, username, firstName, phone, role)
		if err != nil {
			return err
		}
		if err := u.users.Save(ctx, tx, nu); err != nil {
			return err
		}
		user = nu
		return nil
	})
	return user, err
}

func (u *userUC) GetByTelegramID(ctx context.Context, telegramID string) (*model.User, error) {
	return u.users.FindByTelegramID(ctx, repository.NoTX, telegramID)
}

// ChangeRole promotes or demotes the target. Only admins may do this.
func (u *userUC) ChangeRole(ctx context.Context, actorID, targetID string, role model.Role) (*model.User, error) {
	defer logging.TraceDuration(u.log, "UserUC.ChangeRole")()

	actor, err := u.users.FindByTelegramID(ctx, repository.NoTX, actorID)
	if err != nil {
		return nil, err
	}
	if actor.Role != model.RoleAdmin {
		return nil, domain.ErrPermissionDenied
	}
	if _, err := model.ParseRole(string(role)); err != nil {
		return nil, err
	}

	target, err := u.users.FindByTelegramID(ctx, repository.NoTX, targetID)
	if err != nil {
		return nil, err
	}
	target.Role = role
	if err := u.users.Save(ctx, repository.NoTX, target); err != nil {
		return nil, err
	}
	_ = u.notify.Publish(ctx, targetID, "role_changed", map[string]string{"role": string(role)})
	return target, nil
}

func (u *userUC) ListActive(ctx context.Context) ([]*model.User, error) {
	return u.users.ListActive(ctx, repository.NoTX)
}

// ListChatPeers returns the users a given role may open a chat with:
// admins see everyone, clients see sellers, sellers see clients.
func (u *userUC) ListChatPeers(ctx context.Context, forRole model.Role) ([]*model.User, error) {
	switch forRole {
	case model.RoleAdmin:
		return u.users.ListByRoles(ctx, repository.NoTX, model.RoleSeller, model.RoleClient)
	case model.RoleClient:
		return u.users.ListByRoles(ctx, repository.NoTX, model.RoleSeller)
	default:
		return u.users.ListByRoles(ctx, repository.NoTX, model.RoleClient)
	}
}

func (u *userUC) CountByRole(ctx context.Context) (map[model.Role]int, error) {
	return u.users.CountByRole(ctx, repository.NoTX)
}
