package usecase

import (
	"context"
	"errors"
	"time"

	"telegram-marketplace/internal/domain"
	"telegram-marketplace/internal/domain/flow"
	"telegram-marketplace/internal/domain/model"
	"telegram-marketplace/internal/domain/ports/adapter"
	"telegram-marketplace/internal/domain/ports/repository"
	"telegram-marketplace/internal/infra/logging"
	"telegram-marketplace/internal/infra/metrics"

	"github.com/rs/zerolog"
)

var _ CategoryUseCase = (*categoryUC)(nil)

// CategoryUseCase handles the category list and the admin approval
// flow for seller-proposed categories.
type CategoryUseCase interface {
	ListAll(ctx context.Context) ([]*model.Category, error)
	Exists(ctx context.Context, name string) (bool, error)
	// Request records a pending category on the requester's flow state
	// and returns whether the name already exists (in which case no
	// approval round-trip is needed).
	Request(ctx context.Context, kind flow.Kind, chatID, name string) (exists bool, err error)
	Approve(ctx context.Context, adminID, name, requesterChatID string) error
	Reject(ctx context.Context, adminID, name, requesterChatID, reason string) error
	// SweepExpired clears approval waits older than ttl and notifies
	// their requesters. Returns the number of cleared records.
	SweepExpired(ctx context.Context, ttl time.Duration) (int, error)
}

type categoryUC struct {
	categories repository.CategoryRepository
	users      repository.UserRepository
	products   repository.ProductRepository
	states     repository.StateStore
	notify     adapter.NotificationPublisher
	log        *zerolog.Logger
}

func NewCategoryUseCase(categories repository.CategoryRepository, users repository.UserRepository, products repository.ProductRepository, states repository.StateStore, notify adapter.NotificationPublisher, logger *zerolog.Logger) *categoryUC {
	return &categoryUC{categories: categories, users: users, products: products, states: states, notify: notify, log: logger}
}

func (c *categoryUC) ListAll(ctx context.Context) ([]*model.Category, error) {
	return c.categories.ListAll(ctx, repository.NoTX)
}

func (c *categoryUC) Exists(ctx context.Context, name string) (bool, error) {
	_, err := c.categories.FindByName(ctx, repository.NoTX, name)
	if errors.Is(err, domain.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Request validates the proposed name and, when it is genuinely new,
// parks the requester's wizard at the approval wait with the request
// timestamp that the timeout sweep checks.
func (c *categoryUC) Request(ctx context.Context, kind flow.Kind, chatID, name string) (bool, error) {
	defer logging.TraceDuration(c.log, "CategoryUC.Request")()

	if len(name) < model.MinTitleLen || len(name) > model.MaxCategoryLen {
		return false, domain.ErrValidation
	}
	exists, err := c.Exists(ctx, name)
	if err != nil {
		return false, err
	}

	st, err := c.states.Get(ctx, kind, chatID)
	if err != nil {
		return false, err
	}
	if st == nil {
		return false, domain.ErrNotFound
	}
	if exists {
		// Nothing to approve; the wizard adopts the name directly.
		return true, nil
	}
	st.Step = flow.StepWaitCategoryApproval
	st.PendingCategory = name
	st.RequestedAt = time.Now()
	if err := c.states.Set(ctx, kind, chatID, st); err != nil {
		return false, err
	}
	metrics.IncCategoryRequest("requested")
	return false, nil
}

// Approve creates the category and resumes the requester's parked
// wizard at the stock step. When a concurrent approval of the same
// name got there first, the unique violation becomes a duplicate
// notice to the requester and the parked wizard is cleared, not
// resumed.
func (c *categoryUC) Approve(ctx context.Context, adminID, name, requesterChatID string) error {
	defer logging.TraceDuration(c.log, "CategoryUC.Approve")()

	if err := c.requireAdmin(ctx, adminID); err != nil {
		return err
	}
	cat, err := model.NewCategory(newID(), name, "")
	if err != nil {
		return err
	}
	if err := c.categories.Create(ctx, repository.NoTX, cat); err != nil {
		if !errors.Is(err, domain.ErrAlreadyExists) {
			return err
		}
		for _, kind := range []flow.Kind{flow.KindSeller, flow.KindEditProduct} {
			st, err := c.states.Get(ctx, kind, requesterChatID)
			if err != nil {
				return err
			}
			if st == nil || st.Step != flow.StepWaitCategoryApproval || st.PendingCategory != name {
				continue
			}
			if err := c.states.Clear(ctx, kind, requesterChatID); err != nil {
				return err
			}
		}
		metrics.IncCategoryRequest("duplicate")
		_ = c.notify.Publish(ctx, requesterChatID, "category_exists", map[string]string{"name": name})
		return nil
	}

	resumed := false
	for _, kind := range []flow.Kind{flow.KindSeller, flow.KindEditProduct} {
		st, err := c.states.Get(ctx, kind, requesterChatID)
		if err != nil {
			return err
		}
		if st == nil || st.Step != flow.StepWaitCategoryApproval || st.PendingCategory != name {
			continue
		}
		if kind == flow.KindSeller {
			// Resume the creation wizard at the stock step with the
			// approved category in the draft.
			st.PendingCategory = ""
			st.RequestedAt = time.Time{}
			st.Step = flow.StepStock
			if st.Draft != nil {
				st.Draft.Category = name
			}
			if err := c.states.Set(ctx, kind, requesterChatID, st); err != nil {
				return err
			}
		} else {
			// An edit ends here: apply the approved category and drop
			// the flow record.
			if st.Edit != nil {
				if prod, err := c.products.FindByID(ctx, repository.NoTX, st.Edit.ProductID); err == nil {
					prod.Category = name
					if err := c.products.Save(ctx, repository.NoTX, prod); err != nil {
						return err
					}
				} else if !errors.Is(err, domain.ErrNotFound) {
					return err
				}
			}
			if err := c.states.Clear(ctx, kind, requesterChatID); err != nil {
				return err
			}
		}
		resumed = true
	}
	if !resumed {
		c.log.Warn().Str("category", name).Str("requester", requesterChatID).Msg("approval had no waiting flow")
	}
	metrics.IncCategoryRequest("approved")
	_ = c.notify.Publish(ctx, requesterChatID, "category_approved", map[string]string{"name": name})
	return nil
}

// Reject clears the requester's parked wizard and relays the reason.
func (c *categoryUC) Reject(ctx context.Context, adminID, name, requesterChatID, reason string) error {
	defer logging.TraceDuration(c.log, "CategoryUC.Reject")()

	if err := c.requireAdmin(ctx, adminID); err != nil {
		return err
	}
	for _, kind := range []flow.Kind{flow.KindSeller, flow.KindEditProduct} {
		st, err := c.states.Get(ctx, kind, requesterChatID)
		if err != nil {
			return err
		}
		if st == nil || st.Step != flow.StepWaitCategoryApproval || st.PendingCategory != name {
			continue
		}
		if err := c.states.Clear(ctx, kind, requesterChatID); err != nil {
			return err
		}
	}
	metrics.IncCategoryRequest("rejected")
	_ = c.notify.Publish(ctx, requesterChatID, "category_rejected", map[string]string{"name": name, "reason": reason})
	return nil
}

func (c *categoryUC) SweepExpired(ctx context.Context, ttl time.Duration) (int, error) {
	cutoff := time.Now().Add(-ttl)
	cleared := 0
	for _, kind := range []flow.Kind{flow.KindSeller, flow.KindEditProduct} {
		all, err := c.states.All(ctx, kind)
		if err != nil {
			return cleared, err
		}
		for chatID, st := range all {
			if st.Step != flow.StepWaitCategoryApproval || st.RequestedAt.IsZero() || !st.RequestedAt.Before(cutoff) {
				continue
			}
			if err := c.states.Clear(ctx, kind, chatID); err != nil {
				c.log.Error().Err(err).Str("chat_id", chatID).Msg("sweep clear failed")
				continue
			}
			cleared++
			metrics.IncCategoryRequest("expired")
			_ = c.notify.Publish(ctx, chatID, "category_request_expired", map[string]string{"name": st.PendingCategory})
		}
	}
	if cleared > 0 {
		c.log.Info().Int("cleared", cleared).Msg("expired category requests swept")
	}
	return cleared, nil
}

func (c *categoryUC) requireAdmin(ctx context.Context, adminID string) error {
	u, err := c.users.FindByTelegramID(ctx, repository.NoTX, adminID)
	if err != nil {
		return err
	}
	if u.Role != model.RoleAdmin {
		return domain.ErrPermissionDenied
	}
	return nil
}
