package model

import (
	"time"

	"telegram-marketplace/internal/domain"
)

// Category names are unique case-sensitively; uniqueness is enforced by
// the persistence layer's constraint, not by callers.
type Category struct {
	ID          string
	Name        string
	Description string
	CreatedAt   time.Time
}

func NewCategory(id, name, description string) (*Category, error) {
	if id == "" {
		return nil, domain.ErrInvalidArgument
	}
	if len(name) < MinTitleLen || len(name) > MaxCategoryLen {
		return nil, domain.ErrValidation
	}
	return &Category{
		ID:          id,
		Name:        name,
		Description: description,
		CreatedAt:   time.Now(),
	}, nil
}

func (c *Category) IsZero() bool { return c == nil || c.ID == "" }
