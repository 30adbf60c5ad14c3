package repository

import (
	"context"

	"telegram-marketplace/internal/domain/flow"
)

// StateStore keeps conversational flow state keyed by (kind, chat id).
//
// Get returns (nil, nil) when no record exists, and also when the kind
// or chat id is invalid (logged by implementations, never fatal).
// Set rejects invalid kinds and empty chat ids with ErrInvalidArgument.
// Clear on an invalid key or absent record is a no-op.
// All enumerates every record of one kind, for the timeout sweep.
//
// The store enforces no TTL of its own; expiry of pending category
// approvals is an external sweep over All.
type StateStore interface {
	Get(ctx context.Context, kind flow.Kind, chatID string) (*flow.State, error)
	Set(ctx context.Context, kind flow.Kind, chatID string, st *flow.State) error
	Clear(ctx context.Context, kind flow.Kind, chatID string) error
	All(ctx context.Context, kind flow.Kind) (map[string]*flow.State, error)
}
