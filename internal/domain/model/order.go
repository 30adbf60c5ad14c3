package model

import (
	"time"

	"telegram-marketplace/internal/domain"
)

type OrderStatus string

const (
	OrderPending    OrderStatus = "pending"
	OrderProcessing OrderStatus = "processing"
	OrderCompleted  OrderStatus = "completed"
	OrderCancelled  OrderStatus = "cancelled"
)

func ParseOrderStatus(s string) (OrderStatus, error) {
	switch OrderStatus(s) {
	case OrderPending, OrderProcessing, OrderCompleted, OrderCancelled:
		return OrderStatus(s), nil
	default:
		return "", domain.ErrInvalidArgument
	}
}

// Label is the human-readable status shown in notifications.
func (s OrderStatus) Label() string {
	switch s {
	case OrderPending:
		return "⏳ Pending"
	case OrderProcessing:
		return "🔄 Processing"
	case OrderCompleted:
		return "✅ Completed"
	case OrderCancelled:
		return "❌ Cancelled"
	default:
		return string(s)
	}
}

// CanTransitionTo encodes the forward-only status machine:
// pending → processing → completed, with cancellation allowed from
// pending or processing. Nothing re-enters pending.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	switch s {
	case OrderPending:
		return next == OrderProcessing || next == OrderCancelled
	case OrderProcessing:
		return next == OrderCompleted || next == OrderCancelled
	default:
		return false
	}
}

// Order records a checkout: the client, the product ids purchased (one
// unit each) and the total of their discounted prices at checkout time.
type Order struct {
	ID         string
	ClientID   string
	ProductIDs []string
	Status     OrderStatus
	TotalPrice int64
	CreatedAt  time.Time
}

func NewOrder(id, clientID string, productIDs []string, totalPrice int64) (*Order, error) {
	if id == "" || clientID == "" || len(productIDs) == 0 || totalPrice < 0 {
		return nil, domain.ErrInvalidArgument
	}
	return &Order{
		ID:         id,
		ClientID:   clientID,
		ProductIDs: productIDs,
		Status:     OrderPending,
		TotalPrice: totalPrice,
		CreatedAt:  time.Now(),
	}, nil
}

func (o *Order) IsZero() bool { return o == nil || o.ID == "" }

// ShortID is the order reference shown to users.
func (o *Order) ShortID() string {
	if len(o.ID) <= 6 {
		return o.ID
	}
	return o.ID[len(o.ID)-6:]
}
