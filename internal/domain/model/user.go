package model

import (
	"time"

	"telegram-marketplace/internal/domain"
)

type Role string

const (
	RoleClient Role = "client"
	RoleSeller Role = "seller"
	RoleAdmin  Role = "admin"
)

func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleClient, RoleSeller, RoleAdmin:
		return Role(s), nil
	default:
		return "", domain.ErrInvalidArgument
	}
}

// User is a marketplace participant keyed by their Telegram chat id.
// The cart is an ordered list of product ids; presence is membership,
// there is no per-item quantity.
type User struct {
	TelegramID  string
	Username    string
	FirstName   string
	Phone       string
	Role        Role
	Cart        []string
	Rating      float64
	RatingCount int
	IsActive    bool
	CreatedAt   time.Time
}

func NewUser(telegramID, username, firstName, phone string, role Role) (*User, error) {
	if telegramID == "" {
		return nil, domain.ErrInvalidArgument
	}
	if role == "" {
		role = RoleClient
	}
	if _, err := ParseRole(string(role)); err != nil {
		return nil, err
	}
	return &User{
		TelegramID: telegramID,
		Username:   username,
		FirstName:  firstName,
		Phone:      phone,
		Role:       role,
		IsActive:   true,
		CreatedAt:  time.Now(),
	}, nil
}

func (u *User) IsZero() bool { return u == nil || u.TelegramID == "" }

// DisplayName prefers the @username, falling back to the first name.
func (u *User) DisplayName() string {
	if u.Username != "" {
		return "@" + u.Username
	}
	if u.FirstName != "" {
		return u.FirstName
	}
	return "Unknown"
}

// InCart reports whether the product id is already in the cart.
func (u *User) InCart(productID string) bool {
	for _, id := range u.Cart {
		if id == productID {
			return true
		}
	}
	return false
}

// AddToCart appends the product id; adding a present id is a no-op
// and is reported as false so callers can acknowledge it distinctly.
func (u *User) AddToCart(productID string) bool {
	if u.InCart(productID) {
		return false
	}
	u.Cart = append(u.Cart, productID)
	return true
}

// RemoveFromCart filters the product id out of the cart and reports
// whether it was present.
func (u *User) RemoveFromCart(productID string) bool {
	if !u.InCart(productID) {
		return false
	}
	out := u.Cart[:0]
	for _, id := range u.Cart {
		if id != productID {
			out = append(out, id)
		}
	}
	u.Cart = out
	return true
}

func (u *User) ClearCart() { u.Cart = nil }
