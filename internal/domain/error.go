package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound           = errors.New("entity not found")
	ErrAlreadyExists      = errors.New("entity already exists")
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrValidation         = errors.New("validation failed")
	ErrPermissionDenied   = errors.New("permission denied")
	ErrOutOfStock         = errors.New("product out of stock")
	ErrEmptyCart          = errors.New("cart is empty")
	ErrInvalidTransition  = errors.New("invalid order status transition")
	ErrInvalidExecContext = errors.New("invalid executor context")
)
