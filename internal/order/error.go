package order

import "errors"

var (
	ErrOrderNotFound     = errors.New("order not found")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrInvalidTransition = errors.New("order state does not allow this transition")
	ErrWindowExpired     = errors.New("payment window has expired")
	ErrEmptyOrder        = errors.New("order has no items")
	ErrInvalidQuantity   = errors.New("quantity must be greater than zero")
	ErrInvalidMethod     = errors.New("unknown payment method")
	ErrNameRequired      = errors.New("customer name is required")
)
