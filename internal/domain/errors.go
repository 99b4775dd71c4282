package domain

import "errors"

// Validation errors are returned before anything is written to storage.
var (
	ErrInvalidQuantity   = errors.New("quantity must be at least 1")
	ErrStockExceeded     = errors.New("requested quantity exceeds available stock")
	ErrEmptyCart         = errors.New("cart is empty")
	ErrIllegalTransition = errors.New("illegal order status transition")
	ErrInvalidStatus     = errors.New("unknown order status")
	ErrInvalidContact    = errors.New("invalid contact information")
	ErrInvalidProduct    = errors.New("invalid product")
)

var (
	ErrAuth               = errors.New("invalid email or password")
	ErrForbidden          = errors.New("access denied")
	ErrNotFound           = errors.New("not found")
	ErrStorageUnavailable = errors.New("storage unavailable")
)
