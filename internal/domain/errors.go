package domain

import "errors"

// Sentinel errors for domain-level error handling.
// The handler layer maps these to HTTP status codes.
var (
	ErrInvalidShop        = errors.New("invalid_shop")
	ErrPlayerNameConflict = errors.New("player_name_conflict")
	ErrShopNotFound       = errors.New("shop_not_found")
	ErrItemNotFound       = errors.New("item_not_found")
)

// ValidationError represents a request validation failure.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}
