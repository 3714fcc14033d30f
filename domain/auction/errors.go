package auction

import "errors"

var (
	// ErrNotFound means the referenced auction id is absent from the
	// registry.
	ErrNotFound = errors.New("auction does not exist")

	// ErrClosed means the operation targets a non-open auction.
	ErrClosed = errors.New("auction is over")

	// ErrUnauthenticated means the caller's identity could not be
	// established.
	ErrUnauthenticated = errors.New("unauthenticated call")

	// ErrUnauthorized means the caller is authenticated but not allowed
	// to perform the operation (cancel is seller-only).
	ErrUnauthorized = errors.New("unauthorized call")

	// ErrInvalidQuantity rejects a creation with zero quantity.
	ErrInvalidQuantity = errors.New("quantity must be positive")
)
